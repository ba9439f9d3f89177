package queue

import (
	"context"
	"time"

	"smart-planner/core/constants"
	"smart-planner/core/logger"

	"github.com/hibiken/asynq"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

func (c Config) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func NewClient(cfg Config) *asynq.Client {
	return asynq.NewClient(cfg.redisOpt())
}

func NewServer(cfg Config) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(cfg.redisOpt(), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			constants.QueueCritical: 6,
			constants.QueueDefault:  3,
		},
		ShutdownTimeout: constants.ShutdownTimeout,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("Queue:Task:Failed",
				"type", task.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	})
}

// LoggingMiddleware records the duration and outcome of every task.
func LoggingMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		started := time.Now()
		err := next.ProcessTask(ctx, t)
		if err != nil {
			return err
		}
		logger.Info("Queue:Task:Done", "type", t.Type(), "elapsed", time.Since(started).String())
		return nil
	})
}
