package server

import (
	"context"

	"smart-planner/core/config"
	"smart-planner/core/logger"
	"smart-planner/core/queue"
	"smart-planner/modules/planner/worker"

	"github.com/hibiken/asynq"
)

// RunWorker processes queued planner tasks and runs the digest schedule
// until ctx is cancelled.
func RunWorker(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg, Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	mux := asynq.NewServeMux()
	mux.Use(queue.LoggingMiddleware)
	worker.NewHandlers(app.Planner).Register(mux)

	scheduler, err := worker.NewDigestScheduler(cfg.Planner.DigestCron, cfg.Planner.Location(), app.Events, app.Queue)
	if err != nil {
		return err
	}

	srv := queue.NewServer(app.queueConfig())
	if err := srv.Start(mux); err != nil {
		return err
	}
	scheduler.Start()
	logger.Info("Worker:Start", "digest_cron", cfg.Planner.DigestCron)

	<-ctx.Done()

	logger.Info("Worker:Shutdown:Start")
	<-scheduler.Stop().Done()
	srv.Shutdown()
	logger.Info("Worker:Shutdown:Done")
	return nil
}
