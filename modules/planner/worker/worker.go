package worker

import (
	"context"
	"fmt"
	"time"

	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/core/queue"
	"smart-planner/modules/planner/service"
	"smart-planner/modules/planner/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// UserLister returns the users that have at least one stored event
type UserLister interface {
	ListUserIDsWithEvents(ctx context.Context) ([]uuid.UUID, error)
}

type Handlers struct {
	planner service.PlannerServiceInterface
}

func NewHandlers(planner service.PlannerServiceInterface) *Handlers {
	return &Handlers{planner: planner}
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeApplySchedule, h.HandleApplySchedule)
	mux.HandleFunc(tasks.TypeWeeklyDigest, h.HandleWeeklyDigest)
}

func (h *Handlers) HandleApplySchedule(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseApplySchedule(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	logger.Info("Worker:ApplySchedule:Start", "user_id", p.UserID, "anchor", p.Anchor)
	return h.planner.RunApplyTask(ctx, p)
}

func (h *Handlers) HandleWeeklyDigest(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseWeeklyDigest(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := h.planner.SendWeeklyDigest(ctx, p.UserID, p.Anchor); err != nil {
		// a bad anchor will not get better on retry
		if errors.HasCode(err, errors.ErrInvalidInput) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// DigestScheduler enqueues one weekly digest task per user on a cron schedule
type DigestScheduler struct {
	cron     *cron.Cron
	users    UserLister
	enqueuer queue.Enqueuer
	loc      *time.Location
	now      func() time.Time
}

func NewDigestScheduler(spec string, loc *time.Location, users UserLister, enqueuer queue.Enqueuer) (*DigestScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &DigestScheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		users:    users,
		enqueuer: enqueuer,
		loc:      loc,
		now:      time.Now,
	}
	_, err := s.cron.AddFunc(spec, func() {
		n, err := s.EnqueueDigests(context.Background())
		if err != nil {
			logger.Error("DigestScheduler:Run:Error", "error", err)
			return
		}
		logger.Info("DigestScheduler:Run:Done", "enqueued", n)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return s, nil
}

// EnqueueDigests queues a digest for every user with events. Tasks already
// queued for the same user and week are skipped.
func (s *DigestScheduler) EnqueueDigests(ctx context.Context) (int, error) {
	ids, err := s.users.ListUserIDsWithEvents(ctx)
	if err != nil {
		return 0, err
	}

	anchor := s.now().In(s.loc).Format("2006-01-02")
	enqueued := 0
	for _, id := range ids {
		task, err := tasks.NewWeeklyDigestTask(tasks.WeeklyDigestPayload{UserID: id, Anchor: anchor})
		if err != nil {
			return enqueued, err
		}
		if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			logger.Warn("DigestScheduler:Enqueue:Error", "user_id", id, "error", err)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

func (s *DigestScheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and returns a context that is done once a running
// job has finished.
func (s *DigestScheduler) Stop() context.Context {
	return s.cron.Stop()
}
