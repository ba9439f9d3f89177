package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"smart-planner/core/constants"
	"smart-planner/modules/planner/entity"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeApplySchedule = "planner:apply_schedule"
	TypeWeeklyDigest  = "planner:weekly_digest"
)

type ApplySchedulePayload struct {
	UserID      uuid.UUID               `json:"user_id"`
	Anchor      string                  `json:"anchor"`
	NewCalendar []entity.OptimizedEntry `json:"new_calendar"`
}

type WeeklyDigestPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Anchor string    `json:"anchor"`
}

// NewApplyScheduleTask never retries: a failed merge is reported and left for
// the user to re-run.
func NewApplyScheduleTask(p ApplySchedulePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TypeApplySchedule, err)
	}
	return asynq.NewTask(TypeApplySchedule, payload,
		asynq.Queue(constants.QueueCritical),
		asynq.MaxRetry(0),
		asynq.Timeout(5*time.Minute),
	), nil
}

// NewWeeklyDigestTask is unique per user and week so a cron overlap cannot
// double-notify.
func NewWeeklyDigestTask(p WeeklyDigestPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TypeWeeklyDigest, err)
	}
	return asynq.NewTask(TypeWeeklyDigest, payload,
		asynq.Queue(constants.QueueDefault),
		asynq.MaxRetry(3),
		asynq.Unique(24*time.Hour),
	), nil
}

func ParseApplySchedule(t *asynq.Task) (ApplySchedulePayload, error) {
	var p ApplySchedulePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", TypeApplySchedule, err)
	}
	return p, nil
}

func ParseWeeklyDigest(t *asynq.Task) (WeeklyDigestPayload, error) {
	var p WeeklyDigestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", TypeWeeklyDigest, err)
	}
	return p, nil
}
