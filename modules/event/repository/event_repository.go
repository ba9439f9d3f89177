package repository

import (
	"context"
	"database/sql"
	"time"

	"smart-planner/core/database"
	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/modules/event/entity"

	"github.com/google/uuid"
)

const eventColumns = `id, user_id, title, description, start_time, end_time, all_day, location, type, created_at, updated_at`

// EventRepository handles the events table
type EventRepository struct {
	DB database.Database
}

func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{DB: db}
}

type EventRepositoryInterface interface {
	Create(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Event, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error)
	ListInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Event, error)
	Update(ctx context.Context, event *entity.Event) (bool, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	ListUserIDsWithEvents(ctx context.Context) ([]uuid.UUID, error)
}

// Create assigns the id and timestamps and inserts the row. Times are stored in UTC.
func (r *EventRepository) Create(ctx context.Context, event *entity.Event) error {
	now := time.Now().UTC()
	event.ID = uuid.New()
	event.CreatedAt, event.UpdatedAt = now, now
	event.StartTime, event.EndTime = event.StartTime.UTC(), event.EndTime.UTC()

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := r.DB.ExecContext(ctx, query,
		event.ID, event.UserID, event.Title, event.Description, event.StartTime, event.EndTime,
		event.AllDay, event.Location, event.Type, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		logger.Error("EventRepository:Create", err)
		return err
	}
	return nil
}

// GetByID returns nil, nil when the event does not exist or belongs to another user
func (r *EventRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ? AND user_id = ?`

	var event entity.Event
	err := r.DB.GetContext(ctx, &event, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("EventRepository:GetByID", err)
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = ?
		ORDER BY start_time, created_at
	`

	events := []entity.Event{}
	if err := r.DB.SelectContext(ctx, &events, query, userID); err != nil {
		logger.Error("EventRepository:ListByUser", err)
		return nil, err
	}
	return events, nil
}

// ListInWindow returns events whose start lies in [from, to)
func (r *EventRepository) ListInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time, created_at
	`

	events := []entity.Event{}
	if err := r.DB.SelectContext(ctx, &events, query, userID, from.UTC(), to.UTC()); err != nil {
		logger.Error("EventRepository:ListInWindow", err)
		return nil, err
	}
	return events, nil
}

// Update overwrites the editable fields. It reports false when no row matched.
func (r *EventRepository) Update(ctx context.Context, event *entity.Event) (bool, error) {
	event.UpdatedAt = time.Now().UTC()
	event.StartTime, event.EndTime = event.StartTime.UTC(), event.EndTime.UTC()

	query := `
		UPDATE events
		SET title = ?, description = ?, start_time = ?, end_time = ?, all_day = ?,
		    location = ?, type = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := r.DB.ExecResultContext(ctx, query,
		event.Title, event.Description, event.StartTime, event.EndTime, event.AllDay,
		event.Location, event.Type, event.UpdatedAt, event.ID, event.UserID)
	if err != nil {
		logger.Error("EventRepository:Update", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *EventRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res, err := r.DB.ExecResultContext(ctx, `DELETE FROM events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		logger.Error("EventRepository:Delete", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *EventRepository) ListUserIDsWithEvents(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.DB.SelectContext(ctx, &ids, `SELECT DISTINCT user_id FROM events ORDER BY user_id`); err != nil {
		logger.Error("EventRepository:ListUserIDsWithEvents", err)
		return nil, err
	}
	return ids, nil
}
