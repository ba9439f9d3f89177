package repository

import (
	"context"
	"time"

	"smart-planner/core/database"
	"smart-planner/core/entity"
	"smart-planner/core/logger"
	"smart-planner/core/params"
	notificationEntity "smart-planner/modules/notification/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NotificationRepository struct {
	db database.Database
}

func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *notificationEntity.Notification) error {
	now := time.Now().UTC()
	notification.ID = uuid.New()
	notification.CreatedAt, notification.UpdatedAt = now, now
	if notification.Data == nil {
		notification.Data = notificationEntity.JSONB{}
	}

	query := `
		INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at, updated_at)
		VALUES (:id, :user_id, :type, :title, :message, :data, :is_read, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		logger.Error("NotificationRepository:Create:Error:", err)
		return err
	}
	return nil
}

func (r *NotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, params params.QueryParams) (*notificationEntity.PaginatedNotificationEntity, error) {
	baseQuery := `FROM notifications WHERE user_id = ?`

	var totalItems int
	err := r.db.GetContext(ctx, &totalItems, "SELECT COUNT(*) "+baseQuery, userID)
	if err != nil {
		logger.Error("NotificationRepository:GetByUserID:Count:Error:", err)
		return nil, err
	}

	query := `
		SELECT id, user_id, type, title, message, data, is_read, created_at, updated_at ` + baseQuery + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	var notifications []notificationEntity.Notification
	err = r.db.SelectContext(ctx, &notifications, query, userID, params.PageSize, params.Offset())
	if err != nil {
		logger.Error("NotificationRepository:GetByUserID:Select:Error:", err)
		return nil, err
	}

	return entity.NewPagination(notifications, totalItems, params.PageNumber, params.PageSize), nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`UPDATE notifications SET is_read = ?, updated_at = ? WHERE user_id = ? AND id IN (?)`,
		true, time.Now().UTC(), userID, ids)
	if err != nil {
		return err
	}

	if err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("NotificationRepository:MarkAsRead:Error:", err)
		return err
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = ?, updated_at = ? WHERE user_id = ? AND is_read = ?`
	if err := r.db.ExecContext(ctx, query, true, time.Now().UTC(), userID, false); err != nil {
		logger.Error("NotificationRepository:MarkAllAsRead:Error:", err)
		return err
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`
	if err := r.db.GetContext(ctx, &count, query, userID, false); err != nil {
		logger.Error("NotificationRepository:CountUnread:Error:", err)
		return 0, err
	}
	return count, nil
}
