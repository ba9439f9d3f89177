package service

import (
	"context"

	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/core/params"
	"smart-planner/modules/notification/dto"
	"smart-planner/modules/notification/entity"
	"smart-planner/modules/notification/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	if req.UserID == uuid.Nil || req.Title == "" || req.Type == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "user, title and type are required", nil)
	}
	notif := &entity.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    entity.JSONB(req.Data),
	}
	if err := s.repo.Create(ctx, notif); err != nil {
		return errors.NewAppError(errors.ErrCreateFailed, "Failed to create notification", err)
	}
	return nil
}

// Notify records an in-app notification for the planner's background jobs
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error {
	err := s.Create(ctx, &dto.CreateNotificationRequest{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
		Data:    data,
	})
	if err != nil {
		logger.Error("NotificationService:Notify:Error", "user_id", userID, "type", kind, "error", err)
	}
	return err
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return errors.NewAppError(errors.ErrInvalidInput, "invalid notification id "+id, err)
		}
	}
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
