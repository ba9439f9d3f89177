package service

import (
	"context"
	"strings"
	"time"

	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/modules/event/dto"
	"smart-planner/modules/event/mapper"
	"smart-planner/modules/event/repository"
	plannerClient "smart-planner/modules/planner/client"
	plannerEntity "smart-planner/modules/planner/entity"

	"github.com/google/uuid"
)

type EventServiceInterface interface {
	GetTasks(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError)
	GetTasksByTime(ctx context.Context, userID uuid.UUID, req *dto.TimeWindowRequest) ([]dto.EventResponse, *errors.AppError)
	CreateTask(ctx context.Context, userID uuid.UUID, req *dto.EventRequest) (*dto.EventResponse, *errors.AppError)
	UpdateTask(ctx context.Context, userID uuid.UUID, id string, req *dto.EventRequest) (*dto.EventResponse, *errors.AppError)
	DeleteTask(ctx context.Context, userID uuid.UUID, id string) *errors.AppError
	ListUserIDsWithEvents(ctx context.Context) ([]uuid.UUID, error)
}

type EventService struct {
	repo repository.EventRepositoryInterface
	loc  *time.Location
}

func NewEventService(repo repository.EventRepositoryInterface, loc *time.Location) *EventService {
	if loc == nil {
		loc = time.UTC
	}
	return &EventService{repo: repo, loc: loc}
}

// Store returns the user's events as a planner event store
func (s *EventService) Store(userID uuid.UUID) *LocalStore {
	return &LocalStore{repo: s.repo, userID: userID}
}

func (s *EventService) GetTasks(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError) {
	events, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get events", err)
	}
	return mapper.ToEventResponses(events), nil
}

func (s *EventService) GetTasksByTime(ctx context.Context, userID uuid.UUID, req *dto.TimeWindowRequest) ([]dto.EventResponse, *errors.AppError) {
	from, err := plannerClient.ParseTime(req.StartTime, s.loc)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid start_time format", err)
	}
	to, err := plannerClient.ParseTime(req.EndTime, s.loc)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid end_time format", err)
	}
	if !to.After(from) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end_time must be after start_time", nil)
	}

	events, err := s.repo.ListInWindow(ctx, userID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get events", err)
	}
	return mapper.ToEventResponses(events), nil
}

func (s *EventService) CreateTask(ctx context.Context, userID uuid.UUID, req *dto.EventRequest) (*dto.EventResponse, *errors.AppError) {
	draft, appErr := s.draftFrom(req)
	if appErr != nil {
		return nil, appErr
	}

	ev, err := s.Store(userID).Create(ctx, draft)
	if err != nil {
		return nil, toAppError(err, errors.ErrCreateFailed, "Failed to create event")
	}

	logger.Info("EventService:CreateTask:Success", "user_id", userID, "event_id", ev.ID)
	res := mapper.FromPlannerEvent(ev)
	return &res, nil
}

func (s *EventService) UpdateTask(ctx context.Context, userID uuid.UUID, id string, req *dto.EventRequest) (*dto.EventResponse, *errors.AppError) {
	draft, appErr := s.draftFrom(req)
	if appErr != nil {
		return nil, appErr
	}

	ev, err := s.Store(userID).Update(ctx, id, draft)
	if err != nil {
		return nil, toAppError(err, errors.ErrUpdateFailed, "Failed to update event")
	}

	res := mapper.FromPlannerEvent(ev)
	return &res, nil
}

func (s *EventService) DeleteTask(ctx context.Context, userID uuid.UUID, id string) *errors.AppError {
	if strings.TrimSpace(id) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "event_id is required", nil)
	}
	if err := s.Store(userID).Delete(ctx, id); err != nil {
		return toAppError(err, errors.ErrDeleteFailed, "Failed to delete event")
	}
	logger.Info("EventService:DeleteTask:Success", "user_id", userID, "event_id", id)
	return nil
}

func (s *EventService) ListUserIDsWithEvents(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListUserIDsWithEvents(ctx)
}

func (s *EventService) draftFrom(req *dto.EventRequest) (plannerEntity.EventDraft, *errors.AppError) {
	start, err := plannerClient.ParseTime(req.StartTime, s.loc)
	if err != nil {
		return plannerEntity.EventDraft{}, errors.NewAppError(errors.ErrInvalidInput, "Invalid start_time format", err)
	}
	end, err := plannerClient.ParseTime(req.EndTime, s.loc)
	if err != nil {
		return plannerEntity.EventDraft{}, errors.NewAppError(errors.ErrInvalidInput, "Invalid end_time format", err)
	}

	draft := plannerEntity.EventDraft{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Start:       start,
		End:         end,
		Location:    req.Location,
		Category:    plannerEntity.Category(req.Type),
		AllDay:      req.AllDay,
	}
	if appErr := draft.Validate(); appErr != nil {
		return draft, appErr
	}
	return draft, nil
}

// LocalStore is one user's view of the events table
type LocalStore struct {
	repo   repository.EventRepositoryInterface
	userID uuid.UUID
}

func (s *LocalStore) List(ctx context.Context) ([]plannerEntity.Event, error) {
	rows, err := s.repo.ListByUser(ctx, s.userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrTransport, "failed to load events", err)
	}
	return mapper.ToPlannerEvents(rows), nil
}

func (s *LocalStore) Create(ctx context.Context, draft plannerEntity.EventDraft) (plannerEntity.Event, error) {
	if appErr := draft.Validate(); appErr != nil {
		return plannerEntity.Event{}, appErr
	}

	row := mapper.FromDraft(s.userID, draft)
	if err := s.repo.Create(ctx, &row); err != nil {
		return plannerEntity.Event{}, errors.NewAppError(errors.ErrCreateFailed, "failed to create event", err)
	}
	return mapper.ToPlannerEvent(row), nil
}

func (s *LocalStore) Update(ctx context.Context, id string, draft plannerEntity.EventDraft) (plannerEntity.Event, error) {
	if appErr := draft.Validate(); appErr != nil {
		return plannerEntity.Event{}, appErr
	}
	eventID, err := uuid.Parse(id)
	if err != nil {
		return plannerEntity.Event{}, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	existing, err := s.repo.GetByID(ctx, s.userID, eventID)
	if err != nil {
		return plannerEntity.Event{}, errors.NewAppError(errors.ErrUpdateFailed, "failed to load event", err)
	}
	if existing == nil {
		return plannerEntity.Event{}, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	row := mapper.FromDraft(s.userID, draft)
	row.ID = eventID
	row.CreatedAt = existing.CreatedAt
	found, err := s.repo.Update(ctx, &row)
	if err != nil {
		return plannerEntity.Event{}, errors.NewAppError(errors.ErrUpdateFailed, "failed to update event", err)
	}
	if !found {
		return plannerEntity.Event{}, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return mapper.ToPlannerEvent(row), nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) error {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	found, err := s.repo.Delete(ctx, s.userID, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrDeleteFailed, "failed to delete event", err)
	}
	if !found {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return nil
}

func toAppError(err error, code errors.ErrorCode, message string) *errors.AppError {
	var ae *errors.AppError
	if errors.As(err, &ae) && ae != nil {
		return ae
	}
	return errors.NewAppError(code, message, err)
}
