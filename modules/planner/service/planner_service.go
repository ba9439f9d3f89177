package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smart-planner/core/cache"
	"smart-planner/core/constants"
	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/core/queue"
	"smart-planner/core/storage"
	"smart-planner/modules/planner/client"
	"smart-planner/modules/planner/dto"
	"smart-planner/modules/planner/entity"
	"smart-planner/modules/planner/mapper"
	"smart-planner/modules/planner/tasks"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const anchorLayout = "2006-01-02"

// Notifier delivers a notification to a user
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error
}

// StoreProvider resolves the event store of a user
type StoreProvider interface {
	For(ctx context.Context, userID uuid.UUID) (EventStore, error)
}

type Settings struct {
	Location          *time.Location
	WeekStart         time.Weekday
	Grid              Grid
	MergeTimeout      time.Duration
	RecommendationTTL time.Duration
}

type PlannerServiceInterface interface {
	GetWeek(ctx context.Context, userID uuid.UUID, anchor string) (*dto.WeekViewResponse, *errors.AppError)
	GetWeeklyHours(ctx context.Context, userID uuid.UUID, anchor string) (*dto.WeeklyHoursResponse, *errors.AppError)
	Recommend(ctx context.Context, userID uuid.UUID, anchor string) (*dto.RecommendationResponse, *errors.AppError)
	Apply(ctx context.Context, userID uuid.UUID, req dto.ApplyRequest) (*dto.MergeResponse, *errors.AppError)
	EnqueueApply(ctx context.Context, userID uuid.UUID, req dto.ApplyRequest) (*dto.ApplyQueuedResponse, *errors.AppError)
	ExportICS(ctx context.Context, userID uuid.UUID, anchor string) ([]byte, string, *errors.AppError)
	PublishWeek(ctx context.Context, userID uuid.UUID, anchor string) (*dto.PublishResponse, *errors.AppError)
	RunApplyTask(ctx context.Context, p tasks.ApplySchedulePayload) error
	SendWeeklyDigest(ctx context.Context, userID uuid.UUID, anchor string) error
}

type PlannerService struct {
	stores      StoreProvider
	recommender client.Recommender
	engine      *MergeEngine
	cache       cache.Cache
	publisher   storage.Publisher
	enqueuer    queue.Enqueuer
	notifier    Notifier
	settings    Settings
	now         func() time.Time
}

type PlannerServiceDeps struct {
	Stores      StoreProvider
	Recommender client.Recommender
	Engine      *MergeEngine
	Cache       cache.Cache
	Publisher   storage.Publisher
	Enqueuer    queue.Enqueuer
	Notifier    Notifier
	Settings    Settings
	Now         func() time.Time
}

func NewPlannerService(deps PlannerServiceDeps) *PlannerService {
	s := deps.Settings
	if s.Location == nil {
		s.Location = time.UTC
	}
	if s.Grid == (Grid{}) {
		s.Grid = DefaultGrid
	}
	if s.MergeTimeout <= 0 {
		s.MergeTimeout = time.Minute
	}
	if s.RecommendationTTL <= 0 {
		s.RecommendationTTL = 6 * time.Hour
	}
	if deps.Engine == nil {
		deps.Engine = NewMergeEngine(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &PlannerService{
		stores:      deps.Stores,
		recommender: deps.Recommender,
		engine:      deps.Engine,
		cache:       deps.Cache,
		publisher:   deps.Publisher,
		enqueuer:    deps.Enqueuer,
		notifier:    deps.Notifier,
		settings:    s,
		now:         deps.Now,
	}
}

// ParseAnchor reads YYYY-MM-DD (or RFC 3339) in the planner location. Empty
// means today.
func (s *PlannerService) ParseAnchor(raw string) (time.Time, *errors.AppError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now().In(s.settings.Location), nil
	}
	if t, err := time.ParseInLocation(anchorLayout, raw, s.settings.Location); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(s.settings.Location), nil
	}
	return time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "anchor must be a date in YYYY-MM-DD form", nil)
}

func (s *PlannerService) storeFor(ctx context.Context, userID uuid.UUID) (EventStore, *errors.AppError) {
	store, err := s.stores.For(ctx, userID)
	if err != nil {
		return nil, asAppError(err, errors.ErrInternalServer, "failed to open event store")
	}
	return store, nil
}

// displayEvents reads for rendering: a stale snapshot or, failing that, nothing
// plus a warning.
func (s *PlannerService) displayEvents(ctx context.Context, userID uuid.UUID) ([]entity.Event, bool, string, *errors.AppError) {
	store, appErr := s.storeFor(ctx, userID)
	if appErr != nil {
		return nil, false, "", appErr
	}
	events, stale, err := ListForDisplay(ctx, store)
	if err != nil {
		logger.Warn("PlannerService:DisplayEvents:Fallback", "user_id", userID, "error", err)
		return nil, false, "Events could not be loaded. Please try again later.", nil
	}
	warning := ""
	if stale {
		warning = "Showing the last saved copy of your calendar."
	}
	return events, stale, warning, nil
}

func (s *PlannerService) GetWeek(ctx context.Context, userID uuid.UUID, anchor string) (*dto.WeekViewResponse, *errors.AppError) {
	at, appErr := s.ParseAnchor(anchor)
	if appErr != nil {
		return nil, appErr
	}
	events, stale, warning, appErr := s.displayEvents(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}

	view := BuildWeekView(events, at, s.settings.Grid, s.settings.WeekStart)
	res := mapper.ToWeekViewResponse(view)
	res.Stale = stale
	res.Warning = warning
	return res, nil
}

func (s *PlannerService) GetWeeklyHours(ctx context.Context, userID uuid.UUID, anchor string) (*dto.WeeklyHoursResponse, *errors.AppError) {
	at, appErr := s.ParseAnchor(anchor)
	if appErr != nil {
		return nil, appErr
	}
	events, _, _, appErr := s.displayEvents(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}
	res := s.hoursResponse(events, at)
	return &res, nil
}

func (s *PlannerService) hoursResponse(events []entity.Event, at time.Time) dto.WeeklyHoursResponse {
	start, end := WeekBounds(at, s.settings.WeekStart)
	return mapper.ToWeeklyHoursResponse(entity.WeekView{
		WeekStart: start,
		WeekEnd:   end,
		Summary:   ComputeWeeklyHours(events, at, s.settings.WeekStart),
	})
}

func (s *PlannerService) recommendationKey(userID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s%s:%s", constants.RedisKeyRecommendation, userID, StartOfWeek(at, s.settings.WeekStart).Format(anchorLayout))
}

func (s *PlannerService) Recommend(ctx context.Context, userID uuid.UUID, anchor string) (*dto.RecommendationResponse, *errors.AppError) {
	at, appErr := s.ParseAnchor(anchor)
	if appErr != nil {
		return nil, appErr
	}
	store, appErr := s.storeFor(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}
	events, err := store.List(ctx)
	if err != nil {
		return nil, asAppError(err, errors.ErrTransport, "failed to load events")
	}

	rec, err := s.recommender.Reschedule(ctx, EventsInWeek(events, at, s.settings.WeekStart))
	if err != nil {
		return nil, asAppError(err, errors.ErrTransport, "failed to fetch recommendations")
	}

	res := &dto.RecommendationResponse{
		Anchor:      at.Format(anchorLayout),
		Suggestion:  rec.Suggestion,
		NewCalendar: mapper.ToOptimizedEntryDTOs(rec.NewCalendar),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, s.recommendationKey(userID, at), res, s.settings.RecommendationTTL); err != nil {
			logger.Warn("PlannerService:Recommend:CacheSet", "user_id", userID, "error", err)
		}
	}
	logger.Info("PlannerService:Recommend:Success", "user_id", userID, "proposed", len(res.NewCalendar))
	return res, nil
}

// proposedEntries uses the request's list when given (an empty list is a valid
// "no change"), else the cached recommendation for the week.
func (s *PlannerService) proposedEntries(ctx context.Context, userID uuid.UUID, at time.Time, req dto.ApplyRequest) ([]entity.OptimizedEntry, *errors.AppError) {
	if req.NewCalendar != nil {
		return dto.ToEntries(req.NewCalendar), nil
	}
	if s.cache != nil {
		var cached dto.RecommendationResponse
		ok, err := s.cache.Get(ctx, s.recommendationKey(userID, at), &cached)
		if err != nil {
			logger.Warn("PlannerService:Apply:CacheGet", "user_id", userID, "error", err)
		}
		if ok {
			return dto.ToEntries(cached.NewCalendar), nil
		}
	}
	return nil, errors.NewAppError(errors.ErrInvalidInput, "no recommendation to apply for this week", nil)
}

// Apply merges a proposed schedule into the user's store. The merge runs to
// completion even if the caller goes away, bounded by the merge timeout. A
// partial failure returns both the response and an error.
func (s *PlannerService) Apply(ctx context.Context, userID uuid.UUID, req dto.ApplyRequest) (*dto.MergeResponse, *errors.AppError) {
	at, appErr := s.ParseAnchor(req.Anchor)
	if appErr != nil {
		return nil, appErr
	}
	proposed, appErr := s.proposedEntries(ctx, userID, at, req)
	if appErr != nil {
		return nil, appErr
	}

	if s.cache != nil {
		lockKey := constants.RedisKeyMergeLock + userID.String()
		ok, err := s.cache.AcquireLock(ctx, lockKey, s.settings.MergeTimeout+30*time.Second)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to acquire merge lock", err)
		}
		if !ok {
			return nil, errors.NewAppError(errors.ErrConflict, "a schedule is already being applied", nil)
		}
		defer func() {
			if err := s.cache.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
				logger.Warn("PlannerService:Apply:ReleaseLock", "user_id", userID, "error", err)
			}
		}()
	}

	mergeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.MergeTimeout)
	defer cancel()

	store, appErr := s.storeFor(mergeCtx, userID)
	if appErr != nil {
		return nil, appErr
	}
	all, err := store.List(mergeCtx)
	if err != nil {
		return nil, asAppError(err, errors.ErrTransport, "failed to load current events")
	}
	// match against every stored event; events outside the week must update, not duplicate
	result, mergeErr := s.engine.ApplyOptimizedSchedule(mergeCtx, store, all, proposed)

	message := fmt.Sprintf("Schedule applied: %d updated, %d created", result.Updated, result.Created)
	if len(proposed) == 0 {
		message = "No changes needed"
	}
	if mergeErr != nil {
		message = asAppError(mergeErr, errors.ErrInternalServer, "failed to apply schedule").Message
	}

	res := mapper.ToMergeResponse(result, message)
	if result.ReloadErr == nil {
		hours := s.hoursResponse(result.Snapshot, at)
		res.Hours = &hours
	}

	if mergeErr != nil {
		logger.Warn("PlannerService:Apply:Partial", "user_id", userID, "batch", result.BatchID, "error", mergeErr)
		return res, asAppError(mergeErr, errors.ErrPartialMerge, message)
	}

	if s.cache != nil && req.NewCalendar == nil {
		_ = s.cache.Delete(ctx, s.recommendationKey(userID, at))
	}
	logger.Info("PlannerService:Apply:Success", "user_id", userID, "batch", result.BatchID)
	return res, nil
}

func (s *PlannerService) EnqueueApply(ctx context.Context, userID uuid.UUID, req dto.ApplyRequest) (*dto.ApplyQueuedResponse, *errors.AppError) {
	if s.enqueuer == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "background jobs are not configured", nil)
	}
	at, appErr := s.ParseAnchor(req.Anchor)
	if appErr != nil {
		return nil, appErr
	}

	payload := tasks.ApplySchedulePayload{UserID: userID, Anchor: at.Format(anchorLayout)}
	if req.NewCalendar != nil {
		payload.NewCalendar = dto.ToEntries(req.NewCalendar)
	}
	task, err := tasks.NewApplyScheduleTask(payload)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to build apply task", err)
	}
	info, err := s.enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		logger.Error("PlannerService:EnqueueApply:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to queue schedule apply", err)
	}
	return &dto.ApplyQueuedResponse{TaskID: info.ID, Queue: info.Queue}, nil
}

// RunApplyTask is the worker side of EnqueueApply. The outcome is delivered as
// a notification.
func (s *PlannerService) RunApplyTask(ctx context.Context, p tasks.ApplySchedulePayload) error {
	req := dto.ApplyRequest{Anchor: p.Anchor}
	if p.NewCalendar != nil {
		req.NewCalendar = mapper.ToOptimizedEntryDTOs(p.NewCalendar)
	}

	res, appErr := s.Apply(ctx, p.UserID, req)
	if res != nil {
		title := "Your schedule was updated"
		if !res.Success {
			title = "Your schedule was only partly updated"
		}
		s.notify(ctx, p.UserID, "schedule_applied", title, res.Message, map[string]any{
			"batch_id": res.BatchID,
			"created":  res.Created,
			"updated":  res.Updated,
			"failed":   res.Failed,
		})
	} else if appErr != nil {
		s.notify(ctx, p.UserID, "schedule_apply_failed", "Your schedule could not be updated", appErr.Message, nil)
	}
	if appErr != nil {
		return appErr
	}
	return nil
}

func (s *PlannerService) ExportICS(ctx context.Context, userID uuid.UUID, anchor string) ([]byte, string, *errors.AppError) {
	at, appErr := s.ParseAnchor(anchor)
	if appErr != nil {
		return nil, "", appErr
	}
	store, appErr := s.storeFor(ctx, userID)
	if appErr != nil {
		return nil, "", appErr
	}
	events, _, err := ListForDisplay(ctx, store)
	if err != nil {
		return nil, "", asAppError(err, errors.ErrTransport, "failed to load events")
	}

	body := ExportWeekICS(events, at, s.settings.WeekStart, s.now())
	name := slug.Make(fmt.Sprintf("week of %s", StartOfWeek(at, s.settings.WeekStart).Format(anchorLayout))) + ".ics"
	return []byte(body), name, nil
}

func (s *PlannerService) PublishWeek(ctx context.Context, userID uuid.UUID, anchor string) (*dto.PublishResponse, *errors.AppError) {
	if s.publisher == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "publishing is not configured", nil)
	}
	body, name, appErr := s.ExportICS(ctx, userID, anchor)
	if appErr != nil {
		return nil, appErr
	}

	key := fmt.Sprintf("calendars/%s/%s", userID, name)
	url, err := s.publisher.Publish(ctx, key, "text/calendar; charset=utf-8", body)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrTransport, "failed to publish calendar", err)
	}
	return &dto.PublishResponse{URL: url, Key: key}, nil
}

func (s *PlannerService) SendWeeklyDigest(ctx context.Context, userID uuid.UUID, anchor string) error {
	at, appErr := s.ParseAnchor(anchor)
	if appErr != nil {
		return appErr
	}
	store, appErr := s.storeFor(ctx, userID)
	if appErr != nil {
		return appErr
	}
	events, err := store.List(ctx)
	if err != nil {
		return err
	}

	h := ComputeWeeklyHours(events, at, s.settings.WeekStart)
	if !h.HasEvents() || s.notifier == nil {
		logger.Debug("PlannerService:WeeklyDigest:Skip", "user_id", userID)
		return nil
	}

	start := StartOfWeek(at, s.settings.WeekStart)
	title := fmt.Sprintf("Week of %s: %.1fh planned", start.Format("Jan 2"), h.Categorized())
	message := fmt.Sprintf("Focus %.1fh, Tasks %.1fh, Focus target %.1fh, Other work %.1fh, Free %.1fh",
		h.Focus, h.Tasks, h.Target, h.Other, h.Free)
	return s.notifier.Notify(ctx, userID, "weekly_digest", title, message, map[string]any{
		"week_start": start.Format(anchorLayout),
		"focus":      h.Focus,
		"tasks":      h.Tasks,
		"target":     h.Target,
		"other":      h.Other,
		"free":       h.Free,
	})
}

func (s *PlannerService) notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), userID, kind, title, message, data); err != nil {
		logger.Warn("PlannerService:Notify:Error", "user_id", userID, "kind", kind, "error", err)
	}
}

// asAppError keeps an AppError from deeper layers and wraps anything else
func asAppError(err error, code errors.ErrorCode, message string) *errors.AppError {
	var ae *errors.AppError
	if errors.As(err, &ae) && ae != nil {
		return ae
	}
	return errors.NewAppError(code, message, err)
}
