package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"smart-planner/core/database"
	"smart-planner/core/errors"
	"smart-planner/modules/event/dto"
	"smart-planner/modules/event/repository"
	plannerEntity "smart-planner/modules/planner/entity"
	plannerService "smart-planner/modules/planner/service"

	"github.com/google/uuid"
)

func newTestService(t *testing.T) *EventService {
	t.Helper()
	db, err := database.InitDB(database.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "events.db"),
	})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewEventService(repository.NewEventRepository(db), time.UTC)
}

func TestCreateAndUpdateTask(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user := uuid.New()

	created, appErr := svc.CreateTask(ctx, user, &dto.EventRequest{
		Title:     "Standup",
		StartTime: "2024-03-05T09:00:00",
		EndTime:   "2024-03-05T09:30:00",
	})
	if appErr != nil {
		t.Fatalf("CreateTask: %v", appErr)
	}
	if created.Type != "other" {
		t.Errorf("type = %q, want other", created.Type)
	}

	updated, appErr := svc.UpdateTask(ctx, user, created.ID, &dto.EventRequest{
		Title:     "Standup",
		StartTime: "2024-03-05T10:00:00Z",
		EndTime:   "2024-03-05T10:30:00Z",
		Type:      "tasks",
	})
	if appErr != nil {
		t.Fatalf("UpdateTask: %v", appErr)
	}
	if updated.ID != created.ID || updated.Type != "tasks" || updated.StartTime.Hour() != 10 {
		t.Errorf("updated = %+v", updated)
	}

	all, appErr := svc.GetTasks(ctx, user)
	if appErr != nil || len(all) != 1 {
		t.Fatalf("GetTasks = %v, %v", all, appErr)
	}
}

func TestTaskValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user := uuid.New()

	tests := []struct {
		name string
		req  dto.EventRequest
	}{
		{"blank title", dto.EventRequest{Title: "  ", StartTime: "2024-03-05T09:00:00Z", EndTime: "2024-03-05T10:00:00Z"}},
		{"end before start", dto.EventRequest{Title: "x", StartTime: "2024-03-05T10:00:00Z", EndTime: "2024-03-05T09:00:00Z"}},
		{"bad time", dto.EventRequest{Title: "x", StartTime: "tomorrow", EndTime: "2024-03-05T09:00:00Z"}},
		{"unknown type", dto.EventRequest{Title: "x", StartTime: "2024-03-05T09:00:00Z", EndTime: "2024-03-05T10:00:00Z", Type: "Focus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, appErr := svc.CreateTask(ctx, user, &tt.req)
			if appErr == nil || appErr.Code != errors.ErrInvalidInput {
				t.Fatalf("err = %v, want INVALID_INPUT", appErr)
			}
		})
	}

	all, _ := svc.GetTasks(ctx, user)
	if len(all) != 0 {
		t.Errorf("invalid requests reached the store: %+v", all)
	}
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user := uuid.New()
	req := &dto.EventRequest{Title: "x", StartTime: "2024-03-05T09:00:00Z", EndTime: "2024-03-05T10:00:00Z"}

	if _, appErr := svc.UpdateTask(ctx, user, uuid.NewString(), req); appErr == nil || appErr.Code != errors.ErrNotFound {
		t.Errorf("UpdateTask = %v", appErr)
	}
	if _, appErr := svc.UpdateTask(ctx, user, "not-a-uuid", req); appErr == nil || appErr.Code != errors.ErrNotFound {
		t.Errorf("UpdateTask(bad id) = %v", appErr)
	}
	if appErr := svc.DeleteTask(ctx, user, uuid.NewString()); appErr == nil || appErr.Code != errors.ErrNotFound {
		t.Errorf("DeleteTask = %v", appErr)
	}
	if appErr := svc.DeleteTask(ctx, user, ""); appErr == nil || appErr.Code != errors.ErrInvalidInput {
		t.Errorf("DeleteTask(empty) = %v", appErr)
	}
}

func TestGetTasksByTime(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user := uuid.New()

	for _, start := range []string{"2024-03-04T09:00:00Z", "2024-03-12T09:00:00Z"} {
		end := start[:11] + "10:00:00Z"
		if _, appErr := svc.CreateTask(ctx, user, &dto.EventRequest{Title: "x", StartTime: start, EndTime: end}); appErr != nil {
			t.Fatal(appErr)
		}
	}

	got, appErr := svc.GetTasksByTime(ctx, user, &dto.TimeWindowRequest{StartTime: "2024-03-03T00:00:00Z", EndTime: "2024-03-10T00:00:00Z"})
	if appErr != nil || len(got) != 1 {
		t.Fatalf("GetTasksByTime = %v, %v", got, appErr)
	}

	_, appErr = svc.GetTasksByTime(ctx, user, &dto.TimeWindowRequest{StartTime: "2024-03-10T00:00:00Z", EndTime: "2024-03-03T00:00:00Z"})
	if appErr == nil {
		t.Error("expected an error for an inverted window")
	}
}

// The merge engine runs against the events table through LocalStore.
func TestLocalStoreMerge(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user := uuid.New()
	store := svc.Store(user)

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	standup, err := store.Create(ctx, plannerEntity.EventDraft{Title: "Standup", Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute), Category: plannerEntity.CategoryTasks})
	if err != nil {
		t.Fatal(err)
	}

	current, _ := store.List(ctx)
	res, err := plannerService.NewMergeEngine(nil).ApplyOptimizedSchedule(ctx, store, current, []plannerEntity.OptimizedEntry{
		{Title: "Standup", Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
		{Title: "Review", Start: day.Add(14 * time.Hour), End: day.Add(15 * time.Hour), Category: "focus"},
	})
	if err != nil {
		t.Fatalf("ApplyOptimizedSchedule: %v", err)
	}
	if res.Updated != 1 || res.Created != 1 || len(res.Snapshot) != 2 {
		t.Fatalf("res = %+v", res)
	}
	for _, e := range res.Snapshot {
		if e.Title == "Standup" && (e.ID != standup.ID || e.Start.Hour() != 10 || e.Category != plannerEntity.CategoryTasks) {
			t.Errorf("standup = %+v", e)
		}
	}
}
