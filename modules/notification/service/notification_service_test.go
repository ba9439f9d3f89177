package service

import (
	"context"
	"path/filepath"
	"testing"

	"smart-planner/core/database"
	"smart-planner/core/errors"
	"smart-planner/core/params"
	"smart-planner/modules/notification/repository"

	"github.com/google/uuid"
)

func newTestService(t *testing.T) *NotificationService {
	t.Helper()
	db, err := database.InitDB(database.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "notifications.db"),
	})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewNotificationService(repository.NewNotificationRepository(db))
}

func TestNotifyAndRead(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user, other := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		if err := svc.Notify(ctx, user, "weekly_digest", "Your week", "12.0h focus", map[string]any{"week_start": "2024-03-03", "focus": 12.0}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	if err := svc.Notify(ctx, other, "schedule_applied", "Schedule applied", "", nil); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	page, err := svc.GetMyNotifications(ctx, user, params.QueryParams{PageNumber: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("GetMyNotifications: %v", err)
	}
	if page.TotalItems != 3 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Fatalf("page = %+v", page)
	}
	first := page.Items[0]
	if first.Type != "weekly_digest" || first.Data["week_start"] != "2024-03-03" || first.Data["focus"] != 12.0 {
		t.Errorf("first = %+v", first)
	}

	if n, _ := svc.CountUnread(ctx, user); n != 3 {
		t.Errorf("unread = %d, want 3", n)
	}
	if err := svc.MarkAsRead(ctx, user, []string{first.ID.String()}); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if n, _ := svc.CountUnread(ctx, user); n != 2 {
		t.Errorf("unread = %d, want 2", n)
	}
	if err := svc.MarkAllAsRead(ctx, user); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}
	if n, _ := svc.CountUnread(ctx, user); n != 0 {
		t.Errorf("unread = %d, want 0", n)
	}
	if n, _ := svc.CountUnread(ctx, other); n != 1 {
		t.Errorf("other user's unread = %d, want 1", n)
	}
}

func TestNotifyValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if err := svc.Notify(ctx, uuid.Nil, "weekly_digest", "x", "", nil); !errors.HasCode(err, errors.ErrInvalidInput) {
		t.Errorf("Notify(nil user) = %v", err)
	}
	if err := svc.MarkAsRead(ctx, uuid.New(), []string{"nope"}); !errors.HasCode(err, errors.ErrInvalidInput) {
		t.Errorf("MarkAsRead(bad id) = %v", err)
	}
}
