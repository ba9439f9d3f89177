package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"smart-planner/core/cache"
	coreErrors "smart-planner/core/errors"
	"smart-planner/modules/planner/client"
	"smart-planner/modules/planner/dto"
	"smart-planner/modules/planner/entity"
	"smart-planner/modules/planner/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

var (
	testUser = uuid.MustParse("6f1c2a8e-4b1d-4f4e-9a51-0c2d3e4f5a6b")
	testNow  = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC) // Wednesday
)

type staticStores struct{ store EventStore }

func (s staticStores) For(context.Context, uuid.UUID) (EventStore, error) { return s.store, nil }

type fakeRecommender struct {
	rec  client.Recommendation
	err  error
	sent []entity.Event
}

func (r *fakeRecommender) Reschedule(_ context.Context, events []entity.Event) (client.Recommendation, error) {
	r.sent = events
	return r.rec, r.err
}

type sentNotification struct {
	UserID uuid.UUID
	Kind   string
	Title  string
	Data   map[string]any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, kind, title, _ string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Title: title, Data: data})
	return nil
}

type fakePublisher struct {
	key  string
	body []byte
}

func (p *fakePublisher) Publish(_ context.Context, key, _ string, body []byte) (string, error) {
	p.key, p.body = key, body
	return "https://cdn.example.com/" + key, nil
}

type fakeEnqueuer struct{ tasks []*asynq.Task }

func (q *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "critical"}, nil
}

type serviceFixture struct {
	svc       *PlannerService
	store     *fakeStore
	rec       *fakeRecommender
	cache     *cache.Memory
	notifier  *fakeNotifier
	publisher *fakePublisher
	queue     *fakeEnqueuer
}

func newServiceFixture(events ...entity.Event) *serviceFixture {
	f := &serviceFixture{
		store:     newFakeStore(events...),
		rec:       &fakeRecommender{},
		cache:     cache.NewMemory(),
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		queue:     &fakeEnqueuer{},
	}
	f.svc = NewPlannerService(PlannerServiceDeps{
		Stores:      staticStores{store: f.store},
		Recommender: f.rec,
		Cache:       f.cache,
		Publisher:   f.publisher,
		Enqueuer:    f.queue,
		Notifier:    f.notifier,
		Settings:    Settings{Location: time.UTC, WeekStart: time.Sunday},
		Now:         func() time.Time { return testNow },
	})
	return f
}

func weekEvents() []entity.Event {
	return []entity.Event{
		{ID: "1", Title: "Standup", Start: at(9, 0), End: at(9, 30), Category: entity.CategoryTasks},
		{ID: "2", Title: "Deep work", Start: at(13, 0), End: at(15, 0), Category: entity.CategoryFocus},
		{ID: "3", Title: "Next week", Start: at(9, 0).AddDate(0, 0, 7), End: at(10, 0).AddDate(0, 0, 7)},
	}
}

func TestGetWeek(t *testing.T) {
	f := newServiceFixture(weekEvents()...)

	res, appErr := f.svc.GetWeek(context.Background(), testUser, "")
	if appErr != nil {
		t.Fatalf("GetWeek: %v", appErr)
	}
	if res.WeekStart != "2024-03-03" || res.WeekEnd != "2024-03-09" {
		t.Errorf("week = %s..%s", res.WeekStart, res.WeekEnd)
	}
	if len(res.Days) != 7 {
		t.Fatalf("got %d days", len(res.Days))
	}
	if res.Hours.Tasks != 0.5 || res.Hours.Focus != 2 {
		t.Errorf("hours = %+v", res.Hours)
	}
	if res.Stale || res.Warning != "" {
		t.Errorf("stale=%v warning=%q", res.Stale, res.Warning)
	}
}

func TestGetWeekStoreDown(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	f.store.listErr = errors.New("connection refused")

	res, appErr := f.svc.GetWeek(context.Background(), testUser, "2024-03-05")
	if appErr != nil {
		t.Fatalf("GetWeek: %v", appErr)
	}
	if res.Warning == "" {
		t.Error("expected a warning")
	}
	if res.Hours.HasEvents {
		t.Errorf("hours = %+v, want empty", res.Hours)
	}
}

func TestGetWeekBadAnchor(t *testing.T) {
	f := newServiceFixture()
	_, appErr := f.svc.GetWeek(context.Background(), testUser, "next tuesday")
	if appErr == nil || appErr.Code != coreErrors.ErrInvalidInput {
		t.Fatalf("err = %v", appErr)
	}
}

func TestRecommendThenApplyCached(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	f.rec.rec = client.Recommendation{
		Suggestion: "Move standup later",
		NewCalendar: []entity.OptimizedEntry{
			{Title: "Standup", Start: at(10, 0), End: at(10, 30)},
			{Title: "Gym", Start: at(18, 0), End: at(19, 0), Category: "other"},
		},
	}

	rec, appErr := f.svc.Recommend(context.Background(), testUser, "2024-03-06")
	if appErr != nil {
		t.Fatalf("Recommend: %v", appErr)
	}
	if len(f.rec.sent) != 2 {
		t.Errorf("sent %d events to the recommender, want the 2 in this week", len(f.rec.sent))
	}
	if len(rec.NewCalendar) != 2 {
		t.Fatalf("new_calendar = %+v", rec.NewCalendar)
	}

	// another day in the same week reads the same cached recommendation
	res, appErr := f.svc.Apply(context.Background(), testUser, dto.ApplyRequest{Anchor: "2024-03-04"})
	if appErr != nil {
		t.Fatalf("Apply: %v", appErr)
	}
	if !res.Success || res.Updated != 1 || res.Created != 1 {
		t.Errorf("res = %+v", res)
	}
	if res.Hours == nil || res.Hours.Other != 1 {
		t.Errorf("hours = %+v", res.Hours)
	}

	var cached dto.RecommendationResponse
	if ok, _ := f.cache.Get(context.Background(), f.svc.recommendationKey(testUser, testNow), &cached); ok {
		t.Error("recommendation should be dropped after a successful apply")
	}
}

func TestApplyWithoutRecommendation(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	_, appErr := f.svc.Apply(context.Background(), testUser, dto.ApplyRequest{})
	if appErr == nil || appErr.Code != coreErrors.ErrInvalidInput {
		t.Fatalf("err = %v", appErr)
	}
}

func TestApplyEmptyListIsNoChange(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	res, appErr := f.svc.Apply(context.Background(), testUser, dto.ApplyRequest{NewCalendar: []dto.OptimizedEntryDTO{}})
	if appErr != nil {
		t.Fatalf("Apply: %v", appErr)
	}
	if len(res.Outcomes) != 0 || len(f.store.writes()) != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestApplyLocked(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	ok, _ := f.cache.AcquireLock(context.Background(), "planner:merge_lock:"+testUser.String(), time.Minute)
	if !ok {
		t.Fatal("could not take the lock")
	}

	_, appErr := f.svc.Apply(context.Background(), testUser, dto.ApplyRequest{NewCalendar: []dto.OptimizedEntryDTO{}})
	if appErr == nil || appErr.Code != coreErrors.ErrConflict {
		t.Fatalf("err = %v", appErr)
	}
}

func TestServiceApplyPartialFailure(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	f.store.failOn["Gym"] = errors.New("quota exceeded")

	res, appErr := f.svc.Apply(context.Background(), testUser, dto.ApplyRequest{
		Anchor: "2024-03-05",
		NewCalendar: []dto.OptimizedEntryDTO{
			{Title: "Standup", StartTime: at(10, 0), EndTime: at(10, 30)},
			{Title: "Gym", StartTime: at(18, 0), EndTime: at(19, 0)},
		},
	})
	if appErr == nil || appErr.Code != coreErrors.ErrPartialMerge {
		t.Fatalf("err = %v", appErr)
	}
	if res == nil || res.Success || res.Updated != 1 || res.Failed != 1 {
		t.Fatalf("res = %+v", res)
	}
	if !strings.Contains(res.Outcomes[1].Error, "quota exceeded") {
		t.Errorf("outcome = %+v", res.Outcomes[1])
	}

	// the lock is released even on failure
	ok, _ := f.cache.AcquireLock(context.Background(), "planner:merge_lock:"+testUser.String(), time.Minute)
	if !ok {
		t.Error("merge lock still held")
	}
}

// A proposal for an event outside the anchor week updates it in place.
func TestApplyUpdatesEventOutsideWeek(t *testing.T) {
	gym := entity.Event{
		ID:       "7",
		Title:    "Gym",
		Start:    time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 9, 11, 0, 0, 0, time.UTC),
		Category: entity.CategoryOther,
	}
	f := newServiceFixture(gym)

	res, appErr := f.svc.Apply(context.Background(), testUser, dto.ApplyRequest{
		Anchor: "2024-03-06",
		NewCalendar: []dto.OptimizedEntryDTO{
			{Title: "Gym", StartTime: gym.Start.Add(time.Hour), EndTime: gym.End.Add(time.Hour)},
		},
	})
	if appErr != nil {
		t.Fatalf("Apply: %v", appErr)
	}
	if res.Created != 0 || res.Updated != 1 {
		t.Fatalf("created=%d updated=%d", res.Created, res.Updated)
	}
	if w := f.store.writes(); len(w) != 1 || w[0].Kind != "update" || w[0].ID != "7" {
		t.Fatalf("writes = %+v", w)
	}
	if events, _ := f.store.List(context.Background()); len(events) != 1 {
		t.Fatalf("store holds %d events", len(events))
	}
}

func TestRunApplyTaskNotifies(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	err := f.svc.RunApplyTask(context.Background(), tasks.ApplySchedulePayload{
		UserID:      testUser,
		Anchor:      "2024-03-05",
		NewCalendar: []entity.OptimizedEntry{{Title: "Standup", Start: at(11, 0), End: at(11, 15)}},
	})
	if err != nil {
		t.Fatalf("RunApplyTask: %v", err)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].Kind != "schedule_applied" {
		t.Fatalf("notifications = %+v", f.notifier.sent)
	}
	if f.notifier.sent[0].Data["updated"] != 1 {
		t.Errorf("data = %+v", f.notifier.sent[0].Data)
	}
}

func TestEnqueueApply(t *testing.T) {
	f := newServiceFixture()
	res, appErr := f.svc.EnqueueApply(context.Background(), testUser, dto.ApplyRequest{Anchor: "2024-03-05"})
	if appErr != nil {
		t.Fatalf("EnqueueApply: %v", appErr)
	}
	if res.TaskID != "task-1" || len(f.queue.tasks) != 1 {
		t.Fatalf("res = %+v", res)
	}
	p, err := tasks.ParseApplySchedule(f.queue.tasks[0])
	if err != nil {
		t.Fatal(err)
	}
	if p.UserID != testUser || p.Anchor != "2024-03-05" || p.NewCalendar != nil {
		t.Errorf("payload = %+v", p)
	}
}

func TestPublishWeek(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	res, appErr := f.svc.PublishWeek(context.Background(), testUser, "2024-03-05")
	if appErr != nil {
		t.Fatalf("PublishWeek: %v", appErr)
	}
	wantKey := "calendars/" + testUser.String() + "/week-of-2024-03-03.ics"
	if res.Key != wantKey || f.publisher.key != wantKey {
		t.Errorf("key = %q, want %q", res.Key, wantKey)
	}
	if !strings.Contains(string(f.publisher.body), "SUMMARY:Standup") {
		t.Error("published calendar is missing the standup")
	}
}

func TestSendWeeklyDigest(t *testing.T) {
	f := newServiceFixture(weekEvents()...)
	if err := f.svc.SendWeeklyDigest(context.Background(), testUser, "2024-03-05"); err != nil {
		t.Fatalf("SendWeeklyDigest: %v", err)
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("notifications = %+v", f.notifier.sent)
	}
	n := f.notifier.sent[0]
	if n.Kind != "weekly_digest" || n.Data["week_start"] != "2024-03-03" {
		t.Errorf("notification = %+v", n)
	}

	empty := newServiceFixture()
	if err := empty.svc.SendWeeklyDigest(context.Background(), testUser, ""); err != nil {
		t.Fatal(err)
	}
	if len(empty.notifier.sent) != 0 {
		t.Error("an empty week should not notify")
	}
}
