package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smart-planner/core/errors"
	"smart-planner/core/middleware"
	"smart-planner/core/utils"
	"smart-planner/modules/planner/controller"
	"smart-planner/modules/planner/dto"
	"smart-planner/modules/planner/router"
	"smart-planner/modules/planner/tasks"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const secret = "test-secret"

type stubPlanner struct {
	userID  uuid.UUID
	anchor  string
	applied dto.ApplyRequest
	merge   *dto.MergeResponse
	err     *errors.AppError
}

func (s *stubPlanner) GetWeek(_ context.Context, userID uuid.UUID, anchor string) (*dto.WeekViewResponse, *errors.AppError) {
	s.userID, s.anchor = userID, anchor
	if s.err != nil {
		return nil, s.err
	}
	return &dto.WeekViewResponse{WeekStart: "2024-03-03", WeekEnd: "2024-03-09"}, nil
}

func (s *stubPlanner) GetWeeklyHours(context.Context, uuid.UUID, string) (*dto.WeeklyHoursResponse, *errors.AppError) {
	return &dto.WeeklyHoursResponse{Focus: 2}, nil
}

func (s *stubPlanner) Recommend(context.Context, uuid.UUID, string) (*dto.RecommendationResponse, *errors.AppError) {
	return &dto.RecommendationResponse{Suggestion: "ok"}, nil
}

func (s *stubPlanner) Apply(_ context.Context, _ uuid.UUID, req dto.ApplyRequest) (*dto.MergeResponse, *errors.AppError) {
	s.applied = req
	return s.merge, s.err
}

func (s *stubPlanner) EnqueueApply(context.Context, uuid.UUID, dto.ApplyRequest) (*dto.ApplyQueuedResponse, *errors.AppError) {
	return &dto.ApplyQueuedResponse{TaskID: "t1", Queue: "critical"}, nil
}

func (s *stubPlanner) ExportICS(context.Context, uuid.UUID, string) ([]byte, string, *errors.AppError) {
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), "week-of-2024-03-03.ics", nil
}

func (s *stubPlanner) PublishWeek(context.Context, uuid.UUID, string) (*dto.PublishResponse, *errors.AppError) {
	return &dto.PublishResponse{URL: "https://cdn.example.com/x.ics", Key: "x.ics"}, nil
}

func (s *stubPlanner) RunApplyTask(context.Context, tasks.ApplySchedulePayload) error { return nil }

func (s *stubPlanner) SendWeeklyDigest(context.Context, uuid.UUID, string) error { return nil }

func newServer(t *testing.T, svc *stubPlanner) (*echo.Echo, string, uuid.UUID) {
	t.Helper()
	e := echo.New()
	router.NewPlannerRouter(controller.NewPlannerController(svc)).Setup(e, middleware.NewMiddleware(secret))

	userID := uuid.New()
	token, err := utils.GenerateToken(userID, secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return e, token, userID
}

func do(e *echo.Echo, token, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetWeek(t *testing.T) {
	svc := &stubPlanner{}
	e, token, userID := newServer(t, svc)

	rec := do(e, token, http.MethodGet, "/api/v1/private/planner/week?anchor=2024-03-05", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if svc.userID != userID || svc.anchor != "2024-03-05" {
		t.Errorf("service got user=%s anchor=%q", svc.userID, svc.anchor)
	}

	var body struct {
		Data dto.WeekViewResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.WeekStart != "2024-03-03" {
		t.Errorf("week_start = %q", body.Data.WeekStart)
	}
}

func TestRequiresAuth(t *testing.T) {
	e, _, _ := newServer(t, &stubPlanner{})
	rec := do(e, "", http.MethodGet, "/api/v1/private/planner/week", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetWeekInvalidAnchor(t *testing.T) {
	svc := &stubPlanner{err: errors.NewAppError(errors.ErrInvalidInput, "anchor must be a date in YYYY-MM-DD form", nil)}
	e, token, _ := newServer(t, svc)

	rec := do(e, token, http.MethodGet, "/api/v1/private/planner/week?anchor=soon", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(errors.ErrInvalidInput)) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestApplyPartialFailure(t *testing.T) {
	svc := &stubPlanner{
		merge: &dto.MergeResponse{
			Success: false,
			Updated: 1,
			Failed:  1,
			Outcomes: []dto.OpOutcomeResponse{
				{Index: 0, Kind: "update", Title: "Standup", Success: true},
				{Index: 1, Kind: "create", Title: "Gym", Error: "quota exceeded"},
			},
		},
		err: errors.NewAppError(errors.ErrPartialMerge, "1 of 2 schedule changes failed", nil),
	}
	e, token, _ := newServer(t, svc)

	body := `{"anchor":"2024-03-05","new_calendar":[{"title":"Standup","start_time":"2024-03-05T10:00:00Z","end_time":"2024-03-05T10:30:00Z"}]}`
	rec := do(e, token, http.MethodPost, "/api/v1/private/planner/apply", body)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if len(svc.applied.NewCalendar) != 1 || svc.applied.NewCalendar[0].Title != "Standup" {
		t.Errorf("request = %+v", svc.applied)
	}

	var res struct {
		Code    string            `json:"code"`
		Details dto.MergeResponse `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Code != string(errors.ErrPartialMerge) || res.Details.Failed != 1 || len(res.Details.Outcomes) != 2 {
		t.Errorf("response = %+v", res)
	}
}

func TestApplyAsync(t *testing.T) {
	e, token, _ := newServer(t, &stubPlanner{})
	rec := do(e, token, http.MethodPost, "/api/v1/private/planner/apply/async", `{"anchor":"2024-03-05"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestExportICS(t *testing.T) {
	e, token, _ := newServer(t, &stubPlanner{})
	rec := do(e, token, http.MethodGet, "/api/v1/private/planner/week.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "week-of-2024-03-03.ics") {
		t.Errorf("content disposition = %q", cd)
	}
}
