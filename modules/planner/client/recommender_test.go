package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smart-planner/core/errors"
	"smart-planner/modules/planner/entity"
)

func TestRescheduleRequestShape(t *testing.T) {
	var got rescheduleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"suggestion":"Looks balanced."}`))
	}))
	defer srv.Close()

	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	c := NewRecommenderClient(srv.URL, time.Second, time.UTC)
	rec, err := c.Reschedule(context.Background(), []entity.Event{
		{ID: "1", Title: "Standup", Start: start, End: start.Add(30 * time.Minute), Location: "Room 1"},
	})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if rec.Suggestion != "Looks balanced." || len(rec.NewCalendar) != 0 {
		t.Fatalf("rec = %+v", rec)
	}
	if len(got.Calendar) != 1 {
		t.Fatalf("calendar = %+v", got.Calendar)
	}
	item := got.Calendar[0]
	if item.Summary != "Standup" || item.Start != "2024-03-05T09:00:00Z" || item.End != "2024-03-05T09:30:00Z" || item.Location != "Room 1" {
		t.Fatalf("item = %+v", item)
	}
}

func TestRescheduleParsesEntryShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"suggestion": "Moved standup later.",
			"new_calendar": [
				{"event": {"summary": "Standup", "start": "2024-03-05T10:00", "end": "2024-03-05T10:30", "location": "Room 1"}},
				{"title": "Review", "start_time": "2024-03-05T14:00:00Z", "end_time": "2024-03-05T15:00:00Z", "type": "focus", "description": "PRs"}
			]
		}`))
	}))
	defer srv.Close()

	tz := time.FixedZone("UTC+2", 2*3600)
	rec, err := NewRecommenderClient(srv.URL, time.Second, tz).Reschedule(context.Background(), nil)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(rec.NewCalendar) != 2 {
		t.Fatalf("entries = %+v", rec.NewCalendar)
	}

	standup := rec.NewCalendar[0]
	if standup.Title != "Standup" || !standup.Start.Equal(time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)) || standup.Category != "" {
		t.Fatalf("standup = %+v", standup)
	}
	review := rec.NewCalendar[1]
	if review.Title != "Review" || review.Category != "focus" || review.Description != "PRs" ||
		!review.End.Equal(time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("review = %+v", review)
	}
}

func TestRescheduleErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`, "Server error: Unable to process the request. Please try again later."},
		{"bad request", http.StatusBadRequest, `{}`, "Bad request: Please check the input data."},
		{"bad entry", http.StatusOK, `{"suggestion":"x","new_calendar":[{"event":{"summary":"A","start":"tomorrow","end":"later"}}]}`, "recommendation entry 0 is malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewRecommenderClient(srv.URL, time.Second, time.UTC).Reschedule(context.Background(), nil)
			var appErr *errors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("err = %v", err)
			}
			if appErr.Code != errors.ErrTransport || appErr.Message != tt.msg {
				t.Fatalf("got %s %q", appErr.Code, appErr.Message)
			}
		})
	}
}

func TestRescheduleUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewRecommenderClient(url, time.Second, time.UTC).Reschedule(context.Background(), nil)
	if !errors.HasCode(err, errors.ErrTransport) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseTime(t *testing.T) {
	tz := time.FixedZone("X", -5*3600)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-05T10:00:00Z", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{"2024-03-05T10:00:00+02:00", time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)},
		{"2024-03-05T10:00", time.Date(2024, 3, 5, 10, 0, 0, 0, tz)},
		{"2024-03-05 10:00:30", time.Date(2024, 3, 5, 10, 0, 30, 0, tz)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in, tz)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseTime("", tz); err == nil {
		t.Error("empty should fail")
	}
}
