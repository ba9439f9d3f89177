package service

import (
	"strings"
	"testing"
	"time"

	"smart-planner/modules/planner/entity"

	ical "github.com/arran4/golang-ical"
)

func TestExportWeekICS(t *testing.T) {
	anchor := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	events := []entity.Event{
		{ID: "1", Title: "Standup", Start: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), Category: "tasks", Location: "Room 1"},
		{ID: "2", Title: "Next week", Start: time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)},
	}

	out := ExportWeekICS(events, anchor, time.Sunday, anchor)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	parsed := cal.Events()
	if len(parsed) != 1 {
		t.Fatalf("got %d events, want 1", len(parsed))
	}

	ve := parsed[0]
	if got := ve.GetProperty(ical.ComponentPropertySummary).Value; got != "Standup" {
		t.Errorf("summary = %q", got)
	}
	if got := ve.GetProperty(ical.ComponentPropertyCategories).Value; got != "TASKS" {
		t.Errorf("categories = %q", got)
	}
	if got := ve.GetProperty(ical.ComponentPropertyLocation).Value; got != "Room 1" {
		t.Errorf("location = %q", got)
	}
	start, err := ve.GetStartAt()
	if err != nil || !start.Equal(events[0].Start) {
		t.Errorf("start = %v, %v", start, err)
	}
	if got := ve.Id(); got != "1@smart-planner" {
		t.Errorf("uid = %q", got)
	}
}
