package service

import (
	"testing"
	"time"

	"smart-planner/modules/planner/entity"
)

func TestPlacement(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 15, 0, 0, time.UTC)
	tests := []struct {
		name     string
		duration time.Duration
		top      float64
		height   float64
	}{
		{"90 minutes", 90 * time.Minute, 25, 150},
		{"30 minutes", 30 * time.Minute, 25, 50},
		{"three hours", 3 * time.Hour, 25, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Placement(entity.Event{Start: start, End: start.Add(tt.duration)}, 9)
			if got.TopPercent != tt.top || got.HeightPercent != tt.height {
				t.Fatalf("got %+v, want top=%v height=%v", got, tt.top, tt.height)
			}
		})
	}
}

func TestPlacementNinetyMinutesOnTheHour(t *testing.T) {
	start := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	got := Placement(entity.Event{Start: start, End: start.Add(90 * time.Minute)}, 14)
	if got.HeightPercent != 150 || got.TopPercent != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestPlacementIgnoresSeconds(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 30, 0, time.UTC)
	got := Placement(entity.Event{Start: start, End: start.Add(time.Hour)}, 9)
	if got.TopPercent != 0 {
		t.Fatalf("top = %v, want 0", got.TopPercent)
	}
}

func TestEventsStartingInSlotKeepsAll(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	events := []entity.Event{
		{ID: "a", Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
		{ID: "b", Start: day.Add(10*time.Hour + 30*time.Minute), End: day.Add(12 * time.Hour)},
		{ID: "c", Start: day.Add(11 * time.Hour), End: day.Add(12 * time.Hour)},
		{ID: "d", Start: day.Add(34 * time.Hour), End: day.Add(35 * time.Hour)}, // next day, 10am
	}
	got := EventsStartingInSlot(events, day, 10)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestEventsStartingInSlotUsesDayLocation(t *testing.T) {
	tz := time.FixedZone("UTC+7", 7*3600)
	day := time.Date(2024, 3, 6, 0, 0, 0, 0, tz)
	// 2024-03-05 20:00 UTC is 2024-03-06 03:00 in UTC+7
	ev := entity.Event{ID: "x", Start: time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)}
	ev.End = ev.Start.Add(time.Hour)
	if got := EventsStartingInSlot([]entity.Event{ev}, day, 3); len(got) != 1 {
		t.Fatalf("got %+v", got)
	}
}

// Every in-range event lands in exactly one (day, hour) slot of its week.
func TestEachEventInExactlyOneSlot(t *testing.T) {
	anchor := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	days := WeekDays(anchor, time.Sunday)

	var events []entity.Event
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			start := days[d].Add(time.Duration(h)*time.Hour + time.Duration((d*7+h)%60)*time.Minute)
			events = append(events, entity.Event{ID: start.String(), Start: start, End: start.Add(45 * time.Minute)})
		}
	}

	for _, ev := range events {
		hits := 0
		for _, d := range days {
			for _, h := range DefaultGrid.Hours() {
				for _, m := range EventsStartingInSlot(events, d, h) {
					if m.ID == ev.ID {
						hits++
					}
				}
			}
		}
		want := 0
		if DefaultGrid.Contains(ev.Start.Hour()) {
			want = 1
		}
		if hits != want {
			t.Fatalf("event %s matched %d slots, want %d", ev.ID, hits, want)
		}
	}
}

func TestGridHours(t *testing.T) {
	hours := DefaultGrid.Hours()
	if len(hours) != 18 || hours[0] != 6 || hours[17] != 23 {
		t.Fatalf("hours = %v", hours)
	}
	if DefaultGrid.Contains(5) || !DefaultGrid.Contains(23) {
		t.Fatal("Contains bounds wrong")
	}
}

func TestHourLabel(t *testing.T) {
	tests := map[int]string{0: "12am", 6: "6am", 11: "11am", 12: "12pm", 13: "1pm", 23: "11pm"}
	for h, want := range tests {
		if got := HourLabel(h); got != want {
			t.Errorf("HourLabel(%d) = %s, want %s", h, got, want)
		}
	}
}

func TestBuildWeekView(t *testing.T) {
	anchor := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	events := []entity.Event{
		{ID: "1", Title: "Standup", Start: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), Category: "tasks"},
		{ID: "2", Title: "Run", Start: time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC), Category: "other"},
	}
	view := BuildWeekView(events, anchor, DefaultGrid, time.Sunday)

	if !view.WeekStart.Equal(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week start = %v", view.WeekStart)
	}
	tuesday := view.Days[2]
	slot := tuesday.Slots[9-DefaultGrid.FirstHour]
	if len(slot) != 1 || slot[0].Event.ID != "1" || slot[0].Placement.HeightPercent != 50 {
		t.Fatalf("slot = %+v", slot)
	}
	if view.Hidden != 1 {
		t.Fatalf("hidden = %d, want 1", view.Hidden)
	}
	if view.Summary.Tasks != 0.5 || view.Summary.Other != 1 {
		t.Fatalf("summary = %+v", view.Summary)
	}
}
