package render

import (
	"bytes"
	"strings"
	"testing"

	"smart-planner/modules/planner/dto"
)

func TestWeek(t *testing.T) {
	view := &dto.WeekViewResponse{
		WeekStart: "2024-03-03",
		WeekEnd:   "2024-03-09",
		Hidden:    1,
		Hours:     dto.WeeklyHoursResponse{Focus: 2, Tasks: 0.5, Free: 116.5},
	}
	for i := 0; i < 7; i++ {
		day := dto.DayResponse{Date: "2024-03-0" + string(rune('3'+i)), Weekday: "Sunday"}
		for _, label := range []string{"9 AM", "10 AM"} {
			day.Slots = append(day.Slots, dto.SlotResponse{Label: label})
		}
		view.Days = append(view.Days, day)
	}
	view.Days[2].Slots[0].Events = []dto.PlacedEventResponse{{EventResponse: dto.EventResponse{Title: "Standup", Type: "tasks"}}}

	var buf bytes.Buffer
	if err := Week(&buf, view); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Week 2024-03-03 to 2024-03-09", "Standup", "9 AM", "1 event(s) outside", "Focus target", "116.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Quarterly planning review", 10); got != "Quarterly…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Gym", 10); got != "Gym" {
		t.Errorf("truncate = %q", got)
	}
}
