package service

import (
	"time"

	"smart-planner/modules/planner/entity"
)

// WorkingHoursPerWeek is the assumed weekly capacity: 17 hours a day, 7 days.
const WorkingHoursPerWeek = 7 * 17

// StartOfWeek returns midnight of the first day of anchor's week, in anchor's
// location.
func StartOfWeek(anchor time.Time, weekStart time.Weekday) time.Time {
	y, m, d := anchor.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())
	back := (int(midnight.Weekday()) - int(weekStart) + 7) % 7
	return midnight.AddDate(0, 0, -back)
}

// WeekBounds returns weekStart and weekEnd = weekStart + 6 days. Both bounds are
// inclusive, so weekEnd is midnight of the last day.
func WeekBounds(anchor time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	start := StartOfWeek(anchor, weekStart)
	return start, start.AddDate(0, 0, 6)
}

// InWeek reports whether t falls inside [weekStart, weekEnd]
func InWeek(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// EventsInWeek keeps events whose start falls in the anchor's week, order preserved
func EventsInWeek(events []entity.Event, anchor time.Time, weekStart time.Weekday) []entity.Event {
	start, end := WeekBounds(anchor, weekStart)
	out := make([]entity.Event, 0, len(events))
	for _, e := range events {
		if InWeek(e.Start, start, end) {
			out = append(out, e)
		}
	}
	return out
}

// ComputeWeeklyHours sums event hours per category for the anchor's week. Unknown
// categories count as other. The input is never modified and summation follows
// input order, so equal inputs give bit-identical results.
func ComputeWeeklyHours(events []entity.Event, anchor time.Time, weekStart time.Weekday) entity.WeeklyHours {
	start, end := WeekBounds(anchor, weekStart)

	var h entity.WeeklyHours
	for _, e := range events {
		if !InWeek(e.Start, start, end) {
			continue
		}
		hours := e.Duration().Hours()
		switch entity.NormalizeCategory(string(e.Category)) {
		case entity.CategoryFocus:
			h.Focus += hours
		case entity.CategoryTasks:
			h.Tasks += hours
		case entity.CategoryTarget:
			h.Target += hours
		default:
			h.Other += hours
		}
	}

	h.Free = max(0, WorkingHoursPerWeek-h.Categorized())
	return h
}
