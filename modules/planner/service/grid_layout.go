package service

import (
	"fmt"
	"time"

	"smart-planner/modules/planner/entity"
)

// Grid is the range of hour-of-day slots shown in the week view, both ends
// inclusive.
type Grid struct {
	FirstHour int
	LastHour  int
}

// DefaultGrid covers 6am through 11pm
var DefaultGrid = Grid{FirstHour: 6, LastHour: 23}

// Hours lists the grid's hour slots in order
func (g Grid) Hours() []int {
	if g.LastHour < g.FirstHour {
		return nil
	}
	hours := make([]int, 0, g.LastHour-g.FirstHour+1)
	for h := g.FirstHour; h <= g.LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Contains reports whether hour is a slot of the grid
func (g Grid) Contains(hour int) bool {
	return hour >= g.FirstHour && hour <= g.LastHour
}

// WeekDays returns midnight of each of the seven days of anchor's week
func WeekDays(anchor time.Time, weekStart time.Weekday) [7]time.Time {
	start := StartOfWeek(anchor, weekStart)
	var days [7]time.Time
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EventsStartingInSlot returns the events whose start is on day's calendar date
// (in day's location) and in the given hour. Every match is kept, in input order.
func EventsStartingInSlot(events []entity.Event, day time.Time, hour int) []entity.Event {
	var out []entity.Event
	for _, e := range events {
		start := e.Start.In(day.Location())
		if sameDate(start, day) && start.Hour() == hour {
			out = append(out, e)
		}
	}
	return out
}

// Placement positions e within the cell of referenceHour. In its own start cell
// top is the minute offset; height scales with duration and is never clipped,
// so a 90 minute event is 150 percent tall.
func Placement(e entity.Event, referenceHour int) entity.SlotPlacement {
	top := float64(e.Start.Hour()-referenceHour)*100 + float64(e.Start.Minute())/60*100
	return entity.SlotPlacement{
		TopPercent:    top,
		HeightPercent: e.Duration().Minutes() / 60 * 100,
	}
}

// HourLabel formats an hour slot the way the week grid labels it: 6am, 12pm, 11pm.
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12am"
	case hour < 12:
		return fmt.Sprintf("%dam", hour)
	case hour == 12:
		return "12pm"
	default:
		return fmt.Sprintf("%dpm", hour-12)
	}
}

// BuildWeekView lays out a snapshot of events for the anchor's week. Event times
// are read in anchor's location.
func BuildWeekView(events []entity.Event, anchor time.Time, grid Grid, weekStart time.Weekday) entity.WeekView {
	loc := anchor.Location()
	start, end := WeekBounds(anchor, weekStart)

	view := entity.WeekView{
		WeekStart: start,
		WeekEnd:   end,
		Hours:     grid.Hours(),
		Summary:   ComputeWeeklyHours(events, anchor, weekStart),
	}
	for _, h := range view.Hours {
		view.Labels = append(view.Labels, HourLabel(h))
	}

	local := make([]entity.Event, len(events))
	for i, e := range events {
		e.Start = e.Start.In(loc)
		e.End = e.End.In(loc)
		local[i] = e
	}

	days := WeekDays(anchor, weekStart)
	for d, day := range days {
		col := entity.DayColumn{Date: day, Slots: make([][]entity.PlacedEvent, len(view.Hours))}
		for i, hour := range view.Hours {
			for _, e := range EventsStartingInSlot(local, day, hour) {
				col.Slots[i] = append(col.Slots[i], entity.PlacedEvent{Event: e, Placement: Placement(e, hour)})
			}
		}
		view.Days[d] = col

		for _, e := range local {
			if sameDate(e.Start, day) && !grid.Contains(e.Start.Hour()) {
				view.Hidden++
			}
		}
	}
	return view
}
