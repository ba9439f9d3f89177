package entity

import "time"

// PlacedEvent is an event with its position inside a slot
type PlacedEvent struct {
	Event     Event
	Placement SlotPlacement
}

// DayColumn is one day of the week view; Slots is indexed like WeekView.Hours
type DayColumn struct {
	Date  time.Time
	Slots [][]PlacedEvent
}

// WeekView is the derived state behind one render of the week
type WeekView struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Hours     []int
	Labels    []string
	Days      [7]DayColumn
	Summary   WeeklyHours
	Hidden    int // events of the shown days that start outside the grid hours
}
