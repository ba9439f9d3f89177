package entity

import (
	"strings"
	"time"

	"smart-planner/core/errors"
)

// Category classifies an event for weekly time budgeting
type Category string

const (
	CategoryFocus  Category = "focus"
	CategoryTasks  Category = "tasks"
	CategoryTarget Category = "target"
	CategoryOther  Category = "other"
)

// Categories lists the known categories in display order
var Categories = []Category{CategoryFocus, CategoryTasks, CategoryTarget, CategoryOther}

// Valid reports whether c is one of the four known categories (exact match)
func (c Category) Valid() bool {
	switch c {
	case CategoryFocus, CategoryTasks, CategoryTarget, CategoryOther:
		return true
	}
	return false
}

// NormalizeCategory maps anything unknown, including "" and wrong case, to other
func NormalizeCategory(s string) Category {
	c := Category(s)
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Event is a timed calendar entry as held by an event store
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
}

// Duration is never negative
func (e Event) Duration() time.Duration {
	if d := e.End.Sub(e.Start); d > 0 {
		return d
	}
	return 0
}

// EventDraft is the payload of a create or update
type EventDraft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location"`
	Category    Category  `json:"category"`
	AllDay      bool      `json:"all_day"`
}

// Validate rejects drafts that must never reach a store. An empty category
// defaults to other; an explicit unknown one is an error.
func (d *EventDraft) Validate() *errors.AppError {
	if strings.TrimSpace(d.Title) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "title is required", nil)
	}
	if d.Start.IsZero() || d.End.IsZero() {
		return errors.NewAppError(errors.ErrInvalidInput, "start and end are required", nil)
	}
	if !d.End.After(d.Start) {
		return errors.NewAppError(errors.ErrInvalidInput, "end must be after start", nil)
	}
	if d.Category == "" {
		d.Category = CategoryOther
	}
	if !d.Category.Valid() {
		return errors.NewAppError(errors.ErrInvalidInput, "unknown category "+string(d.Category), nil)
	}
	return nil
}

// ToEvent builds the event a store would hold for this draft under id
func (d EventDraft) ToEvent(id string) Event {
	return Event{
		ID:          id,
		Title:       d.Title,
		Start:       d.Start,
		End:         d.End,
		Category:    NormalizeCategory(string(d.Category)),
		Description: d.Description,
		Location:    d.Location,
		AllDay:      d.AllDay,
	}
}

// WeeklyHours is the per-category hour total for one week plus the free remainder
type WeeklyHours struct {
	Focus  float64 `json:"focus"`
	Tasks  float64 `json:"tasks"`
	Target float64 `json:"target"`
	Other  float64 `json:"other"`
	Free   float64 `json:"free"`
}

// Categorized is the sum of the four category totals
func (w WeeklyHours) Categorized() float64 {
	return w.Focus + w.Tasks + w.Target + w.Other
}

// HasEvents reports whether any category carries hours
func (w WeeklyHours) HasEvents() bool {
	return w.Categorized() > 0
}

// For returns the total for one category
func (w WeeklyHours) For(c Category) float64 {
	switch c {
	case CategoryFocus:
		return w.Focus
	case CategoryTasks:
		return w.Tasks
	case CategoryTarget:
		return w.Target
	default:
		return w.Other
	}
}

// OptimizedEntry is a recommender-proposed event that is not persisted yet.
// Category is kept raw so the merge can tell "absent" from "unknown".
type OptimizedEntry struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category,omitempty"`
}

// SlotPlacement positions an event inside its start cell, in percent of one hour
type SlotPlacement struct {
	TopPercent    float64 `json:"top_percent"`
	HeightPercent float64 `json:"height_percent"`
}
