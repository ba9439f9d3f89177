package dto

import (
	"time"

	"smart-planner/modules/planner/entity"
)

type EventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	AllDay      bool      `json:"all_day"`
	Location    string    `json:"location"`
	Type        string    `json:"type"`
}

type PlacedEventResponse struct {
	EventResponse
	TopPercent    float64 `json:"top_percent"`
	HeightPercent float64 `json:"height_percent"`
}

type SlotResponse struct {
	Hour   int                   `json:"hour"`
	Label  string                `json:"label"`
	Events []PlacedEventResponse `json:"events"`
}

type DayResponse struct {
	Date    string         `json:"date"`
	Weekday string         `json:"weekday"`
	Slots   []SlotResponse `json:"slots"`
}

type WeeklyHoursResponse struct {
	WeekStart string  `json:"week_start"`
	WeekEnd   string  `json:"week_end"`
	Focus     float64 `json:"focus"`
	Tasks     float64 `json:"tasks"`
	Target    float64 `json:"target"`
	Other     float64 `json:"other"`
	Free      float64 `json:"free"`
	HasEvents bool    `json:"has_events"`
}

type WeekViewResponse struct {
	WeekStart string              `json:"week_start"`
	WeekEnd   string              `json:"week_end"`
	Days      []DayResponse       `json:"days"`
	Hours     WeeklyHoursResponse `json:"hours"`
	Hidden    int                 `json:"hidden_events"`
	Stale     bool                `json:"stale"`
	Warning   string              `json:"warning,omitempty"`
}

type RecommendationRequest struct {
	Anchor string `json:"anchor"`
}

type OptimizedEntryDTO struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Type        string    `json:"type,omitempty"`
}

type RecommendationResponse struct {
	Anchor      string              `json:"anchor"`
	Suggestion  string              `json:"suggestion"`
	NewCalendar []OptimizedEntryDTO `json:"new_calendar"`
}

type ApplyRequest struct {
	Anchor      string              `json:"anchor"`
	NewCalendar []OptimizedEntryDTO `json:"new_calendar"`
}

type OpOutcomeResponse struct {
	Index   int            `json:"index"`
	Kind    string         `json:"kind"`
	EventID string         `json:"event_id,omitempty"`
	Title   string         `json:"title"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Event   *EventResponse `json:"event,omitempty"`
}

type MergeResponse struct {
	BatchID  string               `json:"batch_id"`
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Created  int                  `json:"created"`
	Updated  int                  `json:"updated"`
	Failed   int                  `json:"failed"`
	Outcomes []OpOutcomeResponse  `json:"outcomes"`
	Hours    *WeeklyHoursResponse `json:"hours,omitempty"`
}

type ApplyQueuedResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

type PublishResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ToEntries converts request entries to the engine's type
func ToEntries(in []OptimizedEntryDTO) []entity.OptimizedEntry {
	out := make([]entity.OptimizedEntry, 0, len(in))
	for _, e := range in {
		out = append(out, entity.OptimizedEntry{
			Title:       e.Title,
			Description: e.Description,
			Start:       e.StartTime,
			End:         e.EndTime,
			Location:    e.Location,
			Category:    e.Type,
		})
	}
	return out
}
