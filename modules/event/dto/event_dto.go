package dto

import "time"

// EventRequest is the body of set_task and update_task. Times are ISO-8601;
// values without an offset are read in the planner timezone.
type EventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	AllDay      bool   `json:"all_day"`
	Location    string `json:"location"`
	Type        string `json:"type"`
}

type TimeWindowRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

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
