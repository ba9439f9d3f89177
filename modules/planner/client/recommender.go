package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/modules/planner/entity"
)

// Recommendation is what the rescheduling service proposes for a week.
// An empty NewCalendar means "no change".
type Recommendation struct {
	Suggestion  string                  `json:"suggestion"`
	NewCalendar []entity.OptimizedEntry `json:"new_calendar"`
}

// Recommender asks the external service for an optimized schedule.
type Recommender interface {
	Reschedule(ctx context.Context, events []entity.Event) (Recommendation, error)
}

type (
	calendarItem struct {
		Summary  string `json:"summary"`
		Start    string `json:"start"`
		End      string `json:"end"`
		Location string `json:"location,omitempty"`
	}

	rescheduleRequest struct {
		Calendar []calendarItem `json:"calendar"`
	}

	rescheduleResponse struct {
		Suggestion  string            `json:"suggestion"`
		NewCalendar []json.RawMessage `json:"new_calendar"`
	}

	// wireEntry accepts both the recommender's field names and the event store's
	wireEntry struct {
		Summary     string `json:"summary"`
		Title       string `json:"title"`
		Start       string `json:"start"`
		StartTime   string `json:"start_time"`
		End         string `json:"end"`
		EndTime     string `json:"end_time"`
		Location    string `json:"location"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Category    string `json:"category"`
	}
)

type RecommenderClient struct {
	baseURL    string
	httpClient *http.Client
	loc        *time.Location
}

// NewRecommenderClient builds a client for the service at baseURL. Timestamps
// without an offset are read in loc.
func NewRecommenderClient(baseURL string, timeout time.Duration, loc *time.Location) *RecommenderClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RecommenderClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		loc:        loc,
	}
}

func (c *RecommenderClient) Reschedule(ctx context.Context, events []entity.Event) (Recommendation, error) {
	body := rescheduleRequest{Calendar: make([]calendarItem, 0, len(events))}
	for _, e := range events {
		body.Calendar = append(body.Calendar, calendarItem{
			Summary:  e.Title,
			Start:    e.Start.Format(time.RFC3339),
			End:      e.End.Format(time.RFC3339),
			Location: e.Location,
		})
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return Recommendation{}, fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return Recommendation{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("RecommenderClient:Reschedule:Request", err)
		return Recommendation{}, errors.NewAppError(errors.ErrTransport, "recommendation service is unreachable", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		logger.Error("RecommenderClient:Reschedule:Status", "status", res.StatusCode, "body", string(raw))
		return Recommendation{}, errors.NewAppError(errors.ErrTransport, statusMessage(res.StatusCode),
			fmt.Errorf("recommender returned %d", res.StatusCode))
	}

	var apiRes rescheduleResponse
	if err := json.NewDecoder(res.Body).Decode(&apiRes); err != nil {
		return Recommendation{}, errors.NewAppError(errors.ErrTransport, "recommendation service sent an unreadable response", err)
	}

	rec := Recommendation{Suggestion: apiRes.Suggestion}
	for i, raw := range apiRes.NewCalendar {
		entry, err := c.parseEntry(raw)
		if err != nil {
			return Recommendation{}, errors.NewAppError(errors.ErrTransport,
				fmt.Sprintf("recommendation entry %d is malformed", i), err)
		}
		rec.NewCalendar = append(rec.NewCalendar, entry)
	}

	logger.Info("RecommenderClient:Reschedule:Success", "sent", len(events), "proposed", len(rec.NewCalendar))
	return rec, nil
}

func statusMessage(status int) string {
	switch {
	case status >= 500:
		return "Server error: Unable to process the request. Please try again later."
	case status == http.StatusBadRequest:
		return "Bad request: Please check the input data."
	default:
		return fmt.Sprintf("Unexpected error: %s", http.StatusText(status))
	}
}

// parseEntry accepts {"event": {...}} wrappers as well as flat objects
func (c *RecommenderClient) parseEntry(raw json.RawMessage) (entity.OptimizedEntry, error) {
	var wrapper struct {
		Event *wireEntry `json:"event"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return entity.OptimizedEntry{}, err
	}
	w := wrapper.Event
	if w == nil {
		w = &wireEntry{}
		if err := json.Unmarshal(raw, w); err != nil {
			return entity.OptimizedEntry{}, err
		}
	}

	start, err := ParseTime(firstNonEmpty(w.Start, w.StartTime), c.loc)
	if err != nil {
		return entity.OptimizedEntry{}, fmt.Errorf("start: %w", err)
	}
	end, err := ParseTime(firstNonEmpty(w.End, w.EndTime), c.loc)
	if err != nil {
		return entity.OptimizedEntry{}, fmt.Errorf("end: %w", err)
	}

	return entity.OptimizedEntry{
		Title:       firstNonEmpty(w.Summary, w.Title),
		Description: w.Description,
		Start:       start,
		End:         end,
		Location:    w.Location,
		Category:    firstNonEmpty(w.Category, w.Type),
	}, nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime reads RFC 3339 timestamps, and offset-less ones in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
