package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/modules/calendar/dto"
	"smart-planner/modules/calendar/entity"
	"smart-planner/modules/calendar/repository"
	plannerEntity "smart-planner/modules/planner/entity"

	"golang.org/x/oauth2"
)

const (
	googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
	googleDateLayout      = "2006-01-02"
	categoryProperty      = "category"
	googlePageSize        = 250
)

// GoogleStore is an EventStore over the primary Google calendar of one
// connection. List is bounded to a window around now.
type GoogleStore struct {
	apiBase    string
	httpClient *http.Client
	loc        *time.Location
	lookBehind time.Duration
	lookAhead  time.Duration
	now        func() time.Time
}

// persistingTokenSource writes refreshed tokens back to the connection row
type persistingTokenSource struct {
	base   oauth2.TokenSource
	repo   repository.CalendarRepository
	conn   *entity.CalendarConnection
	ctx    context.Context
	mu     sync.Mutex
	access string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken == p.access {
		return tok, nil
	}
	p.access = tok.AccessToken

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = p.conn.RefreshToken
	}
	var expiry *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry.UTC()
		expiry = &e
	}
	if err := p.repo.UpdateToken(p.ctx, p.conn.ID, tok.AccessToken, refresh, expiry); err != nil {
		logger.Error("GoogleStore:Token:Persist", "connection_id", p.conn.ID, "error", err)
	} else {
		logger.Info("GoogleStore:Token:Refreshed", "user_id", p.conn.UserID)
	}
	return tok, nil
}

func (s *calendarService) newGoogleStore(ctx context.Context, conn *entity.CalendarConnection) *GoogleStore {
	// token refreshes outlive the request that triggered them
	bg := context.WithoutCancel(ctx)
	src := &persistingTokenSource{
		base:   s.oauth.TokenSource(bg, conn.Token()),
		repo:   s.repo,
		conn:   conn,
		ctx:    bg,
		access: conn.AccessToken,
	}
	client := oauth2.NewClient(bg, src)
	client.Timeout = s.cfg.Timeout

	return &GoogleStore{
		apiBase:    s.cfg.APIBaseURL,
		httpClient: client,
		loc:        s.cfg.Location,
		lookBehind: s.cfg.LookBehind,
		lookAhead:  s.cfg.LookAhead,
		now:        time.Now,
	}
}

func (g *GoogleStore) eventsURL() string {
	return g.apiBase + "/calendars/primary/events"
}

func (g *GoogleStore) List(ctx context.Context) ([]plannerEntity.Event, error) {
	now := g.now()
	q := url.Values{}
	q.Set("timeMin", now.Add(-g.lookBehind).UTC().Format(time.RFC3339))
	q.Set("timeMax", now.Add(g.lookAhead).UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", fmt.Sprint(googlePageSize))

	events := []plannerEntity.Event{}
	for {
		var page dto.GoogleEventList
		if err := g.do(ctx, http.MethodGet, g.eventsURL()+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev, err := g.toEvent(item)
			if err != nil {
				logger.Warn("GoogleStore:List:SkipMalformed", "event_id", item.ID, "error", err)
				continue
			}
			events = append(events, ev)
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		q.Set("pageToken", page.NextPageToken)
	}
}

func (g *GoogleStore) Create(ctx context.Context, draft plannerEntity.EventDraft) (plannerEntity.Event, error) {
	if appErr := draft.Validate(); appErr != nil {
		return plannerEntity.Event{}, appErr
	}
	var out dto.GoogleEvent
	if err := g.do(ctx, http.MethodPost, g.eventsURL(), g.toGoogle(draft), &out); err != nil {
		return plannerEntity.Event{}, err
	}
	return g.written(out, draft), nil
}

func (g *GoogleStore) Update(ctx context.Context, id string, draft plannerEntity.EventDraft) (plannerEntity.Event, error) {
	if appErr := draft.Validate(); appErr != nil {
		return plannerEntity.Event{}, appErr
	}
	if id == "" {
		return plannerEntity.Event{}, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	var out dto.GoogleEvent
	if err := g.do(ctx, http.MethodPatch, g.eventsURL()+"/"+url.PathEscape(id), g.toGoogle(draft), &out); err != nil {
		return plannerEntity.Event{}, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return g.written(out, draft), nil
}

func (g *GoogleStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return g.do(ctx, http.MethodDelete, g.eventsURL()+"/"+url.PathEscape(id), nil, nil)
}

func (g *GoogleStore) written(out dto.GoogleEvent, draft plannerEntity.EventDraft) plannerEntity.Event {
	ev, err := g.toEvent(out)
	if err != nil {
		return draft.ToEvent(out.ID)
	}
	return ev
}

func (g *GoogleStore) toEvent(item dto.GoogleEvent) (plannerEntity.Event, error) {
	ev := plannerEntity.Event{
		ID:          item.ID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Category:    plannerEntity.CategoryOther,
	}
	if item.ExtendedProperties != nil {
		ev.Category = plannerEntity.NormalizeCategory(item.ExtendedProperties.Private[categoryProperty])
	}

	var err error
	if item.Start.DateTime == "" && item.Start.Date != "" {
		ev.AllDay = true
		if ev.Start, err = time.ParseInLocation(googleDateLayout, item.Start.Date, g.loc); err != nil {
			return ev, fmt.Errorf("start date: %w", err)
		}
		if ev.End, err = time.ParseInLocation(googleDateLayout, item.End.Date, g.loc); err != nil {
			return ev, fmt.Errorf("end date: %w", err)
		}
		return ev, nil
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return ev, fmt.Errorf("start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return ev, fmt.Errorf("end: %w", err)
	}
	ev.Start, ev.End = start.In(g.loc), end.In(g.loc)
	return ev, nil
}

func (g *GoogleStore) toGoogle(d plannerEntity.EventDraft) dto.GoogleEvent {
	out := dto.GoogleEvent{
		Summary:     d.Title,
		Description: d.Description,
		Location:    d.Location,
		ExtendedProperties: &dto.GoogleExtendedProperties{
			Private: map[string]string{categoryProperty: string(plannerEntity.NormalizeCategory(string(d.Category)))},
		},
	}
	if d.AllDay {
		start := d.Start.In(g.loc)
		end := d.End.In(g.loc)
		// google's end date is exclusive
		if !end.After(start) || end.Format(googleDateLayout) == start.Format(googleDateLayout) {
			end = start.AddDate(0, 0, 1)
		}
		out.Start = dto.GoogleEventTime{Date: start.Format(googleDateLayout)}
		out.End = dto.GoogleEventTime{Date: end.Format(googleDateLayout)}
		return out
	}
	out.Start = dto.GoogleEventTime{DateTime: d.Start.Format(time.RFC3339)}
	out.End = dto.GoogleEventTime{DateTime: d.End.Format(time.RFC3339)}
	return out
}

func (g *GoogleStore) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding google event: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := g.httpClient.Do(req)
	if err != nil {
		logger.Error("GoogleStore:Request:Error", "method", method, "error", err)
		return errors.NewAppError(errors.ErrTransport, "Google Calendar is unreachable", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.NewAppError(errors.ErrTransport, "error reading Google Calendar response", err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	case res.StatusCode < 200 || res.StatusCode > 299:
		logger.Error("GoogleStore:Request:Status", "method", method, "status", res.StatusCode)
		return errors.NewAppError(errors.ErrTransport, googleErrorMessage(raw, res.StatusCode),
			fmt.Errorf("%s returned %d", method, res.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewAppError(errors.ErrTransport, "error decoding Google Calendar response", err)
	}
	return nil
}

func googleErrorMessage(raw []byte, status int) string {
	var e dto.GoogleErrorResponse
	if json.Unmarshal(raw, &e) == nil && strings.TrimSpace(e.Error.Message) != "" {
		return "Google Calendar: " + e.Error.Message
	}
	return fmt.Sprintf("Google Calendar returned %d", status)
}
