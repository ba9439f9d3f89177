package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smart-planner/core/errors"
	"smart-planner/core/logger"
	"smart-planner/modules/planner/entity"

	"github.com/peterbourgon/diskv/v3"
)

// WireEvent is an event as the calendar service serializes it
type WireEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	AllDay      bool   `json:"all_day"`
	Location    string `json:"location"`
	Type        string `json:"type"`
}

type wireEventBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	AllDay      bool   `json:"all_day"`
	Location    string `json:"location"`
	Type        string `json:"type"`
}

// SnapshotCache keeps the last good event list per key on disk.
type SnapshotCache struct {
	d *diskv.Diskv
}

func NewSnapshotCache(dir string) *SnapshotCache {
	return &SnapshotCache{d: diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024,
	})}
}

func (c *SnapshotCache) Save(key string, events []entity.Event) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return c.d.Write(key, raw)
}

func (c *SnapshotCache) Load(key string) ([]entity.Event, bool) {
	if !c.d.Has(key) {
		return nil, false
	}
	raw, err := c.d.Read(key)
	if err != nil {
		return nil, false
	}
	var events []entity.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, false
	}
	return events, true
}

// RemoteStore is an EventStore backed by a calendar service reachable over HTTP.
type RemoteStore struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	loc         *time.Location
	cache       *SnapshotCache
	snapshotKey string
}

type RemoteStoreConfig struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	Location    *time.Location
	Cache       *SnapshotCache // optional
	SnapshotKey string
}

func NewRemoteStore(cfg RemoteStoreConfig) *RemoteStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &RemoteStore{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		loc:         cfg.Location,
		cache:       cfg.Cache,
		snapshotKey: cfg.SnapshotKey,
	}
}

func (s *RemoteStore) List(ctx context.Context) ([]entity.Event, error) {
	var wire []WireEvent
	if err := s.do(ctx, http.MethodGet, "/get_tasks", nil, &wire); err != nil {
		return nil, err
	}

	events := make([]entity.Event, 0, len(wire))
	for _, w := range wire {
		ev, err := s.toEvent(w)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrTransport, "calendar service returned a malformed event", err)
		}
		events = append(events, ev)
	}

	if s.cache != nil && s.snapshotKey != "" {
		if err := s.cache.Save(s.snapshotKey, events); err != nil {
			logger.Warn("RemoteStore:List:SnapshotSave", "error", err)
		}
	}
	return events, nil
}

// ListForDisplay falls back to the last saved snapshot when the service is
// unreachable. Only read paths that render may use it.
func (s *RemoteStore) ListForDisplay(ctx context.Context) ([]entity.Event, bool, error) {
	events, err := s.List(ctx)
	if err == nil {
		return events, false, nil
	}
	if s.cache != nil && s.snapshotKey != "" {
		if cached, ok := s.cache.Load(s.snapshotKey); ok {
			logger.Warn("RemoteStore:ListForDisplay:Stale", "key", s.snapshotKey, "error", err)
			return cached, true, nil
		}
	}
	return nil, false, err
}

func (s *RemoteStore) Create(ctx context.Context, draft entity.EventDraft) (entity.Event, error) {
	var w WireEvent
	if err := s.do(ctx, http.MethodPost, "/set_task", s.toBody(draft), &w); err != nil {
		return entity.Event{}, err
	}
	return s.written(w, draft)
}

func (s *RemoteStore) Update(ctx context.Context, id string, draft entity.EventDraft) (entity.Event, error) {
	var w WireEvent
	if err := s.do(ctx, http.MethodPut, "/update_task/"+url.PathEscape(id), s.toBody(draft), &w); err != nil {
		return entity.Event{}, err
	}
	if w.ID == "" {
		w.ID = id
	}
	return s.written(w, draft)
}

func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/delete_task?event_id="+url.QueryEscape(id), nil, nil)
}

// written prefers the service's echo of the event and falls back to the draft
// when the response carried no body.
func (s *RemoteStore) written(w WireEvent, draft entity.EventDraft) (entity.Event, error) {
	if w.StartTime == "" {
		return draft.ToEvent(w.ID), nil
	}
	ev, err := s.toEvent(w)
	if err != nil {
		return entity.Event{}, errors.NewAppError(errors.ErrTransport, "calendar service returned a malformed event", err)
	}
	return ev, nil
}

func (s *RemoteStore) toEvent(w WireEvent) (entity.Event, error) {
	start, err := ParseTime(w.StartTime, s.loc)
	if err != nil {
		return entity.Event{}, fmt.Errorf("event %s start: %w", w.ID, err)
	}
	end, err := ParseTime(w.EndTime, s.loc)
	if err != nil {
		return entity.Event{}, fmt.Errorf("event %s end: %w", w.ID, err)
	}
	return entity.Event{
		ID:          w.ID,
		Title:       w.Title,
		Start:       start,
		End:         end,
		Category:    entity.NormalizeCategory(w.Type),
		Description: w.Description,
		Location:    w.Location,
		AllDay:      w.AllDay,
	}, nil
}

func (s *RemoteStore) toBody(d entity.EventDraft) wireEventBody {
	return wireEventBody{
		Title:       d.Title,
		Description: d.Description,
		StartTime:   d.Start.Format(time.RFC3339),
		EndTime:     d.End.Format(time.RFC3339),
		AllDay:      d.AllDay,
		Location:    d.Location,
		Type:        string(entity.NormalizeCategory(string(d.Category))),
	}
}

func (s *RemoteStore) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("RemoteStore:Request:Error", "method", method, "path", path, "error", err)
		return errors.NewAppError(errors.ErrTransport, "calendar service is unreachable", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.NewAppError(errors.ErrTransport, "error reading calendar service response", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.Error("RemoteStore:Request:Status", "method", method, "path", path, "status", res.StatusCode)
		return errors.NewAppError(errors.ErrTransport, errorMessage(raw, res.StatusCode),
			fmt.Errorf("%s %s returned %d", method, path, res.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decodeData(raw, out); err != nil {
		return errors.NewAppError(errors.ErrTransport, "error decoding calendar service response", err)
	}
	return nil
}

// decodeData unwraps a {"data": ...} envelope when present
func decodeData(raw []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(raw, out)
}

func errorMessage(raw []byte, status int) string {
	var e struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Detail != "" {
			return e.Detail
		}
	}
	return fmt.Sprintf("calendar service returned %d", status)
}
