package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smart-planner/modules/planner/entity"
)

type call struct {
	Kind string
	ID   string
	At   time.Time
}

// fakeStore is an in-memory EventStore that records calls and can fail on demand.
type fakeStore struct {
	mu       sync.Mutex
	events   []entity.Event
	calls    []call
	nextID   int
	failOn   map[string]error // keyed by draft title
	listErr  error
	delay    time.Duration
	inFlight int
	maxSeen  int
}

func newFakeStore(events ...entity.Event) *fakeStore {
	return &fakeStore{events: append([]entity.Event(nil), events...), failOn: map[string]error{}, nextID: 100}
}

func (s *fakeStore) record(kind, id string) {
	s.calls = append(s.calls, call{Kind: kind, ID: id, At: time.Now()})
}

func (s *fakeStore) enter() {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
}

func (s *fakeStore) leave() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *fakeStore) List(_ context.Context) ([]entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("list", "")
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]entity.Event(nil), s.events...), nil
}

func (s *fakeStore) Create(_ context.Context, d entity.EventDraft) (entity.Event, error) {
	s.enter()
	defer s.leave()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("create", "")
	if err := s.failOn[d.Title]; err != nil {
		return entity.Event{}, err
	}
	s.nextID++
	ev := d.ToEvent(fmt.Sprint(s.nextID))
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *fakeStore) Update(_ context.Context, id string, d entity.EventDraft) (entity.Event, error) {
	s.enter()
	defer s.leave()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("update", id)
	if err := s.failOn[d.Title]; err != nil {
		return entity.Event{}, err
	}
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i] = d.ToEvent(id)
			return s.events[i], nil
		}
	}
	return entity.Event{}, fmt.Errorf("event %s not found", id)
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete", id)
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

func (s *fakeStore) writes() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if c.Kind == "create" || c.Kind == "update" {
			out = append(out, c)
		}
	}
	return out
}

func (s *fakeStore) callKinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Kind
	}
	return out
}
