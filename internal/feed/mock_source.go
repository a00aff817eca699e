package feed

import (
	"context"
	"fmt"
	"sync"
)

// MockSource implements Source for testing. Tests drive it by emitting
// change events and state transitions per resource.
type MockSource struct {
	mu      sync.Mutex
	feeds   map[Resource]*mockFeed
	subs    map[Resource]int
	failFor map[Resource]bool
}

type mockFeed struct {
	events chan ChangeEvent
	states chan ConnState
	closed bool
}

// NewMockSource creates a MockSource.
func NewMockSource() *MockSource {
	return &MockSource{
		feeds:   make(map[Resource]*mockFeed),
		subs:    make(map[Resource]int),
		failFor: make(map[Resource]bool),
	}
}

// FailSubscribe makes future Subscribe calls for a resource return an error.
func (s *MockSource) FailSubscribe(resource Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFor[resource] = true
}

// Subscribe opens a fresh feed for the resource, replacing any previous one.
func (s *MockSource) Subscribe(ctx context.Context, resource Resource) (*SourceFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[resource] {
		return nil, fmt.Errorf("mock source: subscribe %s refused", resource)
	}

	mf := &mockFeed{
		events: make(chan ChangeEvent, 16),
		states: make(chan ConnState, 16),
	}
	s.feeds[resource] = mf
	s.subs[resource]++

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !mf.closed {
			mf.closed = true
			close(mf.events)
			close(mf.states)
		}
	}
	return NewSourceFeed(mf.events, mf.states, stop), nil
}

// Emit delivers a change event on the current feed for a resource.
func (s *MockSource) Emit(resource Resource, ev ChangeEvent) {
	s.mu.Lock()
	mf := s.feeds[resource]
	s.mu.Unlock()
	if mf == nil || mf.closed {
		return
	}
	mf.events <- ev
}

// SetState delivers a connectivity transition for a resource.
func (s *MockSource) SetState(resource Resource, state ConnState) {
	s.mu.Lock()
	mf := s.feeds[resource]
	s.mu.Unlock()
	if mf == nil || mf.closed {
		return
	}
	mf.states <- state
}

// SubscribeCount returns how many times a resource has been subscribed.
func (s *MockSource) SubscribeCount(resource Resource) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[resource]
}
