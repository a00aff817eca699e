package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Handle is one resource subscription owned by a Manager for the lifetime of
// a session. State only moves forward: connecting → active → disconnected.
// A dropped subscription is not revived; Resubscribe creates a new Handle.
type Handle struct {
	resource Resource

	mu       sync.Mutex
	state    ConnState
	feed     *SourceFeed
	released bool
}

// Resource returns the watched resource for this handle.
func (h *Handle) Resource() Resource { return h.resource }

// State returns the current connectivity state.
func (h *Handle) State() ConnState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// setState applies a transition, ignoring any attempt to move a
// disconnected handle back to an earlier state.
func (h *Handle) setState(s ConnState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateDisconnected {
		return
	}
	h.state = s
}

// Release tears the handle down. Releasing an already-released handle is a
// no-op.
func (h *Handle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.state = StateDisconnected
	feed := h.feed
	h.mu.Unlock()

	if feed != nil {
		feed.Close()
	}
}

// Released reports whether the handle has been torn down.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Manager owns one subscription per watched resource for one user session.
// Raw changes are forwarded to the normalizer and pushed onto the session's
// notification ring; an optional OnEvent hook drives transient UI feedback.
type Manager struct {
	source  Source
	ring    *Ring
	onEvent func(NotificationEvent)

	mu      sync.Mutex
	handles map[Resource]*Handle
	closed  bool

	wg sync.WaitGroup
}

// ManagerOpts holds parameters for creating a Manager.
type ManagerOpts struct {
	Source  Source
	Ring    *Ring                   // defaults to NewRing(DefaultRingCapacity)
	OnEvent func(NotificationEvent) // optional transient-notification hook
}

// NewManager creates a Manager.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("feed: manager: source is required")
	}
	ring := opts.Ring
	if ring == nil {
		ring = NewRing(DefaultRingCapacity)
	}
	return &Manager{
		source:  opts.Source,
		ring:    ring,
		onEvent: opts.OnEvent,
		handles: make(map[Resource]*Handle),
	}, nil
}

// Ring returns the session's notification ring.
func (m *Manager) Ring() *Ring { return m.ring }

// Start subscribes to every watched resource. On any subscription failure it
// releases whatever was already opened and returns the error.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("feed: manager: already closed")
	}
	for _, resource := range AllResources() {
		if err := m.subscribeLocked(ctx, resource); err != nil {
			for _, h := range m.handles {
				h.Release()
			}
			return err
		}
	}
	return nil
}

// Resubscribe tears down the handle for one resource and opens a fresh one.
// Events that occurred during the outage are not replayed.
func (m *Manager) Resubscribe(ctx context.Context, resource Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("feed: manager: already closed")
	}
	if old, ok := m.handles[resource]; ok {
		old.Release()
	}
	return m.subscribeLocked(ctx, resource)
}

// subscribeLocked opens one subscription and starts its pump goroutine.
// Caller holds m.mu.
func (m *Manager) subscribeLocked(ctx context.Context, resource Resource) error {
	sourceFeed, err := m.source.Subscribe(ctx, resource)
	if err != nil {
		return fmt.Errorf("feed: manager: subscribe %s: %w", resource, err)
	}

	h := &Handle{resource: resource, state: StateConnecting, feed: sourceFeed}
	m.handles[resource] = h

	m.wg.Add(1)
	go m.pump(h, sourceFeed)
	return nil
}

// pump forwards one handle's raw events through the normalizer into the
// ring, and applies connectivity transitions. Nothing in this loop is
// allowed to escape as a panic or error; malformed changes are logged and
// dropped.
func (m *Manager) pump(h *Handle, sourceFeed *SourceFeed) {
	defer m.wg.Done()

	events := sourceFeed.Events
	states := sourceFeed.States

	for events != nil || states != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				h.setState(StateDisconnected)
				continue
			}
			nev, ok := Normalize(ev)
			if !ok {
				log.Printf("feed: skipping unrecognized change %s/%s", ev.Resource, ev.Op)
				continue
			}
			m.ring.Push(nev)
			if m.onEvent != nil {
				m.onEvent(nev)
			}
		case s, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			h.setState(s)
		}
	}
}

// Connected reports the aggregate connectivity signal for the UI: true when
// at least one subscription is active.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.handles {
		if h.State() == StateActive {
			return true
		}
	}
	return false
}

// Handle returns the current handle for a resource, or nil.
func (m *Manager) Handle(resource Resource) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles[resource]
}

// Close releases every handle and waits for the pumps to drain. Closing an
// already-closed manager is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		h.Release()
	}
	m.wg.Wait()
}
