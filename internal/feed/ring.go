package feed

import "sync"

// DefaultRingCapacity is how many notifications the ring retains.
const DefaultRingCapacity = 5

// Ring is a bounded, newest-first store of notifications for one session.
// Events are ephemeral UI signals, not an audit log, so there is no removal
// API beyond capacity eviction.
type Ring struct {
	mu       sync.Mutex
	capacity int
	events   []NotificationEvent
}

// NewRing creates a Ring. Non-positive capacities fall back to the default.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Ring{capacity: capacity}
}

// Push prepends an event and evicts the oldest entries beyond capacity.
func (r *Ring) Push(ev NotificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append([]NotificationEvent{ev}, r.events...)
	if len(r.events) > r.capacity {
		r.events = r.events[:r.capacity]
	}
}

// Snapshot returns a copy of the current events, newest first.
func (r *Ring) Snapshot() []NotificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of retained events.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
