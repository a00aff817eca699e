package feed

import (
	"context"
	"sync"
)

// ConnState is the connectivity state of one resource subscription.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateActive       ConnState = "active"
	StateDisconnected ConnState = "disconnected"
)

// Source delivers change notifications for a watched resource. Delivery is
// at-least-once and best-effort ordered within a single subscription.
type Source interface {
	// Subscribe opens a change feed for one resource. The feed stays open
	// until the context is cancelled, Close is called, or the source loses
	// connectivity (signalled on States followed by channel close).
	Subscribe(ctx context.Context, resource Resource) (*SourceFeed, error)
}

// SourceFeed carries one subscription's event and state channels. Both
// channels are closed by the source when the feed ends.
type SourceFeed struct {
	Events <-chan ChangeEvent
	States <-chan ConnState

	closeOnce sync.Once
	stop      func()
}

// NewSourceFeed wraps channels and a stop function into a SourceFeed.
// Source implementations call this; consumers only read the channels.
func NewSourceFeed(events <-chan ChangeEvent, states <-chan ConnState, stop func()) *SourceFeed {
	return &SourceFeed{Events: events, States: states, stop: stop}
}

// Close tears the feed down. Safe to call more than once.
func (f *SourceFeed) Close() {
	f.closeOnce.Do(func() {
		if f.stop != nil {
			f.stop()
		}
	})
}
