package feed

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DefaultPollInterval is how often the poller checks each table for changes.
const DefaultPollInterval = 5 * time.Second

// Poller implements Source by polling the coaching tables through GORM.
// Each subscription keeps an id high-water mark for inserts and a timestamp
// watermark for updates. The first poll seeds the watermarks silently so a
// fresh subscription does not replay existing rows as a burst of events.
type Poller struct {
	db       *gorm.DB
	interval time.Duration
}

// PollerOpts holds parameters for creating a Poller.
type PollerOpts struct {
	DB           *gorm.DB
	PollInterval time.Duration // defaults to DefaultPollInterval
}

// NewPoller creates a Poller.
func NewPoller(opts PollerOpts) (*Poller, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("feed: poller: db is required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{db: opts.DB, interval: interval}, nil
}

// Subscribe opens a polling feed for one resource.
func (p *Poller) Subscribe(ctx context.Context, resource Resource) (*SourceFeed, error) {
	if _, ok := kindByResource[resource]; !ok {
		return nil, fmt.Errorf("feed: poller: unknown resource %q", resource)
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan ChangeEvent, 64)
	states := make(chan ConnState, 8)

	go p.run(ctx, resource, events, states)

	return NewSourceFeed(events, states, cancel), nil
}

// run is the per-subscription poll loop. It closes both channels on exit.
func (p *Poller) run(ctx context.Context, resource Resource, events chan<- ChangeEvent, states chan<- ConnState) {
	defer close(events)
	defer close(states)

	sendState(states, StateConnecting)

	lastID, err := p.maxID(resource)
	if err != nil {
		sendState(states, StateDisconnected)
		return
	}
	watermark := time.Now()
	sendState(states, StateActive)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollStart := time.Now()
			prevLastID := lastID

			inserted, err := p.rowsAfterID(resource, lastID)
			if err != nil {
				sendState(states, StateDisconnected)
				return
			}
			for _, row := range inserted {
				if id := rowID(row); id > lastID {
					lastID = id
				}
				if !emit(ctx, events, ChangeEvent{Resource: resource, Op: OpInsert, Record: row}) {
					return
				}
			}

			updated, err := p.rowsUpdatedSince(resource, watermark, prevLastID)
			if err != nil {
				sendState(states, StateDisconnected)
				return
			}
			for _, row := range updated {
				if !emit(ctx, events, ChangeEvent{Resource: resource, Op: OpUpdate, Record: row}) {
					return
				}
			}

			watermark = pollStart
		}
	}
}

// maxID returns the current high-water mark for a table.
func (p *Poller) maxID(resource Resource) (int64, error) {
	var max int64
	err := p.db.Table(string(resource)).
		Select("COALESCE(MAX(id), 0)").Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("feed: poller: seed %s: %w", resource, err)
	}
	return max, nil
}

// rowsAfterID fetches rows inserted since the id high-water mark.
func (p *Poller) rowsAfterID(resource Resource, lastID int64) ([]map[string]any, error) {
	var rows []map[string]any
	err := p.db.Table(string(resource)).
		Where("id > ?", lastID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("feed: poller: inserts %s: %w", resource, err)
	}
	return rows, nil
}

// rowsUpdatedSince fetches pre-existing rows touched since the watermark.
// Rows above the previous id high-water mark are excluded so a fresh insert
// is not also reported as an update in the same cycle.
func (p *Poller) rowsUpdatedSince(resource Resource, watermark time.Time, prevLastID int64) ([]map[string]any, error) {
	var rows []map[string]any
	err := p.db.Table(string(resource)).
		Where("updated_at > ? AND id <= ?", watermark, prevLastID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("feed: poller: updates %s: %w", resource, err)
	}
	return rows, nil
}

// rowID extracts the integer id from a raw row, tolerating driver types.
func rowID(row map[string]any) int64 {
	switch v := row["id"].(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// emit sends an event unless the context has been cancelled.
func emit(ctx context.Context, events chan<- ChangeEvent, ev ChangeEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// sendState delivers a state transition without blocking the poll loop.
func sendState(states chan<- ConnState, s ConnState) {
	select {
	case states <- s:
	default:
	}
}
