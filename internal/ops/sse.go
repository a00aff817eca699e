package ops

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/feed"
)

// streamEvent is the wire shape of one notification on the SSE stream.
type streamEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func toStreamEvent(ev feed.NotificationEvent) streamEvent {
	return streamEvent{
		ID:          ev.ID,
		Kind:        string(ev.Kind),
		Title:       ev.Title,
		Description: ev.Description,
		Timestamp:   ev.Timestamp,
	}
}

// handleStream serves the live notification feed over SSE. New ring entries
// are pushed as "notification" events; heartbeats keep proxies from closing
// the connection.
func handleStream(fm *feed.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Without a feed only the connected event is sent — tests use nil.
		if fm == nil {
			return
		}

		// Replay the current ring so a client joining late still sees the
		// latest notifications, then track what has been sent.
		seen := make(map[string]bool)
		for _, ev := range reversed(fm.Ring().Snapshot()) {
			writeSSE(c.Writer, "notification", toStreamEvent(ev))
			seen[ev.ID] = true
		}
		c.Writer.Flush()

		ctx := c.Request.Context()
		ticker := time.NewTicker(1 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				fresh := false
				for _, ev := range reversed(fm.Ring().Snapshot()) {
					if seen[ev.ID] {
						continue
					}
					writeSSE(c.Writer, "notification", toStreamEvent(ev))
					seen[ev.ID] = true
					fresh = true
				}
				if fresh {
					c.Writer.Flush()
				}
			}
		}
	}
}

// reversed returns the snapshot oldest-first so events stream in arrival
// order.
func reversed(events []feed.NotificationEvent) []feed.NotificationEvent {
	out := make([]feed.NotificationEvent, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
