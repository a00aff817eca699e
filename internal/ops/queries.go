package ops

import (
	"time"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
	"gorm.io/gorm"
)

// WebhookEventRow holds one webhook delivery for display.
type WebhookEventRow struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	EventType    string     `json:"event_type"`
	ReceivedAt   time.Time  `json:"received_at"`
	Processed    bool       `json:"processed"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// RecentWebhookEvents returns the newest webhook deliveries, optionally
// filtered by processed state.
func RecentWebhookEvents(db *gorm.DB, processed *bool, limit int) ([]WebhookEventRow, error) {
	if limit <= 0 {
		limit = 50
	}
	q := db.Model(&models.WebhookEvent{}).Order("received_at DESC").Limit(limit)
	if processed != nil {
		q = q.Where("processed = ?", *processed)
	}

	var events []models.WebhookEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}

	rows := make([]WebhookEventRow, len(events))
	for i, e := range events {
		rows[i] = WebhookEventRow{
			ID:           e.ID,
			Source:       e.Source,
			EventType:    e.EventType,
			ReceivedAt:   e.ReceivedAt,
			Processed:    e.Processed,
			ErrorMessage: e.ErrorMessage,
			ProcessedAt:  e.ProcessedAt,
		}
	}
	return rows, nil
}

// DeliveryRow holds one reply delivery for display.
type DeliveryRow struct {
	MessageID     uint      `json:"message_id"`
	Status        string    `json:"status"`
	Attempts      int       `json:"attempts"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// RecentDeliveries returns the newest reply delivery records.
func RecentDeliveries(db *gorm.DB, limit int) ([]DeliveryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var deliveries []models.ReplyDelivery
	if err := db.Order("last_attempt_at DESC").Limit(limit).Find(&deliveries).Error; err != nil {
		return nil, err
	}

	rows := make([]DeliveryRow, len(deliveries))
	for i, d := range deliveries {
		rows[i] = DeliveryRow{
			MessageID:     d.MessageID,
			Status:        d.Status,
			Attempts:      d.Attempts,
			LastAttemptAt: d.LastAttemptAt,
			ErrorMessage:  d.ErrorMessage,
		}
	}
	return rows, nil
}
