package models

import "time"

// WebhookEvent is the durable record of one inbound third-party delivery.
// The row is written before any interpretation of the payload; Processed,
// ErrorMessage and ProcessedAt are the only fields updated afterwards, at
// most once. Rows are never deleted.
type WebhookEvent struct {
	ID           string `gorm:"size:36;primaryKey"`
	Source       string `gorm:"size:64;not null;index"`
	EventType    string `gorm:"size:128;not null;index"`
	Payload      string `gorm:"type:text;not null"` // raw body, unmodified
	ReceivedAt   time.Time
	Processed    bool   `gorm:"default:false;index"`
	ErrorMessage string `gorm:"type:text"`
	ProcessedAt  *time.Time
}
