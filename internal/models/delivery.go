package models

import "time"

// Delivery statuses for AI replies handed to the outbound channel.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// ReplyDelivery tracks attempts to forward one AI reply to the outbound
// WhatsApp channel. One row per reply; the attempt counter is monotonic.
type ReplyDelivery struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	MessageID     uint   `gorm:"not null;uniqueIndex"`
	Status        string `gorm:"size:16;default:pending"`
	Attempts      int    `gorm:"default:0"`
	LastAttemptAt time.Time
	ErrorMessage  string `gorm:"type:text"`
}
