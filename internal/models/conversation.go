package models

import "time"

// Conversation message directions.
const (
	DirectionUser = "user"
	DirectionAI   = "ai"
)

// Response statuses for user messages.
const (
	ResponsePending   = "pending"
	ResponseResponded = "responded"
)

// ConversationMessage is one turn in a WhatsApp coaching conversation.
// User turns are created by webhook ingestion; each processed user turn gets
// at most one AI turn, enforced by the unique index on ReplyToID.
type ConversationMessage struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	SessionID      string `gorm:"size:64;not null;index"`
	Direction      string `gorm:"size:8;not null"` // "user" or "ai"
	Content        string `gorm:"type:text;not null"`
	Channel        string `gorm:"size:32"` // originating channel, e.g. "whatsapp"
	SenderID       string `gorm:"size:64"`
	Category       string `gorm:"size:32"`
	ResponseStatus string `gorm:"size:16;default:pending"`
	ReplyToID      *uint  `gorm:"uniqueIndex"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
