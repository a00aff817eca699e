package models

import "time"

// CalendarEvent is a scheduled session synced from a calendar provider.
type CalendarEvent struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	UserID          string `gorm:"size:64;not null;index"`
	Provider        string `gorm:"size:32"`
	ProviderEventID string `gorm:"size:128;index"`
	Title           string `gorm:"size:256;not null"`
	StartsAt        time.Time
	EndsAt          time.Time
	Location        string `gorm:"size:256"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
