package models

import "time"

// ActivityRecord is one tracked workout or activity, synced from an
// activity-tracking provider or logged manually.
type ActivityRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	UserID       string `gorm:"size:64;not null;index"`
	Name         string `gorm:"size:256;not null"`
	Sport        string `gorm:"size:32"`
	DurationMin  int
	DistanceKm   float64
	GoalAchieved bool `gorm:"default:false"`
	RecordedAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
