package models

import "time"

// TrainingPlan is a coach-authored workout program for one client.
type TrainingPlan struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:64;not null;index"`
	Title     string `gorm:"size:256;not null"`
	Summary   string `gorm:"type:text"`
	Status    string `gorm:"size:16;default:active"`
	WeekCount int    `gorm:"default:4"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NutritionPlan is a coach-authored meal program for one client.
type NutritionPlan struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	UserID         string `gorm:"size:64;not null;index"`
	Title          string `gorm:"size:256;not null"`
	Summary        string `gorm:"type:text"`
	Status         string `gorm:"size:16;default:active"`
	CaloriesPerDay int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
