package db

import (
	"fmt"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.ConversationMessage{},
		&models.TrainingPlan{},
		&models.NutritionPlan{},
		&models.ActivityRecord{},
		&models.CalendarEvent{},
		&models.WebhookEvent{},
		&models.ReplyDelivery{},
	}
}

// AutoMigrate creates or updates all TreinoAI tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
