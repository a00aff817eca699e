package delivery

import (
	"errors"
	"fmt"
	"time"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
	"gorm.io/gorm"
)

// Outcome is the result of one dispatch attempt.
type Outcome struct {
	status string
	reason string
}

// Delivered is the success outcome.
func Delivered() Outcome {
	return Outcome{status: models.DeliveryDelivered}
}

// Failed records a failure with its reason.
func Failed(reason string) Outcome {
	return Outcome{status: models.DeliveryFailed, reason: reason}
}

// Tracker records dispatch attempts and outcomes per reply. It keeps
// bookkeeping only; retry policy belongs to whoever calls Dispatch again.
type Tracker struct {
	db *gorm.DB
}

// NewTracker creates a Tracker.
func NewTracker(db *gorm.DB) (*Tracker, error) {
	if db == nil {
		return nil, fmt.Errorf("delivery: tracker: db is required")
	}
	return &Tracker{db: db}, nil
}

// RecordAttempt upserts the delivery row for a reply: increments the attempt
// counter, stamps the attempt time, and sets the status. Repeating the same
// outcome is safe and simply re-stamps.
func (t *Tracker) RecordAttempt(replyID uint, outcome Outcome) error {
	var row models.ReplyDelivery
	err := t.db.Where("message_id = ?", replyID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.ReplyDelivery{MessageID: replyID}
	case err != nil:
		return fmt.Errorf("delivery: load attempt row for reply %d: %w", replyID, err)
	}

	row.Attempts++
	row.LastAttemptAt = time.Now()
	row.Status = outcome.status
	row.ErrorMessage = outcome.reason

	if err := t.db.Save(&row).Error; err != nil {
		return fmt.Errorf("delivery: record attempt for reply %d: %w", replyID, err)
	}
	return nil
}

// Status returns the delivery row for a reply, or nil when no attempt has
// been recorded yet.
func (t *Tracker) Status(replyID uint) (*models.ReplyDelivery, error) {
	var row models.ReplyDelivery
	err := t.db.Where("message_id = ?", replyID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delivery: status for reply %d: %w", replyID, err)
	}
	return &row, nil
}
