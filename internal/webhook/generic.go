package webhook

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
	"gorm.io/gorm"
)

// ProcessorFunc interprets one classified webhook payload. A returned error
// marks the durable record as unprocessed with the error message; the raw
// payload is kept either way.
type ProcessorFunc func(db *gorm.DB, payload []byte) error

// Processors returns the registry of known (source, eventType) handlers,
// keyed "source/eventType".
func Processors() map[string]ProcessorFunc {
	return map[string]ProcessorFunc{
		"calendar.google/event.created": processCalendarEvent,
		"calendar.google/event.updated": processCalendarEvent,
		"strava/activity.created":       processActivityCreated,
	}
}

// genericRequest is the envelope for non-chat webhook deliveries.
type genericRequest struct {
	Source    string          `json:"source"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// handleGeneric records an arbitrary third-party event. The raw payload is
// written durably before any interpretation; classification failures are
// captured on the record, not surfaced as HTTP errors, so the sender is not
// driven into pointless retries. Duplicate deliveries are not de-duplicated:
// each call appends a new record.
func (s *Server) handleGeneric(c *gin.Context) {
	var req genericRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Source == "" || req.EventType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and event_type are required"})
		return
	}

	payload := string(req.Payload)
	if payload == "" {
		payload = "{}"
	}

	record := models.WebhookEvent{
		ID:         uuid.NewString(),
		Source:     req.Source,
		EventType:  req.EventType,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Printf("webhook: persist %s/%s event: %v", req.Source, req.EventType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record event"})
		return
	}

	s.processRecord(&record, []byte(payload))

	c.JSON(http.StatusOK, gin.H{"success": true, "id": record.ID})
}

// processRecord classifies and runs the payload through its processor, then
// stamps the outcome onto the durable record exactly once.
func (s *Server) processRecord(record *models.WebhookEvent, payload []byte) {
	key := record.Source + "/" + record.EventType

	var procErr error
	if proc, ok := s.processors[key]; ok {
		procErr = proc(s.db, payload)
	} else {
		procErr = fmt.Errorf("no processor registered for %s", key)
	}

	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
	}
	updates := map[string]any{
		"processed":     procErr == nil,
		"processed_at":  time.Now(),
		"error_message": errMsg,
	}
	if err := s.db.Model(&models.WebhookEvent{}).
		Where("id = ?", record.ID).
		Updates(updates).Error; err != nil {
		log.Printf("webhook: stamp outcome on %s: %v", record.ID, err)
	}
	if procErr != nil {
		log.Printf("webhook: process %s (%s): %v", record.ID, key, procErr)
	}
}

// calendarPayload is the shape providers send for calendar sync events.
type calendarPayload struct {
	UserID          string    `json:"user_id"`
	ProviderEventID string    `json:"provider_event_id"`
	Title           string    `json:"title"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Location        string    `json:"location"`
}

// processCalendarEvent upserts a synced calendar entry by provider event id.
func processCalendarEvent(db *gorm.DB, payload []byte) error {
	var p calendarPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("parse calendar payload: %w", err)
	}
	if p.UserID == "" || p.ProviderEventID == "" {
		return fmt.Errorf("calendar payload missing user_id or provider_event_id")
	}

	var existing models.CalendarEvent
	err := db.Where("provider = ? AND provider_event_id = ?", "google", p.ProviderEventID).
		First(&existing).Error
	if err == nil {
		existing.Title = p.Title
		existing.StartsAt = p.StartsAt
		existing.EndsAt = p.EndsAt
		existing.Location = p.Location
		if err := db.Save(&existing).Error; err != nil {
			return fmt.Errorf("update calendar event: %w", err)
		}
		return nil
	}

	ev := models.CalendarEvent{
		UserID:          p.UserID,
		Provider:        "google",
		ProviderEventID: p.ProviderEventID,
		Title:           p.Title,
		StartsAt:        p.StartsAt,
		EndsAt:          p.EndsAt,
		Location:        p.Location,
	}
	if err := db.Create(&ev).Error; err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// activityPayload is the shape the activity-tracking provider sends.
type activityPayload struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Sport        string    `json:"sport"`
	DurationMin  int       `json:"duration_min"`
	DistanceKm   float64   `json:"distance_km"`
	GoalAchieved bool      `json:"goal_achieved"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// processActivityCreated appends one synced activity record.
func processActivityCreated(db *gorm.DB, payload []byte) error {
	var p activityPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("parse activity payload: %w", err)
	}
	if p.UserID == "" || p.Name == "" {
		return fmt.Errorf("activity payload missing user_id or name")
	}

	rec := models.ActivityRecord{
		UserID:       p.UserID,
		Name:         p.Name,
		Sport:        p.Sport,
		DurationMin:  p.DurationMin,
		DistanceKm:   p.DistanceKm,
		GoalAchieved: p.GoalAchieved,
		RecordedAt:   p.RecordedAt,
	}
	if err := db.Create(&rec).Error; err != nil {
		return fmt.Errorf("create activity record: %w", err)
	}
	return nil
}
