package webhook

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/delivery"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
)

// chatRequest is the typed envelope for chat-origin webhook calls. Metadata
// is the duck-typed context blob from the channel; it is interpreted here at
// the boundary and never propagated further as an untyped map.
type chatRequest struct {
	Sender   string         `json:"sender"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata"`
}

// chatResponse is the structured success body for chat webhook calls.
type chatResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	MessageID uint   `json:"messageId,omitempty"`
	ReplyID   uint   `json:"replyId,omitempty"`
}

// handleChat processes one inbound chat message: persist the user turn,
// generate a reply (fallback on generation failure), persist the AI turn,
// mark the user turn responded, and hand the reply to the outbound channel.
// Only a missing field or a failure to persist the user turn fails the
// request; everything after that is best-effort and logged.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Sender == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender and message are required"})
		return
	}

	sessionID := SessionID(req.Sender)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender carries no usable identifier"})
		return
	}

	userMsg := models.ConversationMessage{
		SessionID:      sessionID,
		Direction:      models.DirectionUser,
		Content:        req.Message,
		Channel:        metaString(req.Metadata, "channel", "whatsapp"),
		SenderID:       NormalizeSender(req.Sender),
		Category:       metaString(req.Metadata, "category", ""),
		ResponseStatus: models.ResponsePending,
	}
	if err := s.db.Create(&userMsg).Error; err != nil {
		log.Printf("webhook: persist user message for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record message"})
		return
	}

	history, err := s.recentHistory(sessionID, userMsg.ID)
	if err != nil {
		// Context is an enhancement; reply generation degrades to no history.
		log.Printf("webhook: load history for session %s: %v", sessionID, err)
		history = nil
	}

	replyText, err := s.generator.GenerateReply(c.Request.Context(), sessionID, history, req.Message)
	if err != nil {
		log.Printf("webhook: reply generation for session %s: %v", sessionID, err)
		replyText = s.fallback
	}

	resp := chatResponse{
		Success:   true,
		Message:   replyText,
		SessionID: sessionID,
		MessageID: userMsg.ID,
	}

	aiMsg := models.ConversationMessage{
		SessionID: sessionID,
		Direction: models.DirectionAI,
		Content:   replyText,
		Channel:   userMsg.Channel,
		ReplyToID: &userMsg.ID,
	}
	if err := s.db.Create(&aiMsg).Error; err != nil {
		log.Printf("webhook: persist ai reply for session %s: %v", sessionID, err)
	} else {
		resp.ReplyID = aiMsg.ID
	}

	if err := s.db.Model(&models.ConversationMessage{}).
		Where("id = ?", userMsg.ID).
		Update("response_status", models.ResponseResponded).Error; err != nil {
		log.Printf("webhook: mark message %d responded: %v", userMsg.ID, err)
	}

	if s.dispatcher != nil && resp.ReplyID != 0 {
		s.forwardReply(c, aiMsg.ID, userMsg.SenderID, replyText)
	}

	c.JSON(http.StatusOK, resp)
}

// forwardReply hands one reply to the outbound channel and records the
// attempt outcome. Failures are bookkeeping, never request errors.
func (s *Server) forwardReply(c *gin.Context, replyID uint, recipient, text string) {
	outcome := delivery.Delivered()
	if err := s.dispatcher.Dispatch(c.Request.Context(), recipient, text); err != nil {
		log.Printf("webhook: dispatch reply %d: %v", replyID, err)
		outcome = delivery.Failed(err.Error())
	}
	if err := s.tracker.RecordAttempt(replyID, outcome); err != nil {
		log.Printf("webhook: record delivery attempt for reply %d: %v", replyID, err)
	}
}

// recentHistory loads the bounded conversation context, newest first,
// excluding the message that triggered this request.
func (s *Server) recentHistory(sessionID string, excludeID uint) ([]models.ConversationMessage, error) {
	var msgs []models.ConversationMessage
	err := s.db.Where("session_id = ? AND id <> ?", sessionID, excludeID).
		Order("id DESC").
		Limit(s.historyLimit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// metaString reads one string field from the channel metadata blob.
func metaString(meta map[string]any, key, fallback string) string {
	if v, ok := meta[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
