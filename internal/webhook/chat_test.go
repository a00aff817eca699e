package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/assistant"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/delivery"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testFallback = "Recebi sua mensagem! Em instantes seu treinador responde por aqui."

func openWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.ConversationMessage{},
		&models.WebhookEvent{},
		&models.CalendarEvent{},
		&models.ActivityRecord{},
		&models.ReplyDelivery{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// recordingDispatcher captures dispatched replies and can fail on demand.
type recordingDispatcher struct {
	mu         sync.Mutex
	recipients []string
	texts      []string
	err        error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, recipient, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.recipients = append(d.recipients, recipient)
	d.texts = append(d.texts, text)
	return nil
}

func newTestServer(t *testing.T, db *gorm.DB, gen assistant.Generator, disp delivery.Dispatcher) *Server {
	t.Helper()
	opts := ServerOpts{
		DB:           db,
		Generator:    gen,
		FallbackText: testFallback,
	}
	if disp != nil {
		tracker, err := delivery.NewTracker(db)
		if err != nil {
			t.Fatalf("NewTracker: %v", err)
		}
		opts.Dispatcher = disp
		opts.Tracker = tracker
	}
	s, err := NewServer(opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeChatResponse(t *testing.T, w *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestChat_MissingFields(t *testing.T) {
	db := openWebhookTestDB(t)
	s := newTestServer(t, db, assistant.NewMockGenerator("ok"), nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"no sender", map[string]any{"message": "oi"}},
		{"no message", map[string]any{"sender": "5511999999999"}},
		{"digitless sender", map[string]any{"sender": "abc", "message": "oi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, s, "/webhooks/whatsapp", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var body map[string]any
			json.Unmarshal(w.Body.Bytes(), &body)
			if body["error"] == nil {
				t.Error("400 body missing error field")
			}
		})
	}

	var count int64
	db.Model(&models.ConversationMessage{}).Count(&count)
	if count != 0 {
		t.Errorf("%d messages persisted by rejected requests, want 0", count)
	}
}

// ---------------------------------------------------------------------------
// Happy path
// ---------------------------------------------------------------------------

func TestChat_FirstMessageScenario(t *testing.T) {
	// Sender with no history sends "quero treinar hoje": exactly one user
	// and one ai record linked by session, responseStatus ends responded.
	db := openWebhookTestDB(t)
	gen := assistant.NewMockGenerator("Bora! Hoje é dia de treino A.")
	s := newTestServer(t, db, gen, nil)

	w := postJSON(t, s, "/webhooks/whatsapp", map[string]any{
		"sender":  "5511999999999",
		"message": "quero treinar hoje",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	resp := decodeChatResponse(t, w)
	if !resp.Success {
		t.Error("Success = false")
	}
	if resp.SessionID != "5511999999999" {
		t.Errorf("SessionID = %q", resp.SessionID)
	}
	if resp.Message != "Bora! Hoje é dia de treino A." {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.MessageID == 0 || resp.ReplyID == 0 {
		t.Errorf("ids missing: message=%d reply=%d", resp.MessageID, resp.ReplyID)
	}

	var msgs []models.ConversationMessage
	db.Where("session_id = ?", "5511999999999").Order("id ASC").Find(&msgs)
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	user, ai := msgs[0], msgs[1]
	if user.Direction != models.DirectionUser || ai.Direction != models.DirectionAI {
		t.Errorf("directions = %q, %q", user.Direction, ai.Direction)
	}
	if user.ResponseStatus != models.ResponseResponded {
		t.Errorf("user ResponseStatus = %q, want responded", user.ResponseStatus)
	}
	if ai.ReplyToID == nil || *ai.ReplyToID != user.ID {
		t.Errorf("ai.ReplyToID = %v, want %d", ai.ReplyToID, user.ID)
	}
}

func TestChat_HistoryReachesGenerator(t *testing.T) {
	db := openWebhookTestDB(t)
	gen := assistant.NewMockGenerator("ok")
	s := newTestServer(t, db, gen, nil)

	postJSON(t, s, "/webhooks/whatsapp", map[string]any{"sender": "5511988887777", "message": "primeira"})
	postJSON(t, s, "/webhooks/whatsapp", map[string]any{"sender": "5511988887777", "message": "segunda"})

	if gen.LastMessage() != "segunda" {
		t.Errorf("LastMessage = %q, want segunda", gen.LastMessage())
	}
	if gen.Calls() != 2 {
		t.Errorf("Calls = %d, want 2", gen.Calls())
	}
}

func TestChat_MetadataCaptured(t *testing.T) {
	db := openWebhookTestDB(t)
	s := newTestServer(t, db, assistant.NewMockGenerator("ok"), nil)

	postJSON(t, s, "/webhooks/whatsapp", map[string]any{
		"sender":   "5511999999999@s.whatsapp.net",
		"message":  "como está meu plano?",
		"metadata": map[string]any{"channel": "whatsapp", "category": "training"},
	})

	var user models.ConversationMessage
	db.Where("direction = ?", models.DirectionUser).First(&user)
	if user.Channel != "whatsapp" {
		t.Errorf("Channel = %q", user.Channel)
	}
	if user.Category != "training" {
		t.Errorf("Category = %q", user.Category)
	}
	if user.SessionID != "5511999999999" {
		t.Errorf("SessionID = %q (jid suffix not stripped)", user.SessionID)
	}
}

// ---------------------------------------------------------------------------
// Generation failure
// ---------------------------------------------------------------------------

func TestChat_GenerationFailureUsesFallback(t *testing.T) {
	db := openWebhookTestDB(t)
	gen := assistant.NewMockGenerator("nunca usado")
	gen.Fail(errors.New("backend unreachable"))
	s := newTestServer(t, db, gen, nil)

	w := postJSON(t, s, "/webhooks/whatsapp", map[string]any{
		"sender":  "5511999999999",
		"message": "oi",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite generation failure", w.Code)
	}
	resp := decodeChatResponse(t, w)
	if resp.Message != testFallback {
		t.Errorf("Message = %q, want canned fallback", resp.Message)
	}

	var ai models.ConversationMessage
	if err := db.Where("direction = ?", models.DirectionAI).First(&ai).Error; err != nil {
		t.Fatalf("no ai record persisted: %v", err)
	}
	if ai.Content != testFallback {
		t.Errorf("persisted ai content = %q, want fallback", ai.Content)
	}
}

// ---------------------------------------------------------------------------
// Outbound handoff
// ---------------------------------------------------------------------------

func TestChat_DispatchesReplyAndTracksDelivery(t *testing.T) {
	db := openWebhookTestDB(t)
	disp := &recordingDispatcher{}
	s := newTestServer(t, db, assistant.NewMockGenerator("Bom treino!"), disp)

	w := postJSON(t, s, "/webhooks/whatsapp", map[string]any{
		"sender":  "5511999999999",
		"message": "treino de hoje?",
	})
	resp := decodeChatResponse(t, w)

	if len(disp.texts) != 1 || disp.texts[0] != "Bom treino!" {
		t.Fatalf("dispatched texts = %v", disp.texts)
	}
	if disp.recipients[0] != "5511999999999" {
		t.Errorf("recipient = %q", disp.recipients[0])
	}

	var row models.ReplyDelivery
	if err := db.Where("message_id = ?", resp.ReplyID).First(&row).Error; err != nil {
		t.Fatalf("no delivery row: %v", err)
	}
	if row.Status != models.DeliveryDelivered {
		t.Errorf("delivery status = %q, want delivered", row.Status)
	}
	if row.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", row.Attempts)
	}
}

func TestChat_DispatchFailureStillSucceeds(t *testing.T) {
	db := openWebhookTestDB(t)
	disp := &recordingDispatcher{err: errors.New("engine offline")}
	s := newTestServer(t, db, assistant.NewMockGenerator("ok"), disp)

	w := postJSON(t, s, "/webhooks/whatsapp", map[string]any{
		"sender":  "5511999999999",
		"message": "oi",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite dispatch failure", w.Code)
	}
	resp := decodeChatResponse(t, w)

	var row models.ReplyDelivery
	if err := db.Where("message_id = ?", resp.ReplyID).First(&row).Error; err != nil {
		t.Fatalf("no delivery row: %v", err)
	}
	if row.Status != models.DeliveryFailed {
		t.Errorf("delivery status = %q, want failed", row.Status)
	}
	if row.ErrorMessage != "engine offline" {
		t.Errorf("ErrorMessage = %q", row.ErrorMessage)
	}
}
