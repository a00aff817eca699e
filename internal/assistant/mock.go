package assistant

import (
	"context"
	"sync"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
)

// MockGenerator implements Generator for testing. It records calls and can
// be made to fail deterministically.
type MockGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	lastMsg string
}

// NewMockGenerator creates a MockGenerator that returns reply.
func NewMockGenerator(reply string) *MockGenerator {
	return &MockGenerator{reply: reply}
}

// Fail makes subsequent calls return a GenerationError wrapping err.
func (m *MockGenerator) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GenerateReply returns the canned reply or the configured failure.
func (m *MockGenerator) GenerateReply(ctx context.Context, sessionID string, history []models.ConversationMessage, newMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastMsg = newMessage
	if m.err != nil {
		return "", &GenerationError{Backend: "mock", Err: m.err}
	}
	return m.reply, nil
}

// Calls returns how many times GenerateReply has been invoked.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastMessage returns the most recent new message passed in.
func (m *MockGenerator) LastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMsg
}
