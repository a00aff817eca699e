// Package assistant generates coaching replies for inbound WhatsApp messages.
package assistant

import (
	"context"
	"fmt"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
)

// Generator produces a reply for a new user message given bounded history.
// Implementations return a *GenerationError on backend failure; they never
// substitute fallback text themselves — that belongs to the caller.
type Generator interface {
	GenerateReply(ctx context.Context, sessionID string, history []models.ConversationMessage, newMessage string) (string, error)
}

// GenerationError is the typed failure raised when the generation backend
// cannot produce a reply. Callers detect it with errors.As and substitute
// the configured canned fallback.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("assistant: %s generation failed: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
