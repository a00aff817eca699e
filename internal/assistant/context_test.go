package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
)

// newestFirstHistory builds n turns as the storage query returns them:
// newest first, alternating user/ai, numbered from the newest.
func newestFirstHistory(n int) []models.ConversationMessage {
	msgs := make([]models.ConversationMessage, n)
	for i := 0; i < n; i++ {
		dir := models.DirectionUser
		if i%2 == 1 {
			dir = models.DirectionAI
		}
		msgs[i] = models.ConversationMessage{
			Direction: dir,
			Content:   fmt.Sprintf("turno-%d", i),
		}
	}
	return msgs
}

func TestBuildContext_SystemFirstNewMessageLast(t *testing.T) {
	turns := BuildContext("", newestFirstHistory(2), "quero treinar hoje")

	if turns[0].Role != "system" {
		t.Errorf("turns[0].Role = %q, want system", turns[0].Role)
	}
	if turns[0].Content != DefaultSystemPrompt {
		t.Error("empty system prompt did not fall back to default")
	}
	last := turns[len(turns)-1]
	if last.Role != models.DirectionUser || last.Content != "quero treinar hoje" {
		t.Errorf("last turn = %+v, want the new user message", last)
	}
}

func TestBuildContext_BoundedToFiveTurns(t *testing.T) {
	turns := BuildContext("sp", newestFirstHistory(12), "nova")

	// system + 5 history + new message
	if len(turns) != 7 {
		t.Fatalf("len(turns) = %d, want 7", len(turns))
	}
}

func TestBuildContext_HistoryOldestFirst(t *testing.T) {
	turns := BuildContext("sp", newestFirstHistory(3), "nova")

	// History arrives newest first (turno-0 newest); the prompt slice must
	// read oldest first.
	hist := turns[1 : len(turns)-1]
	want := []string{"turno-2", "turno-1", "turno-0"}
	for i, w := range want {
		if hist[i].Content != w {
			t.Errorf("hist[%d] = %q, want %q", i, hist[i].Content, w)
		}
	}
}

func TestBuildContext_KeepsMostRecentSlice(t *testing.T) {
	turns := BuildContext("sp", newestFirstHistory(8), "nova")

	hist := turns[1 : len(turns)-1]
	// The five most recent are turno-4 .. turno-0, oldest first.
	if hist[0].Content != "turno-4" {
		t.Errorf("oldest kept turn = %q, want turno-4", hist[0].Content)
	}
	if hist[len(hist)-1].Content != "turno-0" {
		t.Errorf("newest kept turn = %q, want turno-0", hist[len(hist)-1].Content)
	}
}

func TestBuildContext_NoHistory(t *testing.T) {
	turns := BuildContext("sp", nil, "oi")
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
}

func TestRenderPrompt_RolesLabelled(t *testing.T) {
	prompt := RenderPrompt([]Turn{
		{Role: "system", Content: "instrução"},
		{Role: models.DirectionUser, Content: "oi"},
		{Role: models.DirectionAI, Content: "olá"},
	})

	if !strings.HasPrefix(prompt, "instrução") {
		t.Errorf("prompt does not start with system instruction: %q", prompt)
	}
	if !strings.Contains(prompt, "Aluno: oi") {
		t.Errorf("prompt missing user line: %q", prompt)
	}
	if !strings.Contains(prompt, "Assistente: olá") {
		t.Errorf("prompt missing ai line: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Assistente:") {
		t.Errorf("prompt does not end with generation cue: %q", prompt)
	}
}

func TestGenerationError_DetectableWithErrorsAs(t *testing.T) {
	gen := NewMockGenerator("resposta")
	gen.Fail(errors.New("backend down"))

	_, err := gen.GenerateReply(context.Background(), "s1", nil, "oi")
	if err == nil {
		t.Fatal("expected error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error %v is not a *GenerationError", err)
	}
	if genErr.Backend != "mock" {
		t.Errorf("Backend = %q, want mock", genErr.Backend)
	}
	if !strings.Contains(genErr.Error(), "backend down") {
		t.Errorf("Error() = %q, want wrapped cause", genErr.Error())
	}
}
