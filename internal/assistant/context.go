package assistant

import (
	"fmt"
	"strings"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
)

// MaxContextTurns caps how many prior turns feed the prompt.
const MaxContextTurns = 5

// DefaultSystemPrompt frames the assistant for coaching conversations.
const DefaultSystemPrompt = `Você é o assistente da TreinoAI, uma plataforma de coaching fitness.
Responda em português, de forma curta e motivadora, sobre treinos, nutrição e agenda do aluno.
Nunca invente dados do plano do aluno; quando não souber, oriente a falar com o treinador.`

// Turn is one prompt line: a role plus what was said.
type Turn struct {
	Role    string // "system", "user" or "ai"
	Content string
}

// BuildContext assembles the bounded prompt: the system instruction, up to
// MaxContextTurns most recent prior turns re-ordered oldest first, then the
// new message. History arrives newest first, as the storage query returns it.
func BuildContext(systemPrompt string, history []models.ConversationMessage, newMessage string) []Turn {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	turns := []Turn{{Role: "system", Content: systemPrompt}}

	recent := history
	if len(recent) > MaxContextTurns {
		recent = recent[:MaxContextTurns]
	}
	// Reverse newest-first storage order into conversation order.
	for i := len(recent) - 1; i >= 0; i-- {
		turns = append(turns, Turn{Role: recent[i].Direction, Content: recent[i].Content})
	}

	turns = append(turns, Turn{Role: models.DirectionUser, Content: newMessage})
	return turns
}

// RenderPrompt flattens turns into a single prompt string for backends that
// take plain text.
func RenderPrompt(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		switch t.Role {
		case "system":
			b.WriteString(t.Content)
			b.WriteString("\n\n")
		case models.DirectionAI:
			fmt.Fprintf(&b, "Assistente: %s\n", t.Content)
		default:
			fmt.Fprintf(&b, "Aluno: %s\n", t.Content)
		}
	}
	b.WriteString("Assistente:")
	return b.String()
}
