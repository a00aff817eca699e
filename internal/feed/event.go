// Package feed turns raw change notifications from the coaching tables into
// a bounded stream of in-app notifications.
package feed

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Resource identifies one of the watched coaching tables.
type Resource string

const (
	ResourceConversationMessages Resource = "conversation_messages"
	ResourceTrainingPlans        Resource = "training_plans"
	ResourceNutritionPlans       Resource = "nutrition_plans"
	ResourceActivityRecords      Resource = "activity_records"
	ResourceCalendarEvents       Resource = "calendar_events"
)

// AllResources returns every watched resource, in subscription order.
func AllResources() []Resource {
	return []Resource{
		ResourceConversationMessages,
		ResourceTrainingPlans,
		ResourceNutritionPlans,
		ResourceActivityRecords,
		ResourceCalendarEvents,
	}
}

// Operation is the change type reported by the underlying feed.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ChangeEvent is a raw change notification as delivered by a Source.
// Record is the new row, passed through untouched.
type ChangeEvent struct {
	Resource Resource
	Op       Operation
	Record   map[string]any
}

// Kind classifies a normalized notification.
type Kind string

const (
	KindNewPlan           Kind = "new_plan"
	KindNewMessage        Kind = "new_message"
	KindPerformanceUpdate Kind = "performance_update"
	KindGoalAchievement   Kind = "goal_achievement"
)

// NotificationEvent is the canonical notification shape shown to the user.
// Immutable after creation; it expires only by eviction from the ring.
type NotificationEvent struct {
	ID          string
	Kind        Kind
	Title       string
	Description string
	Timestamp   time.Time
	Source      map[string]any
}

// kindByResource maps each watched table to a notification kind. Calendar
// events map to new_plan, matching the product's current grouping of
// schedule changes under plan notifications.
var kindByResource = map[Resource]Kind{
	ResourceConversationMessages: KindNewMessage,
	ResourceTrainingPlans:        KindNewPlan,
	ResourceNutritionPlans:       KindNewPlan,
	ResourceActivityRecords:      KindPerformanceUpdate,
	ResourceCalendarEvents:       KindNewPlan,
}

// Normalize converts one raw change into a NotificationEvent. The second
// return is false when the combination of resource and operation is not one
// this pipeline understands; callers log and skip those without failing.
func Normalize(ev ChangeEvent) (NotificationEvent, bool) {
	switch ev.Op {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return NotificationEvent{}, false
	}

	kind, ok := kindByResource[ev.Resource]
	if !ok {
		return NotificationEvent{}, false
	}

	// An activity that closed out a goal is surfaced as an achievement
	// rather than a plain performance update.
	if ev.Resource == ResourceActivityRecords && recordBool(ev.Record, "goal_achieved") {
		kind = KindGoalAchievement
	}

	title, description := describe(ev, kind)

	return NotificationEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Title:       title,
		Description: description,
		Timestamp:   time.Now(),
		Source:      ev.Record,
	}, true
}

// describe builds the human-readable title and description for a change.
// Inserts into plan tables read as "criado"; every other operation reads as
// "atualizado".
func describe(ev ChangeEvent, kind Kind) (title, description string) {
	created := ev.Op == OpInsert

	switch ev.Resource {
	case ResourceConversationMessages:
		title = "Nova mensagem"
		description = "Você recebeu uma nova mensagem do seu treinador."
		if !created {
			description = "Uma mensagem da sua conversa foi atualizada."
		}
	case ResourceTrainingPlans:
		title = withName("Plano de treino", ev.Record, "title")
		if created {
			description = "Um novo plano de treino foi criado para você."
		} else {
			description = "Seu plano de treino foi atualizado."
		}
	case ResourceNutritionPlans:
		title = withName("Plano de nutrição", ev.Record, "title")
		if created {
			description = "Um novo plano de nutrição foi criado para você."
		} else {
			description = "Seu plano de nutrição foi atualizado."
		}
	case ResourceActivityRecords:
		title = withName("Atividade", ev.Record, "name")
		if kind == KindGoalAchievement {
			description = "Parabéns! Você atingiu uma meta."
		} else if created {
			description = "Uma nova atividade foi registrada."
		} else {
			description = "Uma atividade sua foi atualizada."
		}
	case ResourceCalendarEvents:
		title = withName("Agenda", ev.Record, "title")
		if created {
			description = "Um novo compromisso foi criado na sua agenda."
		} else {
			description = "Um compromisso da sua agenda foi atualizado."
		}
	}
	return title, description
}

// withName appends the record's human name to a title prefix when present.
func withName(prefix string, record map[string]any, key string) string {
	if name := recordString(record, key); name != "" {
		return fmt.Sprintf("%s: %s", prefix, name)
	}
	return prefix
}

// recordString reads a string field from a raw record, tolerating absence.
func recordString(record map[string]any, key string) string {
	if record == nil {
		return ""
	}
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

// recordBool reads a boolean field from a raw record. Numeric truthiness is
// accepted because sqlite reports booleans as integers.
func recordBool(record map[string]any, key string) bool {
	if record == nil {
		return false
	}
	switch v := record[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}
