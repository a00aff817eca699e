package feed

import (
	"strings"
	"testing"
)

func TestNormalize_KindMapping(t *testing.T) {
	tests := []struct {
		name     string
		resource Resource
		op       Operation
		record   map[string]any
		want     Kind
	}{
		{"chat insert", ResourceConversationMessages, OpInsert, nil, KindNewMessage},
		{"training plan insert", ResourceTrainingPlans, OpInsert, map[string]any{"title": "Base aeróbica"}, KindNewPlan},
		{"nutrition plan update", ResourceNutritionPlans, OpUpdate, map[string]any{"title": "Cutting"}, KindNewPlan},
		{"activity insert", ResourceActivityRecords, OpInsert, map[string]any{"name": "Corrida"}, KindPerformanceUpdate},
		{"calendar insert maps to new_plan", ResourceCalendarEvents, OpInsert, map[string]any{"title": "Avaliação"}, KindNewPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Normalize(ChangeEvent{Resource: tt.resource, Op: tt.op, Record: tt.record})
			if !ok {
				t.Fatal("Normalize returned ok=false")
			}
			if ev.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", ev.Kind, tt.want)
			}
			if ev.ID == "" {
				t.Error("ID is empty")
			}
			if ev.Timestamp.IsZero() {
				t.Error("Timestamp is zero")
			}
		})
	}
}

func TestNormalize_KindNeverEmpty(t *testing.T) {
	valid := map[Kind]bool{
		KindNewPlan:           true,
		KindNewMessage:        true,
		KindPerformanceUpdate: true,
		KindGoalAchievement:   true,
	}
	for _, resource := range AllResources() {
		for _, op := range []Operation{OpInsert, OpUpdate, OpDelete} {
			ev, ok := Normalize(ChangeEvent{Resource: resource, Op: op})
			if !ok {
				t.Fatalf("Normalize(%s/%s) skipped a known combination", resource, op)
			}
			if !valid[ev.Kind] {
				t.Errorf("Normalize(%s/%s) kind = %q, not a defined kind", resource, op, ev.Kind)
			}
		}
	}
}

func TestNormalize_UnknownResourceSkipped(t *testing.T) {
	_, ok := Normalize(ChangeEvent{Resource: "profiles", Op: OpInsert})
	if ok {
		t.Error("unknown resource was normalized")
	}
}

func TestNormalize_UnknownOperationSkipped(t *testing.T) {
	_, ok := Normalize(ChangeEvent{Resource: ResourceTrainingPlans, Op: "truncate"})
	if ok {
		t.Error("unknown operation was normalized")
	}
}

func TestNormalize_ActivityTitleContainsName(t *testing.T) {
	ev, ok := Normalize(ChangeEvent{
		Resource: ResourceActivityRecords,
		Op:       OpInsert,
		Record:   map[string]any{"name": "Corrida matinal"},
	})
	if !ok {
		t.Fatal("Normalize returned ok=false")
	}
	if ev.Title == "" {
		t.Fatal("Title is empty")
	}
	if !strings.Contains(ev.Title, "Corrida matinal") {
		t.Errorf("Title = %q, want it to contain the activity name", ev.Title)
	}
}

func TestNormalize_GoalAchievement(t *testing.T) {
	for _, raw := range []any{true, int64(1), float64(1)} {
		ev, ok := Normalize(ChangeEvent{
			Resource: ResourceActivityRecords,
			Op:       OpUpdate,
			Record:   map[string]any{"name": "Meta 10k", "goal_achieved": raw},
		})
		if !ok {
			t.Fatalf("Normalize returned ok=false for goal_achieved=%v", raw)
		}
		if ev.Kind != KindGoalAchievement {
			t.Errorf("Kind = %q for goal_achieved=%v, want %q", ev.Kind, raw, KindGoalAchievement)
		}
	}
}

func TestNormalize_InsertVsUpdatePhrasing(t *testing.T) {
	created, _ := Normalize(ChangeEvent{Resource: ResourceTrainingPlans, Op: OpInsert})
	updated, _ := Normalize(ChangeEvent{Resource: ResourceTrainingPlans, Op: OpUpdate})
	deleted, _ := Normalize(ChangeEvent{Resource: ResourceTrainingPlans, Op: OpDelete})

	if !strings.Contains(created.Description, "criado") {
		t.Errorf("insert description = %q, want created phrasing", created.Description)
	}
	if !strings.Contains(updated.Description, "atualizado") {
		t.Errorf("update description = %q, want updated phrasing", updated.Description)
	}
	if !strings.Contains(deleted.Description, "atualizado") {
		t.Errorf("delete description = %q, want updated phrasing", deleted.Description)
	}
}

func TestNormalize_SourcePassthrough(t *testing.T) {
	record := map[string]any{"id": int64(9), "title": "Força"}
	ev, _ := Normalize(ChangeEvent{Resource: ResourceTrainingPlans, Op: OpInsert, Record: record})
	if ev.Source["id"] != int64(9) {
		t.Errorf("Source[id] = %v, want 9", ev.Source["id"])
	}
}

func TestNormalize_UniqueIDs(t *testing.T) {
	a, _ := Normalize(ChangeEvent{Resource: ResourceTrainingPlans, Op: OpInsert})
	b, _ := Normalize(ChangeEvent{Resource: ResourceTrainingPlans, Op: OpInsert})
	if a.ID == b.ID {
		t.Errorf("two normalizations produced the same ID %q", a.ID)
	}
}
