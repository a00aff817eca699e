package ops

import (
	"strings"
	"testing"
	"time"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
)

func TestBuildDailyReport_CountsWindow(t *testing.T) {
	db := openOpsTestDB(t)
	now := time.Now()

	seedWebhookEvent(t, db, true, time.Hour)
	seedWebhookEvent(t, db, false, 2*time.Hour)
	seedWebhookEvent(t, db, false, 30*time.Hour) // outside the window

	db.Create(&models.ReplyDelivery{MessageID: 1, Status: models.DeliveryDelivered, Attempts: 1, LastAttemptAt: now.Add(-time.Hour)})
	db.Create(&models.ReplyDelivery{MessageID: 2, Status: models.DeliveryFailed, Attempts: 3, LastAttemptAt: now.Add(-time.Hour), ErrorMessage: "timeout"})
	db.Create(&models.ConversationMessage{SessionID: "s1", Direction: models.DirectionUser, Content: "oi", ResponseStatus: models.ResponsePending})

	report, err := BuildDailyReport(db, now)
	if err != nil {
		t.Fatalf("BuildDailyReport: %v", err)
	}

	if report.WebhooksReceived != 2 {
		t.Errorf("WebhooksReceived = %d, want 2 (day-old event excluded)", report.WebhooksReceived)
	}
	if report.WebhookFailures != 1 {
		t.Errorf("WebhookFailures = %d, want 1", report.WebhookFailures)
	}
	if report.RepliesDelivered != 1 || report.RepliesFailed != 1 {
		t.Errorf("deliveries = %d/%d, want 1/1", report.RepliesDelivered, report.RepliesFailed)
	}
	if report.PendingMessages != 1 {
		t.Errorf("PendingMessages = %d, want 1", report.PendingMessages)
	}
	if report.Empty() {
		t.Error("Empty() = true for active period")
	}
}

func TestBuildDailyReport_EmptyPeriod(t *testing.T) {
	db := openOpsTestDB(t)

	report, err := BuildDailyReport(db, time.Now())
	if err != nil {
		t.Fatalf("BuildDailyReport: %v", err)
	}
	if !report.Empty() {
		t.Errorf("Empty() = false for quiet period: %+v", report)
	}
}

func TestFormatDaily(t *testing.T) {
	report := DailyReport{
		PeriodEnd:        time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC),
		WebhooksReceived: 12,
		WebhookFailures:  2,
		RepliesDelivered: 9,
		RepliesFailed:    1,
		PendingMessages:  3,
	}

	text := FormatDaily(report)
	for _, want := range []string{
		"Resumo diário TreinoAI (30/08/2026)",
		"Webhooks recebidos: 12 (2 sem processamento)",
		"Respostas entregues: 9",
		"Respostas com falha de entrega: 1",
		"Mensagens aguardando resposta: 3",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("digest missing %q:\n%s", want, text)
		}
	}
}

func TestFormatDaily_OmitsZeroSections(t *testing.T) {
	text := FormatDaily(DailyReport{PeriodEnd: time.Now(), WebhooksReceived: 1, RepliesDelivered: 1})
	if strings.Contains(text, "falha") || strings.Contains(text, "aguardando") {
		t.Errorf("zero sections rendered:\n%s", text)
	}
}
