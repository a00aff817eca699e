package ops

import (
	"fmt"
	"strings"
	"time"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
	"gorm.io/gorm"
)

// DailyReport holds computed delivery metrics for a 24-hour period.
type DailyReport struct {
	PeriodStart      time.Time
	PeriodEnd        time.Time
	WebhooksReceived int64
	WebhookFailures  int64
	RepliesDelivered int64
	RepliesFailed    int64
	PendingMessages  int64
}

// BuildDailyReport queries the last 24 hours of webhook and delivery
// activity ending at now.
func BuildDailyReport(db *gorm.DB, now time.Time) (DailyReport, error) {
	since := now.Add(-24 * time.Hour)
	report := DailyReport{PeriodStart: since, PeriodEnd: now}

	if err := db.Model(&models.WebhookEvent{}).
		Where("received_at > ?", since).
		Count(&report.WebhooksReceived).Error; err != nil {
		return report, fmt.Errorf("ops: count webhooks: %w", err)
	}
	if err := db.Model(&models.WebhookEvent{}).
		Where("received_at > ? AND processed = ?", since, false).
		Count(&report.WebhookFailures).Error; err != nil {
		return report, fmt.Errorf("ops: count webhook failures: %w", err)
	}
	if err := db.Model(&models.ReplyDelivery{}).
		Where("last_attempt_at > ? AND status = ?", since, models.DeliveryDelivered).
		Count(&report.RepliesDelivered).Error; err != nil {
		return report, fmt.Errorf("ops: count delivered replies: %w", err)
	}
	if err := db.Model(&models.ReplyDelivery{}).
		Where("last_attempt_at > ? AND status = ?", since, models.DeliveryFailed).
		Count(&report.RepliesFailed).Error; err != nil {
		return report, fmt.Errorf("ops: count failed replies: %w", err)
	}
	if err := db.Model(&models.ConversationMessage{}).
		Where("direction = ? AND response_status = ?", models.DirectionUser, models.ResponsePending).
		Count(&report.PendingMessages).Error; err != nil {
		return report, fmt.Errorf("ops: count pending messages: %w", err)
	}

	return report, nil
}

// Empty reports whether the period had no activity worth reporting.
func (r DailyReport) Empty() bool {
	return r.WebhooksReceived == 0 && r.RepliesDelivered == 0 &&
		r.RepliesFailed == 0 && r.PendingMessages == 0
}

// FormatDaily renders the report as the digest message sent to the coach.
func FormatDaily(r DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resumo diário TreinoAI (%s)\n", r.PeriodEnd.Format("02/01/2006"))
	fmt.Fprintf(&b, "Webhooks recebidos: %d", r.WebhooksReceived)
	if r.WebhookFailures > 0 {
		fmt.Fprintf(&b, " (%d sem processamento)", r.WebhookFailures)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Respostas entregues: %d\n", r.RepliesDelivered)
	if r.RepliesFailed > 0 {
		fmt.Fprintf(&b, "Respostas com falha de entrega: %d\n", r.RepliesFailed)
	}
	if r.PendingMessages > 0 {
		fmt.Fprintf(&b, "Mensagens aguardando resposta: %d\n", r.PendingMessages)
	}
	return strings.TrimRight(b.String(), "\n")
}
