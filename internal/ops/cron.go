package ops

import (
	"context"
	"log"
	"time"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/delivery"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// DigestOpts holds configuration for the daily digest loop.
type DigestOpts struct {
	DB         *gorm.DB
	Cron       string              // 5-field cron expression
	Dispatcher delivery.Dispatcher // optional; nil means log-only
	Recipient  string              // required when Dispatcher is set
}

// RunDigestLoop fires the daily digest on the configured cron schedule until
// ctx is cancelled. Each fire builds the report, logs it, and dispatches it
// to the recipient when a dispatcher is configured. Empty periods are
// suppressed.
func RunDigestLoop(ctx context.Context, opts DigestOpts) {
	for {
		d := nextCronDuration(opts.Cron)
		if d <= 0 {
			log.Printf("ops: invalid digest cron %q, digest disabled", opts.Cron)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}

		fireDigest(ctx, opts)
	}
}

// fireDigest runs one digest cycle.
func fireDigest(ctx context.Context, opts DigestOpts) {
	report, err := BuildDailyReport(opts.DB, time.Now())
	if err != nil {
		log.Printf("ops: build daily digest: %v", err)
		return
	}
	if report.Empty() {
		log.Printf("ops: daily digest: no activity, skipping")
		return
	}

	text := FormatDaily(report)
	log.Printf("ops: daily digest:\n%s", text)

	if opts.Dispatcher != nil && opts.Recipient != "" {
		if err := opts.Dispatcher.Dispatch(ctx, opts.Recipient, text); err != nil {
			log.Printf("ops: dispatch daily digest: %v", err)
		}
	}
}
