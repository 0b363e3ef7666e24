// Package notify fans completed leads out to admin-facing sinks.
// Delivery is best effort: failures are logged and counted, never returned.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/core/metrics"
	"github.com/m3rciful/schoolbot/internal/leads"
)

// Sink delivers one lead notification.
type Sink interface {
	Name() string
	Notify(ctx context.Context, l leads.Lead) error
}

// Notifier calls every sink in order.
type Notifier struct {
	sinks []Sink
}

// New drops nil sinks so disabled ones can be passed unconditionally.
func New(sinks ...Sink) *Notifier {
	n := &Notifier{}
	for _, s := range sinks {
		if !isNilSink(s) {
			n.sinks = append(n.sinks, s)
		}
	}
	return n
}

func isNilSink(s Sink) bool {
	switch v := s.(type) {
	case nil:
		return true
	case *TelegramSink:
		return v == nil
	case *MailSink:
		return v == nil
	case *AMQPSink:
		return v == nil
	}
	return false
}

// Sinks returns the names of the configured sinks.
func (n *Notifier) Sinks() []string {
	names := make([]string, len(n.sinks))
	for i, s := range n.sinks {
		names[i] = s.Name()
	}
	return names
}

// LeadCompleted notifies all sinks about l.
func (n *Notifier) LeadCompleted(ctx context.Context, l leads.Lead) {
	if n == nil {
		return
	}
	for _, s := range n.sinks {
		start := time.Now()
		err := s.Notify(ctx, l)
		status := logger.Status(err)
		metrics.RecordNotification(s.Name(), status)

		attrs := []slog.Attr{
			slog.String("status", status),
			slog.String("sink", s.Name()),
			slog.Int64("lead_tg_id", l.TgID),
			slog.Duration("duration", logger.Took(start)),
		}
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		}
		logger.LogEvent(ctx, logger.SVCNotify, level, "notify.lead", attrs...)
	}
}

// FormatLead renders the admin summary of a lead.
func FormatLead(l leads.Lead) string {
	return fmt.Sprintf("📥 НОВЫЙ ЛИД:\n"+
		"tg_id: %d\n"+
		"name: %s\n"+
		"age: %s\n"+
		"level: %s\n"+
		"goal: %s\n"+
		"schedule: %s\n"+
		"contact: %s",
		l.TgID, l.Name, l.AgeGroup, l.Level, l.Goal, l.Schedule, l.Contact)
}
