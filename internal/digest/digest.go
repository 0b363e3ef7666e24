// Package digest periodically reports the lead count to the admin.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/schoolbot/core/logger"
)

// Counter reports the number of stored leads.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Sender delivers a text to the admin.
type Sender interface {
	Send(text string) error
}

// Digest runs a single cron job that sends the admin the lead count.
type Digest struct {
	spec    string
	counter Counter
	sender  Sender
	cron    *cron.Cron
}

// New validates spec (six fields, seconds first) and returns a stopped digest.
func New(spec string, loc *time.Location, counter Counter, sender Sender) (*Digest, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("digest: empty cron spec")
	}
	if loc == nil {
		loc = time.UTC
	}
	d := &Digest{
		spec:    spec,
		counter: counter,
		sender:  sender,
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
	if _, err := d.cron.AddFunc(spec, func() { d.Tick(context.Background()) }); err != nil {
		return nil, fmt.Errorf("digest: invalid cron spec %q: %w", spec, err)
	}
	return d, nil
}

// Message formats the admin digest line.
func Message(count int) string {
	return fmt.Sprintf("📊 Лидов в базе: %d", count)
}

// Tick counts leads and sends the digest once.
func (d *Digest) Tick(ctx context.Context) {
	start := time.Now()
	n, err := d.counter.Count(ctx)
	if err == nil {
		err = d.sender.Send(Message(n))
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Int("lead_count", n),
		slog.Duration("duration", logger.Took(start)),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, logger.Err(err))
	}
	logger.LogEvent(ctx, logger.Digest, level, "digest.tick", attrs...)
}

// Run starts the scheduler and blocks until ctx is done.
func (d *Digest) Run(ctx context.Context) error {
	d.cron.Start()
	logger.LogEvent(ctx, logger.Digest, slog.LevelInfo, "digest.start", slog.String("cron", d.spec))
	<-ctx.Done()
	<-d.cron.Stop().Done()
	logger.LogEvent(ctx, logger.Digest, slog.LevelInfo, "digest.stop")
	return nil
}
