package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/core/metrics"
	tghelpers "github.com/m3rciful/schoolbot/core/telegram/helpers"
	"github.com/m3rciful/schoolbot/core/telegram/middleware"
)

// summary is the single "handler.handled" line written per routed update.
type summary struct {
	handler string
	status  string
	outcome string
	err     error
}

// handled runs h as the named handler and logs its summary.
func handled(c tele.Context, name string, start time.Time, h tele.HandlerFunc) error {
	tghelpers.WithHandler(c, name)
	err := h(c)
	s := summary{handler: name, status: logger.Status(err), outcome: logger.Status(err), err: err}
	s.log(c, time.Since(start))
	return err
}

// skipped logs an update that no handler took.
func skipped(c tele.Context, name string, start time.Time) {
	summary{handler: name, status: "skip", outcome: "ok"}.log(c, time.Since(start))
}

func (s summary) log(c tele.Context, took time.Duration) {
	ctx := tghelpers.WithHandler(c, s.handler)
	metrics.RecordHandler(s.handler, s.status, took.Seconds())

	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", s.status),
		slog.String("handler", s.handler),
		slog.String("outcome", s.outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", took),
	}
	if s.err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(s.err.Error(), 256)),
			slog.String("err_code", errorCode(s.err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
}

// handlerName turns "/Lead" or "Pick course" into "lead" or "pick_course".
func handlerName(raw string) string {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(name), "_")
}

// errorCode prefers an explicit Code() anywhere in the chain and otherwise
// names the innermost error type.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.Join(strings.Fields(code), "_"))
		}
	}
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(err) {
		err = inner
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
