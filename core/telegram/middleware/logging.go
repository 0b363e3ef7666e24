package middleware

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/schoolbot/core/logger"
	tghelpers "github.com/m3rciful/schoolbot/core/telegram/helpers"
)

const (
	keyRID   = "rid"
	keyStart = "update_start"
)

// LoggerMiddleware assigns the request id, stores the update-scoped logging
// context and logs one sampled "update.received" line. When an outer chain
// already did so the update passes through untouched.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if rid, _ := c.Get(keyRID).(string); rid != "" {
			return next(c)
		}
		meta := tghelpers.Meta(c)
		c.Set(keyRID, meta.RID)
		c.Set(keyStart, time.Now())

		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", receivedAttrs(c, meta)...)
		}
		return next(c)
	}
}

func receivedAttrs(c tele.Context, meta tghelpers.UpdateMeta) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil {
		attrs = append(attrs,
			slog.String("username", logger.SanitizeLimit(u.Username, 64)),
			slog.String("lang", u.LanguageCode),
		)
	}
	if t := c.Text(); t != "" {
		attrs = append(attrs, slog.Int("text_len", len([]rune(t))))
	}
	return attrs
}
