package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/schoolbot/core/telegram"
	tghelpers "github.com/m3rciful/schoolbot/core/telegram/helpers"
	"github.com/m3rciful/schoolbot/core/telegram/middleware"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	Dispatch(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextHandler routes a text update: exact button match first, then the
// active FSM state handler, then the registry fallback. Slash commands are
// bound as their own telebot endpoints and never reach this handler.
func TextHandler(fsmMgr FSM, reg *tg.Registry, opts TextOptions) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		text := c.Text()
		if strings.TrimSpace(text) == "" {
			skipped(c, "empty_text", start)
			return nil
		}

		if reg != nil {
			if btn, ok := reg.LookupButton(text); ok {
				return handled(c, handlerName(btn.Name), start, btn.Handler)
			}
		}

		if uid := tghelpers.SenderID(c); fsmMgr != nil && uid != 0 && fsmMgr.InProgress(uid) {
			return handled(c, "fsm", start, fsmMgr.Dispatch)
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handled(c, "fallback", start, fb)
			}
		}

		if opts.UnknownText != nil {
			return handled(c, "unknown_text", start, opts.UnknownText)
		}

		skipped(c, "unknown_text", start)
		return nil
	}
}

// TextRoutes wraps TextHandler with the shared per-update middleware.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	h := TextHandler(fsmMgr, reg, opts)
	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		},
	}
}
