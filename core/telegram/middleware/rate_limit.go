package middleware

import (
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/core/metrics"
	tghelpers "github.com/m3rciful/schoolbot/core/telegram/helpers"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two accepted updates of one user.
	Interval time.Duration
	// Exclude lists update kinds that bypass the limit ("message", "callback", "inline_query").
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// limiter remembers when each user was last let through. Entries older
// than the interval carry no information and are pruned.
type limiter struct {
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	seen      map[int64]time.Time
	lastPrune time.Time
}

func newLimiter(interval time.Duration) *limiter {
	return &limiter{interval: interval, now: time.Now, seen: make(map[int64]time.Time)}
}

func (l *limiter) allow(userID int64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastPrune) > 10*l.interval {
		l.prune(now)
	}
	if last, ok := l.seen[userID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.seen[userID] = now
	return true
}

func (l *limiter) prune(now time.Time) {
	for id, ts := range l.seen {
		if now.Sub(ts) >= l.interval {
			delete(l.seen, id)
		}
	}
	l.lastPrune = now
}

func updateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Query != nil:
		return "inline_query"
	case u.Message != nil:
		return "message"
	}
	return "other"
}

// RateLimitMiddleware drops updates that arrive from the same user faster
// than opts.Interval. A non-positive interval disables limiting.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lim := newLimiter(opts.Interval)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			uid := tghelpers.SenderID(c)
			if uid == 0 || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if lim.allow(uid) {
				return next(c)
			}
			metrics.RecordRateLimited()
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit")
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
