// Package assistant answers free-text questions through an external language model.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/core/metrics"
)

const (
	// NotConfiguredText is returned when no generator is wired.
	NotConfiguredText = "🤖 Ассистент пока не подключён. Выбери пункт меню или нажми «📌 Записаться на пробный урок», и мы ответим лично."
	// ApologyText is returned for any generator failure.
	ApologyText = "Извини, сейчас не получается ответить 🙏 Попробуй ещё раз чуть позже или выбери пункт меню."

	DefaultTimeout = 45 * time.Second
	DefaultWorkers = 4
)

// Outcome classifies one Answer call.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeNotConfigured Outcome = "not_configured"
	OutcomeFail          Outcome = "fail"
	OutcomeTimeout       Outcome = "timeout"
)

// Options configures a Service. A nil Generator means "not configured".
type Options struct {
	Generator    Generator
	Memory       *Memory
	SystemPrompt string
	Timeout      time.Duration
	Workers      int
	Model        string
}

// Service builds prompts from per-user memory and runs generator calls on a
// bounded set of background workers.
type Service struct {
	gen     Generator
	mem     *Memory
	system  string
	timeout time.Duration
	sem     *semaphore.Weighted
	model   string
}

func NewService(opts Options) *Service {
	if opts.Memory == nil {
		opts.Memory = NewMemory(DefaultMemoryTurns)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Service{
		gen:     opts.Generator,
		mem:     opts.Memory,
		system:  opts.SystemPrompt,
		timeout: opts.Timeout,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		model:   opts.Model,
	}
}

// Configured reports whether a generator is wired.
func (s *Service) Configured() bool {
	return s.gen != nil
}

// Memory exposes the conversation memory for admin resets.
func (s *Service) Memory() *Memory {
	return s.mem
}

// Answer replies to text from userID. It never fails: errors become ApologyText.
func (s *Service) Answer(ctx context.Context, userID int64, text string) string {
	reply, _ := s.answer(ctx, userID, text)
	return reply
}

func (s *Service) answer(ctx context.Context, userID int64, text string) (string, Outcome) {
	start := time.Now()
	text = strings.TrimSpace(text)
	history := s.mem.History(userID)
	s.mem.Append(userID, RoleUser, text)

	var (
		reply   string
		outcome Outcome
		err     error
	)
	if s.gen == nil {
		reply, outcome = NotConfiguredText, OutcomeNotConfigured
	} else {
		reply, err = s.generate(ctx, Prompt{System: s.system, History: history, Text: text})
		switch {
		case err == nil && reply != "":
			outcome = OutcomeOK
		case errors.Is(err, context.DeadlineExceeded):
			reply, outcome = ApologyText, OutcomeTimeout
		default:
			if err == nil {
				err = errors.New("empty answer")
			}
			reply, outcome = ApologyText, OutcomeFail
		}
	}
	s.mem.Append(userID, RoleAssistant, reply)

	metrics.RecordAssistantAnswer(string(outcome))
	attrs := []slog.Attr{
		slog.String("outcome", string(outcome)),
		slog.Int("turns", len(history)),
		slog.Duration("duration", logger.Took(start)),
	}
	if s.model != "" {
		attrs = append(attrs, slog.String("model", s.model))
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.SVCAssistant, level, "assistant.answer", attrs...)
	return reply, outcome
}

type result struct {
	text string
	err  error
}

// generate runs the call on a worker goroutine and waits for it or for the
// deadline, whichever comes first.
func (s *Service) generate(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	done := make(chan result, 1)
	go func() {
		defer s.sem.Release(1)
		text, err := s.gen.Generate(ctx, p)
		done <- result{text: strings.TrimSpace(text), err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
