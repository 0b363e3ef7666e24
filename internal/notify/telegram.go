package notify

import (
	"context"
	"errors"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/schoolbot/internal/leads"
)

var errNotBound = errors.New("telegram sink: bot not bound yet")

// Sender is the part of *tele.Bot used to reach the admin.
type Sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// TelegramSink messages the admin chat. The bot is bound once it has started.
type TelegramSink struct {
	adminID int64

	mu  sync.RWMutex
	bot Sender
}

// NewTelegramSink returns nil when no admin is configured.
func NewTelegramSink(adminID int64) *TelegramSink {
	if adminID == 0 {
		return nil
	}
	return &TelegramSink{adminID: adminID}
}

func (s *TelegramSink) Bind(bot Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bot = bot
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Notify(_ context.Context, l leads.Lead) error {
	s.mu.RLock()
	bot := s.bot
	s.mu.RUnlock()
	if bot == nil {
		return errNotBound
	}
	_, err := bot.Send(tele.ChatID(s.adminID), FormatLead(l))
	return err
}

// Send delivers an arbitrary admin message through the bound bot.
func (s *TelegramSink) Send(text string) error {
	s.mu.RLock()
	bot := s.bot
	s.mu.RUnlock()
	if bot == nil {
		return errNotBound
	}
	_, err := bot.Send(tele.ChatID(s.adminID), text)
	return err
}
