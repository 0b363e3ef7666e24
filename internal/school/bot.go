// Package school wires the language-school conversation into the bot core:
// commands, main menu buttons, intake steps and the free-text fallback.
package school

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/core/metrics"
	tg "github.com/m3rciful/schoolbot/core/telegram"
	"github.com/m3rciful/schoolbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/schoolbot/core/telegram/helpers"
	"github.com/m3rciful/schoolbot/core/telegram/keyboard"
	"github.com/m3rciful/schoolbot/core/telegram/state"
	"github.com/m3rciful/schoolbot/internal/assistant"
	"github.com/m3rciful/schoolbot/internal/digest"
	"github.com/m3rciful/schoolbot/internal/intake"
	"github.com/m3rciful/schoolbot/internal/leads"
	"github.com/m3rciful/schoolbot/internal/notify"
)

const draftKey = "intake.draft"

// LeadStore is the persistence used by the handlers.
type LeadStore interface {
	Upsert(ctx context.Context, l leads.Lead) error
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, tgID int64) (leads.Lead, bool, error)
}

// Notifier is told about every saved lead.
type Notifier interface {
	LeadCompleted(ctx context.Context, l leads.Lead)
}

// Assistant answers free text. Memory backs the admin /reset command.
type Assistant interface {
	Answer(ctx context.Context, userID int64, text string) string
	Memory() *assistant.Memory
}

// Options configures the conversation. A nil Assistant selects keyword replies.
type Options struct {
	SchoolName string
	Timezone   string

	Store     LeadStore
	Notifier  Notifier
	Assistant Assistant
	States    state.Manager
}

// Bot holds the conversation handlers.
type Bot struct {
	school    string
	timezone  string
	store     LeadStore
	notifier  Notifier
	assistant Assistant
	states    state.Manager
}

func New(opts Options) (*Bot, error) {
	if opts.Store == nil {
		return nil, errors.New("school: lead store is required")
	}
	if opts.States == nil {
		return nil, errors.New("school: state manager is required")
	}
	return &Bot{
		school:    opts.SchoolName,
		timezone:  opts.Timezone,
		store:     opts.Store,
		notifier:  opts.Notifier,
		assistant: opts.Assistant,
		states:    opts.States,
	}, nil
}

// AssistantMode reports whether free text goes to the assistant.
func (b *Bot) AssistantMode() bool {
	return b.assistant != nil
}

// Register adds commands, buttons, state handlers and the text fallback.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{Handler: b.onStart, Description: "Начать сначала"})
	reg.RegisterCommand("/help", commands.Command{Handler: b.onHelp, Description: "Что умеет бот"})
	reg.RegisterCommand("/stats", commands.Command{Handler: b.onStats, Description: "Число лидов", AdminOnly: true})
	reg.RegisterCommand("/lead", commands.Command{Handler: b.onLead, Description: "Показать лид по tg_id", AdminOnly: true})
	if b.AssistantMode() {
		reg.RegisterCommand("/reset", commands.Command{Handler: b.onReset, Description: "Очистить память диалога", AdminOnly: true})
	}

	buttons := []commands.Button{
		{Label: BtnTrial, Name: "trial", Handler: b.onTrial},
		{Label: BtnPickCourse, Name: "pick_course", Handler: b.onPickCourse},
		{Label: BtnAsk, Name: "ask", Handler: b.onAsk},
		{Label: BtnPricing, Name: "pricing", Handler: b.onPricing},
		{Label: BtnLevelTest, Name: "level_test", Handler: b.onLevelTest},
	}
	for _, btn := range buttons {
		// Any menu button abandons the form in progress before acting.
		btn.Handler = b.cancelling(btn.Handler)
		if err := reg.RegisterButton(btn); err != nil {
			return fmt.Errorf("school: %w", err)
		}
	}

	for _, st := range intake.Steps {
		b.states.Handle(state.State(st), b.onIntakeStep)
	}
	if b.AssistantMode() {
		b.states.Handle(state.State(intake.AwaitingAIQuestion), b.onAIQuestion)
		reg.SetTextFallback(b.onAssistantFallback)
	} else {
		reg.SetTextFallback(b.onKeywordFallback)
	}
	return nil
}

func (b *Bot) cancelling(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if uid := tghelpers.SenderID(c); uid != 0 {
			if st := b.states.GetState(uid); st != state.StateIdle {
				logger.Debug(tghelpers.BuildContext(c), "tg", "intake.cancel",
					slog.String("state", string(st)),
				)
			}
			b.states.Clear(uid)
		}
		return next(c)
	}
}

func (b *Bot) onStart(c tele.Context) error {
	if uid := tghelpers.SenderID(c); uid != 0 {
		b.states.Clear(uid)
	}
	return tghelpers.SendMD(c, Greeting(b.school), MainMenu())
}

func (b *Bot) onHelp(c tele.Context) error {
	return tghelpers.SendKB(c, textHelp, MainMenu())
}

func (b *Bot) onTrial(c tele.Context) error {
	return b.begin(c, intake.AwaitingName, textAskName)
}

func (b *Bot) onPickCourse(c tele.Context) error {
	return b.begin(c, intake.AwaitingGoal, textAskGoalFromMenu)
}

func (b *Bot) begin(c tele.Context, at intake.State, prompt string) error {
	tr, err := intake.Begin(at)
	if err != nil {
		return err
	}
	uid := c.Sender().ID
	b.states.SetTemp(uid, draftKey, tr.Draft)
	b.states.SetState(uid, state.State(tr.Next))
	return tghelpers.SendText(c, prompt)
}

func (b *Bot) onAsk(c tele.Context) error {
	if b.AssistantMode() {
		b.states.SetState(c.Sender().ID, state.State(intake.AwaitingAIQuestion))
	}
	return tghelpers.SendText(c, textAsk)
}

func (b *Bot) onPricing(c tele.Context) error {
	return tghelpers.SendText(c, textPricing)
}

func (b *Bot) onLevelTest(c tele.Context) error {
	return tghelpers.SendText(c, textLevelTest)
}

func (b *Bot) onIntakeStep(c tele.Context) error {
	uid := c.Sender().ID
	sess := b.states.Snapshot(uid)
	draft, _ := sess.TempData[draftKey].(intake.Draft)

	tr, err := intake.Advance(intake.State(sess.State), draft, c.Text())
	if err != nil {
		return err
	}
	if !tr.Advanced {
		return nil
	}
	if tr.Complete {
		return b.complete(c, tr.Lead)
	}

	b.states.SetTemp(uid, draftKey, tr.Draft)
	b.states.SetState(uid, state.State(tr.Next))

	switch tr.Next {
	case intake.AwaitingAgeGroup:
		return tghelpers.SendKB(c, textAskAgeGroup, AgeMenu())
	case intake.AwaitingLevel:
		return tghelpers.SendKB(c, textAskLevel, keyboard.RemoveKeyboard())
	case intake.AwaitingGoal:
		return tghelpers.SendText(c, textAskGoal)
	case intake.AwaitingSchedule:
		return tghelpers.SendText(c, askSchedule(b.timezone))
	case intake.AwaitingContact:
		return tghelpers.SendText(c, textAskContact)
	}
	return nil
}

// complete stores the lead. On a storage failure the session stays on the
// contact step so the user can resend.
func (b *Bot) complete(c tele.Context, l leads.Lead) error {
	ctx := tghelpers.BuildContext(c)
	l.TgID = c.Sender().ID

	if err := b.store.Upsert(ctx, l); err != nil {
		metrics.RecordLeadSaved("fail")
		_ = tghelpers.SendText(c, textSaveFailed)
		return err
	}
	metrics.RecordLeadSaved("ok")
	b.states.Clear(l.TgID)

	logger.LogEvent(ctx, logger.SVCLeads, slog.LevelInfo, "lead.completed",
		slog.String("status", "ok"),
		slog.Int64("lead_tg_id", l.TgID),
	)

	if err := tghelpers.SendKB(c, textDone, MainMenu()); err != nil {
		return err
	}
	if b.notifier != nil {
		b.notifier.LeadCompleted(ctx, l)
	}
	return nil
}

func (b *Bot) onAIQuestion(c tele.Context) error {
	return b.answer(c)
}

func (b *Bot) onAssistantFallback(c tele.Context) error {
	return b.answer(c)
}

func (b *Bot) answer(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply := b.assistant.Answer(ctx, c.Sender().ID, c.Text())
	return tghelpers.SendText(c, reply)
}

func (b *Bot) onKeywordFallback(c tele.Context) error {
	return tghelpers.SendText(c, KeywordReply(c.Text()))
}

// KeywordReply picks the canned reply for free text when no assistant is wired.
func KeywordReply(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	switch {
	case containsAny(text, "ielts", "toefl"):
		return textExam
	case containsAny(text, "цена", "стоимость", "сколько"):
		return textPricing
	}
	return textClarify
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (b *Bot) onStats(c tele.Context) error {
	n, err := b.store.Count(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, digest.Message(n))
}

func (b *Bot) onLead(c tele.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return tghelpers.SendText(c, textLeadUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, textLeadUsage)
	}
	l, ok, err := b.store.Get(tghelpers.BuildContext(c), id)
	if err != nil {
		return err
	}
	if !ok {
		return tghelpers.SendText(c, textLeadNotFound)
	}
	return tghelpers.SendText(c, notify.FormatLead(l))
}

// onReset clears the assistant memory of one user, or of everyone without an argument.
func (b *Bot) onReset(c tele.Context) error {
	mem := b.assistant.Memory()
	args := c.Args()
	if len(args) == 0 {
		return tghelpers.SendText(c, resetAllDone(mem.Reset()))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, textResetUsage)
	}
	return tghelpers.SendText(c, resetUserDone(id, mem.Forget(id)))
}
