package router

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/schoolbot/core/telegram"
	"github.com/m3rciful/schoolbot/core/telegram/commands"
	"github.com/m3rciful/schoolbot/core/telegram/state"
	"github.com/m3rciful/schoolbot/core/telegram/teletest"
)

func reply(text string) tele.HandlerFunc {
	return func(c tele.Context) error { return c.Send(text) }
}

func setup(t *testing.T) (state.Manager, *tg.Registry) {
	t.Helper()
	fsm := state.NewMemoryManager()
	fsm.Handle("awaiting_name", reply("state"))

	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterButton(commands.Button{Label: "📚 Menu", Handler: reply("button"), Name: "menu"}))
	reg.SetTextFallback(reply("fallback"))
	return fsm, reg
}

func TestTextHandlerPriority(t *testing.T) {
	fsm, reg := setup(t)
	h := TextHandler(fsm, reg, TextOptions{})

	c := teletest.NewText(1, "hello")
	require.NoError(t, h(c))
	assert.Equal(t, []string{"fallback"}, c.Texts())

	fsm.SetState(1, "awaiting_name")
	c = teletest.NewText(1, "Anna")
	require.NoError(t, h(c))
	assert.Equal(t, []string{"state"}, c.Texts())

	c = teletest.NewText(1, "📚 Menu")
	require.NoError(t, h(c))
	assert.Equal(t, []string{"button"}, c.Texts(), "buttons win over state handlers")
}

func TestTextHandlerIgnoresBlank(t *testing.T) {
	fsm, reg := setup(t)
	fsm.SetState(1, "awaiting_name")
	c := teletest.NewText(1, "   ")
	require.NoError(t, TextHandler(fsm, reg, TextOptions{})(c))
	assert.Empty(t, c.Texts())
	assert.Equal(t, state.State("awaiting_name"), fsm.GetState(1))
}

func TestTextHandlerUnknownWithoutFallback(t *testing.T) {
	c := teletest.NewText(1, "hi")
	require.NoError(t, TextHandler(nil, tg.NewRegistry(), TextOptions{UnknownText: reply("?")})(c))
	assert.Equal(t, []string{"?"}, c.Texts())
}

func TestAdminCommandGate(t *testing.T) {
	h := CommandHandler("/stats", reply("42"), true, CommandRouteOptions{AdminID: 7})

	c := teletest.NewText(8, "/stats")
	require.NoError(t, h(c))
	assert.Empty(t, c.Texts())

	c = teletest.NewText(7, "/stats")
	require.NoError(t, h(c))
	assert.Equal(t, []string{"42"}, c.Texts())

	unset := CommandHandler("/stats", reply("42"), true, CommandRouteOptions{})
	c = teletest.NewText(0, "/stats")
	require.NoError(t, unset(c))
	assert.Empty(t, c.Texts(), "no admin configured means nobody is admin")
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "storage error" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "STORAGE_ERROR", errorCode(codedErr{}))
	assert.Equal(t, "STORAGE_ERROR", errorCode(fmt.Errorf("save: %w", codedErr{})))
	assert.Equal(t, "PLAINERR", errorCode(&plainErr{}))
	assert.Equal(t, "PLAINERR", errorCode(fmt.Errorf("outer: %w", fmt.Errorf("wrap: %w", &plainErr{}))))
	assert.Equal(t, "", errorCode(nil))
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "lead", handlerName("/Lead"))
	assert.Equal(t, "pick_course", handlerName(" Pick  course "))
	assert.Equal(t, "unknown", handlerName(" "))
}
