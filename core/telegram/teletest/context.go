// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Sent records one outbound message.
type Sent struct {
	Text string
	Opts []any
}

// Markup returns the reply markup attached to the message, if any.
func (s Sent) Markup() *tele.ReplyMarkup {
	for _, o := range s.Opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			return v
		}
	}
	return nil
}

// ParseMode returns the parse mode requested for the message.
func (s Sent) ParseMode() tele.ParseMode {
	for _, o := range s.Opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil {
				return v.ParseMode
			}
		case tele.ParseMode:
			return v
		}
	}
	return tele.ModeDefault
}

// Context implements the subset of tele.Context used by text handlers.
// Methods outside that subset panic through the nil embedded interface.
type Context struct {
	tele.Context

	update tele.Update
	// SendErr, when set, is returned by Send and Reply.
	SendErr error

	mu    sync.Mutex
	sent  []Sent
	store map[string]any
}

var updateSeq = struct {
	sync.Mutex
	n int
}{}

func nextUpdateID() int {
	updateSeq.Lock()
	defer updateSeq.Unlock()
	updateSeq.n++
	return updateSeq.n
}

// NewText builds a private-chat text update from userID.
func NewText(userID int64, text string) *Context {
	user := &tele.User{ID: userID, FirstName: "Test"}
	msg := &tele.Message{
		ID:       nextUpdateID(),
		Sender:   user,
		Chat:     &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:     text,
		Unixtime: time.Now().Unix(),
	}
	return &Context{
		update: tele.Update{ID: msg.ID, Message: msg},
		store:  make(map[string]any),
	}
}

func (c *Context) Update() tele.Update {
	return c.update
}

func (c *Context) Message() *tele.Message {
	return c.update.Message
}

func (c *Context) Sender() *tele.User {
	return c.update.Message.Sender
}

func (c *Context) Chat() *tele.Chat {
	return c.update.Message.Chat
}

func (c *Context) Recipient() tele.Recipient {
	return c.update.Message.Chat
}

func (c *Context) Text() string {
	return c.update.Message.Text
}

// Args splits the command payload like telebot does for text messages.
func (c *Context) Args() []string {
	payload := c.update.Message.Payload
	if payload == "" {
		return nil
	}
	return strings.Fields(payload)
}

// WithPayload sets the command payload, as telebot does for "/cmd payload".
func (c *Context) WithPayload(payload string) *Context {
	c.update.Message.Payload = payload
	return c
}

func (c *Context) Send(what any, opts ...any) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, Sent{Text: fmt.Sprint(what), Opts: opts})
	return nil
}

func (c *Context) Reply(what any, opts ...any) error {
	return c.Send(what, opts...)
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

// Sent returns a copy of all recorded messages.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Texts returns the text of every recorded message.
func (c *Context) Texts() []string {
	sent := c.Sent()
	out := make([]string, len(sent))
	for i, s := range sent {
		out[i] = s.Text
	}
	return out
}

// Last returns the most recent message; ok is false when nothing was sent.
func (c *Context) Last() (Sent, bool) {
	sent := c.Sent()
	if len(sent) == 0 {
		return Sent{}, false
	}
	return sent[len(sent)-1], true
}
