package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Button is a reply-keyboard label routed by exact text match.
type Button struct {
	Label   string
	Handler tele.HandlerFunc
	// Name is the handler name used in logs and metrics.
	Name string
}
