// Package state provides a lightweight per-user session manager for Telegram bots.
// It does not know about any conversation in particular: bots register a
// handler per State and the router dispatches to it while the session is active.
package state
