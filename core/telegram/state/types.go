package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	State    State
	TempData map[string]any
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	// Snapshot returns a copy of the user's session; idle when absent.
	Snapshot(userID int64) Session
	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	Clear(userID int64)

	SetState(userID int64, st State)
	GetState(userID int64) State

	// Handle binds h to st; Dispatch runs it while the user is in st.
	Handle(st State, h tele.HandlerFunc)
	InProgress(userID int64) bool
	Dispatch(c tele.Context) error
}
