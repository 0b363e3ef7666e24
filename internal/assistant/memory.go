package assistant

import "sync"

// DefaultMemoryTurns is how many turns are kept per user.
const DefaultMemoryTurns = 10

// Role labels a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one remembered message.
type Turn struct {
	Role Role
	Text string
}

// Memory keeps the most recent turns per user. Oldest turns are dropped first.
type Memory struct {
	mu    sync.Mutex
	limit int
	turns map[int64][]Turn
}

func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultMemoryTurns
	}
	return &Memory{limit: limit, turns: make(map[int64][]Turn)}
}

func (m *Memory) Append(userID int64, role Role, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := append(m.turns[userID], Turn{Role: role, Text: text})
	if over := len(h) - m.limit; over > 0 {
		h = append([]Turn(nil), h[over:]...)
	}
	m.turns[userID] = h
}

// History returns a copy of the user's turns, oldest first.
func (m *Memory) History(userID int64) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Turn(nil), m.turns[userID]...)
}

// Reset forgets every user's history and reports how many users were cleared.
func (m *Memory) Reset() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.turns)
	clear(m.turns)
	return n
}

// Forget drops one user's history and returns how many turns it held.
func (m *Memory) Forget(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.turns[userID])
	delete(m.turns, userID)
	return n
}
