package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager()
	const uid = int64(42)

	assert.Equal(t, StateIdle, m.GetState(uid))
	assert.False(t, m.InProgress(uid))

	m.SetState(uid, "awaiting_name")
	assert.False(t, m.InProgress(uid), "state without handler is not in progress")

	m.Handle("awaiting_name", noopHandler)
	assert.True(t, m.InProgress(uid))

	m.SetTemp(uid, "name", "Anna")
	snap := m.Snapshot(uid)
	snap.TempData["name"] = "mutated"
	v, ok := m.GetTemp(uid, "name")
	assert.True(t, ok)
	assert.Equal(t, "Anna", v, "snapshot must not alias session data")

	m.Clear(uid)
	assert.Equal(t, StateIdle, m.GetState(uid))
	_, ok = m.GetTemp(uid, "name")
	assert.False(t, ok)
}

func TestMemoryManagerIsolatesUsers(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(1, "awaiting_goal")
	m.SetTemp(1, "goal", "IELTS")

	assert.Equal(t, StateIdle, m.GetState(2))
	_, ok := m.GetTemp(2, "goal")
	assert.False(t, ok)
}

func TestHandleIgnoresIdle(t *testing.T) {
	m := NewMemoryManager()
	m.Handle(StateIdle, noopHandler)
	assert.False(t, m.InProgress(7))
}
