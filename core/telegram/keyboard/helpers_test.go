package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	rm := ReplyButtons([]string{"a", "b"}, nil, []string{"c"})
	require.Len(t, rm.ReplyKeyboard, 2)
	assert.True(t, rm.ResizeKeyboard)
	assert.Equal(t, "b", rm.ReplyKeyboard[0][1].Text)
	assert.Equal(t, "c", rm.ReplyKeyboard[1][0].Text)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, Chunk([]string{"a", "b", "c"}, 2))
	assert.Equal(t, [][]string{{"a"}, {"b"}}, Chunk([]string{"a", "b"}, 0))
	assert.Empty(t, Chunk(nil, 2))
}
