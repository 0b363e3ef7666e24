package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	got, err := EscapeMarkdown("Best_English *School* [1]", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, `Best\_English \*School\* \[1]`, got)

	got, err = EscapeMarkdown("A.B-C!", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `A\.B\-C\!`, got)

	_, err = EscapeMarkdown("x", 3)
	assert.Error(t, err)
}
