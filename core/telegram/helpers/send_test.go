package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeText(t *testing.T) {
	assert.Equal(t, "Ок.", SafeText(""))
	assert.Equal(t, "Ок.", SafeText(" \n\t"))
	assert.Equal(t, "hi", SafeText(" hi \n"))
}
