package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/core/telegram/teletest"
)

func TestBuildContextCachesAndCarriesMeta(t *testing.T) {
	c := teletest.NewText(42, "hi")
	c.Set("rid", "rid-1")

	ctx := BuildContext(c)
	assert.Equal(t, "rid-1", logger.RIDFrom(ctx))
	assert.Equal(t, int64(42), logger.UserIDFrom(ctx))
	assert.Equal(t, int64(42), logger.ChatIDFrom(ctx))
	assert.Equal(t, ctx, BuildContext(c))

	tagged := WithHandler(c, "start")
	assert.Equal(t, "start", logger.HandlerFrom(tagged))
	assert.Equal(t, tagged, BuildContext(c))
}

func TestMetaDerivesRID(t *testing.T) {
	c := teletest.NewText(7, "x")
	m := Meta(c)
	assert.NotEmpty(t, m.RID)
	assert.Equal(t, int64(7), m.UserID)
	assert.Equal(t, int64(7), SenderID(c))
}
