package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxChainsOnStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), logger)

	// events must chain straight off Ctx, no intermediate variable needed
	Ctx(ctx).Warn().Str("search_key", "2").Msg("usage check unavailable")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"search_key":"2"`)
	assert.Contains(t, out, "usage check unavailable")
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	l := Ctx(context.Background())

	require.NotNil(t, l)
	// the fallback logger is usable, not a nil or disabled shell
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())
}
