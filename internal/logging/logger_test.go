package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := IntoContext(context.Background(), logger)
	got := FromContext(ctx)
	got.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
}

func TestFromContextWithoutLogger(t *testing.T) {
	logger := FromContext(nil)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())

	logger = FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}
