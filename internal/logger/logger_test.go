package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"hosting-storefront/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestNew(t *testing.T) {
	log := New(config.Log{Level: "debug", Format: "console"})
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log = New(config.Log{Level: "error", Format: "json"})
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
}
