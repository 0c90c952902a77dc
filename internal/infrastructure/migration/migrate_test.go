package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file://migrations", sourceURL("migrations"))
	assert.Equal(t, "file:///abs/migrations", sourceURL("/abs/migrations"))
	assert.Equal(t, "file://already", sourceURL("file://already"))
}

func TestZapMigrateLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &zapMigrateLogger{logger: zap.New(core)}

	assert.True(t, l.Verbose())
	l.Printf("Start buffering %d/u %s\n", 1, "create_catalog")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "Start buffering 1/u create_catalog", entries[0].Message)
	}

	quiet := &zapMigrateLogger{logger: zap.New(zapcore.NewNopCore())}
	assert.False(t, quiet.Verbose())
}
