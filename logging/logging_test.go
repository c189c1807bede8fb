package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Output: &buf})

	ctx := ContextWithLogger(context.Background(), logger)
	FromContext(ctx).Info("vendor synced", "vendor", "phoenix-books")

	assert.Contains(t, buf.String(), "vendor synced")
	assert.Contains(t, buf.String(), "phoenix-books")
}

func TestCharmLoggerIsLogger(t *testing.T) {
	var buf bytes.Buffer
	var logger Logger = New(Config{Output: &buf})

	logger.Warn("column missing", "column", "Zip Code")
	assert.Contains(t, buf.String(), "column missing")
	assert.NotNil(t, Discard())
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		FromContext(context.Background()).Error("dropped")
	})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{JSON: true, Output: &buf})

	logger.Info("hello", "key", "value")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}
