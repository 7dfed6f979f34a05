package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Output: &buf})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "boom")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	logger.WithComponent("server").Info(context.Background(), "listening")

	assert.Contains(t, buf.String(), "component=server")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	logger.With("session", "abc123").Info(context.Background(), "compiled")

	out := buf.String()
	assert.Contains(t, out, "session=abc123")
	assert.Contains(t, out, "compiled")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "json", Output: &buf})

	logger.Info(context.Background(), "hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestCompileTimer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	timer := logger.StartCompile("editor")
	timer.End(context.Background(), 1024)

	out := buf.String()
	assert.Contains(t, out, "compile finished")
	assert.Contains(t, out, "source=editor")
	assert.Contains(t, out, "output_bytes=1024")
}
