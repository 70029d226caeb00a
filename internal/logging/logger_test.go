package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerDefaultsToStderr(t *testing.T) {
	logger := NewLogger(nil)
	assert.NotNil(t, logger)
	assert.Equal(t, os.Stderr, logger.entry.Out)
}

func TestLoggerWritesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Info("issued instruction", "id", 3, "cycle", 7)

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, "issued instruction")
	assert.Contains(t, out, "id=3")
	assert.Contains(t, out, "cycle=7")
}

func TestLoggerRespectsLevelFloor(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("structural stall")

	out := buf.String()
	assert.False(t, strings.Contains(out, "should not appear"))
	assert.Contains(t, out, "structural stall")
}

func TestGlobalConvenienceFunctionsUseDefault(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	t.Cleanup(func() { SetDefault(NewLogger(nil)) })

	Error("branch target unknown", "branch_id", 0)

	assert.Contains(t, buf.String(), "branch target unknown")
}
