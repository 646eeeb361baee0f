package logging

import (
	"bytes"
	"encoding/json"
	"microfinance-backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes JSON at the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(config.LoggerConfig{Level: "warn"}, &buf)

		logger.Info("dropped")
		logger.Warn("kept", "loan_id", "L1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "kept", entry["msg"])
		assert.Equal(t, "L1", entry["loan_id"])
	})

	t.Run("silence discards everything", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(config.LoggerConfig{Level: "debug", Silence: true}, &buf)

		logger.Error("nobody hears this")
		assert.Zero(t, buf.Len())
	})

	t.Run("text encoding", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(config.LoggerConfig{Encoding: "text"}, &buf)

		logger.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}
