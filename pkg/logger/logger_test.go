package logger_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geekforce/central.go/pkg/logger"
)

func TestLoggerLevels(t *testing.T) {
	buffer := bytes.NewBuffer(nil)
	handler := slog.NewJSONHandler(buffer, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := logger.New(handler)

	methods := []struct {
		fn    func(msg string, args ...any)
		level slog.Level
	}{
		{fn: log.Error, level: slog.LevelError},
		{fn: log.Warn, level: slog.LevelWarn},
		{fn: log.Info, level: slog.LevelInfo},
		{fn: log.Debug, level: slog.LevelDebug},
	}

	for _, m := range methods {
		t.Run(fmt.Sprintf("testing %s", m.level.String()), func(t *testing.T) {
			buffer.Reset()
			m.fn("write failed", "collection", "events")

			var entry struct {
				Level      string `json:"level"`
				Msg        string `json:"msg"`
				Collection string `json:"collection"`
			}
			require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
			require.Equal(t, m.level.String(), entry.Level)
			require.Equal(t, "write failed", entry.Msg)
			require.Equal(t, "events", entry.Collection)
		})
	}
}
