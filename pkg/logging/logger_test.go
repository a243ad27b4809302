package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestComponentAndContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LogConfig{Level: LevelInfo, Format: "json"})

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), "user-1")
	l.WithComponent("bulk").WithContext(ctx).Warn("rolling back toggles", String("kind", "not_found"), Int("failed", 1))
	l.WithComponent("bulk").Debug("dropped below level")
	l.Error("boom", errors.New("exploded"))

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "rolling back toggles", got[0]["msg"])
	assert.Equal(t, "WARN", got[0]["level"])
	assert.Equal(t, "bulk", got[0]["component"])
	assert.Equal(t, "req-1", got[0]["request_id"])
	assert.Equal(t, "user-1", got[0]["user_id"])
	assert.Equal(t, "not_found", got[0]["kind"])
	assert.Contains(t, got[0]["caller"], "logger_test.go")
	assert.Equal(t, "exploded", got[1]["error"])
}

func TestAsyncLoggerFlushesOnClose(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LogConfig{Level: LevelDebug, Format: "json", EnableAsync: true})
	for i := 0; i < 10; i++ {
		l.Info("tick", Int("i", i))
	}
	require.NoError(t, l.Close())
	assert.Len(t, lines(t, &buf), 10)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}
