package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, detailed bool) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, InitWithConfig(LogConfig{Level: "INFO", Format: "json", DetailedLogging: detailed, Output: buf}))
	t.Cleanup(func() {
		_ = InitWithConfig(LogConfig{Level: "INFO", Format: "text"})
	})
	return buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestDebugRequiresDetailedLogging(t *testing.T) {
	buf := captureJSON(t, false)
	Debug(context.Background(), "hidden")
	Info(context.Background(), "shown", "k", "v")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0]["msg"])
	assert.Equal(t, "v", got[0]["k"])
}

func TestDetailedLoggingAddsSource(t *testing.T) {
	buf := captureJSON(t, true)
	Debug(context.Background(), "visible")

	got := lines(t, buf)
	require.Len(t, got, 1)
	src, ok := got[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, src["file"], "logger_test.go")
}

func TestErrorWithErr(t *testing.T) {
	buf := captureJSON(t, false)
	ErrorWithErr(context.Background(), "fetch failed", errors.New("timeout"), "symbol", "AAPL")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "ERROR", got[0]["level"])
	assert.Equal(t, "timeout", got[0]["error"])
	assert.Equal(t, "AAPL", got[0]["symbol"])
}

func TestAlertAndClassification(t *testing.T) {
	buf := captureJSON(t, false)
	ctx := context.Background()
	Classification(ctx, 7, "negative", 0.91, "ticker_id", 1)
	Alert(ctx, "Sentiment Alert for AAPL", "body", "channels", []string{"email"})

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "CLASSIFICATION", got[0]["type"])
	assert.Equal(t, float64(7), got[0]["article_id"])
	assert.Equal(t, "negative", got[0]["sentiment"])

	assert.Equal(t, "WARN", got[1]["level"])
	assert.Equal(t, "--- ALERT TRIGGERED ---", got[1]["msg"])
	assert.Equal(t, "Sentiment Alert for AAPL", got[1]["subject"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("WARN").String())
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
}

func TestOperationTimerEnd(t *testing.T) {
	buf := captureJSON(t, true)
	timer := StartOperation(context.Background(), "classifier.Predict", "chars", 42)
	require.NotNil(t, timer.GetContext())
	timer.End("sentiment", "negative")

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "Operation started", got[0]["msg"])
	assert.Equal(t, "classifier.Predict", got[0]["operation"])

	assert.Equal(t, "Operation completed", got[1]["msg"])
	assert.Equal(t, float64(42), got[1]["chars"])
	assert.Equal(t, "negative", got[1]["sentiment"])
	assert.Contains(t, got[1], "duration_ms")
	src, ok := got[1]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, src["file"], "logger_test.go")
}

func TestOperationTimerEndIsQuietWithoutDetailedLogging(t *testing.T) {
	buf := captureJSON(t, false)
	StartOperation(context.Background(), "news.FetchArticles").End("count", 3)
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestOperationTimerEndWithError(t *testing.T) {
	buf := captureJSON(t, false)
	timer := StartOperation(context.Background(), "pipeline.RunCycle")
	timer.EndWithError(errors.New("store closed"), "cycle_id", "c-1")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "ERROR", got[0]["level"])
	assert.Equal(t, "Operation failed", got[0]["msg"])
	assert.Equal(t, "pipeline.RunCycle", got[0]["operation"])
	assert.Equal(t, "store closed", got[0]["error"])
	assert.Equal(t, "c-1", got[0]["cycle_id"])
	assert.Contains(t, got[0], "duration_ms")
}

func TestWarnSkip(t *testing.T) {
	buf := captureJSON(t, false)
	WarnSkip(context.Background(), 0, "partial", "failed", []string{"TSLA"})

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "WARN", got[0]["level"])
	assert.Equal(t, []any{"TSLA"}, got[0]["failed"])
}
