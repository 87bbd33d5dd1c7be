package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "", want: slog.LevelInfo},
		{input: "debug", want: slog.LevelDebug},
		{input: "WARN", want: slog.LevelWarn},
		{input: " error ", want: slog.LevelError},
		{input: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_WritesJSONAtLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept", "calendar_id", "7")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "7", record["calendar_id"])
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FromContext(context.Background()))

	logger := slog.Default()
	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	// a nil logger leaves the context untouched
	assert.Equal(t, ctx, ContextWithLogger(ctx, nil))
}
