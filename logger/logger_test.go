package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasbasham/docqueue/logger"
)

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "docqueue")),
	)

	l.Debug("hidden")
	l.Info("dequeued", slog.Int("user_id", 1), logger.Error(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), "expected a single JSON record, got %q", buf.String())
	assert.Equal(t, "dequeued", rec["msg"])
	assert.Equal(t, "docqueue", rec["service"])
	assert.Equal(t, float64(1), rec["user_id"])
	assert.Equal(t, "boom", rec["error"])
}

func TestNew_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatText),
		logger.WithLevel(slog.LevelDebug),
	)

	l.Debug("deduplicated task", slog.String("task", "bank_statements/1"), logger.Error(nil))
	assert.Contains(t, buf.String(), `msg="deduplicated task"`)
	assert.Contains(t, buf.String(), "task=bank_statements/1")
	assert.NotContains(t, buf.String(), "error=")
}

func TestWithFormat_Invalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}

func TestFormat_UnmarshalText(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    logger.Format
		wantErr bool
	}{
		"json":    {input: "json", want: logger.FormatJSON},
		"text":    {input: "text", want: logger.FormatText},
		"invalid": {input: "yaml", wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var f logger.Format
			err := f.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}
