package docqueue_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasbasham/docqueue"
	"github.com/tomasbasham/docqueue/logger"
)

func TestQueue_Logging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	q := docqueue.New(docqueue.WithLogger(logger.New(
		logger.WithFormat(logger.FormatText),
		logger.WithLevel(slog.LevelDebug),
		logger.WithOutput(&buf),
	)))

	for _, e := range []enqueue{
		{bankStatements, 1, t0, 1},
		{bankStatements, 1, at(time.Minute), 1},
		{bankStatements, 2, at(5 * time.Minute), 2},
		{idVerification, 3, at(6 * time.Minute), 3},
		{creditCheck, 4, at(time.Minute), 5},
		{idVerification, 4, at(time.Minute), 6},
	} {
		size, err := q.Enqueue(e.provider, e.user, e.ts)
		require.NoError(t, err)
		require.Equal(t, e.wantSize, size)
	}
	_, err := q.Enqueue("tax_return", 5, t0)
	require.ErrorIs(t, err, docqueue.ErrUnknownProvider)

	drain(t, q)
	q.Purge()

	out := buf.String()
	for _, msg := range []string{
		"deduplicated task",
		"user entered fairness tier",
		"user left fairness tier",
		"age boost applied",
		"rejected submission",
		"purged queue",
	} {
		assert.Contains(t, out, msg)
	}
	assert.Contains(t, out, "component=docqueue")
}
