package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAdd_RejectsBadSpec(t *testing.T) {
	s := New()
	assert.Error(t, s.Add("bad", "every minute", func(context.Context, time.Time) (int64, error) { return 0, nil }))
	assert.Error(t, s.Add("five-fields", "* * * * *", func(context.Context, time.Time) (int64, error) { return 0, nil }))
	require.NoError(t, s.Add("nightly", "0 0 1 * * *", func(context.Context, time.Time) (int64, error) { return 0, nil }))
}

func TestRunJob_LogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	s := New()
	s.runJob("publish_due", func(ctx context.Context, now time.Time) (int64, error) {
		return 0, errors.New("db down")
	})
	s.runJob("mark_overdue", func(ctx context.Context, now time.Time) (int64, error) {
		return 3, nil
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "db down", entries[0].ContextMap()["error"])
	assert.Equal(t, "cron-publish_due", entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(3), entries[1].ContextMap()["affected"])
}

func TestRun_FiresAndStops(t *testing.T) {
	s := New()
	fired := make(chan time.Time, 1)
	require.NoError(t, s.Add("tick", "* * * * * *", func(ctx context.Context, now time.Time) (int64, error) {
		select {
		case fired <- now:
		default:
		}
		return 1, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case now := <-fired:
		assert.Equal(t, time.UTC, now.Location())
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
