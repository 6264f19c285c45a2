package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestScheduler_AddAndRemoveJob(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddJob("outbox-cleanup", "0 30 3 * * *", noop))
	require.NoError(t, s.AddJob("hourly", "@every 1h", noop))
	assert.Equal(t, []string{"hourly", "outbox-cleanup"}, s.JobNames())

	err := s.AddJob("outbox-cleanup", "@daily", noop)
	assert.ErrorIs(t, err, ErrJobExists)

	err = s.AddJob("broken", "not a schedule", noop)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	require.NoError(t, s.RemoveJob("hourly"))
	assert.ErrorIs(t, s.RemoveJob("hourly"), ErrJobNotFound)
	assert.Equal(t, []string{"outbox-cleanup"}, s.JobNames())
}

func TestScheduler_FiveFieldSpec(t *testing.T) {
	s := New(DefaultConfig(), nil)
	require.NoError(t, s.AddJob("nightly", "15 2 * * *", func(context.Context) error { return nil }))

	s.Start()
	defer s.Stop(context.Background())

	next, err := s.NextRun("nightly")
	require.NoError(t, err)
	assert.Equal(t, 2, next.Hour())
	assert.Equal(t, 15, next.Minute())

	_, err = s.NextRun("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunsJobsAndLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := New(Config{JobTimeout: time.Second}, zap.New(core))

	var runs atomic.Int32
	require.NoError(t, s.AddJob("flaky", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return errors.New("database unavailable")
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	entries := logs.FilterMessage("scheduled job failed").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, "flaky", entries[0].ContextMap()["job"])
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())

	var runs atomic.Int32
	require.NoError(t, s.AddJob("panics", "@every 1s", func(context.Context) error {
		runs.Add(1)
		panic("boom")
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(Config{}, zap.NewNop())

	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, s.AddJob("long", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())
}
