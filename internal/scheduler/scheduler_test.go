package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsJob(t *testing.T) {
	var runs atomic.Int32
	s := New("* * * * * *", func(context.Context) error {
		runs.Add(1)
		return nil
	}, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_JobErrorKeepsScheduling(t *testing.T) {
	var runs atomic.Int32
	s := New("* * * * * *", func(context.Context) error {
		runs.Add(1)
		return errors.New("persist failed")
	}, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_NoOverlap(t *testing.T) {
	var (
		running atomic.Int32
		maxSeen atomic.Int32
		runs    atomic.Int32
	)
	s := New("* * * * * *", func(context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxSeen.Load() {
			maxSeen.Store(n)
		}
		runs.Add(1)
		time.Sleep(1500 * time.Millisecond)
		return nil
	}, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 8*time.Second, 50*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestScheduler_SkipsAfterCancel(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New("* * * * * *", func(context.Context) error {
		runs.Add(1)
		return nil
	}, discardLogger())
	require.NoError(t, s.Start(ctx))

	time.Sleep(1500 * time.Millisecond)
	s.Stop()
	assert.Zero(t, runs.Load())
}

func TestScheduler_InvalidExpression(t *testing.T) {
	s := New("every morning", func(context.Context) error { return nil }, discardLogger())
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every morning")
}

func TestScheduler_StandardExpression(t *testing.T) {
	s := New("0 6 * * *", func(context.Context) error { return nil }, discardLogger())
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
