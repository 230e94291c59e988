package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCacheSweeper_RunsPeriodically(t *testing.T) {
	var calls atomic.Int32
	sweeper := NewCacheSweeper(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 2, nil
	}, 10*time.Millisecond, zap.NewNop())

	sweeper.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	sweeper.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestCacheSweeper_KeepsRunningAfterError(t *testing.T) {
	var calls atomic.Int32
	sweeper := NewCacheSweeper(func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("db down")
	}, 10*time.Millisecond, zap.NewNop())

	sweeper.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	sweeper.Stop()
}

func TestCacheSweeper_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sweeper := NewCacheSweeper(func(ctx context.Context) (int, error) { return 0, nil }, time.Hour, zap.NewNop())

	sweeper.Start(ctx)
	cancel()

	select {
	case <-sweeper.done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not exit after context cancellation")
	}
	sweeper.Stop()
}

func TestCacheSweeper_StopWithoutStart(t *testing.T) {
	sweeper := NewCacheSweeper(func(ctx context.Context) (int, error) { return 0, nil }, time.Hour, zap.NewNop())
	sweeper.Stop()
}
