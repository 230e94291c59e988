package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepFunc removes expired cache entries and reports how many were removed.
type SweepFunc func(ctx context.Context) (int, error)

// CacheSweeper periodically purges expired generation cache entries.
type CacheSweeper struct {
	sweep    SweepFunc
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

func NewCacheSweeper(sweep SweepFunc, interval time.Duration, logger *zap.Logger) *CacheSweeper {
	return &CacheSweeper{
		sweep:    sweep,
		interval: interval,
		logger:   logger.Named("CacheSweeper"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in a goroutine until Stop is called or ctx ends.
func (s *CacheSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("Cache sweeper started", zap.Duration("interval", s.interval))
}

func (s *CacheSweeper) runOnce(ctx context.Context) {
	deleted, err := s.sweep(ctx)
	if err != nil {
		s.logger.Error("Cache sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("Cache sweep finished", zap.Int("deletedEntries", deleted))
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *CacheSweeper) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	s.mu.Unlock()

	<-s.done
	s.logger.Info("Cache sweeper stopped")
}
