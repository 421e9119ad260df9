package service

import (
	"log/slog"
	"sync"
	"time"
)

// Sweeper drops state that is no longer needed and reports how many entries
// went. *httpx.MemoryLimiterStore is one.
type Sweeper interface {
	Sweep() int
}

// HousekeepingService periodically sweeps in-memory state so it can't grow
// without bound, e.g. rate limiter buckets for one-off client IPs.
type HousekeepingService struct {
	Sweepers map[string]Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	mu        sync.Mutex
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 minute.
func NewHousekeepingService(sweepers map[string]Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		Sweepers: sweepers,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Calling it more than once is a no-op.
func (s *HousekeepingService) Start() {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()

		go s.run()
		s.Logger.Info("housekeeping service started", "interval", s.Interval)
	})
}

// Stop shuts the worker down and waits for an in-progress sweep to finish.
// Safe to call more than once, and before Start.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)

		s.mu.Lock()
		started := s.started
		s.mu.Unlock()

		if started {
			<-s.doneCh
		}
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs every sweeper once. They are independent.
func (s *HousekeepingService) sweep() {
	total := 0
	for name, sw := range s.Sweepers {
		n := sw.Sweep()
		total += n
		if n > 0 {
			s.Logger.Debug("swept", "sweeper", name, "removed", n)
		}
	}
	s.Logger.Debug("housekeeping sweep completed", "removed", total)
}
