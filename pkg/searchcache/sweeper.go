package searchcache

import (
	"context"
	"sync"
	"time"

	pkglog "github.com/weiawesome/cinema-chronicles/pkg/log"
)

// DefaultSweepInterval is how often expired entries are removed.
const DefaultSweepInterval = 60 * time.Second

// Sweepable is anything with a Sweep method, such as *Cache.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically removes expired cache entries.
type Sweeper struct {
	target   Sweepable
	interval time.Duration
	name     string
	quit     chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewSweeper creates a sweeper for target. name is used in log lines.
func NewSweeper(target Sweepable, interval time.Duration, name string) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		name:     name,
		quit:     make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweeper in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the sweeper to stop and returns immediately.
// Call Done() to wait for it to exit.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

// Done returns a channel that is closed when the sweeper has fully stopped.
func (s *Sweeper) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.target.Sweep(); removed > 0 {
				l := pkglog.L()
				l.Debug().Str("cache", s.name).Int("removed", removed).Msg("sweeper: expired entries removed")
			}
		}
	}
}
