package store

import (
	"context"
	"time"
)

// Expirer is the background task that periodically sweeps the
// keyspace for expired entries, bounding worst-case memory held by
// keys nobody ever reads again.
type Expirer struct {
	store  *Store
	period time.Duration
}

// NewExpirer returns an Expirer that will sweep store every period
// once Run is called.
func NewExpirer(s *Store, period time.Duration) *Expirer {
	return &Expirer{store: s, period: period}
}

// Run blocks, sweeping on a fixed ticker until ctx is cancelled. It
// holds no state across ticks beyond the period itself.
func (e *Expirer) Run(ctx context.Context) {
	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.store.CleanupExpired()
		}
	}
}
