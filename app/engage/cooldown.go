package engage

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Cooldown draws the wait after a reply attempt uniformly from [min, max].
type Cooldown struct {
	min time.Duration
	max time.Duration
	rng *rand.Rand
	mu  sync.Mutex
}

func NewCooldown(lo, hi time.Duration, rng *rand.Rand) *Cooldown {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Cooldown{min: lo, max: max(lo, hi), rng: rng}
}

func (c *Cooldown) Next() time.Duration {
	if c.max == c.min {
		return c.min
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.min + time.Duration(c.rng.Int64N(int64(c.max-c.min)+1))
}
