package bookgen

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// Pacer spaces out image requests: a long pause after every fifth
// illustrated page and a short one after the rest.
type Pacer struct {
	Unit  time.Duration
	Sleep Sleeper
}

const (
	pacingBatch      = 5
	pacingLongUnits  = 60
	pacingShortUnits = 2
)

func NewPacer(unit time.Duration) Pacer {
	return Pacer{Unit: unit, Sleep: SleepContext}
}

// Delay is the pause that follows the page at zero-based index i.
func (p Pacer) Delay(i int) time.Duration {
	if (i+1)%pacingBatch == 0 {
		return pacingLongUnits * p.Unit
	}
	return pacingShortUnits * p.Unit
}

func (p Pacer) Wait(ctx context.Context, i int) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	return sleep(ctx, p.Delay(i))
}
