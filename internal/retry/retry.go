// Package retry provides a capped exponential backoff combinator for
// operations against services that may not be up yet. It is not tied to
// any one caller; anything with a transient failure mode can wrap its
// operation in Do.
package retry

import (
	"context"
	"time"
)

const (
	DefaultInitialWait = 1 * time.Second
	DefaultMaxWait     = 5 * time.Second
	DefaultMultiplier  = 2.0
)

// Policy describes how long to wait between attempts. The wait starts
// at InitialWait, grows by Multiplier after every failure and never
// exceeds MaxWait. Attempts continue until the operation succeeds or
// the context is canceled.
type Policy struct {
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultPolicy returns the backoff used for backend connection
// attempts: 1s, 2s, 4s, then 5s forever.
func DefaultPolicy() Policy {
	return Policy{
		InitialWait: DefaultInitialWait,
		MaxWait:     DefaultMaxWait,
		Multiplier:  DefaultMultiplier,
	}
}

// sleepFn is swapped out in tests.
var sleepFn = sleepCtx

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op until it returns nil, waiting between attempts according
// to p. There is no attempt limit: callers opt into unbounded retry by
// using this package and bound it through ctx. The last operation
// error is never returned; only a context error ends Do unsuccessfully.
func Do(ctx context.Context, p Policy, op func() error) error {
	if p.InitialWait <= 0 {
		p.InitialWait = DefaultInitialWait
	}
	if p.MaxWait <= 0 {
		p.MaxWait = DefaultMaxWait
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}

	wait := p.InitialWait
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := op(); err == nil {
			return nil
		}

		if err := sleepFn(ctx, wait); err != nil {
			return err
		}

		wait = time.Duration(float64(wait) * p.Multiplier)
		if wait > p.MaxWait {
			wait = p.MaxWait
		}
	}
}
