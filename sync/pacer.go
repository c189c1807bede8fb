// ABOUTME: Fixed-delay throttle between consecutive external store calls
// ABOUTME: Keeps sequential request bursts under the upstream rate limit
package sync

import (
	"context"
	"time"
)

// Pacer sleeps a fixed delay before every call except the first.
// It is not safe for concurrent use; the engine calls it sequentially.
type Pacer struct {
	delay   time.Duration
	started bool
	waits   int
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks for the delay, or returns early with ctx's error.
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return ctx.Err()
	}

	p.waits++
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Waits returns how many pauses the pacer has taken.
func (p *Pacer) Waits() int {
	return p.waits
}
