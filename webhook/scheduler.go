// ABOUTME: Debounced, serialized scheduling of board-to-mirror sync passes
// ABOUTME: Collapses notification bursts and queues at most one follow-up pass
package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/romdo/go-debounce"

	"github.com/ProxiMyti/proximyti-monday-integration/logging"
)

// State is the scheduler's lifecycle state.
type State int

const (
	Idle State = iota
	Pending
	Running
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// SyncFunc runs one full pass.
type SyncFunc func(ctx context.Context) error

type Scheduler struct {
	mu     sync.Mutex
	state  State
	again  bool
	closed bool
	passes int

	run     SyncFunc
	trigger func()
	cancel  func()

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewScheduler returns a scheduler that runs fn wait after the last
// notification in a burst. Passes run on ctx, never on a request context.
func NewScheduler(ctx context.Context, wait time.Duration, fn SyncFunc) *Scheduler {
	ctx, stop := context.WithCancel(ctx)
	s := &Scheduler{run: fn, ctx: ctx, stop: stop}
	s.trigger, s.cancel = debounce.New(wait, s.fire)
	return s
}

// Notify records that the board changed.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	restart := true
	switch s.state {
	case Idle:
		s.state = Pending
	case Running:
		s.again = true
		restart = false
	}
	s.mu.Unlock()

	// The timer callback takes s.mu, so the timer is reset unlocked.
	if restart {
		s.trigger()
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || s.state != Pending {
		s.mu.Unlock()
		return
	}
	s.state = Running
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	log := logging.FromContext(s.ctx)
	for {
		start := time.Now()
		if err := s.run(s.ctx); err != nil {
			log.Error("scheduled sync failed", "error", err, "duration", time.Since(start))
		} else {
			log.Info("scheduled sync finished", "duration", time.Since(start))
		}

		s.mu.Lock()
		s.passes++
		if s.again && !s.closed {
			s.again = false
			s.mu.Unlock()
			continue
		}
		s.state = Idle
		s.again = false
		s.mu.Unlock()
		return
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Passes returns how many sync passes have completed.
func (s *Scheduler) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// Close drops any pending pass, cancels a running one, and waits for it.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	if s.state == Pending {
		s.state = Idle
	}
	s.mu.Unlock()

	s.cancel()
	s.stop()
	s.wg.Wait()
}
