// Package poller re-checks the signed-in user's email verification status
// until it turns true or the check is cancelled.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
	"github.com/google/uuid"
)

const DefaultInterval = 500 * time.Millisecond

// Reloader refreshes the session snapshot from the backend.
type Reloader interface {
	Reload(ctx context.Context) (*models.AuthSession, error)
}

type Options struct {
	// Interval between checks; the first check runs immediately.
	Interval time.Duration
	// Timeout bounds a single reload. Zero means no bound.
	Timeout time.Duration
}

type Poller struct {
	reloader Reloader
	opts     Options
	logger   logging.Logger
}

func New(r Reloader, opts Options, logger logging.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Poller{reloader: r, opts: opts, logger: logger.With("component", "poller")}
}

// Task is a running poll. Cancel it when the presentation waiting on it
// goes away.
type Task struct {
	ID string

	mu        sync.Mutex
	cancelled bool
	fired     bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the task. Once Cancel returns, onVerified will not be called,
// even for a reload that is still in flight. Safe to call more than once.
// Must not be called from inside onVerified.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.cancel()
}

// Done is closed when the polling goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Fired reports whether the verified signal was delivered.
func (t *Task) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// deliver runs fn under the task lock unless the task was cancelled or has
// already fired.
func (t *Task) deliver(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled || t.fired {
		return
	}
	t.fired = true
	fn()
}

// Start begins polling. onVerified receives the first verified snapshot,
// at most once. Reload failures are logged and retried forever at the same
// interval; only success or cancellation ends the task.
func (p *Poller) Start(ctx context.Context, onVerified func(models.AuthSession)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx, t, onVerified)
	return t
}

func (p *Poller) run(ctx context.Context, t *Task, onVerified func(models.AuthSession)) {
	defer close(t.done)
	defer t.cancel()

	log := p.logger.With("task", t.ID)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			log.Debug(ctx, "poll stopped", "attempts", attempt-1)
			return
		case <-timer.C:
		}

		s, err := p.reload(ctx)
		switch {
		case ctx.Err() != nil:
			log.Debug(ctx, "poll stopped", "attempts", attempt)
			return
		case err != nil:
			log.Warn(ctx, "verification reload failed", "attempt", attempt, "error", err)
		case s.Verified():
			snapshot := *s
			t.deliver(func() { onVerified(snapshot) })
			log.Info(ctx, "email verified", "attempts", attempt)
			return
		default:
			log.Debug(ctx, "email not verified yet", "attempt", attempt)
		}
		timer.Reset(p.opts.Interval)
	}
}

func (p *Poller) reload(ctx context.Context) (*models.AuthSession, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	return p.reloader.Reload(ctx)
}
