package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReloader returns the scripted results in order and repeats the last.
type scriptedReloader struct {
	mu      sync.Mutex
	results []reloadResult
	calls   int
}

type reloadResult struct {
	session *models.AuthSession
	err     error
}

func (r *scriptedReloader) Reload(context.Context) (*models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.results) {
		i = len(r.results) - 1
	}
	r.calls++
	return r.results[i].session, r.results[i].err
}

func (r *scriptedReloader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var (
	pending  = reloadResult{session: &models.AuthSession{UID: "u", Email: "a@example.com"}}
	verified = reloadResult{session: &models.AuthSession{UID: "u", Email: "a@example.com", EmailVerified: true}}
	failed   = reloadResult{err: errors.New("network down")}
)

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll task did not stop")
	}
}

func TestPoller_SignalsOnceWhenVerified(t *testing.T) {
	r := &scriptedReloader{results: []reloadResult{pending, pending, verified}}
	p := New(r, Options{Interval: time.Millisecond}, logging.Nop())

	var signals atomic.Int32
	var got models.AuthSession
	task := p.Start(context.Background(), func(s models.AuthSession) {
		signals.Add(1)
		got = s
	})
	waitDone(t, task)

	assert.Equal(t, int32(1), signals.Load())
	assert.True(t, got.EmailVerified)
	assert.True(t, task.Fired())
	assert.Equal(t, 3, r.Calls(), "no reload after the verified one")
	assert.NotEmpty(t, task.ID)
}

func TestPoller_FirstCheckIsImmediate(t *testing.T) {
	r := &scriptedReloader{results: []reloadResult{verified}}
	p := New(r, Options{Interval: time.Hour}, logging.Nop())

	task := p.Start(context.Background(), func(models.AuthSession) {})
	waitDone(t, task)
	assert.True(t, task.Fired())
}

func TestPoller_RetriesFailuresAtSameInterval(t *testing.T) {
	r := &scriptedReloader{results: []reloadResult{failed, failed, failed, pending, failed, verified}}
	p := New(r, Options{Interval: time.Millisecond}, logging.Nop())

	task := p.Start(context.Background(), func(models.AuthSession) {})
	waitDone(t, task)

	assert.True(t, task.Fired())
	assert.Equal(t, 6, r.Calls())
}

func TestPoller_CancelStopsTicking(t *testing.T) {
	r := &scriptedReloader{results: []reloadResult{pending}}
	p := New(r, Options{Interval: time.Millisecond}, logging.Nop())

	task := p.Start(context.Background(), func(models.AuthSession) {
		t.Error("unexpected signal")
	})
	require.Eventually(t, func() bool { return r.Calls() >= 2 }, time.Second, time.Millisecond)

	task.Cancel()
	waitDone(t, task)
	calls := r.Calls()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, r.Calls())
	assert.False(t, task.Fired())

	// Second cancel is a no-op.
	task.Cancel()
}

// blockingReloader parks every call until released, then reports verified.
type blockingReloader struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingReloader) Reload(context.Context) (*models.AuthSession, error) {
	r.entered <- struct{}{}
	<-r.release
	return verified.session, nil
}

func TestPoller_CancelDuringInFlightReload_NoSignal(t *testing.T) {
	r := &blockingReloader{entered: make(chan struct{}, 1), release: make(chan struct{})}
	p := New(r, Options{Interval: time.Millisecond}, logging.Nop())

	var signals atomic.Int32
	task := p.Start(context.Background(), func(models.AuthSession) { signals.Add(1) })

	<-r.entered
	task.Cancel()
	close(r.release)
	waitDone(t, task)

	assert.Zero(t, signals.Load())
	assert.False(t, task.Fired())
}

func TestPoller_ParentContextCancels(t *testing.T) {
	r := &scriptedReloader{results: []reloadResult{pending}}
	p := New(r, Options{Interval: time.Millisecond}, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	task := p.Start(ctx, func(models.AuthSession) {})
	cancel()
	waitDone(t, task)
	assert.False(t, task.Fired())
}

type ctxReloader struct {
	deadlineSeen atomic.Bool
}

func (r *ctxReloader) Reload(ctx context.Context) (*models.AuthSession, error) {
	_, ok := ctx.Deadline()
	r.deadlineSeen.Store(ok)
	return verified.session, nil
}

func TestPoller_TimeoutBoundsEachReload(t *testing.T) {
	r := &ctxReloader{}
	task := New(r, Options{Interval: time.Millisecond, Timeout: time.Second}, logging.Nop()).
		Start(context.Background(), func(models.AuthSession) {})
	waitDone(t, task)
	assert.True(t, r.deadlineSeen.Load())
}

func TestNew_DefaultInterval(t *testing.T) {
	p := New(&scriptedReloader{}, Options{}, logging.Nop())
	assert.Equal(t, DefaultInterval, p.opts.Interval)
}
