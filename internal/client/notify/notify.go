// Package notify implements transient, auto-dismissing notifications
// ("toasts"). A Presenter shows at most one notification at a time; a new
// one replaces whatever is visible.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Lifecycle of a notification: it slides in for OpenDuration, then a
// progress bar runs for ProgressDuration, and the notification is removed
// at Lifetime.
const (
	OpenDuration     = 100 * time.Millisecond
	ProgressDuration = 1500 * time.Millisecond
	Lifetime         = 1600 * time.Millisecond
)

// Notifier is what flow controllers depend on.
type Notifier interface {
	Notify(msg string)
}

// Sink renders notifications. Show and Dismiss are called in pairs for the
// same message; Dismiss may be called from a timer goroutine.
type Sink interface {
	Show(msg string)
	Dismiss(msg string)
}

// Presenter drives the notification lifecycle on top of a Sink.
type Presenter struct {
	sink     Sink
	lifetime time.Duration

	mu      sync.Mutex
	seq     uint64
	current *toast
}

type toast struct {
	id    uint64
	msg   string
	timer *time.Timer
}

// NewPresenter returns a Presenter that keeps each notification visible for
// lifetime (Lifetime when lifetime <= 0).
func NewPresenter(sink Sink, lifetime time.Duration) *Presenter {
	if lifetime <= 0 {
		lifetime = Lifetime
	}
	return &Presenter{sink: sink, lifetime: lifetime}
}

// Notify shows msg, replacing the visible notification if any.
func (p *Presenter) Notify(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dismissLocked()

	p.seq++
	t := &toast{id: p.seq, msg: msg}
	id := t.id
	t.timer = time.AfterFunc(p.lifetime, func() { p.expire(id) })
	p.current = t
	p.sink.Show(msg)
}

// Current returns the visible message, if any.
func (p *Presenter) Current() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return "", false
	}
	return p.current.msg, true
}

// Dismiss removes the visible notification immediately.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dismissLocked()
}

func (p *Presenter) expire(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// A replaced notification's timer may still fire.
	if p.current == nil || p.current.id != id {
		return
	}
	p.dismissLocked()
}

func (p *Presenter) dismissLocked() {
	if p.current == nil {
		return
	}
	p.current.timer.Stop()
	p.sink.Dismiss(p.current.msg)
	p.current = nil
}

// WriterSink prints notifications to a terminal. Multi-line messages are
// indented under the first line.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Show(msg string) {
	fmt.Fprintf(s.W, "» %s\n", strings.ReplaceAll(msg, "\n", "\n  "))
}

// Dismiss is a no-op: terminal output cannot be taken back.
func (s WriterSink) Dismiss(string) {}
