// Package services holds the screen controllers of the TrafficGuard client:
// onboarding, login and signup. Controllers own their state machine and talk
// to the outside world only through the interfaces below, so any front-end
// (the terminal App or a test) can drive them.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/client/client"
	"github.com/dmitrijs2005/trafficguard/internal/client/federated"
	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/client/notify"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
)

// Navigator performs screen transitions.
type Navigator interface {
	Navigate(d models.Destination)
}

// Progress is the blocking progress indicator shown while a remote call runs.
type Progress interface {
	Show()
	Hide()
}

// FederatedSignIn runs one Google sign-in attempt.
type FederatedSignIn interface {
	SignIn(ctx context.Context) federated.Outcome
}

// VerificationDialog is the "check your inbox" presentation of the signup
// screen. Open and Close are called from the controller's caller; Verified
// may be called from the poller goroutine.
type VerificationDialog interface {
	Open(email string)
	Verified()
	Close()
}

type nopProgress struct{}

func (nopProgress) Show() {}
func (nopProgress) Hide() {}

type nopDialog struct{}

func (nopDialog) Open(string) {}
func (nopDialog) Verified()   {}
func (nopDialog) Close()      {}

// Deps are the collaborators shared by the controllers. Progress and Dialog
// may be nil.
type Deps struct {
	Auth      client.AuthClient
	Store     client.Store
	Notifier  notify.Notifier
	Navigator Navigator
	Progress  Progress
	Federated FederatedSignIn
	Logger    logging.Logger

	// RemoteTimeout bounds every remote call. Zero disables the bound.
	RemoteTimeout time.Duration
}

func (d Deps) progress() Progress {
	if d.Progress == nil {
		return nopProgress{}
	}
	return d.Progress
}

func (d Deps) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.RemoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.RemoteTimeout)
}

// recoverRemote turns a panic escaping a remote interaction into a
// notification and an error. reset restores the controller state.
func (d Deps) recoverRemote(ctx context.Context, errp *error, reset func()) {
	p := recover()
	if p == nil {
		return
	}
	d.Logger.Error(ctx, "unexpected panic in remote interaction", "panic", p)
	reset()
	msg := fmt.Sprintf("Unexpected error: %v", p)
	d.Notifier.Notify(msg)
	*errp = fmt.Errorf("%s", msg)
}

// errorDetail is the provider text appended to generic failure messages.
func errorDetail(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
