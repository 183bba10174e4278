// Package federated turns the result of a Google sign-in hand-off into an
// Outcome the login flow can act on.
package federated

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trafficguard/internal/logging"
)

// Status codes reported by the Google sign-in provider.
const (
	StatusFailed     = 12500
	StatusCancelled  = 12501
	StatusInProgress = 12502
)

const ProviderGoogle = "google.com"

// ResultCode is the coarse code accompanying a PendingResult. Some platforms
// report ResultCanceled even when Data carries a usable account, so it is
// consulted only when Data is nil.
type ResultCode int

const (
	ResultOK ResultCode = iota
	ResultCanceled
	ResultTimedOut
)

// PendingResult is what a Launcher hands back after the external sign-in UI
// closes.
type PendingResult struct {
	Code ResultCode
	Data *Payload
}

// Payload is the provider's answer: an account or an error.
type Payload struct {
	Account *Account
	Err     error
}

type Account struct {
	Email   string
	IDToken string
}

// ProviderError is a failure reported by the identity provider itself.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d", e.Status)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Launcher starts the external sign-in UI and waits for it to finish.
type Launcher interface {
	Launch(ctx context.Context) PendingResult
}

type Kind int

const (
	KindCredential Kind = iota
	KindCancelled
	KindNoData
	KindMissingToken
	KindNoAccount
	KindAlreadyInProgress
	KindFailed
	KindProviderError
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindCancelled:
		return "cancelled"
	case KindNoData:
		return "no_data"
	case KindMissingToken:
		return "missing_token"
	case KindNoAccount:
		return "no_account"
	case KindAlreadyInProgress:
		return "already_in_progress"
	case KindFailed:
		return "failed"
	case KindProviderError:
		return "provider_error"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Outcome is the classified result. IDToken is set only for KindCredential,
// Code only for KindProviderError. Message is the text shown to the user for
// every kind except KindCredential.
type Outcome struct {
	Kind    Kind
	IDToken string
	Code    int
	Message string
}

// Terminal reports whether the attempt ended without a credential.
func (o Outcome) Terminal() bool {
	return o.Kind != KindCredential
}

// HandleResult classifies r. It never retries; every non-credential outcome
// ends the attempt.
func HandleResult(r PendingResult) Outcome {
	if r.Data == nil {
		if r.Code == ResultCanceled {
			return Outcome{Kind: KindCancelled, Message: "Google Sign-In cancelled by user"}
		}
		return Outcome{Kind: KindNoData, Message: "Google Sign-In failed: no data returned"}
	}

	if err := r.Data.Err; err != nil {
		var pe *ProviderError
		if !errors.As(err, &pe) {
			return Outcome{Kind: KindUnexpected, Message: "Unexpected error: " + err.Error()}
		}
		switch pe.Status {
		case StatusCancelled:
			return Outcome{Kind: KindCancelled, Message: "Google Sign-In cancelled"}
		case StatusFailed:
			return Outcome{Kind: KindFailed, Message: "Google Sign-In failed"}
		case StatusInProgress:
			return Outcome{Kind: KindAlreadyInProgress, Message: "Google Sign-In already in progress"}
		default:
			return Outcome{Kind: KindProviderError, Code: pe.Status, Message: "Google Sign-In error: " + pe.Error()}
		}
	}

	if r.Data.Account == nil {
		return Outcome{Kind: KindNoAccount, Message: "Google Sign-In failed: no account returned"}
	}
	if r.Data.Account.IDToken == "" {
		return Outcome{
			Kind:    KindMissingToken,
			Message: "Google Sign-In failed: missing ID token (check OAuth client / SHA fingerprints)",
		}
	}
	return Outcome{Kind: KindCredential, IDToken: r.Data.Account.IDToken}
}

// Adapter runs a Launcher and classifies what it returns.
type Adapter struct {
	launcher Launcher
	logger   logging.Logger
}

func NewAdapter(l Launcher, logger logging.Logger) *Adapter {
	return &Adapter{launcher: l, logger: logger.With("component", "federated")}
}

// SignIn launches the provider UI and returns the classified outcome.
func (a *Adapter) SignIn(ctx context.Context) Outcome {
	r := a.launcher.Launch(ctx)
	o := HandleResult(r)

	if o.Terminal() {
		a.logger.Warn(ctx, "google sign-in ended without credential",
			"kind", o.Kind.String(), "result_code", int(r.Code), "data", r.Data != nil)
	} else {
		a.logger.Debug(ctx, "google sign-in returned an id token")
	}
	return o
}
