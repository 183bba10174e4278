package services

import (
	"errors"

	"github.com/dmitrijs2005/trafficguard/internal/client/federated"
	"github.com/dmitrijs2005/trafficguard/internal/client/validate"
)

var (
	// ErrSubmissionInFlight is returned when a submit arrives while the
	// previous one is still running. No remote call is made.
	ErrSubmissionInFlight = errors.New("submission already in progress")

	// ErrNotVerified means the account exists but its email is not verified.
	ErrNotVerified = errors.New("email not verified")

	// ErrInvalidState is returned for an action the current state does not allow.
	ErrInvalidState = errors.New("action not allowed in current state")
)

// ValidationError carries the rejected form's field errors.
type ValidationError struct {
	Result validate.Result
}

func (e *ValidationError) Error() string {
	if e.Result.Summary != "" {
		return e.Result.Summary
	}
	return "invalid input"
}

// CredentialError is a remote authentication failure. Message is what the
// user was shown.
type CredentialError struct {
	Message string
	Err     error
}

func (e *CredentialError) Error() string { return e.Message }
func (e *CredentialError) Unwrap() error { return e.Err }

// PersistenceError is a failed account record write after the remote
// account was created. The user has been signed out.
type PersistenceError struct {
	UID string
	Err error
}

func (e *PersistenceError) Error() string { return "failed to save user data: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// VerificationError is a failure to send the verification email.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return "failed to send verification email: " + e.Err.Error()
}
func (e *VerificationError) Unwrap() error { return e.Err }

// FederatedSignInError ends a Google sign-in attempt. Err is set when the
// provider returned a credential but the backend exchange failed.
type FederatedSignInError struct {
	Outcome federated.Outcome
	Err     error
}

func (e *FederatedSignInError) Error() string {
	if e.Err != nil {
		return "google sign-in: " + e.Err.Error()
	}
	return "google sign-in: " + e.Outcome.Kind.String()
}
func (e *FederatedSignInError) Unwrap() error { return e.Err }
