package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/trafficguard/internal/client/client"
	"github.com/dmitrijs2005/trafficguard/internal/client/federated"
	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/client/validate"
)

type LoginState int

const (
	LoginIdle LoginState = iota
	LoginValidating
	LoginSubmitting
	LoginSuccess
	LoginFailed
)

func (s LoginState) String() string {
	switch s {
	case LoginIdle:
		return "idle"
	case LoginValidating:
		return "validating"
	case LoginSubmitting:
		return "submitting"
	case LoginSuccess:
		return "success"
	case LoginFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailNotRegistered = "Email not registered"
	MsgVerifyEmailFirst   = "Please verify your email before logging in"
	MsgResetEmailSent     = "Password reset email sent"
	MsgNoUserFound        = "Authentication failed: No user found"
	msgGoogleNoUserFound  = "Google Sign-In failed: No user found"
)

// LoginController runs the email/password and Google sign-in flows of the
// login screen. At most one submission is in flight at a time.
type LoginController struct {
	deps Deps

	mu          sync.Mutex
	state       LoginState
	fieldErrors map[validate.Field]string
	resetting   bool
}

func NewLoginController(d Deps) *LoginController {
	d.Logger = d.Logger.With("component", "login")
	return &LoginController{deps: d}
}

func (c *LoginController) State() LoginState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FieldErrors returns a copy of the errors currently attached to fields.
func (c *LoginController) FieldErrors() map[validate.Field]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyErrors(c.fieldErrors)
}

// ClearFieldError drops the error of a field the user started editing.
func (c *LoginController) ClearFieldError(f validate.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fieldErrors, f)
}

// GoToSignup follows the sign-up link.
func (c *LoginController) GoToSignup() {
	c.deps.Navigator.Navigate(models.Destination{Screen: models.ScreenSignup})
}

func (c *LoginController) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case LoginValidating, LoginSubmitting:
		return ErrSubmissionInFlight
	case LoginSuccess:
		return ErrInvalidState
	}
	c.state = LoginValidating
	c.fieldErrors = nil
	return nil
}

func (c *LoginController) setState(s LoginState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *LoginController) reset() {
	c.deps.progress().Hide()
	c.setState(LoginIdle)
}

// Submit validates the form and signs in. It returns nil only after
// navigating to the authenticated area.
func (c *LoginController) Submit(ctx context.Context, email, password string) (err error) {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.deps.recoverRemote(ctx, &err, c.reset)

	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	res := validate.Login(email, password)
	if !res.Valid() {
		c.mu.Lock()
		c.fieldErrors = res.FieldErrors
		c.state = LoginIdle
		c.mu.Unlock()
		if res.Summary != "" {
			c.deps.Notifier.Notify(res.Summary)
		}
		return &ValidationError{Result: res}
	}

	c.setState(LoginSubmitting)
	c.deps.progress().Show()

	rctx, cancel := c.deps.remoteCtx(ctx)
	_, err = c.deps.Auth.SignIn(rctx, email, password)
	cancel()
	c.deps.progress().Hide()

	if err != nil {
		msg := loginFailureMessage(err)
		c.deps.Logger.Warn(ctx, "sign-in failed", "error", err)
		c.setState(LoginFailed)
		c.deps.Notifier.Notify(msg)
		return &CredentialError{Message: msg, Err: err}
	}

	return c.afterSignIn(ctx, MsgNoUserFound)
}

// SignInWithGoogle runs the federated flow and, on a credential, exchanges
// it with the backend and continues like a password sign-in.
func (c *LoginController) SignInWithGoogle(ctx context.Context) (err error) {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.deps.recoverRemote(ctx, &err, c.reset)

	if c.deps.Federated == nil {
		c.setState(LoginIdle)
		return ErrInvalidState
	}

	c.setState(LoginSubmitting)
	outcome := c.deps.Federated.SignIn(ctx)
	if outcome.Terminal() {
		c.setState(LoginIdle)
		c.deps.Notifier.Notify(outcome.Message)
		return &FederatedSignInError{Outcome: outcome}
	}

	c.deps.progress().Show()
	rctx, cancel := c.deps.remoteCtx(ctx)
	_, err = c.deps.Auth.SignInWithIDToken(rctx, federated.ProviderGoogle, outcome.IDToken)
	cancel()
	c.deps.progress().Hide()

	if err != nil {
		c.deps.Logger.Warn(ctx, "google credential exchange failed", "error", err)
		c.setState(LoginFailed)
		c.deps.Notifier.Notify("Google Sign-In failed: " + errorDetail(err))
		return &FederatedSignInError{Outcome: outcome, Err: err}
	}

	return c.afterSignIn(ctx, msgGoogleNoUserFound)
}

// afterSignIn is the common success path: only a verified session may enter
// the authenticated area.
func (c *LoginController) afterSignIn(ctx context.Context, noUserMsg string) error {
	s := c.deps.Auth.Current()
	if s == nil {
		c.deps.Logger.Error(ctx, "sign-in succeeded without a session")
		c.setState(LoginFailed)
		c.deps.Notifier.Notify(noUserMsg)
		return &CredentialError{Message: noUserMsg, Err: client.ErrNoSession}
	}

	if !s.Verified() {
		if err := c.deps.Auth.SignOut(ctx); err != nil {
			c.deps.Logger.Warn(ctx, "sign-out of unverified user failed", "error", err)
		}
		c.setState(LoginIdle)
		c.deps.Notifier.Notify(MsgVerifyEmailFirst)
		return ErrNotVerified
	}

	c.setState(LoginSuccess)
	c.deps.Logger.Info(ctx, "signed in", "uid", s.UID)
	c.deps.Navigator.Navigate(models.AuthenticatedAs(*s))
	return nil
}

// ForgotPassword sends a password reset email. It does not touch the
// sign-in state machine.
func (c *LoginController) ForgotPassword(ctx context.Context, email string) (err error) {
	c.mu.Lock()
	if c.resetting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.resetting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.resetting = false
		c.mu.Unlock()
	}()
	defer c.deps.recoverRemote(ctx, &err, func() { c.deps.progress().Hide() })

	email = strings.TrimSpace(email)
	if res := validate.Email(email); !res.Valid() {
		c.deps.Notifier.Notify(res.Summary)
		return &ValidationError{Result: res}
	}

	c.deps.progress().Show()
	rctx, cancel := c.deps.remoteCtx(ctx)
	err = c.deps.Auth.SendPasswordReset(rctx, email)
	cancel()
	c.deps.progress().Hide()

	if err != nil {
		c.deps.Logger.Warn(ctx, "password reset failed", "error", err)
		c.deps.Notifier.Notify("Failed to send reset email: " + errorDetail(err))
		return &CredentialError{Message: "Failed to send reset email", Err: err}
	}
	c.deps.Notifier.Notify(MsgResetEmailSent)
	return nil
}

func loginFailureMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, client.ErrUserNotFound):
		return MsgEmailNotRegistered
	default:
		return "Authentication failed: " + errorDetail(err)
	}
}

func copyErrors(m map[validate.Field]string) map[validate.Field]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[validate.Field]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
