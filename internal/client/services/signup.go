package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/trafficguard/internal/client/client"
	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/client/poller"
	"github.com/dmitrijs2005/trafficguard/internal/client/validate"
	"github.com/dmitrijs2005/trafficguard/internal/common"
)

type SignupState int

const (
	SignupIdle SignupState = iota
	SignupValidating
	SignupCreatingAccount
	SignupPersistingRecord
	SignupSendingVerification
	SignupAwaitingVerification
	SignupContinuing
	SignupAbandoned
)

func (s SignupState) String() string {
	switch s {
	case SignupIdle:
		return "idle"
	case SignupValidating:
		return "validating"
	case SignupCreatingAccount:
		return "creating_account"
	case SignupPersistingRecord:
		return "persisting_record"
	case SignupSendingVerification:
		return "sending_verification"
	case SignupAwaitingVerification:
		return "awaiting_verification"
	case SignupContinuing:
		return "continuing"
	case SignupAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// SignupController runs account creation, record persistence and email
// verification for the signup screen.
type SignupController struct {
	deps   Deps
	poller *poller.Poller
	dialog VerificationDialog

	mu            sync.Mutex
	state         SignupState
	form          models.SignupForm
	fieldErrors   map[validate.Field]string
	submitEnabled bool
	verified      *models.AuthSession
	task          *poller.Task
	closed        bool
}

// NewSignupController wires the controller. dialog may be nil.
func NewSignupController(d Deps, p *poller.Poller, dialog VerificationDialog) *SignupController {
	d.Logger = d.Logger.With("component", "signup")
	if dialog == nil {
		dialog = nopDialog{}
	}
	return &SignupController{deps: d, poller: p, dialog: dialog, submitEnabled: true}
}

func (c *SignupController) State() SignupState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SubmitEnabled mirrors the sign-up button: disabled while a submission
// runs and while waiting for verification.
func (c *SignupController) SubmitEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitEnabled
}

// Form returns the last submitted form; it is cleared on Dismiss.
func (c *SignupController) Form() models.SignupForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *SignupController) FieldErrors() map[validate.Field]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyErrors(c.fieldErrors)
}

func (c *SignupController) ClearFieldError(f validate.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fieldErrors, f)
}

// CanContinue reports whether the poller has observed a verified session.
func (c *SignupController) CanContinue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == SignupAwaitingVerification && c.verified != nil
}

// GoToLogin follows the login link.
func (c *SignupController) GoToLogin() {
	c.Close()
	c.deps.Navigator.Navigate(models.Destination{Screen: models.ScreenLogin})
}

func (c *SignupController) begin(form models.SignupForm) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case SignupIdle, SignupAbandoned:
	case SignupAwaitingVerification, SignupContinuing:
		return ErrInvalidState
	default:
		return ErrSubmissionInFlight
	}
	c.state = SignupValidating
	c.form = form
	c.fieldErrors = nil
	c.submitEnabled = false
	return nil
}

func (c *SignupController) setState(s SignupState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// toIdle returns to Idle and re-arms the sign-up button.
func (c *SignupController) toIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = SignupIdle
	c.submitEnabled = true
}

// fail optionally signs out, returns to Idle and notifies exactly once.
func (c *SignupController) fail(ctx context.Context, signOut bool, msg string) {
	if signOut {
		if err := c.deps.Auth.SignOut(ctx); err != nil {
			c.deps.Logger.Warn(ctx, "sign-out after failed signup failed", "error", err)
		}
	}
	c.toIdle()
	c.deps.Notifier.Notify(msg)
}

// Submit creates the account, writes users/{uid}, sends the verification
// email and starts polling for verification. On success the controller is
// in SignupAwaitingVerification.
func (c *SignupController) Submit(ctx context.Context, form models.SignupForm) (err error) {
	if err := c.begin(form); err != nil {
		return err
	}
	defer c.deps.recoverRemote(ctx, &err, func() {
		c.deps.progress().Hide()
		c.toIdle()
	})

	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)

	res := validate.Signup(name, email, form.Password, form.Confirm)
	if !res.Valid() {
		c.mu.Lock()
		c.fieldErrors = res.FieldErrors
		c.mu.Unlock()
		c.toIdle()
		if res.Summary != "" {
			c.deps.Notifier.Notify(res.Summary)
		}
		return &ValidationError{Result: res}
	}

	c.setState(SignupCreatingAccount)
	c.deps.progress().Show()
	rctx, cancel := c.deps.remoteCtx(ctx)
	_, err = c.deps.Auth.CreateUser(rctx, email, form.Password)
	cancel()
	c.deps.progress().Hide()

	if err != nil {
		c.deps.Logger.Warn(ctx, "account creation failed", "error", err)
		msg := "Sign-up failed: " + errorDetail(err)
		if errors.Is(err, client.ErrInvalidCredentials) {
			msg = MsgInvalidCredentials
		}
		c.fail(ctx, false, msg)
		return &CredentialError{Message: msg, Err: err}
	}

	session := c.deps.Auth.Current()
	if session == nil {
		c.fail(ctx, false, MsgNoUserFound)
		return &CredentialError{Message: MsgNoUserFound, Err: client.ErrNoSession}
	}

	c.setState(SignupPersistingRecord)
	record := models.AccountRecord{Name: name, Email: email, UID: session.UID}
	rctx, cancel = c.deps.remoteCtx(ctx)
	err = c.deps.Store.Put(rctx, common.UsersCollection, session.UID, record)
	cancel()
	if err != nil {
		// The remote account stays behind without a record.
		c.deps.Logger.Error(ctx, "account record write failed", "uid", session.UID, "error", err)
		c.fail(ctx, true, "Failed to save user data: "+errorDetail(err))
		return &PersistenceError{UID: session.UID, Err: err}
	}

	c.setState(SignupSendingVerification)
	rctx, cancel = c.deps.remoteCtx(ctx)
	err = c.deps.Auth.SendVerificationEmail(rctx)
	cancel()
	if err != nil {
		c.deps.Logger.Error(ctx, "verification email failed", "uid", session.UID, "error", err)
		c.fail(ctx, true, "Failed to send verification email: "+errorDetail(err))
		return &VerificationError{Err: err}
	}

	c.deps.Logger.Info(ctx, "verification email sent", "uid", session.UID)
	c.awaitVerification(ctx, email)
	return nil
}

func (c *SignupController) awaitVerification(ctx context.Context, email string) {
	c.dialog.Open(email)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = SignupAwaitingVerification
	c.verified = nil
	c.submitEnabled = false
	if c.closed {
		return
	}
	// The poll outlives the submit call; Dismiss or Close stops it.
	c.task = c.poller.Start(context.WithoutCancel(ctx), c.onVerified)
}

// onVerified runs on the poller goroutine under the task lock; it must not
// cancel the task.
func (c *SignupController) onVerified(s models.AuthSession) {
	c.mu.Lock()
	if c.state != SignupAwaitingVerification {
		c.mu.Unlock()
		return
	}
	c.verified = &s
	c.submitEnabled = true
	c.mu.Unlock()

	c.dialog.Verified()
}

// Continue leaves the verification dialog for the authenticated area. It
// is allowed only after the poller observed the verified session.
func (c *SignupController) Continue(ctx context.Context) error {
	c.mu.Lock()
	if c.state != SignupAwaitingVerification {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.verified == nil {
		c.mu.Unlock()
		return ErrNotVerified
	}
	s := *c.verified
	c.state = SignupContinuing
	c.task = nil
	c.mu.Unlock()

	c.dialog.Close()
	c.deps.Logger.Info(ctx, "signup complete", "uid", s.UID)
	c.deps.Navigator.Navigate(models.AuthenticatedAs(s))
	return nil
}

// Dismiss abandons the verification dialog: polling stops, the form is
// cleared, the button is re-armed and the user is sent to login.
func (c *SignupController) Dismiss(ctx context.Context) error {
	c.mu.Lock()
	if c.state != SignupAwaitingVerification {
		c.mu.Unlock()
		return ErrInvalidState
	}
	task := c.task
	c.task = nil
	c.state = SignupAbandoned
	c.form = models.SignupForm{}
	c.fieldErrors = nil
	c.verified = nil
	c.submitEnabled = true
	c.mu.Unlock()

	if task != nil {
		task.Cancel()
	}
	c.dialog.Close()
	c.deps.Logger.Debug(ctx, "verification dialog dismissed")
	c.deps.Navigator.Navigate(models.Destination{Screen: models.ScreenLogin})
	return nil
}

// Close stops any running poll; call it when the screen is torn down. No
// poll is started after Close.
func (c *SignupController) Close() {
	c.mu.Lock()
	task := c.task
	c.task = nil
	c.closed = true
	c.mu.Unlock()

	if task != nil {
		task.Cancel()
	}
}
