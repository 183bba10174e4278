package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/client/federated"
	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/client/poller"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
)

// fakeAuth implements client.AuthClient. Hooks override the default
// behavior, which is to succeed with the configured session.
type fakeAuth struct {
	mu sync.Mutex

	session  *models.AuthSession // returned by Current after sign-in
	current  *models.AuthSession
	verified bool // flips EmailVerified on Reload

	SignInFn      func(ctx context.Context, email, password string) error
	CreateUserFn  func(ctx context.Context, email, password string) error
	IDTokenFn     func(ctx context.Context, providerID, idToken string) error
	SendVerifyErr error
	ResetErr      error
	ReloadErr     error

	signIns     int
	creates     int
	idTokens    []string
	verifySends int
	resets      []string
	reloads     int
	signOuts    int
}

func newFakeAuth(s *models.AuthSession) *fakeAuth {
	return &fakeAuth{session: s}
}

func (f *fakeAuth) Current() *models.AuthSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	s := *f.current
	return &s
}

func (f *fakeAuth) Reload(context.Context) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	if f.ReloadErr != nil {
		return nil, f.ReloadErr
	}
	if f.current == nil {
		return nil, nil
	}
	f.current.EmailVerified = f.verified
	s := *f.current
	return &s, nil
}

func (f *fakeAuth) signedIn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session != nil {
		s := *f.session
		f.current = &s
	}
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	f.mu.Lock()
	f.signIns++
	fn := f.SignInFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, email, password); err != nil {
			return nil, err
		}
	}
	f.signedIn()
	return f.Current(), nil
}

func (f *fakeAuth) CreateUser(ctx context.Context, email, password string) (*models.AuthSession, error) {
	f.mu.Lock()
	f.creates++
	fn := f.CreateUserFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, email, password); err != nil {
			return nil, err
		}
	}
	f.signedIn()
	return f.Current(), nil
}

func (f *fakeAuth) SignInWithIDToken(ctx context.Context, providerID, idToken string) (*models.AuthSession, error) {
	f.mu.Lock()
	f.idTokens = append(f.idTokens, providerID+":"+idToken)
	fn := f.IDTokenFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, providerID, idToken); err != nil {
			return nil, err
		}
	}
	f.signedIn()
	return f.Current(), nil
}

func (f *fakeAuth) SendVerificationEmail(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifySends++
	return f.SendVerifyErr
}

func (f *fakeAuth) SendPasswordReset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, email)
	return f.ResetErr
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.current = nil
	return nil
}

func (f *fakeAuth) setVerified(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = v
}

func (f *fakeAuth) counts() (signIns, creates, verifySends, reloads, signOuts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signIns, f.creates, f.verifySends, f.reloads, f.signOuts
}

type putCall struct {
	collection, key string
	record          any
}

type fakeStore struct {
	mu    sync.Mutex
	err   error
	calls []putCall
}

func (s *fakeStore) Put(_ context.Context, collection, key string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, putCall{collection, key, record})
	return s.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type recordingNavigator struct {
	mu   sync.Mutex
	dest []models.Destination
}

func (n *recordingNavigator) Navigate(d models.Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dest = append(n.dest, d)
}

func (n *recordingNavigator) Destinations() []models.Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Destination(nil), n.dest...)
}

type countingProgress struct {
	mu      sync.Mutex
	shows   int
	hides   int
	visible bool
}

func (p *countingProgress) Show() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shows++
	p.visible = true
}

func (p *countingProgress) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hides++
	p.visible = false
}

func (p *countingProgress) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

type stubFederated struct {
	outcome federated.Outcome
	calls   int
}

func (s *stubFederated) SignIn(context.Context) federated.Outcome {
	s.calls++
	return s.outcome
}

type recordingDialog struct {
	mu       sync.Mutex
	opened   []string
	verified int
	closed   int
}

func (d *recordingDialog) Open(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, email)
}

func (d *recordingDialog) Verified() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.verified++
}

func (d *recordingDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
}

func (d *recordingDialog) Counts() (opened, verified, closed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opened), d.verified, d.closed
}

type harness struct {
	auth     *fakeAuth
	store    *fakeStore
	notifier *recordingNotifier
	nav      *recordingNavigator
	progress *countingProgress
	fed      *stubFederated
	dialog   *recordingDialog
	deps     Deps
}

func newHarness(t *testing.T, session *models.AuthSession) *harness {
	t.Helper()
	h := &harness{
		auth:     newFakeAuth(session),
		store:    &fakeStore{},
		notifier: &recordingNotifier{},
		nav:      &recordingNavigator{},
		progress: &countingProgress{},
		fed:      &stubFederated{},
		dialog:   &recordingDialog{},
	}
	h.deps = Deps{
		Auth:      h.auth,
		Store:     h.store,
		Notifier:  h.notifier,
		Navigator: h.nav,
		Progress:  h.progress,
		Federated: h.fed,
		Logger:    logging.Nop(),
	}
	return h
}

func (h *harness) login() *LoginController {
	return NewLoginController(h.deps)
}

func (h *harness) signup(t *testing.T) *SignupController {
	t.Helper()
	p := poller.New(h.auth, poller.Options{Interval: time.Millisecond}, logging.Nop())
	c := NewSignupController(h.deps, p, h.dialog)
	t.Cleanup(c.Close)
	return c
}
