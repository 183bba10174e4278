package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const (
	oobVerifyEmail   = "VERIFY_EMAIL"
	oobPasswordReset = "PASSWORD_RESET"

	// assertionRequestURI is required by verifyAssertion but unused when an
	// ID token is posted directly.
	assertionRequestURI = "http://localhost"
)

// FirebaseAuth is the AuthClient backed by the Firebase Identity Toolkit
// REST API. It keeps the signed-in user's tokens in memory only.
type FirebaseAuth struct {
	svc *identitytoolkit.Service

	mu           sync.RWMutex
	idToken      string
	refreshToken string
	session      *models.AuthSession
}

var _ AuthClient = (*FirebaseAuth)(nil)

// NewFirebaseAuth creates a client for the project owning apiKey. Extra
// options (e.g. option.WithEndpoint) are passed to the generated service.
func NewFirebaseAuth(ctx context.Context, apiKey string, opts ...option.ClientOption) (*FirebaseAuth, error) {
	if apiKey == "" {
		return nil, errors.New("firebase web api key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)

	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return &FirebaseAuth{svc: svc}, nil
}

// Current returns a copy of the cached session, or nil when signed out.
func (f *FirebaseAuth) Current() *models.AuthSession {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.session == nil {
		return nil
	}
	s := *f.session
	return &s
}

func (f *FirebaseAuth) token() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.idToken == "" {
		return "", ErrNoSession
	}
	return f.idToken, nil
}

func (f *FirebaseAuth) setSession(idToken, refreshToken string, s *models.AuthSession) *models.AuthSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idToken = idToken
	if refreshToken != "" {
		f.refreshToken = refreshToken
	}
	f.session = s
	out := *s
	return &out
}

// SignIn authenticates with email and password.
func (f *FirebaseAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	resp, err := f.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	return f.sessionFromToken(resp.IdToken, resp.RefreshToken, resp.LocalId, resp.Email)
}

// CreateUser registers a new email/password account and signs it in.
func (f *FirebaseAuth) CreateUser(ctx context.Context, email, password string) (*models.AuthSession, error) {
	resp, err := f.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	return f.sessionFromToken(resp.IdToken, resp.RefreshToken, resp.LocalId, resp.Email)
}

// SignInWithIDToken exchanges an identity provider's ID token (e.g. a Google
// ID token, providerID "google.com") for a Firebase session.
func (f *FirebaseAuth) SignInWithIDToken(ctx context.Context, providerID, idToken string) (*models.AuthSession, error) {
	body := url.Values{}
	body.Set("id_token", idToken)
	body.Set("providerId", providerID)

	resp, err := f.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        assertionRequestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	if resp.ErrorMessage != "" {
		return nil, mapCode(resp.ErrorMessage)
	}

	s := &models.AuthSession{UID: resp.LocalId, Email: resp.Email, EmailVerified: resp.EmailVerified}
	return f.setSession(resp.IdToken, resp.RefreshToken, s), nil
}

// Reload refreshes the cached session from the backend.
func (f *FirebaseAuth) Reload(ctx context.Context) (*models.AuthSession, error) {
	tok, err := f.token()
	if err != nil {
		return nil, err
	}

	resp, err := f.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: tok,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Users) == 0 {
		return nil, ErrUserNotFound
	}

	u := resp.Users[0]
	f.mu.Lock()
	defer f.mu.Unlock()
	// A sign-out while the request was in flight wins.
	if f.idToken != tok {
		return nil, ErrNoSession
	}
	f.session = &models.AuthSession{UID: u.LocalId, Email: u.Email, EmailVerified: u.EmailVerified}
	out := *f.session
	return &out, nil
}

// SendVerificationEmail asks the backend to mail a verification link to the
// signed-in user.
func (f *FirebaseAuth) SendVerificationEmail(ctx context.Context) error {
	tok, err := f.token()
	if err != nil {
		return err
	}
	_, err = f.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: oobVerifyEmail,
		IdToken:     tok,
	}).Context(ctx).Do()
	return mapError(err)
}

// SendPasswordReset mails a password reset link to email.
func (f *FirebaseAuth) SendPasswordReset(ctx context.Context, email string) error {
	_, err := f.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: oobPasswordReset,
		Email:       email,
	}).Context(ctx).Do()
	return mapError(err)
}

// SignOut forgets the local session.
func (f *FirebaseAuth) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idToken = ""
	f.refreshToken = ""
	f.session = nil
	return nil
}

func (f *FirebaseAuth) sessionFromToken(idToken, refreshToken, uid, email string) (*models.AuthSession, error) {
	s, err := SessionFromIDToken(idToken)
	if err != nil {
		// Fall back to the response fields; verification status is then
		// unknown and treated as unverified until the next Reload.
		s = &models.AuthSession{UID: uid, Email: email}
	}
	if s.Email == "" {
		s.Email = email
	}
	return f.setSession(idToken, refreshToken, s), nil
}

// mapError converts an Identity Toolkit error into one of the package's
// sentinel errors wrapped in *RemoteError. Nil stays nil.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if gerr.Code >= 500 {
		return &RemoteError{Code: gerr.Message, Err: ErrUnavailable}
	}
	return mapCode(gerr.Message)
}

// mapCode maps a Firebase error code such as "EMAIL_NOT_FOUND" or
// "TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled" to a sentinel.
func mapCode(message string) error {
	code := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])

	var sentinel error
	switch code {
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "WEAK_PASSWORD",
		"INVALID_IDP_RESPONSE", "MISSING_PASSWORD":
		sentinel = ErrInvalidCredentials
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		sentinel = ErrUserNotFound
	case "EMAIL_EXISTS":
		sentinel = ErrEmailExists
	case "USER_DISABLED":
		sentinel = ErrUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		sentinel = ErrTooManyAttempts
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		sentinel = ErrSessionExpired
	default:
		return &RemoteError{Code: message}
	}
	return &RemoteError{Code: message, Err: sentinel}
}
