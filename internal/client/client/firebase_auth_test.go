package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeToolkit answers Identity Toolkit relyingparty calls from canned
// handlers keyed by the last path element.
type fakeToolkit struct {
	mu       sync.Mutex
	handlers map[string]func(body map[string]any) (int, any)
	calls    map[string][]map[string]any
}

func newFakeToolkit() *fakeToolkit {
	return &fakeToolkit{
		handlers: map[string]func(map[string]any) (int, any){},
		calls:    map[string][]map[string]any{},
	}
}

func (f *fakeToolkit) on(method string, h func(body map[string]any) (int, any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeToolkit) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls[method])
}

func (f *fakeToolkit) lastCall(method string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.calls[method]
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

func (f *fakeToolkit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls[method] = append(f.calls[method], body)
	h := f.handlers[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"NOT_FOUND"}}`))
		return
	}
	code, resp := h(body)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func apiError(code int, message string) any {
	return map[string]any{"error": map[string]any{"code": code, "message": message}}
}

func newTestAuth(t *testing.T) (*FirebaseAuth, *fakeToolkit) {
	t.Helper()
	fake := newFakeToolkit()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	a, err := NewFirebaseAuth(context.Background(), "test-key",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return a, fake
}

func TestNewFirebaseAuth_RequiresKey(t *testing.T) {
	_, err := NewFirebaseAuth(context.Background(), "")
	require.Error(t, err)
}

func TestFirebaseAuth_SignIn(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("verifyPassword", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"idToken":      makeIDToken(t, "uid-1", "a@example.com", true),
			"refreshToken": "r1",
			"localId":      "uid-1",
			"email":        "a@example.com",
		}
	})

	s, err := a.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", s.UID)
	assert.True(t, s.EmailVerified)

	body := fake.lastCall("verifyPassword")
	assert.Equal(t, "a@example.com", body["email"])
	assert.Equal(t, "secret1", body["password"])
	assert.Equal(t, true, body["returnSecureToken"])

	require.NotNil(t, a.Current())
	assert.Equal(t, "a@example.com", a.Current().Email)
}

func TestFirebaseAuth_SignIn_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    error
	}{
		{"wrong password", 400, "INVALID_PASSWORD", ErrInvalidCredentials},
		{"unified credentials", 400, "INVALID_LOGIN_CREDENTIALS", ErrInvalidCredentials},
		{"unknown email", 400, "EMAIL_NOT_FOUND", ErrUserNotFound},
		{"disabled", 400, "USER_DISABLED", ErrUserDisabled},
		{"throttled with detail", 400, "TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled", ErrTooManyAttempts},
		{"server error", 503, "BACKEND_ERROR", ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, fake := newTestAuth(t)
			fake.on("verifyPassword", func(map[string]any) (int, any) {
				return tt.status, apiError(tt.status, tt.message)
			})

			_, err := a.SignIn(context.Background(), "a@example.com", "secret1")
			require.ErrorIs(t, err, tt.want)

			var re *RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.message, re.Code)
			assert.Nil(t, a.Current())
		})
	}
}

func TestFirebaseAuth_UnknownCodeKeepsDetail(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("signupNewUser", func(map[string]any) (int, any) {
		return 400, apiError(400, "OPERATION_NOT_ALLOWED")
	})

	_, err := a.CreateUser(context.Background(), "a@example.com", "Abcdef1!")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Nil(t, re.Err)
	assert.Equal(t, "OPERATION_NOT_ALLOWED", err.Error())
}

func TestFirebaseAuth_CreateUserAndVerify(t *testing.T) {
	a, fake := newTestAuth(t)
	tok := makeIDToken(t, "uid-2", "new@example.com", false)
	fake.on("signupNewUser", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"idToken": tok, "localId": "uid-2", "email": "new@example.com"}
	})
	fake.on("getOobConfirmationCode", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"email": "new@example.com"}
	})

	s, err := a.CreateUser(context.Background(), "new@example.com", "Abcdef1!")
	require.NoError(t, err)
	assert.False(t, s.EmailVerified)

	require.NoError(t, a.SendVerificationEmail(context.Background()))
	body := fake.lastCall("getOobConfirmationCode")
	assert.Equal(t, "VERIFY_EMAIL", body["requestType"])
	assert.Equal(t, tok, body["idToken"])
}

func TestFirebaseAuth_CreateUser_EmailExists(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("signupNewUser", func(map[string]any) (int, any) {
		return 400, apiError(400, "EMAIL_EXISTS")
	})

	_, err := a.CreateUser(context.Background(), "dup@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestFirebaseAuth_SendVerificationEmail_NoSession(t *testing.T) {
	a, fake := newTestAuth(t)
	require.ErrorIs(t, a.SendVerificationEmail(context.Background()), ErrNoSession)
	assert.Zero(t, fake.callCount("getOobConfirmationCode"))
}

func TestFirebaseAuth_SendPasswordReset(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("getOobConfirmationCode", func(body map[string]any) (int, any) {
		if body["email"] == "ghost@example.com" {
			return 400, apiError(400, "EMAIL_NOT_FOUND")
		}
		return http.StatusOK, map[string]any{"email": body["email"]}
	})

	require.NoError(t, a.SendPasswordReset(context.Background(), "a@example.com"))
	assert.Equal(t, "PASSWORD_RESET", fake.lastCall("getOobConfirmationCode")["requestType"])

	err := a.SendPasswordReset(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestFirebaseAuth_Reload(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("verifyPassword", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"idToken": makeIDToken(t, "uid-1", "a@example.com", false),
			"localId": "uid-1",
		}
	})
	var verified atomic.Bool
	fake.on("getAccountInfo", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"users": []map[string]any{{
			"localId":       "uid-1",
			"email":         "a@example.com",
			"emailVerified": verified.Load(),
		}}}
	})

	_, err := a.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	s, err := a.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, s.EmailVerified)

	verified.Store(true)
	s, err = a.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, s.EmailVerified)
	assert.True(t, a.Current().EmailVerified)
}

func TestFirebaseAuth_Reload_NoSession(t *testing.T) {
	a, _ := newTestAuth(t)
	_, err := a.Reload(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestFirebaseAuth_Reload_ExpiredToken(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("verifyPassword", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"idToken": makeIDToken(t, "u", "a@example.com", false)}
	})
	fake.on("getAccountInfo", func(map[string]any) (int, any) {
		return 400, apiError(400, "TOKEN_EXPIRED")
	})

	_, err := a.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	_, err = a.Reload(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestFirebaseAuth_SignInWithIDToken(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("verifyAssertion", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"idToken":       "firebase-token",
			"localId":       "g-1",
			"email":         "g@example.com",
			"emailVerified": true,
		}
	})

	s, err := a.SignInWithIDToken(context.Background(), "google.com", "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "g-1", s.UID)
	assert.True(t, s.EmailVerified)

	body := fake.lastCall("verifyAssertion")
	assert.Contains(t, body["postBody"], "id_token=google-id-token")
	assert.Contains(t, body["postBody"], "providerId=google.com")
}

func TestFirebaseAuth_SignInWithIDToken_ErrorMessage(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("verifyAssertion", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"errorMessage": "INVALID_IDP_RESPONSE"}
	})

	_, err := a.SignInWithIDToken(context.Background(), "google.com", "bad")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, a.Current())
}

func TestFirebaseAuth_SignOut(t *testing.T) {
	a, fake := newTestAuth(t)
	fake.on("verifyPassword", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"idToken": makeIDToken(t, "u", "a@example.com", true)}
	})

	_, err := a.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, a.Current())

	require.NoError(t, a.SignOut(context.Background()))
	assert.Nil(t, a.Current())
	// Idempotent.
	require.NoError(t, a.SignOut(context.Background()))
}

func TestMapError_Transport(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(context.DeadlineExceeded), context.DeadlineExceeded)
	assert.ErrorIs(t, mapError(assert.AnError), ErrUnavailable)
}
