package federated

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/client/client"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	callbackPath   = "/callback"
	defaultTimeout = 5 * time.Minute
)

// OAuthConfig configures the loopback authorization-code flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	// CallbackAddr is the host:port the loopback listener binds to; port 0
	// picks a free one.
	CallbackAddr string
	// Endpoint defaults to google.Endpoint.
	Endpoint oauth2.Endpoint
	Scopes   []string
	// Timeout bounds the wait for the browser to come back.
	Timeout time.Duration
}

// OpenURLFunc shows the authorization URL to the user (a browser launcher
// or a printed link).
type OpenURLFunc func(url string) error

// PrintURL returns an OpenURLFunc that asks the user to open the link.
func PrintURL(w io.Writer) OpenURLFunc {
	return func(url string) error {
		_, err := fmt.Fprintf(w, "Open this link to continue with Google:\n  %s\n", url)
		return err
	}
}

// OAuthLauncher is a Launcher that runs the OAuth 2.0 authorization-code
// flow against Google with a one-shot loopback HTTP callback.
type OAuthLauncher struct {
	cfg     OAuthConfig
	open    OpenURLFunc
	logger  logging.Logger
	running atomic.Bool
}

var _ Launcher = (*OAuthLauncher)(nil)

func NewOAuthLauncher(cfg OAuthConfig, open OpenURLFunc, logger logging.Logger) (*OAuthLauncher, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google oauth client id is required")
	}
	if cfg.CallbackAddr == "" {
		cfg.CallbackAddr = "127.0.0.1:0"
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "email", "profile"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &OAuthLauncher{cfg: cfg, open: open, logger: logger.With("component", "oauth")}, nil
}

func providerFailure(status int, format string, args ...any) PendingResult {
	return PendingResult{Code: ResultOK, Data: &Payload{Err: &ProviderError{Status: status, Message: fmt.Sprintf(format, args...)}}}
}

// Launch blocks until the browser returns to the callback, the timeout
// elapses or ctx is done. A second Launch while one is running reports
// StatusInProgress.
func (l *OAuthLauncher) Launch(ctx context.Context) PendingResult {
	if !l.running.CompareAndSwap(false, true) {
		return providerFailure(StatusInProgress, "sign-in already in progress")
	}
	defer l.running.Store(false)

	ln, err := net.Listen("tcp", l.cfg.CallbackAddr)
	if err != nil {
		return PendingResult{Code: ResultOK, Data: &Payload{Err: fmt.Errorf("listen for oauth callback: %w", err)}}
	}

	state := uuid.NewString()
	conf := &oauth2.Config{
		ClientID:     l.cfg.ClientID,
		ClientSecret: l.cfg.ClientSecret,
		Endpoint:     l.cfg.Endpoint,
		Scopes:       l.cfg.Scopes,
		RedirectURL:  "http://" + ln.Addr().String() + callbackPath,
	}

	results := make(chan PendingResult, 1)
	var once sync.Once
	finish := func(r PendingResult) {
		once.Do(func() { results <- r })
	}

	r := mux.NewRouter()
	r.HandleFunc(callbackPath, l.callbackHandler(ctx, conf, state, finish)).Methods(http.MethodGet)

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error(ctx, "oauth callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := l.open(conf.AuthCodeURL(state, oauth2.AccessTypeOnline)); err != nil {
		return PendingResult{Code: ResultOK, Data: &Payload{Err: fmt.Errorf("open authorization url: %w", err)}}
	}
	l.logger.Debug(ctx, "waiting for oauth callback", "redirect_uri", conf.RedirectURL)

	timer := time.NewTimer(l.cfg.Timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		return res
	case <-timer.C:
		return PendingResult{Code: ResultTimedOut}
	case <-ctx.Done():
		return PendingResult{Code: ResultCanceled}
	}
}

func (l *OAuthLauncher) callbackHandler(ctx context.Context, conf *oauth2.Config, state string, finish func(PendingResult)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// A request without our state is not the provider's redirect; the
		// attempt keeps waiting for the real one.
		if q.Get("state") != state {
			l.logger.Warn(ctx, "oauth callback with unexpected state ignored")
			http.Error(w, "invalid oauth state", http.StatusBadRequest)
			return
		}

		if e := q.Get("error"); e != "" {
			fmt.Fprintln(w, "Sign-in was not completed. You can close this window.")
			if e == "access_denied" {
				finish(PendingResult{Code: ResultCanceled, Data: &Payload{Err: &ProviderError{Status: StatusCancelled, Message: e}}})
				return
			}
			finish(providerFailure(StatusFailed, "%s", e))
			return
		}

		tok, err := conf.Exchange(ctx, q.Get("code"))
		if err != nil {
			http.Error(w, "code exchange failed", http.StatusBadGateway)
			l.logger.Warn(ctx, "oauth code exchange failed", "error", err)
			finish(providerFailure(StatusFailed, "code exchange: %v", err))
			return
		}

		fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
		finish(PendingResult{Code: ResultOK, Data: &Payload{Account: accountFromToken(tok)}})
	}
}

// accountFromToken pulls the OpenID Connect ID token out of the token
// response. The email is informational only; the backend re-reads it.
func accountFromToken(tok *oauth2.Token) *Account {
	idToken, _ := tok.Extra("id_token").(string)
	acc := &Account{IDToken: idToken}
	if idToken != "" {
		if s, err := client.SessionFromIDToken(idToken); err == nil {
			acc.Email = s.Email
		}
	}
	return acc
}
