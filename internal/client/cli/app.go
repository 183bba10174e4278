package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/client/client"
	"github.com/dmitrijs2005/trafficguard/internal/client/config"
	"github.com/dmitrijs2005/trafficguard/internal/client/federated"
	"github.com/dmitrijs2005/trafficguard/internal/client/gate"
	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/client/notify"
	"github.com/dmitrijs2005/trafficguard/internal/client/poller"
	"github.com/dmitrijs2005/trafficguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/trafficguard/internal/client/services"
	"github.com/dmitrijs2005/trafficguard/internal/common"
	"github.com/dmitrijs2005/trafficguard/internal/filex"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
)

// Components are the collaborators an App is assembled from. Federated may
// be nil when Google sign-in is not configured.
type Components struct {
	DB        *sql.DB
	Auth      client.AuthClient
	Store     client.Store
	Federated services.FederatedSignIn
	Logger    logging.Logger

	PollInterval         time.Duration
	NotificationDuration time.Duration
	RemoteTimeout        time.Duration
}

// App is the terminal front-end. It implements services.Navigator: every
// navigation builds a fresh controller for the target screen.
type App struct {
	db        *sql.DB
	auth      client.AuthClient
	deps      services.Deps
	gate      *gate.Gate
	poller    *poller.Poller
	prefs     *metadata.Prefs
	presenter *notify.Presenter
	logger    logging.Logger
	closers   []func() error

	reader *bufio.Reader
	out    io.Writer

	mu         sync.Mutex
	current    models.Destination
	onboarding *services.OnboardingController
	login      *services.LoginController
	signup     *services.SignupController
}

// NewApp opens the local database, connects the Firebase collaborators
// described by cfg and returns an App reading from stdin.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	dbPath, err := filex.EnsureParentDir(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	app, err := connect(ctx, cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func connect(ctx context.Context, cfg *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	auth, err := client.NewFirebaseAuth(ctx, cfg.FirebaseAPIKey)
	if err != nil {
		return nil, err
	}

	fbApp, err := client.NewFirebaseApp(ctx, client.FirebaseConfig{
		ProjectID:       cfg.FirebaseProjectID,
		DatabaseURL:     cfg.DatabaseURL,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	store, closeStore, err := client.NewStore(ctx, fbApp, cfg.StoreBackend)
	if err != nil {
		return nil, err
	}

	var fed services.FederatedSignIn
	if cfg.GoogleSignInEnabled() {
		launcher, err := federated.NewOAuthLauncher(federated.OAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackAddr: cfg.OAuthCallbackAddr,
		}, federated.PrintURL(os.Stdout), logger)
		if err != nil {
			_ = closeStore()
			return nil, err
		}
		fed = federated.NewAdapter(launcher, logger)
	}

	a := newApp(Components{
		DB:                   db,
		Auth:                 auth,
		Store:                store,
		Federated:            fed,
		Logger:               logger,
		PollInterval:         cfg.PollInterval,
		NotificationDuration: cfg.NotificationDuration,
		RemoteTimeout:        cfg.RemoteTimeout,
	}, os.Stdin, os.Stdout)
	a.closers = append(a.closers, closeStore, db.Close)
	return a, nil
}

func newApp(c Components, in io.Reader, out io.Writer) *App {
	a := &App{
		db:     c.DB,
		auth:   c.Auth,
		logger: c.Logger,
		reader: bufio.NewReader(in),
		out:    out,
	}
	a.presenter = notify.NewPresenter(notify.WriterSink{W: out}, c.NotificationDuration)
	a.prefs = metadata.NewPrefs(metadata.NewSQLiteRepository(c.DB), common.PrefsScope)
	a.gate = gate.New(a.prefs, c.Auth, c.Logger)
	a.poller = poller.New(c.Auth, poller.Options{Interval: c.PollInterval, Timeout: c.RemoteTimeout}, c.Logger)
	a.deps = services.Deps{
		Auth:          c.Auth,
		Store:         c.Store,
		Notifier:      a.presenter,
		Navigator:     a,
		Progress:      consoleProgress{w: out},
		Federated:     c.Federated,
		Logger:        c.Logger,
		RemoteTimeout: c.RemoteTimeout,
	}
	return a
}

// Run picks the entry screen and blocks in the command loop until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn(ctx, "shutdown", "error", err)
		}
	}()

	d, err := a.gate.Entry(ctx)
	if err != nil {
		return err
	}
	printlnFn("Welcome to TrafficGuard (type 'help' for commands)")
	a.Navigate(d)

	runREPL(ctx, a, a.status, a.reader)
	return nil
}

// Close stops background work and releases the store and database.
func (a *App) Close() error {
	a.mu.Lock()
	signup := a.signup
	a.signup = nil
	a.mu.Unlock()
	if signup != nil {
		signup.Close()
	}
	a.presenter.Dismiss()

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Navigate switches the current screen.
func (a *App) Navigate(d models.Destination) {
	a.mu.Lock()
	old := a.signup
	a.current = d
	a.signup = nil
	switch d.Screen {
	case models.ScreenOnboarding:
		a.onboarding = services.NewOnboardingController(a.db, a.gate, a, a.logger)
	case models.ScreenLogin:
		a.login = services.NewLoginController(a.deps)
	case models.ScreenSignup:
		a.signup = services.NewSignupController(a.deps, a.poller, &consoleDialog{w: a.out})
	}
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	a.showScreen(d)
}

func (a *App) screen() models.Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.Screen
}

func (a *App) status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current.Screen == models.ScreenAuthenticated {
		return fmt.Sprintf("(%s %s)", a.current.Screen, a.current.Email)
	}
	return fmt.Sprintf("(%s)", a.current.Screen)
}

func (a *App) showScreen(d models.Destination) {
	switch d.Screen {
	case models.ScreenOnboarding:
		a.showPage()
	case models.ScreenLogin:
		fmt.Fprintln(a.out, "Log in with 'login' or 'google', or create an account with 'signup'.")
	case models.ScreenSignup:
		fmt.Fprintln(a.out, "Create an account with 'register'. Type 'login' to go back.")
	case models.ScreenAuthenticated:
		fmt.Fprintf(a.out, "Signed in as %s.\n", d.Email)
	}
}
