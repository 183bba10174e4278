package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/client/client"
	"github.com/go-playground/validator/v10"
)

// Store backends accepted in StoreBackend.
const (
	BackendRealtime  = client.StoreRealtime
	BackendFirestore = client.StoreFirestore
)

// Config holds runtime settings for the TrafficGuard client.
//
// Units: the interval and timeout fields are time.Duration values
// (e.g. 500*time.Millisecond).
type Config struct {
	FirebaseAPIKey    string `validate:"required"`
	FirebaseProjectID string
	CredentialsFile   string
	DatabaseURL       string `validate:"required_if=StoreBackend rtdb"`
	StoreBackend      string `validate:"oneof=rtdb firestore"`

	GoogleClientID     string
	GoogleClientSecret string
	OAuthCallbackAddr  string

	DBPath               string        `validate:"required"`
	PollInterval         time.Duration `validate:"gt=0"`
	NotificationDuration time.Duration `validate:"gte=0"`
	RemoteTimeout        time.Duration `validate:"gte=0"`

	LogLevel   string `validate:"oneof=debug info warn error"`
	LogFormat  string `validate:"oneof=text json"`
	LogBackend string `validate:"oneof=slog zap"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreBackend = BackendRealtime
	c.OAuthCallbackAddr = "127.0.0.1:0"
	c.DBPath = defaultDBPath()
	c.PollInterval = 500 * time.Millisecond
	c.NotificationDuration = 1600 * time.Millisecond
	c.RemoteTimeout = 30 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.LogBackend = "slog"
}

// GoogleSignInEnabled reports whether OAuth client credentials are present.
func (c *Config) GoogleSignInEnabled() bool {
	return c.GoogleClientID != ""
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load constructs a Config, applies defaults, then overlays values from a
// JSON file, the environment and command-line flags. Later sources take
// precedence over earlier ones.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "trafficguard.db"
	}
	return filepath.Join(dir, "trafficguard", "client.db")
}
