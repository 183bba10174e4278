package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/dmitrijs2005/trafficguard/internal/flagx"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "TG"

// parseEnv loads a dotenv file (-env, or ./.env when present) into the
// process environment and overlays cfg with TG_* variables. Variables
// already set in the environment win over the dotenv file.
func parseEnv(cfg *Config, args []string) error {
	if path := flagx.EnvFilePath(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	strs := map[string]*string{
		"firebase_api_key":      &cfg.FirebaseAPIKey,
		"firebase_project_id":   &cfg.FirebaseProjectID,
		"firebase_credentials":  &cfg.CredentialsFile,
		"firebase_database_url": &cfg.DatabaseURL,
		"store_backend":         &cfg.StoreBackend,
		"google_client_id":      &cfg.GoogleClientID,
		"google_client_secret":  &cfg.GoogleClientSecret,
		"oauth_callback_addr":   &cfg.OAuthCallbackAddr,
		"db_path":               &cfg.DBPath,
		"log_level":             &cfg.LogLevel,
		"log_format":            &cfg.LogFormat,
		"log_backend":           &cfg.LogBackend,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	durs := map[string]*time.Duration{
		"poll_interval":         &cfg.PollInterval,
		"notification_duration": &cfg.NotificationDuration,
		"remote_timeout":        &cfg.RemoteTimeout,
	}
	for key, dst := range durs {
		if !v.IsSet(key) {
			continue
		}
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return fmt.Errorf("%s_%s: %w", EnvPrefix, strings.ToUpper(key), err)
		}
		*dst = d
	}
	return nil
}
