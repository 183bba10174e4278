package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/trafficguard/internal/flagx"
	"github.com/dmitrijs2005/trafficguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// go through timex.Duration so they can be strings like "500ms" or integer
// nanoseconds.
type JsonConfig struct {
	FirebaseAPIKey       string         `json:"firebase_api_key"`
	FirebaseProjectID    string         `json:"firebase_project_id"`
	CredentialsFile      string         `json:"credentials_file"`
	DatabaseURL          string         `json:"database_url"`
	StoreBackend         string         `json:"store_backend"`
	GoogleClientID       string         `json:"google_client_id"`
	GoogleClientSecret   string         `json:"google_client_secret"`
	OAuthCallbackAddr    string         `json:"oauth_callback_addr"`
	DBPath               string         `json:"db_path"`
	PollInterval         timex.Duration `json:"poll_interval"`
	NotificationDuration timex.Duration `json:"notification_duration"`
	RemoteTimeout        timex.Duration `json:"remote_timeout"`
	LogLevel             string         `json:"log_level"`
	LogFormat            string         `json:"log_format"`
	LogBackend           string         `json:"log_backend"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Keys
// missing from the file keep their current values.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.FirebaseAPIKey, jc.FirebaseAPIKey)
	setString(&cfg.FirebaseProjectID, jc.FirebaseProjectID)
	setString(&cfg.CredentialsFile, jc.CredentialsFile)
	setString(&cfg.DatabaseURL, jc.DatabaseURL)
	setString(&cfg.StoreBackend, jc.StoreBackend)
	setString(&cfg.GoogleClientID, jc.GoogleClientID)
	setString(&cfg.GoogleClientSecret, jc.GoogleClientSecret)
	setString(&cfg.OAuthCallbackAddr, jc.OAuthCallbackAddr)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogBackend, jc.LogBackend)

	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.NotificationDuration.Duration != 0 {
		cfg.NotificationDuration = jc.NotificationDuration.Duration
	}
	if jc.RemoteTimeout.Duration != 0 {
		cfg.RemoteTimeout = jc.RemoteTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
