package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/trafficguard/internal/flagx"
)

var knownFlags = []string{
	"-k", "-p", "-b", "-u", "-d", "-i", "-t", "-g", "-l",
	"-log-format", "--log-format", "-log-backend", "--log-backend",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-k string     Firebase Web API key
//	-p string     Firebase project id
//	-b string     store backend (rtdb or firestore)
//	-u string     Realtime Database URL
//	-d string     local database path
//	-i duration   verification poll interval
//	-t duration   remote call timeout
//	-g string     Google OAuth client id
//	-l string     log level
//
// Arguments that belong to other flag sets are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("trafficguard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.FirebaseAPIKey, "k", cfg.FirebaseAPIKey, "Firebase Web API key")
	fs.StringVar(&cfg.FirebaseProjectID, "p", cfg.FirebaseProjectID, "Firebase project id")
	fs.StringVar(&cfg.StoreBackend, "b", cfg.StoreBackend, "store backend: rtdb or firestore")
	fs.StringVar(&cfg.DatabaseURL, "u", cfg.DatabaseURL, "Realtime Database URL")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database path")
	fs.DurationVar(&cfg.PollInterval, "i", cfg.PollInterval, "verification poll interval")
	fs.DurationVar(&cfg.RemoteTimeout, "t", cfg.RemoteTimeout, "remote call timeout")
	fs.StringVar(&cfg.GoogleClientID, "g", cfg.GoogleClientID, "Google OAuth client id")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.StringVar(&cfg.LogBackend, "log-backend", cfg.LogBackend, "log backend: slog or zap")

	return fs.Parse(args)
}
