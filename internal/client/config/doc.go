// Package config loads runtime configuration for the TrafficGuard client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: an optional dotenv file (-env, or ./.env) and TG_*
//     variables such as TG_FIREBASE_API_KEY or TG_POLL_INTERVAL.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "500ms" or
// integer nanoseconds:
//
//	{
//	  "firebase_api_key": "AIza...",
//	  "store_backend": "firestore",
//	  "firebase_project_id": "traffic-guard",
//	  "poll_interval": "500ms",
//	  "remote_timeout": "30s"
//	}
//
// The merged result is checked with (*Config).Validate before it is
// returned.
package config
