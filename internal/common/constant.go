// Package common contains shared constants and helpers used across
// TrafficGuard client components.
package common

const (
	// PrefsScope is the preference scope the onboarding flag lives in.
	PrefsScope = "app_prefs"

	// KeyOnboardingCompleted is the preference key of the onboarding flag.
	KeyOnboardingCompleted = "onboarding_completed"

	// UsersCollection is the remote store collection account records go to.
	UsersCollection = "users"
)
