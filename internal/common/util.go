package common

import "strings"

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// This is useful for removing sensitive data such as passwords from memory
// after use.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// PrefKey joins a preference scope and a key into the flat key used by the
// local metadata table, e.g. "app_prefs.onboarding_completed".
func PrefKey(scope, key string) string {
	if scope == "" {
		return key
	}
	return strings.Join([]string{scope, key}, ".")
}
