// Package models holds the client-side data types shared by the
// onboarding, login and signup flows.
package models

// AuthSession is a read-only snapshot of the signed-in user as reported by
// the remote auth collaborator. It is refreshed only through explicit reloads.
type AuthSession struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Verified reports whether s is present and its email is verified.
func (s *AuthSession) Verified() bool {
	return s != nil && s.EmailVerified
}

// Credentials are the values typed into a login form. They are kept only for
// the duration of one submission.
type Credentials struct {
	Email    string
	Password string
}

// AccountRecord is written once to users/{uid} after account creation.
type AccountRecord struct {
	Name  string `json:"name" firestore:"name"`
	Email string `json:"email" firestore:"email"`
	UID   string `json:"uid" firestore:"uid"`
}
