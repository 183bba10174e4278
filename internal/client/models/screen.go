package models

// Screen identifies a top-level area of the application.
type Screen int

const (
	ScreenOnboarding Screen = iota
	ScreenLogin
	ScreenSignup
	ScreenAuthenticated
)

func (s Screen) String() string {
	switch s {
	case ScreenOnboarding:
		return "onboarding"
	case ScreenLogin:
		return "login"
	case ScreenSignup:
		return "signup"
	case ScreenAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Destination is a navigation event. Email and UID are set only when the
// target is ScreenAuthenticated.
type Destination struct {
	Screen Screen
	Email  string
	UID    string
}

// AuthenticatedAs builds the navigation event into the authenticated area.
func AuthenticatedAs(s AuthSession) Destination {
	return Destination{Screen: ScreenAuthenticated, Email: s.Email, UID: s.UID}
}

// SignupForm mirrors the four input fields of the signup screen.
type SignupForm struct {
	Name     string
	Email    string
	Password string
	Confirm  string
}

// Empty reports whether every field is blank.
func (f SignupForm) Empty() bool {
	return f == SignupForm{}
}
