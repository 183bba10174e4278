// Package validate implements the client-side form rules for the login,
// signup and password-reset forms. Every function is pure.
package validate

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Field names a form input.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
	FieldConfirm  Field = "confirm"
)

const (
	MinLoginPasswordLen  = 6
	MinSignupPasswordLen = 8
)

// User-facing messages.
const (
	MsgEnterName        = "Please enter your name"
	MsgEnterEmail       = "Please enter email"
	MsgEnterEmailReset  = "Please enter your email address"
	MsgEnterPassword    = "Please enter password"
	MsgConfirmPassword  = "Please confirm your password"
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgShortPassword    = "Password must be at least 6 characters long"
	MsgPasswordMismatch = "Passwords do not match"

	passwordRulesHeader = "Password must contain:"
	ruleLength          = "At least 8 characters long"
	ruleUpper           = "At least one uppercase letter"
	ruleLower           = "At least one lowercase letter"
	ruleDigit           = "At least one number"
	ruleSymbol          = "At least one special symbol (e.g. !@#$%^&*)"
)

var v = validator.New()

// Result is either valid (no field errors, no summary) or carries the
// field-scoped errors and an optional summary meant for a notification.
type Result struct {
	FieldErrors map[Field]string
	Summary     string
}

// Valid reports whether no rule was violated.
func (r Result) Valid() bool {
	return len(r.FieldErrors) == 0 && r.Summary == ""
}

func (r *Result) fieldError(f Field, msg string) {
	if r.FieldErrors == nil {
		r.FieldErrors = make(map[Field]string)
	}
	r.FieldErrors[f] = msg
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return v.Var(s, "required,email") == nil
}

// Email validates the single field of the password-reset form.
func Email(email string) Result {
	var r Result
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		r.fieldError(FieldEmail, MsgEnterEmailReset)
		r.Summary = MsgEnterEmailReset
	case !IsEmail(email):
		r.Summary = MsgInvalidEmail
	}
	return r
}

// Login validates the login form. Empty fields are reported per field and
// stop further checks; then the email pattern and the minimum password
// length are checked, in that order.
func Login(email, password string) Result {
	var r Result
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if email == "" {
		r.fieldError(FieldEmail, MsgEnterEmail)
	}
	if password == "" {
		r.fieldError(FieldPassword, MsgEnterPassword)
	}
	if len(r.FieldErrors) > 0 {
		return r
	}

	if !IsEmail(email) {
		r.Summary = MsgInvalidEmail
		return r
	}
	if len([]rune(password)) < MinLoginPasswordLen {
		r.Summary = MsgShortPassword
	}
	return r
}

// Signup validates the signup form. Each field is checked on its own and
// stops at its first problem (empty, then pattern). Every violated
// password-strength rule is listed in the summary, which otherwise falls
// back to the confirmation mismatch and then to the email pattern.
func Signup(name, email, password, confirm string) Result {
	var r Result
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		r.fieldError(FieldName, MsgEnterName)
	}

	var badEmail bool
	switch {
	case email == "":
		r.fieldError(FieldEmail, MsgEnterEmail)
	case !IsEmail(email):
		r.fieldError(FieldEmail, MsgInvalidEmail)
		badEmail = true
	}

	var violated []string
	if password == "" {
		r.fieldError(FieldPassword, MsgEnterPassword)
	} else {
		violated = PasswordRules(password)
	}

	var mismatch bool
	switch {
	case confirm == "":
		r.fieldError(FieldConfirm, MsgConfirmPassword)
	case password != "" && password != confirm:
		r.fieldError(FieldConfirm, MsgPasswordMismatch)
		mismatch = true
	}

	switch {
	case len(violated) > 0:
		r.Summary = PasswordRulesMessage(violated)
	case mismatch:
		r.Summary = MsgPasswordMismatch
	case badEmail:
		r.Summary = MsgInvalidEmail
	}
	return r
}

// PasswordRulesMessage renders violated rules as a bullet list.
func PasswordRulesMessage(violated []string) string {
	if len(violated) == 0 {
		return ""
	}
	return passwordRulesHeader + "\n• " + strings.Join(violated, "\n• ")
}

// PasswordRules returns the description of every strength rule password
// violates, in a fixed order. Any rune that is not an upper or lower case
// letter or a digit counts as a symbol.
func PasswordRules(password string) []string {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	var violated []string
	if len([]rune(password)) < MinSignupPasswordLen {
		violated = append(violated, ruleLength)
	}
	if !hasUpper {
		violated = append(violated, ruleUpper)
	}
	if !hasLower {
		violated = append(violated, ruleLower)
	}
	if !hasDigit {
		violated = append(violated, ruleDigit)
	}
	if !hasSymbol {
		violated = append(violated, ruleSymbol)
	}
	return violated
}
