package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/client/services"
	"github.com/dmitrijs2005/trafficguard/internal/client/validate"
	"github.com/dmitrijs2005/trafficguard/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var onboardingPages = [services.OnboardingPages]string{
	"Welcome to TrafficGuard.",
	"Report traffic violations and incidents as you see them.",
	"Create an account or log in to get started.",
}

var errWrongScreen = errors.New("not available on this screen")

func (a *App) onboardingCtrl() (*services.OnboardingController, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current.Screen != models.ScreenOnboarding || a.onboarding == nil {
		return nil, errWrongScreen
	}
	return a.onboarding, nil
}

func (a *App) loginCtrl() (*services.LoginController, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current.Screen != models.ScreenLogin || a.login == nil {
		return nil, errWrongScreen
	}
	return a.login, nil
}

func (a *App) signupCtrl() (*services.SignupController, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current.Screen != models.ScreenSignup || a.signup == nil {
		return nil, errWrongScreen
	}
	return a.signup, nil
}

func (a *App) showPage() {
	c, err := a.onboardingCtrl()
	if err != nil {
		return
	}
	p := c.Page()
	fmt.Fprintf(a.out, "[%d/%d] %s\n", p+1, services.OnboardingPages, onboardingPages[p])
	if c.Last() {
		fmt.Fprintln(a.out, "Type 'start' to begin.")
	} else {
		fmt.Fprintln(a.out, "Type 'next' to continue or 'skip' to jump to the end.")
	}
}

// Next shows the next onboarding page.
func (a *App) Next(context.Context) error {
	c, err := a.onboardingCtrl()
	if err != nil {
		return err
	}
	c.Next()
	a.showPage()
	return nil
}

// Skip jumps to the last onboarding page.
func (a *App) Skip(context.Context) error {
	c, err := a.onboardingCtrl()
	if err != nil {
		return err
	}
	c.SkipToLast()
	a.showPage()
	return nil
}

// Start finishes onboarding from its last page.
func (a *App) Start(ctx context.Context) error {
	c, err := a.onboardingCtrl()
	if err != nil {
		return err
	}
	if _, err := c.Finish(ctx); err != nil {
		if errors.Is(err, services.ErrInvalidState) {
			fmt.Fprintln(a.out, "Go through the introduction first ('skip' jumps to the end).")
		}
		return err
	}
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	c, err := a.loginCtrl()
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}
	// Best effort: the string handed to Submit is an unwiped copy.
	defer common.WipeByteArray(password)

	err = c.Submit(ctx, email, string(password))
	a.reportFieldErrors(err, c.FieldErrors())
	return err
}

// Forgot sends a password reset email.
func (a *App) Forgot(ctx context.Context) error {
	c, err := a.loginCtrl()
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email for the reset link", a.out)
	if err != nil {
		return err
	}
	return c.ForgotPassword(ctx, email)
}

// Google runs the Google sign-in flow.
func (a *App) Google(ctx context.Context) error {
	c, err := a.loginCtrl()
	if err != nil {
		return err
	}
	if a.deps.Federated == nil {
		fmt.Fprintln(a.out, "Google Sign-In is not configured.")
		return services.ErrInvalidState
	}
	return c.SignInWithGoogle(ctx)
}

// Signup follows the sign-up link of the login screen.
func (a *App) Signup(context.Context) error {
	c, err := a.loginCtrl()
	if err != nil {
		return err
	}
	c.GoToSignup()
	return nil
}

// Register prompts for the signup form and submits it.
func (a *App) Register(ctx context.Context) error {
	c, err := a.signupCtrl()
	if err != nil {
		return err
	}

	var form models.SignupForm
	if form.Name, err = getSimpleText(a.reader, "Name", a.out); err != nil {
		return err
	}
	if form.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}
	// Best effort: the form strings are unwiped copies.
	defer common.WipeByteArray(password)
	confirm, err := getPassword(a.reader, "Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)
	form.Password, form.Confirm = string(password), string(confirm)

	err = c.Submit(ctx, form)
	a.reportFieldErrors(err, c.FieldErrors())
	return err
}

// Continue leaves the verification dialog once the email is verified.
func (a *App) Continue(ctx context.Context) error {
	c, err := a.signupCtrl()
	if err != nil {
		return err
	}
	err = c.Continue(ctx)
	if errors.Is(err, services.ErrNotVerified) {
		fmt.Fprintln(a.out, "Your email is not verified yet.")
	}
	return err
}

// Dismiss abandons the verification dialog.
func (a *App) Dismiss(ctx context.Context) error {
	c, err := a.signupCtrl()
	if err != nil {
		return err
	}
	return c.Dismiss(ctx)
}

// BackToLogin follows the login link of the signup screen.
func (a *App) BackToLogin(context.Context) error {
	c, err := a.signupCtrl()
	if err != nil {
		return err
	}
	c.GoToLogin()
	return nil
}

// WhoAmI prints the signed-in user.
func (a *App) WhoAmI(context.Context) error {
	s := a.auth.Current()
	if s == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s (uid %s, verified: %t)\n", s.Email, s.UID, s.EmailVerified)
	return nil
}

// Logout forgets the session and returns to the login screen.
func (a *App) Logout(ctx context.Context) error {
	if a.screen() != models.ScreenAuthenticated {
		return errWrongScreen
	}
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	a.Navigate(models.Destination{Screen: models.ScreenLogin})
	return nil
}

// Prefs lists the stored application preferences.
func (a *App) Prefs(ctx context.Context) error {
	all, err := a.prefs.All(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(a.out, "No preferences stored.")
		return nil
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "%s = %s\n", common.PrefKey(common.PrefsScope, k), all[k])
	}
	return nil
}

func (a *App) reportFieldErrors(err error, fields map[validate.Field]string) {
	var verr *services.ValidationError
	if errors.As(err, &verr) && len(fields) > 0 {
		printFieldErrors(a.out, fields)
	}
}
