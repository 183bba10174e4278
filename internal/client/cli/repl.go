package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	screen() models.Screen

	Next(ctx context.Context) error
	Skip(ctx context.Context) error
	Start(ctx context.Context) error

	Login(ctx context.Context) error
	Forgot(ctx context.Context) error
	Google(ctx context.Context) error
	Signup(ctx context.Context) error

	Register(ctx context.Context) error
	Continue(ctx context.Context) error
	Dismiss(ctx context.Context) error
	BackToLogin(ctx context.Context) error

	WhoAmI(ctx context.Context) error
	Logout(ctx context.Context) error

	Prefs(ctx context.Context) error
}

var screenHelp = map[models.Screen]string{
	models.ScreenOnboarding:    "next, skip, start",
	models.ScreenLogin:         "login, forgot, google, signup",
	models.ScreenSignup:        "register, continue, dismiss, login",
	models.ScreenAuthenticated: "whoami, logout",
}

// runREPL starts a simple read–eval–print loop for the TrafficGuard client.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Which commands exist depends on the current
// screen:
//
//	Onboarding:     next, skip, start
//	Login:          login, forgot, google, signup
//	Signup:         register, continue, dismiss, login
//	Authenticated:  whoami, logout
//	Anywhere:       help, prefs, exit | quit
//
// Errors returned by command handlers are not printed here: controllers
// report user-facing failures through notifications.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("tg %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn("Available commands: " + screenHelp[a.screen()] + ", prefs, exit")
			continue
		case "prefs":
			_ = a.Prefs(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !dispatch(ctx, a, cmd) {
			printlnFn("Unknown command:", cmd)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string) bool {
	var fn func(context.Context) error

	switch a.screen() {
	case models.ScreenOnboarding:
		switch cmd {
		case "next":
			fn = a.Next
		case "skip":
			fn = a.Skip
		case "start":
			fn = a.Start
		}
	case models.ScreenLogin:
		switch cmd {
		case "login":
			fn = a.Login
		case "forgot":
			fn = a.Forgot
		case "google":
			fn = a.Google
		case "signup":
			fn = a.Signup
		}
	case models.ScreenSignup:
		switch cmd {
		case "register":
			fn = a.Register
		case "continue":
			fn = a.Continue
		case "dismiss":
			fn = a.Dismiss
		case "login":
			fn = a.BackToLogin
		}
	case models.ScreenAuthenticated:
		switch cmd {
		case "whoami":
			fn = a.WhoAmI
		case "logout":
			fn = a.Logout
		}
	}

	if fn == nil {
		return false
	}
	_ = fn(ctx)
	return true
}
