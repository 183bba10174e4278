package cli

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/dmitrijs2005/trafficguard/internal/client/validate"
)

// consoleProgress prints a line when a remote call starts; the terminal has
// nothing to hide afterwards.
type consoleProgress struct {
	w io.Writer
}

func (p consoleProgress) Show() { fmt.Fprintln(p.w, "Please wait...") }
func (p consoleProgress) Hide() {}

// consoleDialog is the verification dialog of the signup screen. Verified
// arrives on the poller goroutine, so writes are serialized.
type consoleDialog struct {
	mu sync.Mutex
	w  io.Writer
}

func (d *consoleDialog) Open(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.w, "A verification email was sent to %s.\n", email)
	fmt.Fprintln(d.w, "Follow the link in it, then type 'continue'. Type 'dismiss' to go back to login.")
}

func (d *consoleDialog) Verified() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, "Email verified. Type 'continue' to proceed.")
}

func (d *consoleDialog) Close() {}

// printFieldErrors lists field-scoped validation errors in field order.
func printFieldErrors(w io.Writer, errs map[validate.Field]string) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %s\n", f, errs[validate.Field(f)])
	}
}
