// Package cli provides the interactive TrafficGuard terminal client.
//
// It wires configuration, the local preference database, the Firebase
// collaborators and the screen controllers, and runs a REPL whose commands
// follow the current screen: onboarding, login, signup (with its
// verification dialog) and the authenticated area.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, Navigate and runREPL for details.
package cli
