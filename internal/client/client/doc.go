// Package client contains the remote collaborators of the TrafficGuard
// client and the bootstrap of its local database.
//
// # Overview
//
//  1. Transport-agnostic contracts: AuthClient (sign-in, account creation,
//     verification mail, password reset, federated credential exchange),
//     SessionProvider (Current/Reload) and Store (keyed document write).
//  2. Firebase implementations: FirebaseAuth talks to the Identity Toolkit
//     REST API with the project's web API key; RealtimeStore and
//     FirestoreStore write account records through the Admin SDK.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations): an SQLite
//     database with embedded goose migrations holding the preference table.
//
// # Error Handling
//
// Backend error codes are mapped to sentinel errors matched with errors.Is:
// ErrInvalidCredentials, ErrUserNotFound, ErrEmailExists, ErrUserDisabled,
// ErrTooManyAttempts, ErrNoSession, ErrSessionExpired, ErrUnavailable.
// The original code stays available through *RemoteError.
//
// # Concurrency & Contexts
//
// Implementations are safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package client
