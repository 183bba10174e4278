package client

import (
	"context"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
)

// SessionProvider exposes the signed-in user. Current never blocks; Reload
// asks the backend for a fresh snapshot (verification status included).
type SessionProvider interface {
	Current() *models.AuthSession
	Reload(ctx context.Context) (*models.AuthSession, error)
}

// AuthClient is the remote authentication collaborator.
//
// Sign-in style calls replace the current session on success. SignOut only
// forgets the local session and never fails for lack of one.
type AuthClient interface {
	SessionProvider

	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	CreateUser(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignInWithIDToken(ctx context.Context, providerID, idToken string) (*models.AuthSession, error)
	SendVerificationEmail(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
}

// Store is the remote document store: a single keyed write.
type Store interface {
	Put(ctx context.Context, collection, key string, record any) error
}
