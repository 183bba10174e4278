package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

const (
	StoreRealtime  = "rtdb"
	StoreFirestore = "firestore"
)

var ErrInvalidKey = errors.New("collection and key must be non-empty and contain no '/'")

// FirebaseConfig carries what the Admin SDK needs to reach the project's
// document stores.
type FirebaseConfig struct {
	ProjectID       string
	DatabaseURL     string
	CredentialsFile string
}

// NewFirebaseApp initializes the Firebase Admin SDK app. Without a
// credentials file the SDK falls back to application default credentials.
func NewFirebaseApp(ctx context.Context, cfg FirebaseConfig, opts ...option.ClientOption) (*firebase.App, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(filepath.Clean(cfg.CredentialsFile)))
	}

	conf := &firebase.Config{ProjectID: cfg.ProjectID, DatabaseURL: cfg.DatabaseURL}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}

// NewStore returns the Store for the named backend together with a close
// function releasing its connections.
func NewStore(ctx context.Context, app *firebase.App, backend string) (Store, func() error, error) {
	switch backend {
	case StoreRealtime, "":
		c, err := app.Database(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("error getting realtime database client: %w", err)
		}
		return NewRealtimeStore(c), func() error { return nil }, nil
	case StoreFirestore:
		c, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("error getting firestore client: %w", err)
		}
		return NewFirestoreStore(c), c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func checkKey(collection, key string) error {
	if collection == "" || key == "" || strings.Contains(collection, "/") || strings.Contains(key, "/") {
		return ErrInvalidKey
	}
	return nil
}

// RealtimeStore writes records to the Firebase Realtime Database at
// /{collection}/{key}.
type RealtimeStore struct {
	db *db.Client
}

func NewRealtimeStore(c *db.Client) *RealtimeStore {
	return &RealtimeStore{db: c}
}

func (s *RealtimeStore) Put(ctx context.Context, collection, key string, record any) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}
	if err := s.db.NewRef(collection).Child(key).Set(ctx, record); err != nil {
		return fmt.Errorf("realtime database write %s/%s: %w", collection, key, err)
	}
	return nil
}

// FirestoreStore writes records as documents {collection}/{key}.
type FirestoreStore struct {
	fs *firestore.Client
}

func NewFirestoreStore(c *firestore.Client) *FirestoreStore {
	return &FirestoreStore{fs: c}
}

func (s *FirestoreStore) Put(ctx context.Context, collection, key string, record any) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}
	if _, err := s.fs.Collection(collection).Doc(key).Set(ctx, record); err != nil {
		return fmt.Errorf("firestore write %s/%s: %w", collection, key, err)
	}
	return nil
}
