package session

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// Firebase stores sessions under "sessions/<userID>" in the Realtime Database.
type Firebase struct {
	client *db.Client
}

// OpenFirebase initialises the app from a service account file.
func OpenFirebase(ctx context.Context, cfg FirebaseConfig) (*Firebase, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("session: firebase database url is empty")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("session: init firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: firebase database client: %w", err)
	}
	return &Firebase{client: client}, nil
}

// UpdateSession merges patch into the user's node.
func (f *Firebase) UpdateSession(ctx context.Context, userID int64, patch map[string]any) error {
	if err := f.ref(userID).Update(ctx, patch); err != nil {
		return fmt.Errorf("session: firebase update user %d: %w", userID, err)
	}
	return nil
}

// Close implements Store.
func (f *Firebase) Close() error { return nil }

func (f *Firebase) ref(userID int64) *db.Ref {
	return f.client.NewRef("sessions").Child(strconv.FormatInt(userID, 10))
}
