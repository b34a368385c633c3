package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Firebase verifies ID tokens against a Firebase project, the auth service
// the mobile clients already sign in with.
type Firebase struct {
	client *fbauth.Client
}

func NewFirebase(ctx context.Context, projectID, credentialsFile string) (*Firebase, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firebase auth client: %w", err)
	}
	return &Firebase{client: client}, nil
}

func (f *Firebase) VerifyToken(ctx context.Context, token string) (Identity, error) {
	decoded, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return f.UserByID(ctx, decoded.UID)
}

func (f *Firebase) UserByID(ctx context.Context, userID string) (Identity, error) {
	u, err := f.client.GetUser(ctx, userID)
	if err != nil {
		return Identity{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return Identity{ID: u.UID, Email: u.Email, DisplayName: u.DisplayName}, nil
}
