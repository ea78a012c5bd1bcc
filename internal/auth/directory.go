package auth

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// ErrNoEmail is returned when the auth provider knows the user but holds no email for them.
var ErrNoEmail = errors.New("auth provider has no email for user")

// UserGetter is the part of the Firebase Auth client used for user lookups.
type UserGetter interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// Directory resolves user emails from the auth provider. It is the fallback used when a
// user has no profile row yet.
type Directory struct {
	users UserGetter
}

func NewDirectory(users UserGetter) *Directory {
	return &Directory{users: users}
}

func (d *Directory) EmailForUser(ctx context.Context, userID string) (string, error) {
	if d == nil || d.users == nil {
		return "", ErrNoEmail
	}

	rec, err := d.users.GetUser(ctx, userID)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ErrNoEmail
		}
		return "", fmt.Errorf("firebase get user: %w", err)
	}
	if rec == nil || rec.UserInfo == nil || rec.Email == "" {
		return "", ErrNoEmail
	}
	return rec.Email, nil
}
