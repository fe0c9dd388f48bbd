// Package idp describes the remote identity provider a local user store is
// reconciled against. Provider implementations live in subpackages.
package idp

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotConfigured is returned when no provider, or an incompletely
	// configured one, is selected.
	ErrNotConfigured = errors.New("identity provider not configured")
	// ErrIncompleteListing marks a listing that could not read every page.
	// A caller must not treat what it did receive as the full remote set.
	ErrIncompleteListing = errors.New("identity listing incomplete")
	// ErrIdentityNotFound is returned by single-identity calls for an
	// unknown external id.
	ErrIdentityNotFound = errors.New("identity not found")
)

// Client is the capability the sync engine consumes. ListAllIdentities and
// ListAllExternalIDs return an error whenever the listing is not complete;
// a nil error with an empty result means the provider holds no users.
type Client interface {
	ListAllIdentities(ctx context.Context) ([]User, error)
	ListAllExternalIDs(ctx context.Context) (map[string]struct{}, error)
	CreateIdentity(ctx context.Context, email, displayName, password string) (string, error)
	UpdateIdentity(ctx context.Context, externalID string, fields Fields) error
	DeleteIdentity(ctx context.Context, externalID string) error
}

// User is one identity as the provider reports it.
type User struct {
	ID            string
	Email         string `validate:"required,email"`
	EmailVerified bool
	DisplayName   string
	CreatedAt     Timestamp
	Disabled      bool
}

// Fields is a partial update; nil members are left unchanged.
type Fields struct {
	Email         *string
	DisplayName   *string
	EmailVerified *bool
}

// IsEmpty reports whether the update would change nothing.
func (f Fields) IsEmpty() bool {
	return f.Email == nil && f.DisplayName == nil && f.EmailVerified == nil
}

// ExternalIDs collects the non-empty ids of users.
func ExternalIDs(users []User) map[string]struct{} {
	ids := make(map[string]struct{}, len(users))
	for _, user := range users {
		if user.ID != "" {
			ids[user.ID] = struct{}{}
		}
	}
	return ids
}

// SplitDisplayName splits on the first space into first and last name.
func SplitDisplayName(displayName string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(displayName), " ")
	return first, strings.TrimSpace(last)
}
