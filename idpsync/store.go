package idpsync

import (
	"context"

	"github.com/gravitl/usersync/schema"
)

// Store is the local side of reconciliation. logic.UserStore
// implements it.
type Store interface {
	GetByExternalID(ctx context.Context, externalID string) (*schema.User, error)
	GetByEmail(ctx context.Context, email string) (*schema.User, error)
	UsernameOwner(ctx context.Context, username string) (string, error)
	ListLinked(ctx context.Context) ([]schema.User, error)
	Create(ctx context.Context, user *schema.User) error
	Update(ctx context.Context, user *schema.User) error
	Delete(ctx context.Context, user *schema.User) error
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	Suspend(ctx context.Context) (context.Context, func())
}
