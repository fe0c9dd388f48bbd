package idpsync

import (
	"context"
	"errors"

	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/schema"
)

// Matcher pairs a remote identity with a local user.
type Matcher struct {
	store Store
}

func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// Match looks up by external id first, then by exact email. A nil user
// and nil error means the identity is new.
func (m *Matcher) Match(ctx context.Context, rec idp.User) (*schema.User, error) {
	if rec.ID != "" {
		user, err := m.store.GetByExternalID(ctx, rec.ID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, schema.ErrUserNotFound) {
			return nil, err
		}
	}
	if rec.Email == "" {
		return nil, nil
	}
	user, err := m.store.GetByEmail(ctx, rec.Email)
	if errors.Is(err, schema.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
