package logic

import (
	"context"
	"strings"

	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/schema"
)

// PushToIDP returns a listener mirroring local writes to the provider.
// Failures are logged only; the next reconciliation repairs the drift.
func PushToIDP(client idp.Client, store *UserStore) Listener {
	return func(ctx context.Context, change UserChange) {
		user := change.User
		var err error
		switch change.Kind {
		case UserCreated:
			err = pushCreate(ctx, client, store, user, change.Password)
		case UserUpdated:
			if user.GetExternalID() == "" {
				return
			}
			err = client.UpdateIdentity(ctx, user.GetExternalID(), FieldsFor(user))
		case UserDeleted:
			if user.GetExternalID() == "" {
				return
			}
			err = client.DeleteIdentity(ctx, user.GetExternalID())
		}
		if err != nil {
			logger.Log(0, "failed to push", string(change.Kind), "for user", user.Email, "to identity provider:", err.Error())
			return
		}
		logger.Log(1, "pushed", string(change.Kind), "for user", user.Email, "to identity provider")
	}
}

// pushCreate creates the remote identity and links it. The link is a
// local write of its own and must not echo back.
func pushCreate(ctx context.Context, client idp.Client, store *UserStore, user schema.User, password string) error {
	if user.GetExternalID() != "" {
		return nil
	}
	externalID, err := client.CreateIdentity(ctx, user.Email, DisplayName(user), password)
	if err != nil {
		return err
	}

	ctx, resume := store.Suspend(ctx)
	defer resume()
	user.SetExternalID(externalID)
	return store.Update(ctx, &user)
}

// DisplayName joins the name parts the way providers expect them.
func DisplayName(user schema.User) string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

// FieldsFor builds the full provider update for user.
func FieldsFor(user schema.User) idp.Fields {
	email := user.Email
	displayName := DisplayName(user)
	verified := user.EmailVerified
	return idp.Fields{
		Email:         &email,
		DisplayName:   &displayName,
		EmailVerified: &verified,
	}
}
