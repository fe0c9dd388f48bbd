package idpsync

import (
	"context"
	"fmt"

	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/idp/firebase"
	"github.com/gravitl/usersync/idp/google"
	"github.com/gravitl/usersync/idp/okta"
	"github.com/gravitl/usersync/idp/static"
	"github.com/gravitl/usersync/servercfg"
)

// NewClient builds the provider selected by AUTH_PROVIDER. The caller
// owns the returned client.
func NewClient(ctx context.Context) (idp.Client, error) {
	provider := servercfg.GetAuthProvider()
	switch provider {
	case "firebase":
		if host := servercfg.GetFirebaseEmulatorHost(); host != "" {
			client, err := firebase.NewEmulatorClient(servercfg.GetFirebaseProjectID(), host)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
		client, err := firebase.NewFirebaseClient(ctx, servercfg.GetFirebaseProjectID(), servercfg.GetFirebaseCredentialsFile())
		if err != nil {
			return nil, err
		}
		return client, nil
	case "google":
		client, err := google.NewGoogleWorkspaceClient(ctx,
			servercfg.GetGoogleCredentialsFile(),
			servercfg.GetGoogleAdminEmail(),
			servercfg.GetGoogleCustomerID(),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "okta":
		client, err := okta.NewOktaClient(servercfg.GetOktaOrgURL(), servercfg.GetOktaAPIToken())
		if err != nil {
			return nil, err
		}
		return client, nil
	case "static":
		client, err := static.Load(servercfg.GetStaticIDPFile())
		if err != nil {
			return nil, err
		}
		return client, nil
	case "":
		return nil, idp.ErrNotConfigured
	default:
		return nil, fmt.Errorf("%w: invalid auth provider %s", idp.ErrNotConfigured, provider)
	}
}
