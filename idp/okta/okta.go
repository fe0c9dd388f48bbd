package okta

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gravitl/usersync/idp"
	"github.com/okta/okta-sdk-golang/v5/okta"
)

const (
	pageSize = 200

	statusActive      = "ACTIVE"
	statusSuspended   = "SUSPENDED"
	statusDeprovision = "DEPROVISIONED"
)

type Client struct {
	client *okta.APIClient
}

func NewOktaClient(oktaOrgURL, oktaAPIToken string) (*Client, error) {
	if oktaOrgURL == "" || oktaAPIToken == "" {
		return nil, fmt.Errorf("%w: okta needs an org url and an api token", idp.ErrNotConfigured)
	}
	config, err := okta.NewConfiguration(
		okta.WithOrgUrl(oktaOrgURL),
		okta.WithToken(oktaAPIToken),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: okta.NewAPIClient(config),
	}, nil
}

func (o *Client) ListAllIdentities(ctx context.Context) ([]idp.User, error) {
	var retval []idp.User
	after := ""
	for {
		req := o.client.UserAPI.ListUsers(ctx).Limit(pageSize)
		if after != "" {
			req = req.After(after)
		}
		users, resp, err := req.Execute()
		if err != nil {
			if len(retval) > 0 {
				return nil, fmt.Errorf("%w after %d users: %v", idp.ErrIncompleteListing, len(retval), err)
			}
			return nil, err
		}

		for _, user := range users {
			retval = append(retval, toIdentity(user))
		}

		if resp == nil || !resp.HasNextPage() {
			return retval, nil
		}
		after, err = afterCursor(resp.NextPage())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", idp.ErrIncompleteListing, err)
		}
	}
}

// afterCursor pulls the pagination cursor out of a next link.
func afterCursor(next string) (string, error) {
	u, err := url.Parse(next)
	if err != nil {
		return "", err
	}
	after := u.Query().Get("after")
	if after == "" {
		return "", fmt.Errorf("next link %q has no cursor", next)
	}
	return after, nil
}

func toIdentity(user okta.User) idp.User {
	profile := user.GetProfile()
	email := profile.GetEmail()
	if email == "" {
		email = profile.GetLogin()
	}
	displayName := profile.GetDisplayName()
	if displayName == "" {
		displayName = strings.TrimSpace(profile.GetFirstName() + " " + profile.GetLastName())
	}
	status := string(user.GetStatus())

	retval := idp.User{
		ID:          user.GetId(),
		Email:       email,
		DisplayName: displayName,
		// okta only activates users whose email was confirmed or vouched for
		EmailVerified: status == statusActive,
		Disabled:      status == statusSuspended || status == statusDeprovision,
	}
	if user.HasCreated() {
		retval.CreatedAt = idp.Instant(user.GetCreated())
	}
	return retval
}

func (o *Client) ListAllExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	users, err := o.ListAllIdentities(ctx)
	if err != nil {
		return nil, err
	}
	return idp.ExternalIDs(users), nil
}

func (o *Client) CreateIdentity(ctx context.Context, email, displayName, password string) (string, error) {
	profile := profileFor(email, displayName)
	body := okta.NewCreateUserRequest(*profile)
	if password != "" {
		credential := okta.NewPasswordCredential()
		credential.SetValue(password)
		credentials := okta.NewUserCredentials()
		credentials.SetPassword(*credential)
		body.SetCredentials(*credentials)
	}
	user, _, err := o.client.UserAPI.CreateUser(ctx).Body(*body).Activate(password != "").Execute()
	if err != nil {
		return "", err
	}
	return user.GetId(), nil
}

func profileFor(email, displayName string) *okta.UserProfile {
	profile := okta.NewUserProfile()
	if email != "" {
		profile.SetEmail(email)
		profile.SetLogin(email)
	}
	if displayName != "" {
		first, last := idp.SplitDisplayName(displayName)
		profile.SetDisplayName(displayName)
		profile.SetFirstName(first)
		if last != "" {
			profile.SetLastName(last)
		}
	}
	return profile
}

func (o *Client) UpdateIdentity(ctx context.Context, externalID string, fields idp.Fields) error {
	// okta keeps no verification flag outside the user lifecycle
	if fields.Email == nil && fields.DisplayName == nil {
		return nil
	}
	email, displayName := "", ""
	if fields.Email != nil {
		email = *fields.Email
	}
	if fields.DisplayName != nil {
		displayName = *fields.DisplayName
	}
	body := okta.NewUpdateUserRequest()
	body.SetProfile(*profileFor(email, displayName))
	_, resp, err := o.client.UserAPI.UpdateUser(ctx, externalID).User(*body).Execute()
	return notFound(externalID, resp, err)
}

// DeleteIdentity deactivates first; okta refuses to delete active users.
func (o *Client) DeleteIdentity(ctx context.Context, externalID string) error {
	resp, err := o.client.UserAPI.DeactivateUser(ctx, externalID).Execute()
	if err := notFound(externalID, resp, err); err != nil {
		return err
	}
	resp, err = o.client.UserAPI.DeleteUser(ctx, externalID).Execute()
	return notFound(externalID, resp, err)
}

func notFound(externalID string, resp *okta.APIResponse, err error) error {
	if err != nil && resp != nil && resp.Response != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", idp.ErrIdentityNotFound, externalID)
	}
	return err
}
