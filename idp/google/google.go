package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gravitl/usersync/idp"
	"golang.org/x/oauth2/google"
	admindir "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const pageSize = 500

type Client struct {
	service    *admindir.Service
	customerID string
}

// NewGoogleWorkspaceClient builds a directory client that impersonates
// adminEmail through domain-wide delegation.
func NewGoogleWorkspaceClient(ctx context.Context, credentialsFile, adminEmail, customerID string) (*Client, error) {
	if credentialsFile == "" || adminEmail == "" {
		return nil, fmt.Errorf("%w: google workspace needs a credentials file and an admin email", idp.ErrNotConfigured)
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, err
	}
	conf, err := google.JWTConfigFromJSON(data, admindir.AdminDirectoryUserScope)
	if err != nil {
		return nil, err
	}
	conf.Subject = adminEmail
	return NewWithOptions(ctx, customerID, option.WithHTTPClient(conf.Client(ctx)))
}

// NewWithOptions builds a client from raw api options.
func NewWithOptions(ctx context.Context, customerID string, opts ...option.ClientOption) (*Client, error) {
	service, err := admindir.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		customerID = "my_customer"
	}
	return &Client{
		service:    service,
		customerID: customerID,
	}, nil
}

func (g *Client) ListAllIdentities(ctx context.Context) ([]idp.User, error) {
	var retval []idp.User
	err := g.service.Users.List().
		Customer(g.customerID).
		MaxResults(pageSize).
		Fields("nextPageToken", "users(id,primaryEmail,name,creationTime,suspended,archived)").
		Pages(ctx, func(page *admindir.Users) error {
			for _, user := range page.Users {
				retval = append(retval, toIdentity(user))
			}
			return nil
		})
	if err != nil {
		if len(retval) > 0 {
			return nil, fmt.Errorf("%w after %d users: %v", idp.ErrIncompleteListing, len(retval), err)
		}
		return nil, err
	}
	return retval, nil
}

func toIdentity(user *admindir.User) idp.User {
	retval := idp.User{
		ID:    user.Id,
		Email: user.PrimaryEmail,
		// workspace accounts live on a verified domain
		EmailVerified: true,
		Disabled:      user.Suspended || user.Archived,
	}
	if user.Name != nil {
		retval.DisplayName = user.Name.FullName
		if retval.DisplayName == "" {
			retval.DisplayName = strings.TrimSpace(user.Name.GivenName + " " + user.Name.FamilyName)
		}
	}
	if user.CreationTime != "" {
		retval.CreatedAt = idp.Raw(user.CreationTime)
	}
	return retval
}

func (g *Client) ListAllExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	users, err := g.ListAllIdentities(ctx)
	if err != nil {
		return nil, err
	}
	return idp.ExternalIDs(users), nil
}

func (g *Client) CreateIdentity(ctx context.Context, email, displayName, password string) (string, error) {
	user := &admindir.User{
		PrimaryEmail: email,
		Name:         userName(email, displayName),
		Password:     password,
	}
	created, err := g.service.Users.Insert(user).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

// userName fills both name parts, which the directory requires.
func userName(email, displayName string) *admindir.UserName {
	first, last := idp.SplitDisplayName(displayName)
	if first == "" {
		first, _, _ = strings.Cut(email, "@")
	}
	if last == "" {
		last = first
	}
	return &admindir.UserName{GivenName: first, FamilyName: last}
}

func (g *Client) UpdateIdentity(ctx context.Context, externalID string, fields idp.Fields) error {
	// verification is owned by the domain and never sent
	patch := &admindir.User{}
	email := ""
	if fields.Email != nil {
		email = *fields.Email
		patch.PrimaryEmail = email
	}
	if fields.DisplayName != nil {
		if name := userName(email, *fields.DisplayName); name.GivenName != "" {
			patch.Name = name
		}
	}
	if patch.PrimaryEmail == "" && patch.Name == nil {
		return nil
	}
	_, err := g.service.Users.Patch(externalID, patch).Context(ctx).Do()
	return notFound(externalID, err)
}

func (g *Client) DeleteIdentity(ctx context.Context, externalID string) error {
	return notFound(externalID, g.service.Users.Delete(externalID).Context(ctx).Do())
}

func notFound(externalID string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", idp.ErrIdentityNotFound, externalID)
	}
	return err
}
