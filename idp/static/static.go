// Package static is an identity provider held in memory, optionally seeded
// from a yaml file. It backs local development and tests.
package static

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gravitl/usersync/idp"
	"gopkg.in/yaml.v3"
)

// fileUser is one entry of the seed file.
type fileUser struct {
	ID            string `yaml:"id"`
	Email         string `yaml:"email"`
	EmailVerified bool   `yaml:"email_verified"`
	DisplayName   string `yaml:"display_name"`
	// CreatedAt is an epoch in seconds or milliseconds, or an RFC 3339 string.
	CreatedAt string `yaml:"created_at"`
	Disabled  bool   `yaml:"disabled"`
}

type fileLayout struct {
	Users []fileUser `yaml:"users"`
}

type Client struct {
	mu      sync.Mutex
	users   map[string]idp.User
	listErr error
	now     func() time.Time
}

// New returns a provider holding users.
func New(users ...idp.User) *Client {
	c := &Client{
		users: make(map[string]idp.User, len(users)),
		now:   time.Now,
	}
	for _, user := range users {
		c.Put(user)
	}
	return c
}

// Load reads a seed file.
func Load(path string) (*Client, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: static provider needs a users file", idp.ErrNotConfigured)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c := New()
	for _, u := range layout.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("parsing %s: user %q has no id", path, u.Email)
		}
		user := idp.User{
			ID:            u.ID,
			Email:         u.Email,
			EmailVerified: u.EmailVerified,
			DisplayName:   u.DisplayName,
			Disabled:      u.Disabled,
		}
		if u.CreatedAt != "" {
			user.CreatedAt = idp.Raw(u.CreatedAt)
		}
		c.Put(user)
	}
	return c, nil
}

// Put adds or replaces a user.
func (c *Client) Put(user idp.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.ID] = user
}

// Remove drops a user without going through DeleteIdentity.
func (c *Client) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, id)
}

// Get returns a user by id.
func (c *Client) Get(id string) (idp.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[id]
	return user, ok
}

// FailListing makes every listing fail with err until called with nil.
func (c *Client) FailListing(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listErr = err
}

func (c *Client) ListAllIdentities(ctx context.Context) ([]idp.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	users := make([]idp.User, 0, len(c.users))
	for _, user := range c.users {
		users = append(users, user)
	}
	// stable order, like a paginated listing would give
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (c *Client) ListAllExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	users, err := c.ListAllIdentities(ctx)
	if err != nil {
		return nil, err
	}
	return idp.ExternalIDs(users), nil
}

func (c *Client) CreateIdentity(ctx context.Context, email, displayName, password string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, user := range c.users {
		if user.Email == email {
			return "", fmt.Errorf("email %s already exists", email)
		}
	}
	id := uuid.NewString()
	c.users[id] = idp.User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   idp.Instant(c.now()),
	}
	return id, nil
}

func (c *Client) UpdateIdentity(ctx context.Context, externalID string, fields idp.Fields) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[externalID]
	if !ok {
		return fmt.Errorf("%w: %s", idp.ErrIdentityNotFound, externalID)
	}
	if fields.Email != nil {
		user.Email = *fields.Email
	}
	if fields.DisplayName != nil {
		user.DisplayName = *fields.DisplayName
	}
	if fields.EmailVerified != nil {
		user.EmailVerified = *fields.EmailVerified
	}
	c.users[externalID] = user
	return nil
}

func (c *Client) DeleteIdentity(ctx context.Context, externalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[externalID]; !ok {
		return fmt.Errorf("%w: %s", idp.ErrIdentityNotFound, externalID)
	}
	delete(c.users, externalID)
	return nil
}
