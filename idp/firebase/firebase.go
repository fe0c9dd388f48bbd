// Package firebase talks to the Identity Toolkit REST API behind Firebase
// Authentication.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gravitl/usersync/idp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	apiHost  = "https://identitytoolkit.googleapis.com"
	pageSize = 1000
)

var scopes = []string{
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/cloud-platform",
}

type Client struct {
	http    *http.Client
	baseURL string
	// emulator requests carry a fixed owner token instead of oauth2
	emulator bool
}

// NewFirebaseClient authenticates with a service account file.
func NewFirebaseClient(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	if projectID == "" || credentialsFile == "" {
		return nil, fmt.Errorf("%w: firebase needs a project id and a credentials file", idp.ErrNotConfigured)
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:    oauth2.NewClient(ctx, creds.TokenSource),
		baseURL: fmt.Sprintf("%s/v1/projects/%s", apiHost, url.PathEscape(projectID)),
	}, nil
}

// NewEmulatorClient targets a local auth emulator at host (host:port).
func NewEmulatorClient(projectID, host string) (*Client, error) {
	if projectID == "" || host == "" {
		return nil, fmt.Errorf("%w: emulator needs a project id and a host", idp.ErrNotConfigured)
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return &Client{
		http:     &http.Client{},
		baseURL:  fmt.Sprintf("%s/identitytoolkit.googleapis.com/v1/projects/%s", strings.TrimSuffix(host, "/"), url.PathEscape(projectID)),
		emulator: true,
	}, nil
}

type account struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName"`
	// milliseconds since the epoch, as a string
	CreatedAt string `json:"createdAt"`
	Disabled  bool   `json:"disabled"`
}

type batchGetResponse struct {
	Users         []account `json:"users"`
	NextPageToken string    `json:"nextPageToken"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) ListAllIdentities(ctx context.Context) ([]idp.User, error) {
	var retval []idp.User
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("maxResults", fmt.Sprint(pageSize))
		if pageToken != "" {
			query.Set("nextPageToken", pageToken)
		}
		var page batchGetResponse
		if err := c.do(ctx, http.MethodGet, "/accounts:batchGet?"+query.Encode(), nil, &page); err != nil {
			if len(retval) > 0 {
				return nil, fmt.Errorf("%w after %d users: %v", idp.ErrIncompleteListing, len(retval), err)
			}
			return nil, err
		}
		for _, acc := range page.Users {
			user := idp.User{
				ID:            acc.LocalID,
				Email:         acc.Email,
				EmailVerified: acc.EmailVerified,
				DisplayName:   acc.DisplayName,
				Disabled:      acc.Disabled,
			}
			if acc.CreatedAt != "" {
				user.CreatedAt = idp.Raw(acc.CreatedAt)
			}
			retval = append(retval, user)
		}
		if page.NextPageToken == "" || len(page.Users) == 0 {
			return retval, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *Client) ListAllExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	users, err := c.ListAllIdentities(ctx)
	if err != nil {
		return nil, err
	}
	return idp.ExternalIDs(users), nil
}

func (c *Client) CreateIdentity(ctx context.Context, email, displayName, password string) (string, error) {
	body := map[string]any{"email": email}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if password != "" {
		body["password"] = password
	}
	var created struct {
		LocalID string `json:"localId"`
	}
	if err := c.do(ctx, http.MethodPost, "/accounts", body, &created); err != nil {
		return "", err
	}
	if created.LocalID == "" {
		return "", errors.New("firebase returned no localId for the new account")
	}
	return created.LocalID, nil
}

func (c *Client) UpdateIdentity(ctx context.Context, externalID string, fields idp.Fields) error {
	if fields.IsEmpty() {
		return nil
	}
	body := map[string]any{"localId": externalID}
	if fields.Email != nil {
		body["email"] = *fields.Email
	}
	if fields.DisplayName != nil {
		if *fields.DisplayName == "" {
			body["deleteAttribute"] = []string{"DISPLAY_NAME"}
		} else {
			body["displayName"] = *fields.DisplayName
		}
	}
	if fields.EmailVerified != nil {
		body["emailVerified"] = *fields.EmailVerified
	}
	return c.do(ctx, http.MethodPost, "/accounts:update", body, nil)
}

func (c *Client) DeleteIdentity(ctx context.Context, externalID string) error {
	return c.do(ctx, http.MethodPost, "/accounts:delete", map[string]any{"localId": externalID}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Add("Accept", "application/json")
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	if c.emulator {
		req.Header.Add("Authorization", "Bearer owner")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		if strings.HasPrefix(msg, "USER_NOT_FOUND") {
			return fmt.Errorf("%w: %s", idp.ErrIdentityNotFound, msg)
		}
		return fmt.Errorf("firebase %s %s: %s", method, strings.SplitN(path, "?", 2)[0], msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
