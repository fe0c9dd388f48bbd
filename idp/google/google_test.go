package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gravitl/usersync/idp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const usersPath = "/admin/directory/v1/users"

type fakeDirectory struct {
	mu       sync.Mutex
	failPage bool
	requests []string
	patched  map[string]any
}

func (f *fakeDirectory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == usersPath:
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"users":[{"id":"g1","primaryEmail":"a@x.com","name":{"fullName":"Ana Lima"},"creationTime":"2023-11-14T22:13:20.000Z"}],"nextPageToken":"p2"}`))
			return
		}
		if f.failPage {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"users":[{"id":"g2","primaryEmail":"b@x.com","suspended":true}]}`))
	case r.Method == http.MethodPost && r.URL.Path == usersPath:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "g3"
		_ = json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodPatch:
		_ = json.NewDecoder(r.Body).Decode(&f.patched)
		_, _ = w.Write([]byte(`{"id":"g1"}`))
	case r.Method == http.MethodDelete:
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Resource Not Found: userKey"}}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFake(t *testing.T) (*fakeDirectory, *Client) {
	t.Helper()
	fake := &fakeDirectory{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewWithOptions(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)
	return fake, c
}

func TestListAllIdentities(t *testing.T) {
	t.Run("pages", func(t *testing.T) {
		_, c := newFake(t)
		users, err := c.ListAllIdentities(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Ana Lima", users[0].DisplayName)
		assert.True(t, users[0].EmailVerified)
		created, err := users[0].CreatedAt.Parse()
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000), created.Unix())
		assert.True(t, users[1].Disabled)
	})
	t.Run("failed page", func(t *testing.T) {
		fake, c := newFake(t)
		fake.failPage = true
		_, err := c.ListAllIdentities(context.Background())
		assert.ErrorIs(t, err, idp.ErrIncompleteListing)
		ids, err := c.ListAllExternalIDs(context.Background())
		assert.Error(t, err)
		assert.Nil(t, ids)
	})
}

func TestWrites(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	id, err := c.CreateIdentity(ctx, "c@x.com", "", "pw")
	require.NoError(t, err)
	assert.Equal(t, "g3", id)

	verified := true
	require.NoError(t, c.UpdateIdentity(ctx, "g1", idp.Fields{EmailVerified: &verified}))
	assert.Nil(t, fake.patched, "verification only is not sent")

	name := "Ana Maria Lima"
	require.NoError(t, c.UpdateIdentity(ctx, "g1", idp.Fields{DisplayName: &name}))
	require.NotNil(t, fake.patched)
	assert.Equal(t, map[string]any{"givenName": "Ana", "familyName": "Maria Lima"}, fake.patched["name"])

	require.NoError(t, c.DeleteIdentity(ctx, "g1"))
	assert.ErrorIs(t, c.DeleteIdentity(ctx, "missing"), idp.ErrIdentityNotFound)
}

func TestUserName(t *testing.T) {
	name := userName("ana@x.com", "")
	assert.Equal(t, "ana", name.GivenName)
	assert.Equal(t, "ana", name.FamilyName)

	name = userName("", "Ana")
	assert.Equal(t, "Ana", name.GivenName)
	assert.Equal(t, "Ana", name.FamilyName)
}

func TestNewGoogleWorkspaceClient(t *testing.T) {
	_, err := NewGoogleWorkspaceClient(context.Background(), "", "", "")
	assert.ErrorIs(t, err, idp.ErrNotConfigured)
}
