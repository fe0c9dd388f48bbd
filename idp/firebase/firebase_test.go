package firebase

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
)

const prefix = "/identitytoolkit.googleapis.com/v1/projects/demo"

type fakeToolkit struct {
	mu       sync.Mutex
	pages    []batchGetResponse
	failPage int
	bodies   map[string]map[string]any
}

func (f *fakeToolkit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer owner" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	op := strings.TrimPrefix(r.URL.Path, prefix)
	if r.Method == http.MethodPost {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.bodies[op] = body
	}
	switch op {
	case "/accounts:batchGet":
		page := 0
		if token := r.URL.Query().Get("nextPageToken"); token != "" {
			page = int(token[0] - '0')
		}
		if f.failPage > 0 && page == f.failPage {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"UNAVAILABLE"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(f.pages[page])
	case "/accounts":
		_, _ = w.Write([]byte(`{"localId":"new-id"}`))
	case "/accounts:update":
		_, _ = w.Write([]byte(`{}`))
	case "/accounts:delete":
		if f.bodies[op]["localId"] == "missing" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"USER_NOT_FOUND"}}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFake(t *testing.T, pages ...batchGetResponse) (*fakeToolkit, *Client) {
	t.Helper()
	fake := &fakeToolkit{pages: pages, bodies: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := NewEmulatorClient("demo", srv.URL)
	require.NoError(t, err)
	return fake, c
}

func TestListAllIdentities(t *testing.T) {
	pages := []batchGetResponse{
		{
			Users: []account{
				{LocalID: "u1", Email: "a@x.com", EmailVerified: true, DisplayName: "Ana", CreatedAt: "1700000000000"},
			},
			NextPageToken: "1",
		},
		{
			Users: []account{{LocalID: "u2", Email: "b@x.com", Disabled: true}},
		},
	}

	t.Run("all pages", func(t *testing.T) {
		_, c := newFake(t, pages...)
		users, err := c.ListAllIdentities(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Ana", users[0].DisplayName)
		created, err := users[0].CreatedAt.Parse()
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000), created.Unix())
		assert.True(t, users[1].Disabled)
		assert.True(t, users[1].CreatedAt.IsZero())

		ids, err := c.ListAllExternalIDs(context.Background())
		require.NoError(t, err)
		assert.Len(t, ids, 2)
	})

	t.Run("failed later page is incomplete", func(t *testing.T) {
		fake, c := newFake(t, pages...)
		fake.failPage = 1
		users, err := c.ListAllIdentities(context.Background())
		assert.ErrorIs(t, err, idp.ErrIncompleteListing)
		assert.Nil(t, users)

		ids, err := c.ListAllExternalIDs(context.Background())
		assert.Error(t, err)
		assert.Nil(t, ids)
	})
}

func TestWrites(t *testing.T) {
	ctx := context.Background()
	fake, c := newFake(t)

	id, err := c.CreateIdentity(ctx, "a@x.com", "Ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	assert.Equal(t, "pw", fake.bodies["/accounts"]["password"])

	require.NoError(t, c.UpdateIdentity(ctx, "u1", idp.Fields{}))
	assert.NotContains(t, fake.bodies, "/accounts:update", "empty update is not sent")

	verified := true
	empty := ""
	require.NoError(t, c.UpdateIdentity(ctx, "u1", idp.Fields{EmailVerified: &verified, DisplayName: &empty}))
	body := fake.bodies["/accounts:update"]
	assert.Equal(t, "u1", body["localId"])
	assert.Equal(t, true, body["emailVerified"])
	assert.Equal(t, []any{"DISPLAY_NAME"}, body["deleteAttribute"])

	require.NoError(t, c.DeleteIdentity(ctx, "u1"))
	assert.ErrorIs(t, c.DeleteIdentity(ctx, "missing"), idp.ErrIdentityNotFound)
}

func TestNewClients(t *testing.T) {
	_, err := NewFirebaseClient(context.Background(), "", "")
	assert.ErrorIs(t, err, idp.ErrNotConfigured)
	_, err = NewEmulatorClient("demo", "")
	assert.ErrorIs(t, err, idp.ErrNotConfigured)

	c, err := NewEmulatorClient("demo", "localhost:9099")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9099"+prefix, c.baseURL)
}
