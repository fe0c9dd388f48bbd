package schema

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gravitl/usersync/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("DATABASE", "sqlite")
	os.Setenv("SQLITE_PATH", "file::memory:?cache=shared")
	if err := db.InitializeDB(ListModels()...); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = db.CloseDB()
	os.Exit(code)
}

func removeAllUsers(t *testing.T) {
	t.Helper()
	require.NoError(t, db.FromContext(context.Background()).Exec("DELETE FROM users_v1").Error)
}

func newUser(email, username, externalID string) *User {
	u := &User{Email: email, Username: username, Password: "!"}
	u.SetExternalID(externalID)
	return u
}

func TestUser_CreateAndGet(t *testing.T) {
	removeAllUsers(t)
	defer removeAllUsers(t)
	ctx := context.Background()

	created := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	u := newUser("a@x.com", "a", "u1")
	u.CreatedAt = created
	require.NoError(t, u.Create(ctx))
	assert.NotEmpty(t, u.ID)

	t.Run("by id", func(t *testing.T) {
		got := &User{ID: u.ID}
		require.NoError(t, got.Get(ctx))
		assert.Equal(t, "a@x.com", got.Email)
		assert.True(t, created.Equal(got.CreatedAt))
	})
	t.Run("by external id", func(t *testing.T) {
		got := newUser("", "", "u1")
		require.NoError(t, got.GetByExternalID(ctx))
		assert.Equal(t, u.ID, got.ID)
	})
	t.Run("by email", func(t *testing.T) {
		got := &User{Email: "a@x.com"}
		require.NoError(t, got.GetByEmail(ctx))
		assert.Equal(t, u.ID, got.ID)
	})
	t.Run("email match is exact", func(t *testing.T) {
		got := &User{Email: "A@x.com"}
		assert.ErrorIs(t, got.GetByEmail(ctx), ErrUserNotFound)
	})
	t.Run("by username", func(t *testing.T) {
		got := &User{Username: "a"}
		require.NoError(t, got.GetByUsername(ctx))
		assert.Equal(t, u.ID, got.ID)
	})
	t.Run("missing identifiers", func(t *testing.T) {
		assert.ErrorIs(t, (&User{}).Get(ctx), ErrUserIdentifiersNotProvided)
		assert.ErrorIs(t, (&User{}).GetByExternalID(ctx), ErrUserIdentifiersNotProvided)
		assert.ErrorIs(t, (&User{}).GetByEmail(ctx), ErrUserIdentifiersNotProvided)
	})
}

func TestUser_CreatedAtIsNotAutoFilled(t *testing.T) {
	removeAllUsers(t)
	defer removeAllUsers(t)
	ctx := context.Background()

	u := newUser("b@x.com", "b", "")
	require.NoError(t, u.Create(ctx))
	got := &User{ID: u.ID}
	require.NoError(t, got.Get(ctx))
	assert.True(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.ExternalID)
}

func TestUser_Uniqueness(t *testing.T) {
	removeAllUsers(t)
	defer removeAllUsers(t)
	ctx := context.Background()

	require.NoError(t, newUser("a@x.com", "a", "u1").Create(ctx))
	assert.ErrorIs(t, newUser("a@x.com", "other", "u2").Create(ctx), ErrUserExists, "duplicate email")
	assert.ErrorIs(t, newUser("b@x.com", "a", "u2").Create(ctx), ErrUserExists, "duplicate username")
	assert.ErrorIs(t, newUser("c@x.com", "c", "u1").Create(ctx), ErrUserExists, "duplicate external id")

	moved := newUser("f@x.com", "f", "")
	require.NoError(t, moved.Create(ctx))
	moved.Email = "a@x.com"
	assert.ErrorIs(t, moved.Update(ctx), ErrUserExists)

	// unlinked users do not collide on the external id column
	require.NoError(t, newUser("d@x.com", "d", "").Create(ctx))
	require.NoError(t, newUser("e@x.com", "e", "").Create(ctx))
}

func TestUser_UpdateWritesZeroValues(t *testing.T) {
	removeAllUsers(t)
	defer removeAllUsers(t)
	ctx := context.Background()

	u := newUser("a@x.com", "a", "u1")
	u.EmailVerified = true
	require.NoError(t, u.Create(ctx))

	u.EmailVerified = false
	u.SetExternalID("")
	require.NoError(t, u.Update(ctx))

	got := &User{ID: u.ID}
	require.NoError(t, got.Get(ctx))
	assert.False(t, got.EmailVerified)
	assert.Nil(t, got.ExternalID)

	missing := newUser("z@x.com", "z", "")
	missing.ID = "does-not-exist"
	assert.ErrorIs(t, missing.Update(ctx), ErrUserNotFound)
}

func TestUser_ListLinkedAndDelete(t *testing.T) {
	removeAllUsers(t)
	defer removeAllUsers(t)
	ctx := context.Background()

	linked := newUser("a@x.com", "a", "u1")
	require.NoError(t, linked.Create(ctx))
	require.NoError(t, newUser("b@x.com", "b", "").Create(ctx))

	users, err := (&User{}).ListLinked(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].GetExternalID())

	all, err := (&User{}).ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, linked.Delete(ctx))
	assert.ErrorIs(t, linked.Delete(ctx), ErrUserNotFound)
	count, err := (&User{}).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
