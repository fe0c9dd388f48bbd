package logic

import (
	"context"
	"errors"
	"sync"

	"github.com/gravitl/usersync/db"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/schema"
)

// ChangeKind names a local write.
type ChangeKind string

const (
	UserCreated ChangeKind = "created"
	UserUpdated ChangeKind = "updated"
	UserDeleted ChangeKind = "deleted"
)

// UserChange is delivered to listeners after a local write succeeds.
// Password is only set for creations that carried a plaintext password.
type UserChange struct {
	Kind     ChangeKind
	User     schema.User
	Password string
}

// Listener reacts to a local write.
type Listener func(ctx context.Context, change UserChange)

type listenerEntry struct {
	id int
	fn Listener
}

// UserStore is the write path for local users. Every write dispatches a
// UserChange to the registered listeners unless the context it was made
// with is suspended.
type UserStore struct {
	mu        sync.Mutex
	listeners []listenerEntry
	nextID    int
}

func NewUserStore() *UserStore {
	return &UserStore{}
}

// OnChange registers fn and returns a func that removes it.
func (s *UserStore) OnChange(fn Listener) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.listeners {
			if entry.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

type suspendKey struct {
	store *UserStore
}

// Suspend returns a context whose writes through s are not dispatched
// until resume is called. Writes made with other contexts still
// dispatch. Suspending an already suspended context nests, and dispatch
// comes back only after every resume has been called.
func (s *UserStore) Suspend(ctx context.Context) (context.Context, func()) {
	guard, ok := ctx.Value(suspendKey{s}).(*Guard)
	if !ok {
		guard = &Guard{}
		ctx = context.WithValue(ctx, suspendKey{s}, guard)
	}
	return ctx, guard.Acquire()
}

// Suspended reports whether writes made with ctx skip dispatch.
func (s *UserStore) Suspended(ctx context.Context) bool {
	guard, ok := ctx.Value(suspendKey{s}).(*Guard)
	return ok && guard.Active()
}

func (s *UserStore) dispatch(ctx context.Context, change UserChange) {
	if s.Suspended(ctx) {
		logger.Log(3, "dispatch suspended, skipping", string(change.Kind), "for", change.User.Email)
		return
	}
	s.mu.Lock()
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, entry := range listeners {
		entry.fn(ctx, change)
	}
}

// Transaction runs fn in a transaction carried by the context. Calls
// nest as savepoints.
func (s *UserStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.Transaction(ctx, fn)
}

func (s *UserStore) Get(ctx context.Context, id string) (*schema.User, error) {
	user := &schema.User{ID: id}
	if err := user.Get(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) GetByExternalID(ctx context.Context, externalID string) (*schema.User, error) {
	user := &schema.User{}
	user.SetExternalID(externalID)
	if err := user.GetByExternalID(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*schema.User, error) {
	user := &schema.User{Email: email}
	if err := user.GetByEmail(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) List(ctx context.Context) ([]schema.User, error) {
	return (&schema.User{}).ListAll(ctx)
}

// ListLinked lists the users carrying an external id.
func (s *UserStore) ListLinked(ctx context.Context) ([]schema.User, error) {
	return (&schema.User{}).ListLinked(ctx)
}

// UsernameOwner returns the id of the user holding username, or "" if the
// name is free.
func (s *UserStore) UsernameOwner(ctx context.Context, username string) (string, error) {
	user := &schema.User{Username: username}
	err := user.GetByUsername(ctx)
	if errors.Is(err, schema.ErrUserNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (s *UserStore) Create(ctx context.Context, user *schema.User) error {
	return s.Register(ctx, user, "")
}

// Register creates user and hands password to the listeners. The stored
// password is always unusable; credentials live with the provider.
func (s *UserStore) Register(ctx context.Context, user *schema.User, password string) error {
	if !IsUnusablePassword(user.Password) {
		sentinel, err := UnusablePassword()
		if err != nil {
			return err
		}
		user.Password = sentinel
	}
	if err := user.Create(ctx); err != nil {
		return err
	}
	s.dispatch(ctx, UserChange{Kind: UserCreated, User: *user, Password: password})
	return nil
}

func (s *UserStore) Update(ctx context.Context, user *schema.User) error {
	if err := user.Update(ctx); err != nil {
		return err
	}
	s.dispatch(ctx, UserChange{Kind: UserUpdated, User: *user})
	return nil
}

func (s *UserStore) Delete(ctx context.Context, user *schema.User) error {
	if err := user.Delete(ctx); err != nil {
		return err
	}
	s.dispatch(ctx, UserChange{Kind: UserDeleted, User: *user})
	return nil
}
