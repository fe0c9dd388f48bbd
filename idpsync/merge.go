package idpsync

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gravitl/usersync/idp"
	"github.com/gravitl/usersync/logger"
	"github.com/gravitl/usersync/logic"
	"github.com/gravitl/usersync/schema"
)

// maxUsernameAttempts bounds the suffix search.
const maxUsernameAttempts = 10000

var ErrUsernameExhausted = errors.New("no free username candidate")

// Diff lists the columns a merge changed.
type Diff struct {
	Fields []string
}

func (d Diff) NeedsWrite() bool {
	return len(d.Fields) > 0
}

func (d *Diff) add(field string) {
	d.Fields = append(d.Fields, field)
}

// UsernameResolver turns a wanted username into a free one.
type UsernameResolver struct {
	store Store
}

func NewUsernameResolver(store Store) *UsernameResolver {
	return &UsernameResolver{store: store}
}

// Resolve returns base, or base followed by the smallest positive
// counter that is free. A candidate already held by ownerID is free.
func (r *UsernameResolver) Resolve(ctx context.Context, base, ownerID string) (string, error) {
	base = truncate(base, schema.UsernameMaxLength)
	for i := 0; i < maxUsernameAttempts; i++ {
		candidate := base
		if i > 0 {
			suffix := strconv.Itoa(i)
			candidate = truncate(base, schema.UsernameMaxLength-len(suffix)) + suffix
		}
		owner, err := r.store.UsernameOwner(ctx, candidate)
		if err != nil {
			return "", err
		}
		if owner == "" || (ownerID != "" && owner == ownerID) {
			return candidate, nil
		}
	}
	return "", ErrUsernameExhausted
}

// UsernameBase is the display name when present, else the local part of
// the email.
func UsernameBase(rec idp.User) string {
	if rec.DisplayName != "" {
		return rec.DisplayName
	}
	local, _, _ := strings.Cut(rec.Email, "@")
	return local
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Merger copies remote fields onto a local user.
type Merger struct {
	usernames *UsernameResolver
	now       func() time.Time
}

func NewMerger(usernames *UsernameResolver, now func() time.Time) *Merger {
	if now == nil {
		now = time.Now
	}
	return &Merger{usernames: usernames, now: now}
}

// Merge updates user in place from rec and reports what changed.
// CreatedAt is only written for new users or when it was never set.
func (m *Merger) Merge(ctx context.Context, user *schema.User, rec idp.User, isNew bool) (Diff, error) {
	var diff Diff

	if isNew && !logic.IsUnusablePassword(user.Password) {
		password, err := logic.UnusablePassword()
		if err != nil {
			return Diff{}, err
		}
		user.Password = password
	}
	if rec.ID != "" && user.GetExternalID() != rec.ID {
		user.SetExternalID(rec.ID)
		diff.add("external_id")
	}
	if user.Email != rec.Email {
		user.Email = rec.Email
		diff.add("email")
	}
	if user.EmailVerified != rec.EmailVerified {
		user.EmailVerified = rec.EmailVerified
		diff.add("email_verified")
	}

	username, err := m.usernames.Resolve(ctx, UsernameBase(rec), user.ID)
	if err != nil {
		return Diff{}, err
	}
	if user.Username != username {
		user.Username = username
		diff.add("username")
	}

	if rec.DisplayName != "" {
		first, last := idp.SplitDisplayName(rec.DisplayName)
		if user.FirstName != first {
			user.FirstName = first
			diff.add("first_name")
		}
		if user.LastName != last {
			user.LastName = last
			diff.add("last_name")
		}
	}

	if isNew || user.CreatedAt.IsZero() {
		createdAt, err := rec.CreatedAt.Resolve(m.now)
		if err != nil {
			logger.Log(0, "using current time as creation time of", rec.Email, ":", err.Error())
		}
		user.CreatedAt = createdAt
		diff.add("created_at")
	}

	return diff, nil
}
