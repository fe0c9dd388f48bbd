package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gravitl/usersync/db"
	"gorm.io/gorm"
)

// UsernameMaxLength - longest username the store accepts
const UsernameMaxLength = 150

var (
	ErrUserIdentifiersNotProvided = errors.New("user identifiers not provided")
	ErrUserNotFound               = errors.New("user not found")
	// ErrUserExists is returned when a write hits a unique column.
	ErrUserExists = errors.New("user already exists")
)

// User is a local account. Rows sourced from the identity
// provider carry its id in ExternalID; rows created locally
// carry none until the provider assigns one.
type User struct {
	ID            string  `gorm:"primaryKey"`
	ExternalID    *string `gorm:"uniqueIndex;size:128"`
	Email         string  `gorm:"uniqueIndex;not null"`
	Username      string  `gorm:"uniqueIndex;size:150;not null"`
	FirstName     string
	LastName      string
	EmailVerified bool
	Password      string
	IsStaff       bool
	IsSuperuser   bool
	// CreatedAt is when the identity was created, as reported by
	// the provider for synced rows. Zero means not recorded.
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time
}

func (u *User) TableName() string {
	return "users_v1"
}

// GetExternalID returns the provider id, or "" when unlinked.
func (u *User) GetExternalID() string {
	if u.ExternalID == nil {
		return ""
	}
	return *u.ExternalID
}

// SetExternalID links the user to a provider id. An empty
// id clears the link.
func (u *User) SetExternalID(id string) {
	if id == "" {
		u.ExternalID = nil
		return
	}
	u.ExternalID = &id
}

func (u *User) Create(ctx context.Context) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	return duplicate(db.FromContext(ctx).Model(&User{}).Create(u).Error)
}

func (u *User) Get(ctx context.Context) error {
	if u.ID == "" {
		return ErrUserIdentifiersNotProvided
	}

	return notFound(db.FromContext(ctx).Model(&User{}).
		Where("id = ?", u.ID).
		First(u).
		Error)
}

func (u *User) GetByExternalID(ctx context.Context) error {
	if u.GetExternalID() == "" {
		return ErrUserIdentifiersNotProvided
	}

	return notFound(db.FromContext(ctx).Model(&User{}).
		Where("external_id = ?", u.GetExternalID()).
		First(u).
		Error)
}

func (u *User) GetByEmail(ctx context.Context) error {
	if u.Email == "" {
		return ErrUserIdentifiersNotProvided
	}

	return notFound(db.FromContext(ctx).Model(&User{}).
		Where("email = ?", u.Email).
		First(u).
		Error)
}

func (u *User) GetByUsername(ctx context.Context) error {
	if u.Username == "" {
		return ErrUserIdentifiersNotProvided
	}

	return notFound(db.FromContext(ctx).Model(&User{}).
		Where("username = ?", u.Username).
		First(u).
		Error)
}

func (u *User) Count(ctx context.Context) (int, error) {
	var count int64
	err := db.FromContext(ctx).Model(&User{}).Count(&count).Error
	return int(count), err
}

func (u *User) ListAll(ctx context.Context) ([]User, error) {
	var users []User
	err := db.FromContext(ctx).Model(&User{}).Order("email").Find(&users).Error
	return users, err
}

// ListLinked lists users carrying a non-empty external id.
func (u *User) ListLinked(ctx context.Context) ([]User, error) {
	var users []User
	err := db.FromContext(ctx).Model(&User{}).
		Where("external_id IS NOT NULL AND external_id <> ''").
		Order("email").
		Find(&users).Error
	return users, err
}

// Update writes every column of u, zero values included.
func (u *User) Update(ctx context.Context) error {
	if u.ID == "" {
		return ErrUserIdentifiersNotProvided
	}

	result := db.FromContext(ctx).Model(&User{}).
		Where("id = ?", u.ID).
		Select("*").
		Omit("id").
		Updates(u)
	if result.Error != nil {
		return duplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (u *User) Delete(ctx context.Context) error {
	if u.ID == "" {
		return ErrUserIdentifiersNotProvided
	}

	result := db.FromContext(ctx).Model(&User{}).
		Where("id = ?", u.ID).
		Delete(u)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrUserExists, err)
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
