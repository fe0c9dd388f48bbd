package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestMain(m *testing.M) {
	os.Setenv("DATABASE", "sqlite")
	os.Setenv("SQLITE_PATH", "file::memory:?cache=shared")
	if err := InitializeDB(&widget{}); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = CloseDB()
	os.Exit(code)
}

func countWidgets(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, FromContext(context.Background()).Model(&widget{}).Count(&n).Error)
	return n
}

func clearWidgets(t *testing.T) {
	t.Helper()
	require.NoError(t, FromContext(context.Background()).Exec("DELETE FROM widgets").Error)
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	t.Run("commits on success", func(t *testing.T) {
		clearWidgets(t)
		err := Transaction(ctx, func(ctx context.Context) error {
			return FromContext(ctx).Create(&widget{Name: "a"}).Error
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), countWidgets(t))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		clearWidgets(t)
		err := Transaction(ctx, func(ctx context.Context) error {
			if err := FromContext(ctx).Create(&widget{Name: "a"}).Error; err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, int64(0), countWidgets(t))
	})

	t.Run("nested failure only rolls back its savepoint", func(t *testing.T) {
		clearWidgets(t)
		err := Transaction(ctx, func(ctx context.Context) error {
			if err := FromContext(ctx).Create(&widget{Name: "outer"}).Error; err != nil {
				return err
			}
			inner := Transaction(ctx, func(ctx context.Context) error {
				if err := FromContext(ctx).Create(&widget{Name: "inner"}).Error; err != nil {
					return err
				}
				return errBoom
			})
			assert.ErrorIs(t, inner, errBoom)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), countWidgets(t))
	})

	t.Run("outer failure discards committed savepoints", func(t *testing.T) {
		clearWidgets(t)
		err := Transaction(ctx, func(ctx context.Context) error {
			inner := Transaction(ctx, func(ctx context.Context) error {
				return FromContext(ctx).Create(&widget{Name: "inner"}).Error
			})
			require.NoError(t, inner)
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, int64(0), countWidgets(t))
	})
}

func TestInitializeDBIsIdempotent(t *testing.T) {
	assert.NoError(t, InitializeDB(&widget{}))
}
