package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ctxKey string

const dbCtxKey ctxKey = "db"

var db *gorm.DB

var ErrDBNotFound = errors.New("no db instance in context")

// InitializeDB connects once and migrates models.
// A failed connect is retried a few times so the
// server can start alongside its database.
func InitializeDB(models ...interface{}) error {
	if db != nil {
		return nil
	}

	connector, err := newConnector()
	if err != nil {
		return err
	}

	var conn *gorm.DB
	for i := 0; i < 5; i++ {
		conn, err = connector.connect()
		if err == nil {
			break
		}

		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return err
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		for _, model := range models {
			if err := tx.AutoMigrate(model); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	db = conn
	return nil
}

// WithContext returns a new context with the db
// connection instance.
//
// Ensure InitializeDB has been called before using
// this function.
//
// To extract the db connection use the FromContext
// function.
func WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, dbCtxKey, db)
}

// FromContext extracts the db connection instance from
// the given context. Falls back to the connection
// initialized in the package.
//
// The function panics, if neither exists.
func FromContext(ctx context.Context) *gorm.DB {
	conn, ok := ctx.Value(dbCtxKey).(*gorm.DB)
	if ok && conn != nil {
		return conn.WithContext(ctx)
	}
	if db == nil {
		panic(ErrDBNotFound)
	}

	return db.WithContext(ctx)
}

// Transaction runs fn with a context carrying a
// transaction handle. Everything fn does through
// FromContext is committed when fn returns nil and
// rolled back when it returns an error or panics.
//
// If the context already carries a transaction, the
// call opens a savepoint inside it instead, so a
// failing inner call only rolls back its own work.
func Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return FromContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, dbCtxKey, tx))
	})
}

// CloseDB close a connection to the database
// (if one exists).
func CloseDB() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	db = nil
	return sqlDB.Close()
}
