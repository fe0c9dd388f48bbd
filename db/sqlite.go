package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteConnector for initializing and
// connecting to a sqlite database.
type sqliteConnector struct {
	path string
}

func (s *sqliteConnector) inMemory() bool {
	return s.path == ":memory:" || strings.HasPrefix(s.path, "file::memory:")
}

// sqliteConnector.connect connects and
// initializes a connection to sqlite.
func (s *sqliteConnector) connect() (*gorm.DB, error) {
	dsn := s.path
	if !s.inMemory() {
		// ensure data dir exists.
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return nil, err
		}

		// _journal_mode=wal: committed writes are visible to other
		// connections immediately and readers don't block writers.
		// _txlock=immediate: take the write lock when the transaction
		// begins, avoiding mid-transaction "database is locked" errors.
		// _busy_timeout=5000: wait up to 5 seconds for a locked database.
		dsn = "file:" + s.path + "?_journal_mode=wal&_txlock=immediate&_busy_timeout=5000"
	}

	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// a single connection keeps in-memory databases alive and
	// serializes writers on file databases.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	if !s.inMemory() {
		sqliteDB.SetConnMaxLifetime(time.Hour)
	}

	return gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}
