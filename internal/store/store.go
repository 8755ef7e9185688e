// Package store implements CHTL's compilation-session persistence:
// one SessionRecord per top-level compile, backed
// by a pure-Go SQLite database for the default on-disk cache or a
// remote libSQL/Turso DSN, with dialector selection branching on a
// URL-vs-file-path DSN check.
package store

import (
	"crypto/sha1"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Yhlight/chtl/internal/diag"
)

// Store wraps a *gorm.DB holding compilation session history.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn (a file path or a libsql:// / https:// remote
// URL) and runs migrations.
func Open(dsn string, debug bool) (*Store, error) {
	if !isURL(dsn) {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("chtl: failed to create session store directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		token := os.Getenv("CHTL_LIBSQL_AUTH_TOKEN")
		if token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("chtl: failed to create libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{Conn: conn, DSN: dsn})
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("chtl: failed to connect to session store: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, fmt.Errorf("chtl: session store migration failed: %w", err)
	}

	return &Store{db: db}, nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") || strings.HasPrefix(dsn, "libsql")
}

// SHA1Of hashes src, the key SessionRecord.SourceSHA1 is looked up by.
func SHA1Of(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])
}

// RecordCompile persists one compile's outcome.
func (s *Store) RecordCompile(filePath, src string, success bool, diags []diag.Diagnostic, symbolNames []string, durationMillis int64) error {
	diagJSON, err := json.Marshal(diags)
	if err != nil {
		return fmt.Errorf("chtl: marshaling diagnostics for session store: %w", err)
	}
	symJSON, err := json.Marshal(symbolNames)
	if err != nil {
		return fmt.Errorf("chtl: marshaling symbol summary for session store: %w", err)
	}
	rec := &SessionRecord{
		FilePath:       filePath,
		SourceSHA1:     SHA1Of(src),
		Success:        success,
		DiagnosticJSON: datatypes.JSON(diagJSON),
		SymbolSummary:  datatypes.JSON(symJSON),
		DurationMillis: durationMillis,
	}
	return s.db.Create(rec).Error
}

// LastResult returns the most recent SessionRecord for path, letting the
// CLI front door report "up to date, no changes" without re-lexing a
// file whose content hash hasn't moved.
func (s *Store) LastResult(path string) (*SessionRecord, bool) {
	var rec SessionRecord
	err := s.db.Where("file_path = ?", path).Order("created_at desc").First(&rec).Error
	if err != nil {
		return nil, false
	}
	return &rec, true
}

// History returns every session recorded for path, newest first.
func (s *Store) History(path string, limit int) ([]SessionRecord, error) {
	var recs []SessionRecord
	q := s.db.Where("file_path = ?", path).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
