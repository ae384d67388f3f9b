// Package sqlite provides the SQLite-backed procurement store.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/clearbid/tenderspace/internal/platform/storage/sqlitemigrate"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for the procurement workflow.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a procurement SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

func ensureForeignKeysEnabled(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite db is required")
	}
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}

func marshalTeam(team []domain.TeamMember) (string, error) {
	data, err := json.Marshal(team)
	if err != nil {
		return "", fmt.Errorf("marshal team: %w", err)
	}
	return string(data), nil
}

func unmarshalTeam(raw string) ([]domain.TeamMember, error) {
	var team []domain.TeamMember
	if err := json.Unmarshal([]byte(raw), &team); err != nil {
		return nil, fmt.Errorf("unmarshal team: %w", err)
	}
	return team, nil
}

func marshalAssessment(assessment *domain.Assessment) (sql.NullString, error) {
	if assessment == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(assessment)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal assessment: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalAssessment(raw sql.NullString) (*domain.Assessment, error) {
	if !raw.Valid {
		return nil, nil
	}
	var assessment domain.Assessment
	if err := json.Unmarshal([]byte(raw.String), &assessment); err != nil {
		return nil, fmt.Errorf("unmarshal assessment: %w", err)
	}
	return &assessment, nil
}
