package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/medtriage/internal/models"
)

// SQLiteStore implements HistoryStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		title TEXT,
		diagnosis TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_username_created ON history(username, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// AddRecord inserts rec. A missing ID or CreatedAt is filled in.
func (s *SQLiteStore) AddRecord(ctx context.Context, rec *models.HistoryRecord) error {
	rec.Username = strings.TrimSpace(rec.Username)
	if rec.Username == "" || strings.TrimSpace(rec.Diagnosis) == "" {
		return ErrInvalidRecord
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, username, title, diagnosis, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Username, rec.Title, rec.Diagnosis, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// ListByUsername returns the user's records ordered by created_at descending.
func (s *SQLiteStore) ListByUsername(ctx context.Context, username string, limit int) ([]*models.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, title, diagnosis, created_at
		 FROM history WHERE username = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		strings.TrimSpace(username), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*models.HistoryRecord{}
	for rows.Next() {
		var rec models.HistoryRecord
		var title sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Username, &title, &rec.Diagnosis, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Title = title.String
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Count returns the number of records for username, or for all users when username is empty.
func (s *SQLiteStore) Count(ctx context.Context, username string) (int64, error) {
	var count int64
	var err error
	if username == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE username = ?`, username).Scan(&count)
	}
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
