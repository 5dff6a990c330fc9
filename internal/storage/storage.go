// Package storage persists diagnosis history for the history backend.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/medtriage/internal/models"
)

// ErrInvalidRecord is returned when a record lacks a username or diagnosis.
var ErrInvalidRecord = errors.New("invalid history record")

// HistoryStore defines history persistence operations.
type HistoryStore interface {
	AddRecord(ctx context.Context, rec *models.HistoryRecord) error
	// ListByUsername returns the user's records, newest first. limit <= 0 returns all of them.
	ListByUsername(ctx context.Context, username string, limit int) ([]*models.HistoryRecord, error)
	Count(ctx context.Context, username string) (int64, error)

	Close() error
}
