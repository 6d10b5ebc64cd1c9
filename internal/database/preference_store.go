package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/belphemur/canteen-menu/internal/logging"
)

// PreferenceStore is the persisted key-value store for viewer preferences
// (theme, last seen menu date).
type PreferenceStore struct {
	db     *DB
	logger zerolog.Logger
}

// NewPreferenceStore creates a new preference store
func NewPreferenceStore(db *DB) *PreferenceStore {
	return &PreferenceStore{db: db, logger: logging.GetLogger("preference-store")}
}

// Get returns the stored value for key. found is false when the key was never written.
func (s *PreferenceStore) Get(ctx context.Context, key string) (value string, found bool, err error) {
	err = s.db.conn.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes value for key, replacing any previous value
func (s *PreferenceStore) Set(ctx context.Context, key, value string) error {
	s.logger.Debug().Str("key", key).Str("value", value).Msg("Saving preference")
	if _, err := s.db.conn.ExecContext(ctx, upsertPreference, key, value); err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

// Swap stores value for key and returns what was stored before.
// When the previous value already equals value nothing is written.
func (s *PreferenceStore) Swap(ctx context.Context, key, value string) (previous string, found bool, err error) {
	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		scanErr := tx.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&previous)
		switch {
		case errors.Is(scanErr, sql.ErrNoRows):
			found = false
		case scanErr != nil:
			return fmt.Errorf("failed to read preference %s: %w", key, scanErr)
		default:
			found = true
		}

		if found && previous == value {
			return nil
		}
		if _, execErr := tx.ExecContext(ctx, upsertPreference, key, value); execErr != nil {
			return fmt.Errorf("failed to save preference %s: %w", key, execErr)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return previous, found, nil
}

const upsertPreference = `
INSERT INTO preferences (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
