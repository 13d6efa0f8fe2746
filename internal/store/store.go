package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Also registers the database driver
)

var (
	// ErrConflict is returned when an identifier is already taken.
	ErrConflict = errors.New("identifier already exists")
	// ErrNotFound is returned when a podcast or episode does not exist.
	ErrNotFound = errors.New("not found")
)

// Store provides access to podcasts and episodes. It is safe for use by the
// web server and the watcher at the same time: every operation runs in its
// own short-lived transaction.
type Store struct {
	db *sqlx.DB
}

// New wraps an existing database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Connect opens and pings a Postgres connection.
func Connect(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db), nil
}

// inTx runs fn in a transaction. The transaction is committed when fn
// returns nil and rolled back on any error, so no connection leaks on
// failure paths.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// translate maps driver-level errors onto the store's error taxonomy.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrConflict
		case "23503": // foreign_key_violation
			return ErrNotFound
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
