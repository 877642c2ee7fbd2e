package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/saadjs/points-cli/internal/app"
	"github.com/saadjs/points-cli/internal/db"
	"github.com/saadjs/points-cli/internal/model"
)

const SettingsKey = "user"

// Error is returned by every store operation that touches the database.
type Error struct {
	Op         string
	Collection string
	Key        string
	Err        error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %s[%s]: %v", e.Op, e.Collection, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var ErrClosed = errors.New("store is closed")

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db   *sql.DB
	path string

	Settings *Collection[model.Settings]
	Logs     *Collection[model.DayLog]
	Weight   *Collection[model.WeightEntry]
	Cache    *Collection[model.CacheEntry]
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := app.EnsureDBDir(path); err != nil {
		return nil, err
	}
	sqldb, err := db.OpenContext(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrationsContext(ctx, sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	s := newStore(sqldb, sqldb)
	s.path = path
	return s, nil
}

func newStore(sqldb *sql.DB, q querier) *Store {
	return &Store{
		db:       sqldb,
		Settings: &Collection[model.Settings]{q: q, name: "settings"},
		Logs:     &Collection[model.DayLog]{q: q, name: "logs"},
		Weight:   &Collection[model.WeightEntry]{q: q, name: "weight"},
		Cache:    &Collection[model.CacheEntry]{q: q, name: "cache"},
	}
}

func (s *Store) Path() string { return s.path }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return &Error{Op: "close", Collection: "*", Err: err}
	}
	return nil
}

// WithTx runs fn against a Store view whose collections share one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return &Error{Op: "begin", Collection: "*", Err: ErrClosed}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "begin", Collection: "*", Err: err}
	}
	view := newStore(s.db, tx)
	view.path = s.path
	if err := fn(view); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &Error{Op: "commit", Collection: "*", Err: err}
	}
	return nil
}

// ClearAll empties all four collections in one transaction.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *Store) error {
		return tx.clearCollections(ctx)
	})
}

func (s *Store) clearCollections(ctx context.Context) error {
	if err := s.Settings.Clear(ctx); err != nil {
		return err
	}
	if err := s.Logs.Clear(ctx); err != nil {
		return err
	}
	if err := s.Weight.Clear(ctx); err != nil {
		return err
	}
	return s.Cache.Clear(ctx)
}

type Stats struct {
	SchemaVersion int
	Settings      int
	Logs          int
	Weight        int
	Cache         int
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if s.db == nil {
		return st, &Error{Op: "stats", Collection: "*", Err: ErrClosed}
	}
	if st.SchemaVersion, err = db.SchemaVersion(ctx, s.db); err != nil {
		return st, err
	}
	if st.Settings, err = s.Settings.Count(ctx); err != nil {
		return st, err
	}
	if st.Logs, err = s.Logs.Count(ctx); err != nil {
		return st, err
	}
	if st.Weight, err = s.Weight.Count(ctx); err != nil {
		return st, err
	}
	if st.Cache, err = s.Cache.Count(ctx); err != nil {
		return st, err
	}
	return st, nil
}
