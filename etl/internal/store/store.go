// Package store is the data access layer for the CFR database.
//
// It owns the three core tables (agencies, cfr_references, cfr_sections)
// plus the fetch log, creates them on open, and wraps every write in a
// scoped transaction with commit-or-rollback on all exit paths.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazyhaar/ecfr/dbopen"
	"github.com/hazyhaar/ecfr/idgen"
)

// ErrSchema indicates the database could not be opened or migrated.
var ErrSchema = errors.New("store: database unavailable")

// ErrForeignKey indicates a row referenced an agency_id that does not exist.
// The owning agency must be inserted before its references.
var ErrForeignKey = errors.New("store: foreign key violation")

// Store wraps the SQLite database for CFR data.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets a custom ID generator for fetch log rows.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// Open opens (or creates) the CFR database at path and applies the schema.
// Parent directories are created as needed.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return New(db, opts...), nil
}

// New creates a Store from an already-opened database. The caller is
// responsible for having applied Schema (dbopen.WithSchema(store.Schema)).
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		newID: idgen.Prefixed("fetch_", idgen.Default),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Stats returns row counts for the three core tables.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	rows := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM agencies", &st.Agencies},
		{"SELECT COUNT(*) FROM cfr_references", &st.References},
		{"SELECT COUNT(*) FROM cfr_sections", &st.Sections},
	}
	for _, r := range rows {
		if err := s.db.QueryRowContext(ctx, r.query).Scan(r.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}
	return st, nil
}
