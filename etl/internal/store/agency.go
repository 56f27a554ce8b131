package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/ecfr/dbopen"
)

// InsertAgency upserts one agency row keyed by agency_id. A colliding id
// updates the prior row in place; slug uniqueness is still enforced, so two
// different agencies sharing a slug fail loudly instead of merging silently.
//
// Because ids are positional per run, upsert-by-id is only meaningful within
// one coherent run's batch. Use ReplaceAgencies for a full pipeline load.
func (s *Store) InsertAgency(ctx context.Context, a *Agency) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		return insertAgencyTx(tx, a)
	})
}

func insertAgencyTx(tx *sql.Tx, a *Agency) error {
	_, err := tx.Exec(`
		INSERT INTO agencies
			(agency_id, name, short_name, display_name, sortable_name, slug, parent_id)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(agency_id) DO UPDATE SET
			name = excluded.name,
			short_name = excluded.short_name,
			display_name = excluded.display_name,
			sortable_name = excluded.sortable_name,
			slug = excluded.slug,
			parent_id = excluded.parent_id`,
		a.AgencyID, a.Name, a.ShortName, a.DisplayName, a.SortableName, a.Slug, a.ParentID)
	if err != nil {
		return fmt.Errorf("insert agency %d (%s): %w", a.AgencyID, a.Slug, err)
	}
	return nil
}

// InsertCfrReference appends one reference row owned by agencyID. The agency
// row must already exist; otherwise ErrForeignKey is returned.
func (s *Store) InsertCfrReference(ctx context.Context, agencyID int64, ref CfrReference) error {
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		return insertReferenceTx(tx, agencyID, ref)
	})
	if dbopen.IsForeignKey(err) {
		return fmt.Errorf("%w: agency %d does not exist", ErrForeignKey, agencyID)
	}
	return err
}

func insertReferenceTx(tx *sql.Tx, agencyID int64, ref CfrReference) error {
	_, err := tx.Exec(`
		INSERT INTO cfr_references (agency_id, title, chapter, part)
		VALUES (?,?,?,?)`,
		agencyID, ref.Title, ref.Chapter, ref.Part)
	if err != nil {
		return fmt.Errorf("insert reference for agency %d: %w", agencyID, err)
	}
	return nil
}

// ReplaceAgencies loads one run's complete agency batch in a single
// transaction: existing references and agencies are deleted, then each
// agency is inserted followed by its own references, in batch order.
// Positional ids from a previous run can therefore never collide with
// unrelated agencies from this one.
func (s *Store) ReplaceAgencies(ctx context.Context, batch []Agency) error {
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		// References first: they hold the foreign key.
		if _, err := tx.Exec(`DELETE FROM cfr_references`); err != nil {
			return fmt.Errorf("clear references: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM agencies`); err != nil {
			return fmt.Errorf("clear agencies: %w", err)
		}
		for i := range batch {
			a := &batch[i]
			if err := insertAgencyTx(tx, a); err != nil {
				return err
			}
			for _, ref := range a.References {
				if err := insertReferenceTx(tx, a.AgencyID, ref); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if dbopen.IsForeignKey(err) {
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	}
	return err
}

// Agencies returns all agency rows ordered by agency_id.
func (s *Store) Agencies(ctx context.Context) ([]Agency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agency_id, name, short_name, display_name, sortable_name, slug, parent_id
		FROM agencies ORDER BY agency_id`)
	if err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	defer rows.Close()

	var out []Agency
	for rows.Next() {
		var a Agency
		if err := rows.Scan(&a.AgencyID, &a.Name, &a.ShortName, &a.DisplayName,
			&a.SortableName, &a.Slug, &a.ParentID); err != nil {
			return nil, fmt.Errorf("scan agency: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// References returns all reference rows ordered by reference_id.
func (s *Store) References(ctx context.Context) ([]CfrReference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reference_id, agency_id, title, chapter, part
		FROM cfr_references ORDER BY reference_id`)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer rows.Close()

	var out []CfrReference
	for rows.Next() {
		var r CfrReference
		if err := rows.Scan(&r.ReferenceID, &r.AgencyID, &r.Title, &r.Chapter, &r.Part); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
