package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/ecfr/dbopen"
)

// InsertSection appends one section row and fills in its new section_id.
// Duplicates are never checked: re-running the versioner track for the same
// (date, title) without ReplaceAgencies-style clearing duplicates rows.
func (s *Store) InsertSection(ctx context.Context, sec *Section) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		return insertSectionTx(tx, sec)
	})
}

// InsertSections appends a batch of section rows in one transaction.
func (s *Store) InsertSections(ctx context.Context, batch []Section) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for i := range batch {
			if err := insertSectionTx(tx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertSectionTx(tx *sql.Tx, sec *Section) error {
	res, err := tx.Exec(`
		INSERT INTO cfr_sections
			(title_number, title_head, chapter_number, chapter_head,
			 subchapter_number, subchapter_head, part_number, part_head,
			 section_number, section_title, body)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sec.TitleNumber, sec.TitleHead, sec.ChapterNumber, sec.ChapterHead,
		sec.SubchapterNumber, sec.SubchapterHead, sec.PartNumber, sec.PartHead,
		sec.SectionNumber, sec.SectionTitle, sec.Body)
	if err != nil {
		return fmt.Errorf("insert section %s: %w", sec.SectionNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("section id: %w", err)
	}
	sec.SectionID = id
	return nil
}

// Sections returns section rows ordered by section_id. A non-empty
// titleNumber restricts the result to one title.
func (s *Store) Sections(ctx context.Context, titleNumber string) ([]Section, error) {
	query := `
		SELECT section_id, title_number, title_head, chapter_number, chapter_head,
		       subchapter_number, subchapter_head, part_number, part_head,
		       section_number, section_title, body
		FROM cfr_sections`
	args := []any{}
	if titleNumber != "" {
		query += ` WHERE title_number = ?`
		args = append(args, titleNumber)
	}
	query += ` ORDER BY section_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()
	return scanSections(rows)
}

func scanSections(rows *sql.Rows) ([]Section, error) {
	var out []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.SectionID, &sec.TitleNumber, &sec.TitleHead,
			&sec.ChapterNumber, &sec.ChapterHead, &sec.SubchapterNumber,
			&sec.SubchapterHead, &sec.PartNumber, &sec.PartHead,
			&sec.SectionNumber, &sec.SectionTitle, &sec.Body); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}
