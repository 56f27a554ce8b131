package store

import (
	"context"
	"fmt"
)

// SectionsForAgency resolves the deferred join between sections and one
// agency's cfr_references. Sections carry no foreign key to agencies; the
// association is recomputed here by string matching, with a blank chapter
// or part on the reference side treated as a wildcard. The match is
// necessarily approximate and lives entirely outside the write path.
func (s *Store) SectionsForAgency(ctx context.Context, agencyID int64) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT s.section_id, s.title_number, s.title_head,
		       s.chapter_number, s.chapter_head, s.subchapter_number,
		       s.subchapter_head, s.part_number, s.part_head,
		       s.section_number, s.section_title, s.body
		FROM cfr_sections s
		JOIN cfr_references r
		  ON r.title = s.title_number
		 AND (r.chapter = '' OR r.chapter = s.chapter_number)
		 AND (r.part = '' OR r.part = s.part_number)
		WHERE r.agency_id = ?
		ORDER BY s.section_id`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("sections for agency %d: %w", agencyID, err)
	}
	defer rows.Close()
	return scanSections(rows)
}
