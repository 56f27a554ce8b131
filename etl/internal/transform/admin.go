package transform

import (
	"fmt"

	"github.com/hazyhaar/ecfr/etl/internal/fetch"
	"github.com/hazyhaar/ecfr/etl/internal/store"
)

// Agencies flattens the two-level agency tree into a flat list of rows.
//
// Ids are assigned from a counter scoped to this call, starting at 1, in
// strict traversal order: each top-level agency, then all of its children,
// then the next top-level agency. This ordering is an observable contract.
// Children link to their parent by the id recorded for the parent's slug.
// CfrReferences pass through untouched; all other text fields are cleaned.
func Agencies(resp *fetch.AgenciesResponse) ([]store.Agency, error) {
	if resp == nil {
		return nil, nil
	}

	rows := make([]store.Agency, 0, len(resp.Agencies))
	slugToID := make(map[string]int64)
	nextID := int64(1)

	for i := range resp.Agencies {
		node := &resp.Agencies[i]
		row, err := agencyRow(node, fmt.Sprintf("agencies[%d]", i))
		if err != nil {
			return nil, err
		}
		row.AgencyID = nextID
		slugToID[row.Slug] = nextID
		nextID++
		parentSlug := row.Slug
		rows = append(rows, *row)

		for j := range node.Children {
			child := &node.Children[j]
			childRow, err := agencyRow(child, fmt.Sprintf("agencies[%d].children[%d]", i, j))
			if err != nil {
				return nil, err
			}
			childRow.AgencyID = nextID
			parentID := slugToID[parentSlug]
			childRow.ParentID = &parentID
			slugToID[childRow.Slug] = nextID
			nextID++
			rows = append(rows, *childRow)
		}
	}
	return rows, nil
}

func agencyRow(node *fetch.AgencyNode, pos string) (*store.Agency, error) {
	if node.Name == "" {
		return nil, fmt.Errorf("%w: name (%s)", ErrMissingField, pos)
	}
	slug := CleanText(node.Slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: slug (%s)", ErrMissingField, pos)
	}

	refs := make([]store.CfrReference, 0, len(node.CfrReferences))
	for _, r := range node.CfrReferences {
		refs = append(refs, store.CfrReference{
			Title:   r.Title.String(),
			Chapter: r.Chapter.String(),
			Part:    r.Part.String(),
		})
	}

	return &store.Agency{
		Name:         CleanText(node.Name),
		ShortName:    CleanText(node.ShortName),
		DisplayName:  CleanText(node.DisplayName),
		SortableName: CleanText(node.SortableName),
		Slug:         slug,
		References:   refs,
	}, nil
}
