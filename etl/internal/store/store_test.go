package store_test

import (
	"context"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/ecfr/dbopen"
	"github.com/hazyhaar/ecfr/etl/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema))
	return store.New(db)
}

func agencyFixture(id int64, slug string) *store.Agency {
	return &store.Agency{
		AgencyID:     id,
		Name:         "Agency " + slug,
		ShortName:    slug,
		DisplayName:  slug,
		SortableName: slug,
		Slug:         slug,
	}
}

func TestInsertAgencyUpsert(t *testing.T) {
	// WHAT: Re-inserting the same agency_id with changed fields overwrites
	// the prior row in place; row count stays at one.
	// WHY: Upsert-by-id is the documented loader contract within one run.
	s := openStore(t)
	ctx := context.Background()

	a := agencyFixture(1, "doe")
	if err := s.InsertAgency(ctx, a); err != nil {
		t.Fatalf("insert: %v", err)
	}

	a.Name = "Department Of Everything"
	if err := s.InsertAgency(ctx, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := s.Agencies(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Name != "Department Of Everything" {
		t.Errorf("Name = %q, want updated value", rows[0].Name)
	}
}

func TestInsertAgencyDuplicateSlug(t *testing.T) {
	// Two different ids sharing a slug must fail loudly, not merge.
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertAgency(ctx, agencyFixture(1, "doe")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.InsertAgency(ctx, agencyFixture(2, "doe"))
	if err == nil {
		t.Fatal("duplicate slug should fail")
	}
	if !dbopen.IsUniqueViolation(err) {
		t.Errorf("err = %v, want unique violation", err)
	}
}

func TestInsertCfrReferenceForeignKey(t *testing.T) {
	// WHAT: A reference whose agency does not exist fails with ErrForeignKey;
	// the same insert succeeds once the agency row is present.
	// WHY: The agency-before-reference ordering dependency is enforced, not
	// advisory.
	s := openStore(t)
	ctx := context.Background()
	ref := store.CfrReference{Title: "1", Chapter: "I"}

	err := s.InsertCfrReference(ctx, 7, ref)
	if !errors.Is(err, store.ErrForeignKey) {
		t.Fatalf("err = %v, want ErrForeignKey", err)
	}

	if err := s.InsertAgency(ctx, agencyFixture(7, "seven")); err != nil {
		t.Fatalf("insert agency: %v", err)
	}
	if err := s.InsertCfrReference(ctx, 7, ref); err != nil {
		t.Fatalf("insert reference after agency: %v", err)
	}

	refs, err := s.References(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 1 || refs[0].AgencyID != 7 {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestReplaceAgencies(t *testing.T) {
	// WHAT: ReplaceAgencies fully supersedes the previous run's agencies and
	// references in one transaction.
	// WHY: Positional ids are not stable across runs; merge-on-id would let
	// one run's ids corrupt another run's unrelated agencies.
	s := openStore(t)
	ctx := context.Background()

	first := []store.Agency{
		withRefs(agencyFixture(1, "old-dept"), store.CfrReference{Title: "9"}),
		*agencyFixture(2, "old-office"),
	}
	if err := s.ReplaceAgencies(ctx, first); err != nil {
		t.Fatalf("first load: %v", err)
	}

	second := []store.Agency{
		withRefs(agencyFixture(1, "new-dept"), store.CfrReference{Title: "1", Chapter: "I"}),
	}
	if err := s.ReplaceAgencies(ctx, second); err != nil {
		t.Fatalf("second load: %v", err)
	}

	rows, err := s.Agencies(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Slug != "new-dept" {
		t.Fatalf("rows = %+v, want only new-dept", rows)
	}

	refs, err := s.References(ctx)
	if err != nil {
		t.Fatalf("list refs: %v", err)
	}
	if len(refs) != 1 || refs[0].Title != "1" {
		t.Fatalf("refs = %+v, want only the new run's reference", refs)
	}
}

func withRefs(a *store.Agency, refs ...store.CfrReference) store.Agency {
	a.References = refs
	return *a
}

func TestInsertSectionAppendOnly(t *testing.T) {
	// Sections always append with fresh surrogate ids; identical rows are
	// never deduplicated.
	s := openStore(t)
	ctx := context.Background()

	sec := store.Section{TitleNumber: "1", SectionNumber: "1.1", Body: "text"}
	if err := s.InsertSection(ctx, &sec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	firstID := sec.SectionID
	if firstID == 0 {
		t.Fatal("section_id not assigned")
	}

	dup := store.Section{TitleNumber: "1", SectionNumber: "1.1", Body: "text"}
	if err := s.InsertSection(ctx, &dup); err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}
	if dup.SectionID == firstID {
		t.Error("duplicate should get a new surrogate id")
	}

	rows, err := s.Sections(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (append-only)", len(rows))
	}
}

func TestSectionsTitleFilter(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	batch := []store.Section{
		{TitleNumber: "1", SectionNumber: "1.1"},
		{TitleNumber: "2", SectionNumber: "2.1"},
		{TitleNumber: "1", SectionNumber: "1.2"},
	}
	if err := s.InsertSections(ctx, batch); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := s.Sections(ctx, "1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}

func TestSectionsForAgency(t *testing.T) {
	// WHAT: The deferred join matches on title, with blank chapter/part on
	// the reference side acting as wildcards.
	// WHY: Sections carry no foreign key; this is the documented read-time
	// association.
	s := openStore(t)
	ctx := context.Background()

	batch := []store.Agency{
		withRefs(agencyFixture(1, "doe"), store.CfrReference{Title: "1", Chapter: "I"}),
		withRefs(agencyFixture(2, "narrow"), store.CfrReference{Title: "1", Chapter: "I", Part: "10"}),
		withRefs(agencyFixture(3, "other"), store.CfrReference{Title: "2"}),
	}
	if err := s.ReplaceAgencies(ctx, batch); err != nil {
		t.Fatalf("load agencies: %v", err)
	}

	sections := []store.Section{
		{TitleNumber: "1", ChapterNumber: "I", PartNumber: "10", SectionNumber: "10.1"},
		{TitleNumber: "1", ChapterNumber: "I", PartNumber: "20", SectionNumber: "20.1"},
		{TitleNumber: "1", ChapterNumber: "II", PartNumber: "30", SectionNumber: "30.1"},
		{TitleNumber: "2", ChapterNumber: "I", PartNumber: "40", SectionNumber: "40.1"},
	}
	if err := s.InsertSections(ctx, sections); err != nil {
		t.Fatalf("load sections: %v", err)
	}

	// Blank part on the reference matches any part within chapter I.
	got, err := s.SectionsForAgency(ctx, 1)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("agency 1 sections = %d, want 2", len(got))
	}

	// A fully specified reference matches only its exact part.
	got, err = s.SectionsForAgency(ctx, 2)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(got) != 1 || got[0].SectionNumber != "10.1" {
		t.Fatalf("agency 2 sections = %+v", got)
	}

	// Title-only reference matches everything under that title.
	got, err = s.SectionsForAgency(ctx, 3)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(got) != 1 || got[0].SectionNumber != "40.1" {
		t.Fatalf("agency 3 sections = %+v", got)
	}
}

func TestStatsAndFetchLog(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertAgency(ctx, agencyFixture(1, "doe")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.LogFetch(ctx, store.FetchLogEntry{Service: "admin", URL: "http://x", Status: "ok", StatusCode: 200})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Agencies != 1 || st.References != 0 || st.Sections != 0 {
		t.Errorf("stats = %+v", st)
	}

	log, err := s.RecentFetches(ctx, 10)
	if err != nil {
		t.Fatalf("fetch log: %v", err)
	}
	if len(log) != 1 || log[0].Service != "admin" || log[0].ID == "" {
		t.Errorf("log = %+v", log)
	}
}
