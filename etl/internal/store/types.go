package store

// Agency is one flattened agency or sub-agency row. AgencyID is assigned by
// the transform as a positional counter over one run, not sourced upstream,
// so ids are only coherent within a single run's batch.
type Agency struct {
	AgencyID     int64  `json:"agency_id"`
	Name         string `json:"name"`
	ShortName    string `json:"short_name"`
	DisplayName  string `json:"display_name"`
	SortableName string `json:"sortable_name"`
	Slug         string `json:"slug"`
	ParentID     *int64 `json:"parent_id,omitempty"`

	// References are the agency's cfr_references as collected by the
	// transform. Not a column; persisted to the cfr_references table.
	References []CfrReference `json:"cfr_references,omitempty"`
}

// CfrReference is a claim that an agency regulates a title/chapter/part.
// Chapter and part are frequently blank upstream.
type CfrReference struct {
	ReferenceID int64  `json:"reference_id,omitempty"`
	AgencyID    int64  `json:"agency_id,omitempty"`
	Title       string `json:"title"`
	Chapter     string `json:"chapter"`
	Part        string `json:"part"`
}

// Section is one leaf node of regulatory text with its ancestor labels.
// Absent headings are empty strings, never null.
type Section struct {
	SectionID        int64  `json:"section_id,omitempty"`
	TitleNumber      string `json:"title_number"`
	TitleHead        string `json:"title_head"`
	ChapterNumber    string `json:"chapter_number"`
	ChapterHead      string `json:"chapter_head"`
	SubchapterNumber string `json:"subchapter_number"`
	SubchapterHead   string `json:"subchapter_head"`
	PartNumber       string `json:"part_number"`
	PartHead         string `json:"part_head"`
	SectionNumber    string `json:"section_number"`
	SectionTitle     string `json:"section_title"`
	Body             string `json:"body"`
}

// FetchLogEntry is one upstream fetch attempt record.
type FetchLogEntry struct {
	ID           string `json:"id"`
	Service      string `json:"service"`
	URL          string `json:"url"`
	Status       string `json:"status"`
	StatusCode   int    `json:"status_code"`
	ErrorMessage string `json:"error_message"`
	DurationMs   int64  `json:"duration_ms"`
	FetchedAt    int64  `json:"fetched_at"`
}

// Stats holds aggregate row counts for the three core tables.
type Stats struct {
	Agencies   int `json:"agencies"`
	References int `json:"references"`
	Sections   int `json:"sections"`
}
