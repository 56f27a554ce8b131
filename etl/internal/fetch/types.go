package fetch

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the raw result of one extraction call: decoded JSON for the
// admin service, raw XML bytes for the versioner service, plus transport
// details for the fetch log.
type Payload struct {
	Service    string
	URL        string
	StatusCode int
	Elapsed    time.Duration

	Agencies *AgenciesResponse // admin only
	XML      []byte            // versioner only
}

// AgenciesResponse is the admin agency directory as served upstream.
type AgenciesResponse struct {
	Agencies []AgencyNode `json:"agencies"`
}

// AgencyNode is one agency in the upstream tree. Children are at most one
// level deep (no grandchildren).
type AgencyNode struct {
	Name          string          `json:"name"`
	ShortName     string          `json:"short_name"`
	DisplayName   string          `json:"display_name"`
	SortableName  string          `json:"sortable_name"`
	Slug          string          `json:"slug"`
	CfrReferences []ReferenceNode `json:"cfr_references"`
	Children      []AgencyNode    `json:"children"`
}

// ReferenceNode is one title/chapter/part claim. The upstream API mixes
// numbers, strings, and nulls in these fields, so all three decode through
// flexString into plain text.
type ReferenceNode struct {
	Title   flexString `json:"title"`
	Chapter flexString `json:"chapter"`
	Part    flexString `json:"part"`
}

// TitlesResponse is the versioner title index used by the orchestrator to
// pick the point-in-time date per title.
type TitlesResponse struct {
	Titles []TitleInfo `json:"titles"`
}

// TitleInfo describes one CFR title in the upstream index.
type TitleInfo struct {
	Number          int    `json:"number"`
	Name            string `json:"name"`
	LatestAmendedOn string `json:"latest_amended_on"`
	LatestIssueDate string `json:"latest_issue_date"`
	Reserved        bool   `json:"reserved"`
}

// flexString decodes a JSON string, number, or null as a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flexString: %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }
