// Package transform converts raw extraction payloads into normalized row
// records: the admin agency tree flattens into agency rows with positional
// ids and parent links, and the versioner XML document flattens into one row
// per leaf section.
package transform

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/ecfr/etl/internal/fetch"
	"github.com/hazyhaar/ecfr/etl/internal/store"
)

// ErrMissingField indicates an agency record lacked a required field.
var ErrMissingField = errors.New("transform: missing required field")

// ErrParse indicates the versioner payload is not well-formed XML.
var ErrParse = errors.New("transform: malformed XML")

var whitespace = regexp.MustCompile(`\s+`)

// CleanText collapses all whitespace runs to a single space and trims the
// result. Idempotent; the empty string maps to itself.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Result holds the rows produced by one transform call. Exactly one of the
// two slices is populated, depending on the service.
type Result struct {
	Agencies []store.Agency
	Sections []store.Section
}

// Apply converts a raw payload into row records, dispatching on service.
func Apply(service string, p *fetch.Payload) (*Result, error) {
	switch service {
	case fetch.ServiceAdmin:
		rows, err := Agencies(p.Agencies)
		if err != nil {
			return nil, err
		}
		return &Result{Agencies: rows}, nil
	case fetch.ServiceVersioner:
		rows, err := Sections(p.XML)
		if err != nil {
			return nil, err
		}
		return &Result{Sections: rows}, nil
	default:
		return nil, fmt.Errorf("%w: %q", fetch.ErrUnsupportedService, service)
	}
}
