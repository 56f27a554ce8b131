package etl

import (
	"github.com/hazyhaar/ecfr/etl/internal/fetch"
	"github.com/hazyhaar/ecfr/etl/internal/store"
	"github.com/hazyhaar/ecfr/etl/internal/transform"
)

// The ETL core fails with exactly one of these typed errors per operation;
// none are caught and downgraded to a continue-with-partial-data state.
// Classify with errors.Is.
var (
	// ErrUnsupportedService: a service tag other than admin or versioner.
	ErrUnsupportedService = fetch.ErrUnsupportedService

	// ErrMissingParameter: versioner requested without date and title.
	ErrMissingParameter = fetch.ErrMissingParameter

	// ErrExtraction: transport failure, non-success status, or bad body.
	ErrExtraction = fetch.ErrExtraction

	// ErrParse: versioner payload is not well-formed XML.
	ErrParse = transform.ErrParse

	// ErrMissingField: an agency record lacked a required field.
	ErrMissingField = transform.ErrMissingField

	// ErrForeignKey: a reference row inserted before its owning agency.
	ErrForeignKey = store.ErrForeignKey

	// ErrSchema: the database could not be opened or migrated.
	ErrSchema = store.ErrSchema
)
