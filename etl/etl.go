// Package etl ingests US federal regulatory data from the public eCFR API
// and persists it into SQLite for downstream analytics.
//
// Two upstream services feed the pipeline: the admin service (agency
// directory, JSON) and the versioner service (point-in-time regulatory text
// for one title on one date, XML). Each run composes
// config → extract → transform → load; control flows top-down and every
// step either succeeds or fails with a typed error (see errors.go).
//
// Usage:
//
//	svc, err := etl.New(etl.DefaultConfig(), nil)
//	err = svc.Run(ctx, "2024-01-01", "1")
package etl

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/ecfr/etl/internal/fetch"
	"github.com/hazyhaar/ecfr/etl/internal/store"
	"github.com/hazyhaar/ecfr/etl/internal/transform"
)

// Row types persisted by the pipeline, re-exported for consumers.
type (
	Agency        = store.Agency
	CfrReference  = store.CfrReference
	Section       = store.Section
	FetchLogEntry = store.FetchLogEntry
	Stats         = store.Stats
)

// ServiceConfig is the immutable parameter bundle for one extraction call.
type ServiceConfig = fetch.ServiceConfig

// Supported upstream service tags.
const (
	ServiceAdmin     = fetch.ServiceAdmin
	ServiceVersioner = fetch.ServiceVersioner
)

// NewServiceConfig builds the parameter bundle for service.
func NewServiceConfig(service string, p fetch.Params) (ServiceConfig, error) {
	return fetch.NewServiceConfig(service, p)
}

// CleanText collapses whitespace runs to single spaces and trims.
func CleanText(s string) string { return transform.CleanText(s) }

// Service is the ETL orchestrator. One Service owns one store connection;
// runs are synchronous and sequential. Concurrent runs against the same
// store are not coordinated.
type Service struct {
	cfg     *Config
	fetcher *fetch.Fetcher
	store   *store.Store
	logger  *slog.Logger
}

// New opens the store at cfg.DBPath (creating schema as needed) and returns
// a ready Service. A nil logger falls back to slog.Default().
func New(cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("etl: config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:     cfg,
		fetcher: fetch.New(cfg.fetchConfig()),
		store:   st,
		logger:  logger,
	}, nil
}

// Close closes the underlying store.
func (s *Service) Close() error { return s.store.Close() }

// Run executes one full pipeline run: the admin track (agency directory,
// replace-on-run), then the versioner track for (date, title). Fail-fast:
// an error in any step aborts the remaining steps of the run.
func (s *Service) Run(ctx context.Context, date, title string) error {
	if err := s.RunAdmin(ctx); err != nil {
		return err
	}
	return s.RunVersioner(ctx, date, title)
}

// RunAdmin executes the admin track: fetch the agency directory, flatten it
// into rows, and replace-load agencies and their references in one
// transaction (agency before its references, per batch order).
func (s *Service) RunAdmin(ctx context.Context) error {
	sc, err := fetch.NewServiceConfig(fetch.ServiceAdmin, fetch.Params{BaseURL: s.cfg.BaseURL})
	if err != nil {
		return err
	}

	payload, err := s.fetcher.Extract(ctx, sc)
	s.logFetch(ctx, payload, err)
	if err != nil {
		return err
	}

	res, err := transform.Apply(fetch.ServiceAdmin, payload)
	if err != nil {
		return err
	}

	if err := s.store.ReplaceAgencies(ctx, res.Agencies); err != nil {
		return err
	}
	s.logger.Info("admin track loaded", "agencies", len(res.Agencies))
	return nil
}

// RunVersioner executes the versioner track for one (date, title): fetch
// the full title XML, flatten it into section rows, and append them in one
// transaction. Append-only: re-running the same (date, title) without
// clearing the table duplicates section rows.
func (s *Service) RunVersioner(ctx context.Context, date, title string) error {
	sc, err := fetch.NewServiceConfig(fetch.ServiceVersioner, fetch.Params{
		BaseURL: s.cfg.BaseURL,
		Date:    date,
		Title:   title,
	})
	if err != nil {
		return err
	}

	payload, err := s.fetcher.Extract(ctx, sc)
	s.logFetch(ctx, payload, err)
	if err != nil {
		return err
	}

	res, err := transform.Apply(fetch.ServiceVersioner, payload)
	if err != nil {
		return err
	}

	if err := s.store.InsertSections(ctx, res.Sections); err != nil {
		return err
	}
	s.logger.Info("versioner track loaded",
		"title", title, "date", date, "sections", len(res.Sections))
	return nil
}

// SyncAll runs the admin track once, then the versioner track for every
// title in the configured range, using each title's latest amendment date
// from the versioner title index. A failed title is logged and skipped; the
// remaining titles proceed. Returns an error summarizing any failures.
func (s *Service) SyncAll(ctx context.Context) error {
	if err := s.RunAdmin(ctx); err != nil {
		return err
	}

	index, err := s.fetcher.Titles(ctx, s.cfg.BaseURL)
	if err != nil {
		return err
	}
	byNumber := make(map[int]fetch.TitleInfo, len(index.Titles))
	for _, t := range index.Titles {
		byNumber[t.Number] = t
	}

	var failed int
	for n := s.cfg.Titles.From; n <= s.cfg.Titles.To; n++ {
		if !s.cfg.Titles.Includes(n) {
			s.logger.Info("title skipped by configuration", "title", n)
			continue
		}
		info, ok := byNumber[n]
		if !ok || info.Reserved {
			s.logger.Info("title absent or reserved upstream", "title", n)
			continue
		}
		date := info.LatestAmendedOn
		if date == "" {
			date = info.LatestIssueDate
		}
		if date == "" {
			s.logger.Warn("title has no usable date, skipping", "title", n)
			continue
		}

		if err := s.RunVersioner(ctx, date, strconv.Itoa(n)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("title sync failed", "title", n, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("etl: sync: %d title(s) failed", failed)
	}
	return nil
}

func (s *Service) logFetch(ctx context.Context, p *fetch.Payload, err error) {
	if p == nil {
		return
	}
	e := store.FetchLogEntry{
		Service:    p.Service,
		URL:        p.URL,
		Status:     "ok",
		StatusCode: p.StatusCode,
		DurationMs: p.Elapsed.Milliseconds(),
	}
	if err != nil {
		e.Status = "error"
		e.ErrorMessage = err.Error()
	}
	s.store.LogFetch(ctx, e)
}

// Read-side operations for downstream consumers. The dashboard and any
// other reader work from these; the core provides no richer query surface.

// Agencies returns all agency rows ordered by agency_id.
func (s *Service) Agencies(ctx context.Context) ([]Agency, error) {
	return s.store.Agencies(ctx)
}

// References returns all reference rows.
func (s *Service) References(ctx context.Context) ([]CfrReference, error) {
	return s.store.References(ctx)
}

// Sections returns section rows, optionally restricted to one title number.
func (s *Service) Sections(ctx context.Context, titleNumber string) ([]Section, error) {
	return s.store.Sections(ctx, titleNumber)
}

// SectionsForAgency resolves the deferred string-matched join between one
// agency's references and the section table. Blank chapter/part on a
// reference match any section under the referenced title.
func (s *Service) SectionsForAgency(ctx context.Context, agencyID int64) ([]Section, error) {
	return s.store.SectionsForAgency(ctx, agencyID)
}

// Stats returns row counts for the three core tables.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

// RecentFetches returns the most recent upstream fetch attempts.
func (s *Service) RecentFetches(ctx context.Context, limit int) ([]FetchLogEntry, error) {
	return s.store.RecentFetches(ctx, limit)
}
