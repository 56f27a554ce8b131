package etl

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterHTTP mounts the read API on r. This is the downstream consumer
// surface: select-all views of the three tables, the deferred agency→section
// join, and operational introspection. No write path is exposed.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/agencies", s.handleAgencies)
		r.Get("/agencies/{agencyID}/sections", s.handleAgencySections)
		r.Get("/references", s.handleReferences)
		r.Get("/sections", s.handleSections)
		r.Get("/fetches", s.handleFetches)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.serverError(w, "stats", err)
		return
	}
	s.writeJSON(w, stats)
}

func (s *Service) handleAgencies(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Agencies(r.Context())
	if err != nil {
		s.serverError(w, "list agencies", err)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Service) handleAgencySections(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "agencyID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid agency id", http.StatusBadRequest)
		return
	}
	rows, err := s.store.SectionsForAgency(r.Context(), id)
	if err != nil {
		s.serverError(w, "agency sections", err)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Service) handleReferences(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.References(r.Context())
	if err != nil {
		s.serverError(w, "list references", err)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Service) handleSections(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Sections(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		s.serverError(w, "list sections", err)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Service) handleFetches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.store.RecentFetches(r.Context(), limit)
	if err != nil {
		s.serverError(w, "list fetches", err)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Service) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Service) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
