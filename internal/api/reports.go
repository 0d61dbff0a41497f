package api

import (
	"fmt"
	"net/http"
	"time"

	"account-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
)

// parseDate reads a YYYY-MM-DD query value in the statement time zone
func (s *Server) parseDate(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", store.ErrValidation, name)
	}
	date, err := time.ParseInLocation(time.DateOnly, raw, s.statements.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD form, got %q", store.ErrValidation, name, raw)
	}
	return date, nil
}

// dateWindow turns two calendar dates into the inclusive instant range they cover
func (s *Server) dateWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, err := s.parseDate("from", fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := s.parseDate("to", toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s.statements.Window(from, to)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, err := s.parseDate("startDate", query.Get("startDate"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := s.parseDate("endDate", query.Get("endDate"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	statements, err := s.statements.Generate(r.Context(), chi.URLParam(r, "customerId"), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Report generated successfully", statements)
}
