package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sells-group/lead-finder/internal/enrich"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q model.Query
	if !decode(w, r, &q) {
		return
	}
	q.Text = strings.TrimSpace(q.Text)
	q.Domain = strings.TrimSpace(q.Domain)
	if q.Text == "" && q.Domain == "" {
		writeError(w, http.StatusBadRequest, "query or domain is required")
		return
	}
	if !s.checkLimit(w, q.Limit) {
		return
	}

	res, err := s.deps.Finder.Search(r.Context(), q)
	if err != nil {
		internalError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// checkLimit writes a 400 and reports false when limit is negative or above
// the configured maximum. Zero means the finder default.
func (s *Server) checkLimit(w http.ResponseWriter, limit int) bool {
	switch {
	case limit < 0:
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return false
	case limit > s.opts.MaxLimit:
		writeError(w, http.StatusBadRequest, "limit too large (max "+strconv.Itoa(s.opts.MaxLimit)+")")
		return false
	}
	return true
}

type bulkRequest struct {
	Domains []string      `json:"domains"`
	Filters model.Filters `json:"filters"`
	Limit   int           `json:"limit,omitempty"`
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Domains) == 0 {
		writeError(w, http.StatusBadRequest, "domains are required")
		return
	}
	if len(req.Domains) > s.opts.MaxBulkDomains {
		writeError(w, http.StatusBadRequest, "too many domains (max "+strconv.Itoa(s.opts.MaxBulkDomains)+")")
		return
	}
	if !s.checkLimit(w, req.Limit) {
		return
	}

	opts := s.opts.Bulk
	opts.Filters = req.Filters
	opts.Limit = req.Limit
	res, err := s.deps.Finder.SearchDomains(r.Context(), req.Domains, opts)
	if err != nil {
		internalError(w, r, "bulk search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type enrichRequest struct {
	IDs       []string     `json:"ids,omitempty"`
	Leads     []model.Lead `json:"leads,omitempty"`
	Threshold string       `json:"threshold,omitempty"`
}

type enrichResponse struct {
	*enrich.Result
	Saved    int               `json:"saved"`
	Rejected []store.Rejection `json:"rejected,omitempty"`
	Missing  []string          `json:"missing,omitempty"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 && len(req.Leads) == 0 {
		writeError(w, http.StatusBadRequest, "ids or leads are required")
		return
	}

	th := s.opts.DefaultThreshold
	if req.Threshold != "" {
		parsed, err := enrich.ParseThreshold(req.Threshold)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		th = parsed
	}

	leads := req.Leads
	var missing []string
	if len(req.IDs) > 0 {
		stored, err := s.deps.Gateway.Get(r.Context(), req.IDs)
		if err != nil {
			internalError(w, r, "load leads", err)
			return
		}
		missing = missingIDs(req.IDs, stored)
		leads = append(stored, leads...)
	}
	if len(leads) == 0 {
		writeError(w, http.StatusNotFound, "no leads found for the given ids")
		return
	}

	res, err := s.deps.Enricher.Enrich(r.Context(), leads, th)
	if err != nil {
		internalError(w, r, "enrich", err)
		return
	}

	saved, err := s.deps.Gateway.Save(r.Context(), res.Leads)
	if err != nil {
		internalError(w, r, "save enriched leads", err)
		return
	}
	res.Leads = saved.Saved
	writeJSON(w, http.StatusOK, enrichResponse{
		Result:   res,
		Saved:    len(saved.Saved),
		Rejected: saved.Rejected,
		Missing:  missing,
	})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.SearchOptions{
		Text:             strings.TrimSpace(q.Get("q")),
		ExcludeSynthetic: q.Get("synthetic") != "true",
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}

	leads, err := s.deps.Gateway.Search(r.Context(), opts)
	if err != nil {
		internalError(w, r, "list leads", err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

func missingIDs(want []string, got []model.Lead) []string {
	found := make(map[string]bool, len(got))
	for _, l := range got {
		found[l.ID] = true
	}
	var missing []string
	for _, id := range want {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
