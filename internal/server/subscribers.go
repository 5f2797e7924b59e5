package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sells-group/lead-finder/internal/importer"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/store"
)

type importResponse struct {
	Summary  *importer.Summary `json:"summary"`
	Saved    int               `json:"saved"`
	Rejected []store.Rejection `json:"rejected,omitempty"`
}

// handleImport accepts a raw CSV body or a multipart form with a "file"
// field. Files named *.xlsx are read as workbooks. The tags and status
// query parameters apply to every row.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	opts := importer.Options{Status: r.URL.Query().Get("status")}
	if tags := r.URL.Query().Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.Tags = append(opts.Tags, t)
			}
		}
	}

	body, name, err := uploadedFile(r)
	if err != nil {
		writeImportError(w, err)
		return
	}
	defer body.Close() //nolint:errcheck

	var (
		summary *importer.Summary
		subs    []model.Subscriber
	)
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		summary, subs, err = importer.ImportXLSX(r.Context(), body, opts)
	} else {
		summary, subs, err = importer.ImportCSV(r.Context(), body, opts)
	}
	if err != nil {
		writeImportError(w, err)
		return
	}

	saved, rejected, err := s.deps.Gateway.SaveSubscribers(r.Context(), subs)
	if err != nil {
		internalError(w, r, "save subscribers", err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Summary: summary, Saved: saved, Rejected: rejected})
}

func writeImportError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// uploadedFile returns the import payload and its file name, if any.
func uploadedFile(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "", nil
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, "", err
		}
		return nil, "", errors.New("multipart field \"file\" is required")
	}
	return f, hdr.Filename, nil
}

type fromLeadsRequest struct {
	LeadIDs []string     `json:"leadIds,omitempty"`
	Leads   []model.Lead `json:"leads,omitempty"`
	Tags    []string     `json:"tags,omitempty"`
}

func (s *Server) handleFromLeads(w http.ResponseWriter, r *http.Request) {
	var req fromLeadsRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.LeadIDs) == 0 && len(req.Leads) == 0 {
		writeError(w, http.StatusBadRequest, "leadIds or leads are required")
		return
	}

	leads := req.Leads
	if len(req.LeadIDs) > 0 {
		stored, err := s.deps.Gateway.Get(r.Context(), req.LeadIDs)
		if err != nil {
			internalError(w, r, "load leads", err)
			return
		}
		leads = append(stored, leads...)
	}

	subs := make([]model.Subscriber, len(leads))
	for i, l := range leads {
		subs[i] = model.SubscriberFromLead(l, req.Tags)
	}

	saved, rejected, err := s.deps.Gateway.SaveSubscribers(r.Context(), subs)
	if err != nil {
		internalError(w, r, "save subscribers", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": saved, "rejected": rejected})
}
