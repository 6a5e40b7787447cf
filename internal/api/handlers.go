package api

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/slarchive/linkarchive/internal/archive"
)

type shortenRequest struct {
	URL  string `json:"url"`
	Note string `json:"note"`
}

type shortenResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	ArchivedAt  time.Time `json:"archived_at"`
	Note        string    `json:"note,omitempty"`
}

type compareResponse struct {
	ID           string              `json:"id"`
	Code         string              `json:"code"`
	HasChanges   bool                `json:"has_changes"`
	DiffSummary  archive.DiffSummary `json:"diff_summary"`
	ChangedPaths []string            `json:"changed_paths"`
}

func (s *Server) shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}

	rec, err := s.svc.Archive(r.Context(), req.URL, req.Note)
	if err != nil {
		if archive.IsClientError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("archival failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archival failed")
		return
	}

	writeJSON(w, http.StatusCreated, shortenResponse{
		ID:          rec.ID,
		Code:        rec.Code,
		ShortURL:    s.cfg.ShortURL(rec.Code),
		OriginalURL: rec.OriginalURL,
		ArchivedAt:  rec.ArchivedAt,
		Note:        rec.Note,
	})
}

func (s *Server) getRecordByCode(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.RecordByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getRecordByID(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.RecordByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	result, err := s.svc.Compare(r.Context(), code)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	changed := result.ChangedLines
	if changed == nil {
		changed = []string{}
	}
	writeJSON(w, http.StatusOK, compareResponse{
		ID:           result.Record.ID,
		Code:         result.Record.Code,
		HasChanges:   result.HasChanges,
		DiffSummary:  result.Summary,
		ChangedPaths: changed,
	})
}

// archivePage wraps the archived text with the floating header markup.
var archivePage = template.Must(template.New("archive").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1.0"/>
  <title>Archived Content - {{.Code}}</title>
  <link rel="stylesheet" href="/api/header/style.css"/>
</head>
<body>
  <header id="sla-header" class="sla-header" data-code="{{.Code}}">
    <div class="sla-container">
      <div class="sla-title">Secure Link Archive</div>
      <div class="sla-meta">
        <span class="sla-code">Code: {{.Code}}</span>
      </div>
    </div>
  </header>

  <main class="sla-content">
    <pre class="sla-archived-text">{{.Content}}</pre>
  </main>

  <script src="/api/header/script.js" defer></script>
</body>
</html>`))

func (s *Server) redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	content, err := s.svc.ArchivedContent(r.Context(), code)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	page := struct {
		Code    string
		Content string
	}{Code: code, Content: content}
	if err := archivePage.Execute(w, page); err != nil {
		s.logger.Error("render archive page failed", zap.String("code", code), zap.Error(err))
	}
}

// writeLookupError maps store lookup failures onto HTTP responses. A
// record whose blob has gone missing is reported distinctly from a
// plain unknown key.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, archive.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, archive.ErrArchiveMissing):
		writeError(w, http.StatusNotFound, "archive missing")
	default:
		s.logger.Error("lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
