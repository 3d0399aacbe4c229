package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sozercan/mail-ai-mole/apimodels"
	"github.com/sozercan/mail-ai-mole/internal/analyzer"
	"github.com/sozercan/mail-ai-mole/internal/config"
	"github.com/sozercan/mail-ai-mole/internal/export"
	"github.com/sozercan/mail-ai-mole/internal/ingest"
	"github.com/sozercan/mail-ai-mole/internal/llm"
	"github.com/sozercan/mail-ai-mole/internal/session"
)

const sessionCookie = "mail_ai_mole_session"

// maxUploadBytes caps uploaded email files at 10 MiB.
const maxUploadBytes = 10 << 20

// session resolves the caller's session from the cookie, creating one
// (and setting the cookie) on first contact.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess := s.sessions.Get(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.session(w, r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading upload: %w", err))
		return
	}

	text, err := ingest.Ingest(header.Filename, data)
	if err != nil {
		slog.Warn("ingest failed", "filename", header.Filename, "error", err)
		writeError(w, ingestStatus(err), err)
		return
	}

	slog.Info("ingested email file", "filename", header.Filename, "bytes", len(text))
	writeJSON(w, http.StatusOK, apimodels.IngestResponse{Text: text, Filename: header.Filename})
}

func ingestStatus(err error) int {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCredentialsStatus(w http.ResponseWriter, r *http.Request) {
	s.writeCredentialsStatus(w, s.session(w, r))
}

func (s *Server) writeCredentialsStatus(w http.ResponseWriter, sess *session.Session) {
	ov := sess.Override()
	resp := apimodels.CredentialsResponse{Source: s.cfg.OpenAI.Source(ov)}
	if creds, err := s.cfg.OpenAI.Resolve(ov); err == nil {
		resp.Configured = true
		resp.Endpoint = creds.Endpoint
		resp.Model = creds.Model
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCredentialsUpdate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req apimodels.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}
	defer r.Body.Close()

	sess.SetOverride(config.Override{
		Endpoint: req.Endpoint,
		APIKey:   req.APIKey,
		Model:    req.Model,
	})
	slog.Info("session credentials updated", "session", sess.ID, "endpoint_set", req.Endpoint != "")
	s.writeCredentialsStatus(w, sess)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req apimodels.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}
	defer r.Body.Close()

	if req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("no email text to analyze"))
		return
	}

	// Credentials must resolve before any network call is attempted.
	creds, err := s.cfg.OpenAI.Resolve(sess.Override())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.OpenAI.Timeout)
	defer cancel()

	analysis, usage, err := s.analyzer.Analyze(ctx, req, creds)
	if err != nil {
		slog.Error("analysis request failed", "error", err)
		if r.Context().Err() != nil {
			// The request-level deadline expired while the analysis
			// was still running.
			writeError(w, http.StatusGatewayTimeout, errors.New("analysis timed out"))
			return
		}
		writeError(w, analyzeStatus(err), err)
		return
	}

	entry := sess.History.Append(req, *analysis)
	writeJSON(w, http.StatusOK, apimodels.AnalysisResponse{
		Entry: entry,
		Metadata: apimodels.AnalysisMetadata{
			Duration:   time.Since(start).String(),
			Model:      effectiveModel(req, creds),
			TokensUsed: usage.TotalTokens,
		},
	})
}

func effectiveModel(req apimodels.AnalysisRequest, creds config.Credentials) string {
	if req.Options.Model != "" {
		return req.Options.Model
	}
	return creds.Model
}

func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, config.ErrMissingCredentials), errors.Is(err, llm.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, llm.ErrServiceUnavailable), errors.Is(err, analyzer.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, sess.History.List())
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	entry, err := sess.History.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	entry, err := sess.History.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	format := chi.URLParam(r, "format")
	data, contentType, ext, err := exportEntry(&entry.Analysis, format)
	if err != nil {
		if errors.Is(err, export.ErrExport) {
			writeError(w, http.StatusInternalServerError, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return
	}

	filename := fmt.Sprintf("email_analysis_%s.%s", entry.Timestamp.Format("20060102_150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("writing export response", "error", err)
	}
}

func exportEntry(a *apimodels.Analysis, format string) (data []byte, contentType, ext string, err error) {
	switch format {
	case "ics":
		data, err = export.Calendar(a)
		return data, export.ContentTypeICS, "ics", err
	case "zip":
		data, err = export.CalendarZip(a)
		return data, export.ContentTypeZip, "zip", err
	case "pdf":
		data, err = export.Report(a)
		return data, export.ContentTypePDF, "pdf", err
	case "xlsx":
		data, err = export.Spreadsheet(a)
		return data, export.ContentTypeXLSX, "xlsx", err
	default:
		return nil, "", "", fmt.Errorf("unknown export format %q", format)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apimodels.ErrorResponse{Error: err.Error()})
}
