// Package httpapi exposes the research pipeline over HTTP: kick off a
// run, fetch a stored brief by share slug, and download a rendered
// report.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/briefstore"
	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/report"
	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/research"
)

type Researcher interface {
	Run(ctx context.Context, req research.Request) (research.Result, error)
}

type BriefStore interface {
	Save(ctx context.Context, b research.Brief) (briefstore.SavedBrief, error)
	LoadBySlug(ctx context.Context, slug string) (research.Brief, error)
}

type PDFRenderer interface {
	Render(ctx context.Context, b research.Brief) ([]byte, error)
}

type Server struct {
	pipeline Researcher
	store    BriefStore
	pdf      PDFRenderer

	// devMode surfaces stage-level error detail in responses. In
	// production clients only see a generic failure message.
	devMode bool
}

func NewServer(pipeline Researcher, store BriefStore, pdf PDFRenderer, devMode bool) http.Handler {
	s := &Server{
		pipeline: pipeline,
		store:    store,
		pdf:      pdf,
		devMode:  devMode,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/research", s.handleResearch)
	mux.HandleFunc("/v1/briefs/", s.handleBriefs)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	message := "failed to generate brief"
	payload := map[string]any{"ok": false}
	if s.devMode {
		message = err.Error()
		if stage := research.StageFromError(err); stage != "" {
			payload["stage"] = stage
		}
	}
	payload["error"] = message
	writeJSON(w, status, payload)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

type researchRequest struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "unreadable request body"})
		return
	}
	var req researchRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.Website) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "company_name and website are required"})
		return
	}

	result, err := s.pipeline.Run(r.Context(), research.Request{
		Name:    req.CompanyName,
		Website: req.Website,
	})
	if err != nil {
		log.Printf("httpapi research failed company=%q stage=%s err=%v", req.CompanyName, research.StageFromError(err), err)
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	saved, err := s.store.Save(r.Context(), result.Brief)
	if err != nil {
		log.Printf("httpapi save failed company=%q err=%v", req.CompanyName, err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"id":         saved.ID,
		"share_slug": saved.ShareSlug,
		"brief":      result.Brief,
		"metadata":   result.Metadata,
	})
}

func (s *Server) handleBriefs(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/briefs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	slug := parts[0]
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "missing share slug"})
		return
	}

	b, err := s.store.LoadBySlug(r.Context(), slug)
	if errors.Is(err, briefstore.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "brief not found"})
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if len(parts) == 1 {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "brief": b})
		return
	}
	if len(parts) == 2 && parts[1] == "report" {
		s.serveReport(w, r, b)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, b research.Brief) {
	switch r.URL.Query().Get("format") {
	case "", "html":
		doc, err := report.RenderHTML(b)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, doc)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, report.BuildReportMarkdown(b))
	case "pdf":
		if s.pdf == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]any{"ok": false, "error": "pdf rendering disabled"})
			return
		}
		pdf, err := s.pdf.Render(r.Context(), b)
		if err != nil {
			log.Printf("httpapi pdf render failed company=%q err=%v", b.Company.Name, err)
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "unknown report format"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
