package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/omadadoc/internal/cache"
	"github.com/dgallion1/omadadoc/internal/openapi"
	"github.com/dgallion1/omadadoc/internal/report"
	"github.com/go-chi/chi/v5"
)

// entry resolves the docID URL parameter, writing a 404 when it is unknown.
func (s *Server) entry(w http.ResponseWriter, r *http.Request) *cache.Entry {
	docID := chi.URLParam(r, "docID")
	e := s.store.Get(docID)
	if e == nil {
		jsonError(w, "document not found", http.StatusNotFound)
	}
	return e
}

// handleListDocuments lists all cached documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": s.store.List()})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	sections, err := e.Doc.Sections()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":   e.ID,
		"version":  e.Version,
		"sections": sections,
	})
}

// handleDeleteDocument drops a document from the cache.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.store.Delete(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	writeJSON(w, http.StatusOK, e.Classes)
}

// handleOpenAPI serves the OpenAPI document as JSON, or YAML with ?format=yaml.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	spec, err := openapi.Build(e.Doc)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		data, err := openapi.MarshalYAML(spec)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(data)
		return
	}

	data, err := json.Marshal(spec)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleReport serves the reference as HTML, or Markdown with ?format=md.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	if e == nil {
		return
	}
	md, err := report.Markdown(e.Doc, e.Classes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(md))
		return
	}

	page, err := report.HTML(md)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
