package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/dgallion1/omadadoc/internal/cache"
	"github.com/dgallion1/omadadoc/internal/definition"
	"github.com/dgallion1/omadadoc/internal/metrics"
)

// handleUpload accepts an API documentation file, either as the "file"
// field of a multipart form or as the raw request body, and extracts it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	data, filename, err := s.readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, errTooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		jsonError(w, "empty document", http.StatusBadRequest)
		return
	}

	docID := cache.ContentHashHex(data)[:16]
	log := s.log.With("doc_id", docID)

	if existing := s.store.Get(docID); existing != nil {
		log.Info("document already parsed")
		s.metrics.ObserveUpload(metrics.ResultCached, existing.Endpoints)
		writeJSON(w, http.StatusOK, existing.Summary())
		return
	}

	entry, err := extract(data, log)
	if err != nil {
		log.Warn("extraction failed", "error", err)
		s.metrics.ObserveUpload(metrics.ResultFailed, 0)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	entry.ID = docID
	entry.Filename = filename
	s.store.Put(entry)
	s.metrics.ObserveUpload(metrics.ResultParsed, entry.Endpoints)

	log.Info("document parsed", "version", entry.Version, "sections", entry.Sections, "endpoints", entry.Endpoints)
	writeJSON(w, http.StatusCreated, entry.Summary())
}

var errTooLarge = errors.New("file too large")

func (s *Server) readUpload(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
		if err != nil {
			return nil, "", err
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			return nil, "", errTooLarge
		}
		return data, "", nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", errTooLarge
	}
	return data, sanitizeFilename(header.Filename), nil
}

// extract runs the whole pipeline up front so that later requests only
// read cached results.
func extract(data []byte, log *slog.Logger) (*cache.Entry, error) {
	doc, err := apidoc.Parse(bytes.NewReader(data), apidoc.WithLogger(log))
	if err != nil {
		return nil, err
	}
	version, err := doc.Version()
	if err != nil {
		return nil, err
	}
	sections, err := doc.Sections()
	if err != nil {
		return nil, err
	}
	classes, err := definition.Build(doc, definition.WithLogger(log))
	if err != nil {
		return nil, err
	}

	endpoints := 0
	for _, sec := range sections {
		endpoints += len(sec.Endpoints)
	}
	return &cache.Entry{
		Version:   version,
		Sections:  len(sections),
		Endpoints: endpoints,
		Doc:       doc,
		Classes:   classes,
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
