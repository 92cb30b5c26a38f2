package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"documents":      s.store.Len(),
		"cache_ttl":      s.cfg.CacheTTL.String(),
		"max_upload_mib": s.cfg.MaxUploadBytes >> 20,
	})
}
