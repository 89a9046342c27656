package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/docseg/internal/pipeline"
)

// handleRun processes an upload synchronously and returns the document
// record.
func (s *Server) handleRun(mode pipeline.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := s.readUpload(w, r)
		if !ok {
			return
		}
		defer r.MultipartForm.RemoveAll()

		req, err := requestFromForm(r, up.filename, mode)
		if err != nil {
			jsonError(w, err.Error(), statusFor(err))
			return
		}

		dir, err := os.MkdirTemp("", "docseg-run-*")
		if err != nil {
			s.log.Error("create temp dir", "error", err)
			jsonError(w, "failed to stage upload", http.StatusInternalServerError)
			return
		}
		defer os.RemoveAll(dir)

		req.Path = filepath.Join(dir, up.filename)
		if err := os.WriteFile(req.Path, up.data, 0o600); err != nil {
			s.log.Error("write temp file", "error", err)
			jsonError(w, "failed to stage upload", http.StatusInternalServerError)
			return
		}

		out, err := s.orchestrator.Worker().Run(r.Context(), req, nil)
		if err != nil {
			jsonError(w, err.Error(), statusFor(err))
			return
		}
		if out.Path != "" {
			w.Header().Set("X-Docseg-Record", filepath.Base(out.Path))
		}
		writeJSON(w, http.StatusOK, out.Record)
	}
}
