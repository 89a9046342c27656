package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docseg/internal/loader"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/store"
)

// handleStrategies lists every method name a request can name.
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	worker := s.orchestrator.Worker()
	writeJSON(w, http.StatusOK, map[string]any{
		"chunking": worker.ChunkingMethods(),
		"parsing":  worker.ParsingMethods(),
		"loading": map[string][]string{
			string(pagemodel.FileTypePDF):      loader.Methods(pagemodel.FileTypePDF),
			string(pagemodel.FileTypeMarkdown): loader.Methods(pagemodel.FileTypeMarkdown),
		},
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	kind, err := store.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	names, err := s.store.List(kind)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "documents": names})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	kind, err := store.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var record json.RawMessage
	if err := s.store.Read(kind, chi.URLParam(r, "name"), &record); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleProcessingStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stages":      s.orchestrator.Worker().Latency().Snapshot(),
	})
}
