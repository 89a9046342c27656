package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dgallion1/docseg/internal/loader"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/pipeline"
	"github.com/dgallion1/docseg/internal/store"
)

var errContentMismatch = errors.New("file content does not match its extension")

type upload struct {
	filename string
	data     []byte
}

// readUpload parses the multipart form and reads the "file" part. It writes
// the error response itself and returns false on failure. The caller must
// call r.MultipartForm.RemoveAll when ok.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !loader.IsSupportedExtension(filename) {
		r.MultipartForm.RemoveAll()
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return upload{}, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		r.MultipartForm.RemoveAll()
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return upload{}, false
	}
	if err := checkContent(filename, data); err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
		return upload{}, false
	}
	return upload{filename: filename, data: data}, true
}

// checkContent sniffs data and rejects uploads whose bytes disagree with
// the file extension.
func checkContent(filename string, data []byte) error {
	mime := mimetype.Detect(data)
	want := "text/plain"
	if pagemodel.DetectFileType(filename) == pagemodel.FileTypePDF {
		want = "application/pdf"
	}
	for m := mime; m != nil; m = m.Parent() {
		if m.Is(want) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s detected as %s", errContentMismatch, filename, mime.String())
}

// requestFromForm reads run options from form fields.
func requestFromForm(r *http.Request, filename string, mode pipeline.Mode) (pipeline.Request, error) {
	req := pipeline.Request{
		Filename:      filename,
		Mode:          mode,
		LoadingMethod: r.FormValue("loading_method"),
		Strategy:      r.FormValue("strategy"),
	}
	if v := r.FormValue("mode"); v != "" && mode == "" {
		req.Mode = pipeline.Mode(v)
	}
	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, fmt.Errorf("chunk_size %q: %w", v, pagemodel.ErrInvalidArgument)
		}
		req.ChunkSize = n
	}
	if v := r.FormValue("save"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("save %q: %w", v, pagemodel.ErrInvalidArgument)
		}
		req.Save = b
	}
	return req, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loader.ErrUnsupportedFileType),
		errors.Is(err, loader.ErrUnsupportedMethod),
		errors.Is(err, pagemodel.ErrUnsupportedStrategy),
		errors.Is(err, pagemodel.ErrInvalidArgument),
		errors.Is(err, pipeline.ErrUnsupportedMode),
		errors.Is(err, store.ErrUnknownKind),
		errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
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
