package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dgallion1/docseg/internal/chunker"
	"github.com/dgallion1/docseg/internal/loader"
	"github.com/dgallion1/docseg/internal/metrics"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/parsing"
	"github.com/dgallion1/docseg/internal/stats"
	"github.com/dgallion1/docseg/internal/store"
)

// Mode selects what a run produces.
type Mode string

const (
	ModeLoad  Mode = "load"
	ModeChunk Mode = "chunk"
	ModeParse Mode = "parse"
)

var (
	ErrUnsupportedMode = errors.New("pipeline: unsupported mode")
	ErrQueueFull       = errors.New("pipeline: job queue is full")
	ErrStopped         = errors.New("pipeline: orchestrator is stopped")
)

// Request describes one document run.
type Request struct {
	Filename      string `json:"filename"`
	Mode          Mode   `json:"mode"`
	LoadingMethod string `json:"loading_method,omitempty"`
	Strategy      string `json:"strategy,omitempty"`
	ChunkSize     int    `json:"chunk_size,omitempty"`
	// Save persists the record through the store.
	Save bool `json:"save"`

	// Path is the file on disk. Queued jobs get one when the worker
	// materializes the upload.
	Path string `json:"-"`
}

// Outcome is the record a run produced.
type Outcome struct {
	Record     any
	Path       string
	TotalPages int
	Items      int
	Fallback   string
}

// Defaults fills request fields a caller left empty.
type Defaults struct {
	PDFLoader      string
	MarkdownLoader string
	ChunkSize      int
}

// Worker runs load, then chunk or parse, then store for a document.
type Worker struct {
	loader   *loader.Loader
	chunker  *chunker.Engine
	parser   *parsing.Engine
	store    *store.Store
	metrics  *metrics.Metrics
	latency  *stats.Latency
	defaults Defaults
	log      *slog.Logger
}

// WorkerDeps bundles what a Worker needs. Store and Metrics may be nil.
type WorkerDeps struct {
	Loader   *loader.Loader
	Chunker  *chunker.Engine
	Parser   *parsing.Engine
	Store    *store.Store
	Metrics  *metrics.Metrics
	Latency  *stats.Latency
	Defaults Defaults
}

func NewWorker(deps WorkerDeps, log *slog.Logger) *Worker {
	if deps.Latency == nil {
		deps.Latency = stats.NewLatency(time.Hour)
	}
	return &Worker{
		loader:   deps.Loader,
		chunker:  deps.Chunker,
		parser:   deps.Parser,
		store:    deps.Store,
		metrics:  deps.Metrics,
		latency:  deps.Latency,
		defaults: deps.Defaults,
		log:      log,
	}
}

// Latency exposes the worker's stage statistics.
func (w *Worker) Latency() *stats.Latency {
	return w.latency
}

// ChunkingMethods lists the chunking strategy names.
func (w *Worker) ChunkingMethods() []string {
	return w.chunker.Methods()
}

// ParsingMethods lists the parsing strategy names.
func (w *Worker) ParsingMethods() []string {
	return w.parser.Methods()
}

// Normalize applies defaults and rejects requests that cannot run.
func (w *Worker) Normalize(req Request) (Request, error) {
	if !loader.IsSupportedExtension(req.Filename) {
		return req, fmt.Errorf("%s: %w", req.Filename, loader.ErrUnsupportedFileType)
	}
	ft := pagemodel.DetectFileType(req.Filename)

	if req.LoadingMethod == "" {
		req.LoadingMethod = w.defaults.PDFLoader
		if ft == pagemodel.FileTypeMarkdown {
			req.LoadingMethod = w.defaults.MarkdownLoader
		}
	}
	if req.LoadingMethod == "" {
		req.LoadingMethod = loader.DefaultMethod(ft)
	}
	if !slices.Contains(loader.Methods(ft), req.LoadingMethod) {
		return req, fmt.Errorf("%q for %s: %w", req.LoadingMethod, ft, loader.ErrUnsupportedMethod)
	}
	if req.ChunkSize <= 0 {
		req.ChunkSize = w.defaults.ChunkSize
	}

	var methods []string
	switch req.Mode {
	case ModeLoad:
		return req, nil
	case ModeChunk:
		methods = w.chunker.Methods()
	case ModeParse:
		methods = w.parser.Methods()
	default:
		return req, fmt.Errorf("%q: %w", req.Mode, ErrUnsupportedMode)
	}
	if !slices.Contains(methods, req.Strategy) {
		return req, fmt.Errorf("%s strategy %q: %w", req.Mode, req.Strategy, pagemodel.ErrUnsupportedStrategy)
	}
	return req, nil
}

// Run executes req against the file at req.Path. report, when non-nil, is
// told about each stage as it starts.
func (w *Worker) Run(ctx context.Context, req Request, report func(JobStatus)) (*Outcome, error) {
	req, err := w.Normalize(req)
	if err != nil {
		return nil, err
	}
	if report == nil {
		report = func(JobStatus) {}
	}
	log := w.log.With("filename", req.Filename, "mode", req.Mode, "strategy", req.Strategy)

	report(StatusLoading)
	start := time.Now()
	loaded, err := w.loader.Load(ctx, req.Path, req.LoadingMethod)
	w.observe("load", req.LoadingMethod, start, err)
	if err != nil {
		log.Error("load failed", "error", err)
		return nil, err
	}
	log.Info("loaded document", "method", req.LoadingMethod, "pages", len(loaded.Pages))

	out := &Outcome{TotalPages: loaded.TotalPages}
	var kind store.Kind
	var name string

	switch req.Mode {
	case ModeLoad:
		doc := pagemodel.NewLoadedDocument(req.Filename, req.LoadingMethod, loaded.Pages, loaded.TotalPages, time.Now())
		out.Record, out.Items = doc, doc.TotalChunks
		kind, name = store.KindLoaded, req.LoadingMethod

	case ModeChunk:
		report(StatusChunking)
		start = time.Now()
		doc, err := w.chunker.Chunk(chunker.Input{
			Filename:      req.Filename,
			LoadingMethod: req.LoadingMethod,
			Pages:         loaded.Pages,
		}, req.Strategy, chunker.Options{ChunkSize: req.ChunkSize})
		w.observe("chunk", req.Strategy, start, err)
		if err != nil {
			return nil, err
		}
		out.Record, out.Items, out.TotalPages = doc, doc.TotalChunks, doc.TotalPages
		kind, name = store.KindChunked, req.Strategy

	case ModeParse:
		report(StatusParsing)
		start = time.Now()
		doc, err := w.parser.Parse(ctx, parsing.Input{
			Filename: req.Filename,
			Path:     req.Path,
			Pages:    loaded.Pages,
			Text:     loaded.Text,
		}, req.Strategy)
		w.observe("parse", req.Strategy, start, err)
		if err != nil {
			return nil, err
		}
		if doc.Fallback != "" && w.metrics != nil {
			w.metrics.ObserveFallback(req.Strategy)
		}
		out.Record, out.Items, out.TotalPages, out.Fallback = doc, len(doc.Content), doc.Metadata.TotalPages, doc.Fallback
		kind, name = store.KindParsed, req.Strategy
	}

	if req.Save && w.store != nil {
		report(StatusStoring)
		path, err := w.store.Save(kind, req.Filename, name, out.Record)
		if err != nil {
			log.Error("store failed", "error", err)
			return nil, err
		}
		out.Path = path
		log.Info("stored record", "path", path)
	}
	return out, nil
}

// Process runs a queued job, materializing its upload in a temp dir first.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Request.Filename)

	dir, err := os.MkdirTemp("", "docseg-job-*")
	if err != nil {
		log.Error("create temp dir", "error", err)
		job.AddError(fmt.Sprintf("create temp dir: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}
	defer os.RemoveAll(dir)

	req := job.Request
	req.Path = filepath.Join(dir, filepath.Base(req.Filename))
	if err := os.WriteFile(req.Path, job.FileData(), 0o600); err != nil {
		log.Error("write temp file", "error", err)
		job.AddError(fmt.Sprintf("write temp file: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}
	job.releaseFileData()

	var stage JobStatus = StatusLoading
	out, err := w.Run(ctx, req, func(s JobStatus) {
		stage = s
		job.SetStatus(s, string(s))
	})
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, string(stage))
		return
	}
	job.Complete(out)
	log.Info("job complete", "items", out.Items, "fallback", out.Fallback != "")
}

func (w *Worker) observe(stage, method string, start time.Time, err error) {
	d := time.Since(start)
	w.latency.Record(stage, d)
	if w.metrics != nil {
		w.metrics.ObserveStage(stage, d)
		w.metrics.ObserveDocument(stage, method, err)
	}
}
