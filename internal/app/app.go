// Package app assembles the processing components from configuration.
package app

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/dgallion1/docseg/internal/chunker"
	"github.com/dgallion1/docseg/internal/config"
	"github.com/dgallion1/docseg/internal/loader"
	"github.com/dgallion1/docseg/internal/markdown"
	"github.com/dgallion1/docseg/internal/metrics"
	"github.com/dgallion1/docseg/internal/ocr"
	"github.com/dgallion1/docseg/internal/parsing"
	"github.com/dgallion1/docseg/internal/pdfdoc"
	"github.com/dgallion1/docseg/internal/pipeline"
	"github.com/dgallion1/docseg/internal/stats"
	"github.com/dgallion1/docseg/internal/store"
	"github.com/dgallion1/docseg/internal/titles"
)

// Components are the wired parts shared by the server and the CLI.
type Components struct {
	Worker  *pipeline.Worker
	Store   *store.Store
	Metrics *metrics.Metrics
}

// New wires a worker over cfg. Records are written to cfg.OutputDir on fs.
func New(cfg config.Config, fs afero.Fs, log *slog.Logger) Components {
	st := store.New(fs, cfg.OutputDir)
	m := metrics.New()

	worker := pipeline.NewWorker(pipeline.WorkerDeps{
		Loader:  loader.New(loader.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext}),
		Chunker: chunker.NewEngine(log),
		Parser: parsing.NewEngine(parsing.Deps{
			PDF:         pdfdoc.Tabula{},
			OCR:         ocr.New(cfg.OCRLanguage),
			Renderer:    markdown.NewRenderer(),
			Partitioner: markdown.NewPartitioner(),
			Titles:      titles.Options{KeepUntitled: cfg.KeepUntitledSections},
		}, log),
		Store:   st,
		Metrics: m,
		Latency: stats.NewLatency(cfg.StatsWindow),
		Defaults: pipeline.Defaults{
			PDFLoader:      cfg.PDFLoader,
			MarkdownLoader: cfg.MarkdownLoader,
			ChunkSize:      cfg.DefaultChunkSize,
		},
	}, log)

	return Components{Worker: worker, Store: st, Metrics: m}
}
