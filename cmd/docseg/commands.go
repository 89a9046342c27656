package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docseg/internal/app"
	"github.com/dgallion1/docseg/internal/config"
	"github.com/dgallion1/docseg/internal/loader"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/pipeline"
)

type globalFlags struct {
	out      string
	logLevel string
	jobs     int
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var g globalFlags
	cmd := &cobra.Command{
		Use:           "docseg",
		Short:         "Segment PDF and Markdown documents into chunks and structural elements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.out, "out", "", "Store records under this directory instead of printing them")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&g.jobs, "jobs", 4, "Files processed concurrently")

	cmd.AddCommand(newRunCommand(pipeline.ModeLoad, &g, stdout, stderr))
	cmd.AddCommand(newRunCommand(pipeline.ModeChunk, &g, stdout, stderr))
	cmd.AddCommand(newRunCommand(pipeline.ModeParse, &g, stdout, stderr))
	cmd.AddCommand(newStrategiesCommand(&g, stdout, stderr))
	return cmd
}

func newRunCommand(mode pipeline.Mode, g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		method    string
		strategy  string
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   string(mode) + " FILE...",
		Short: shortFor(mode),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := components(g, stderr)
			if err != nil {
				return err
			}
			reqs := make([]pipeline.Request, len(args))
			for i, path := range args {
				reqs[i] = pipeline.Request{
					Filename:      filepath.Base(path),
					Path:          path,
					Mode:          mode,
					LoadingMethod: method,
					Strategy:      strategy,
					ChunkSize:     chunkSize,
					Save:          g.out != "",
				}
			}
			return runAll(cmd.Context(), c.Worker, reqs, g.jobs, stdout)
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "Loading method (default depends on file type)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Target chunk size for fixed_size")
	switch mode {
	case pipeline.ModeChunk:
		cmd.Flags().StringVar(&strategy, "strategy", "by_pages", "Chunking strategy")
	case pipeline.ModeParse:
		cmd.Flags().StringVar(&strategy, "strategy", "all_text", "Parsing strategy")
	}
	return cmd
}

func newStrategiesCommand(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List loading, chunking and parsing method names",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := components(g, stderr)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "loading (pdf):      %s\n", strings.Join(loader.Methods(pagemodel.FileTypePDF), ", "))
			fmt.Fprintf(stdout, "loading (markdown): %s\n", strings.Join(loader.Methods(pagemodel.FileTypeMarkdown), ", "))
			fmt.Fprintf(stdout, "chunking:           %s\n", strings.Join(c.Worker.ChunkingMethods(), ", "))
			fmt.Fprintf(stdout, "parsing:            %s\n", strings.Join(c.Worker.ParsingMethods(), ", "))
			return nil
		},
	}
}

func shortFor(mode pipeline.Mode) string {
	switch mode {
	case pipeline.ModeChunk:
		return "Split files into chunks"
	case pipeline.ModeParse:
		return "Decompose files into structural elements"
	}
	return "Extract the page text of files"
}

func components(g *globalFlags, stderr io.Writer) (app.Components, error) {
	cfg, err := config.Load()
	if err != nil {
		return app.Components{}, err
	}
	if g.out != "" {
		cfg.OutputDir = g.out
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return app.Components{}, err
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return app.New(cfg, afero.NewOsFs(), log), nil
}

// runAll processes reqs with at most jobs in flight. Records are printed in
// argument order, or only their stored paths when saving.
func runAll(ctx context.Context, w *pipeline.Worker, reqs []pipeline.Request, jobs int, stdout io.Writer) error {
	if jobs <= 0 {
		jobs = 1
	}
	outs := make([]*pipeline.Outcome, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, req := range reqs {
		g.Go(func() error {
			out, err := w.Run(ctx, req, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", req.Path, err)
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	for _, out := range outs {
		if out.Path != "" {
			fmt.Fprintln(stdout, out.Path)
			continue
		}
		if err := enc.Encode(out.Record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return nil
}
