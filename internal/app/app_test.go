package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docseg/internal/config"
	"github.com/dgallion1/docseg/internal/pipeline"
	"github.com/dgallion1/docseg/internal/store"
)

func TestNewWiresWorkerAndStore(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = "out"
	fs := afero.NewMemMapFs()
	c := New(cfg, fs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, []string{"by_pages", "by_paragraphs", "by_sentences", "fixed_size"}, c.Worker.ChunkingMethods())
	assert.Contains(t, c.Worker.ParsingMethods(), "full_parse")

	path := filepath.Join(t.TempDir(), "a.md")
	require.NoError(t, os.WriteFile(path, []byte("ONE\n\nbody text"), 0o600))
	out, err := c.Worker.Run(context.Background(), pipeline.Request{
		Filename: "a.md",
		Path:     path,
		Mode:     pipeline.ModeParse,
		Strategy: "by_titles",
		Save:     true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Items)

	names, err := c.Store.List(store.KindParsed)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}
