package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Chunking defaults
	DefaultChunkSize int `yaml:"default_chunk_size"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Loading
	PDFFallbackPdftotext bool   `yaml:"pdf_fallback_pdftotext"`
	PDFLoader            string `yaml:"pdf_loader"`
	MarkdownLoader       string `yaml:"markdown_loader"`

	// Parsing
	OCRLanguage          string `yaml:"ocr_language"`
	KeepUntitledSections bool   `yaml:"keep_untitled_sections"`

	// Output
	OutputDir string `yaml:"output_dir"`

	// Observability
	LogLevel    string        `yaml:"log_level"`
	StatsWindow time.Duration `yaml:"stats_window"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:                 "8090",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		DefaultChunkSize:     1000,
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		PDFLoader:            "native",
		MarkdownLoader:       "plain",
		OCRLanguage:          "eng",
		OutputDir:            "data",
		LogLevel:             "info",
		StatsWindow:          1 * time.Hour,
	}
}

// Load layers the YAML file named by DOCSEG_CONFIG (if any) over the
// defaults, then environment variables over both.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DOCSEG_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DOCSEG_API_KEY", cfg.APIKey)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.DefaultChunkSize = envInt("DEFAULT_CHUNK_SIZE", cfg.DefaultChunkSize)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.PDFLoader = envOr("PDF_LOADER", cfg.PDFLoader)
	cfg.MarkdownLoader = envOr("MARKDOWN_LOADER", cfg.MarkdownLoader)
	cfg.OCRLanguage = envOr("OCR_LANGUAGE", cfg.OCRLanguage)
	cfg.KeepUntitledSections = envBool("KEEP_UNTITLED_SECTIONS", cfg.KeepUntitledSections)
	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)

	def := Default()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = def.DefaultChunkSize
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = def.StatsWindow
	}

	return cfg, nil
}

// Validate checks settings the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCSEG_API_KEY is required")
	}
	if !slices.Contains([]string{"native", "pdftotext", "layout"}, c.PDFLoader) {
		return fmt.Errorf("PDF_LOADER %q is not one of native, pdftotext, layout", c.PDFLoader)
	}
	if !slices.Contains([]string{"plain", "structured"}, c.MarkdownLoader) {
		return fmt.Errorf("MARKDOWN_LOADER %q is not one of plain, structured", c.MarkdownLoader)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
