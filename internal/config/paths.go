package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved, absolute file system locations used by the application.
// This is the single source of truth for file paths once configuration is loaded.
type Paths struct {
	BaseDir    string
	InputFile  string
	OutputFile string
	LogsDir    string
}

// ResolvePaths resolves every configured path against the base directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:    base,
		InputFile:  resolveAgainst(base, c.Paths.InputFile),
		OutputFile: resolveAgainst(base, c.Paths.OutputFile),
		LogsDir:    resolveAgainst(base, c.Paths.LogsDir),
	}, nil
}

// EnsureDirectories creates the directories the write path needs.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(p.OutputFile),
		p.LogsDir,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs all resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved application paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("input_file", p.InputFile),
		slog.String("output_file", p.OutputFile),
		slog.String("logs_dir", p.LogsDir))
}

func resolveAgainst(base, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
