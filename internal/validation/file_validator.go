package validation

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salespulse/internal/errors"
)

// SupportedInputExtensions lists the sales export formats the loader reads.
var SupportedInputExtensions = []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm"}

// FileValidator checks the pipeline's input file and output location before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateFile checks that path exists, is a regular file and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if stderrors.Is(err, os.ErrNotExist) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return errors.NewNotFoundError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewPermissionError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks the sales export: readable, a supported format and
// not an editor lock file.
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Refusing temporary spreadsheet lock file",
			slog.String("file", path))
		return errors.NewAppValidationError(fmt.Sprintf("file %s is a temporary lock file", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !isSupportedInput(ext) {
		v.logger.Error("Unsupported input format",
			slog.String("file", path),
			slog.String("extension", ext))
		return errors.NewAppValidationError(
			fmt.Sprintf("file %s has unsupported extension %q (want one of %s)",
				path, ext, strings.Join(SupportedInputExtensions, ", ")), nil)
	}

	return nil
}

// ValidateOutputDirectory ensures the output directory exists or can be created and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewPermissionError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	testFile.Close()
	os.Remove(testFile.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func isSupportedInput(ext string) bool {
	for _, supported := range SupportedInputExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}
