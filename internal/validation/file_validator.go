package validation

import (
	"fmt"
	"log/slog"
	"os"

	apperrors "orderprep/internal/errors"
)

// FileValidator checks that the output directories of a run accept files
// before any step reads the dataset.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger.With(slog.String("component", "file_validator"))}
}

// ValidateOutputDirectory creates dir when needed and writes a throwaway file
// into it. Failures are STORAGE errors naming the directory.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return v.fail(dir, "output path is a file", nil)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return v.fail(dir, "cannot create output directory", err)
	}

	check, err := os.CreateTemp(dir, ".orderprep-write-*")
	if err != nil {
		return v.fail(dir, "output directory is not writable", err)
	}
	name := check.Name()
	check.Close()
	if err := os.Remove(name); err != nil {
		v.logger.Warn("Failed to remove write check file",
			slog.String("path", name),
			slog.String("error", err.Error()))
	}

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateOutputDirectories checks each dir in order and stops at the first failure
func (v *FileValidator) ValidateOutputDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := v.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}
	return nil
}

func (v *FileValidator) fail(dir, reason string, cause error) error {
	attrs := []any{slog.String("directory", dir)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	v.logger.Error(reason, attrs...)

	return apperrors.NewStorageError(fmt.Sprintf("%s: %s", reason, dir), cause)
}
