package trashcam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoExporter indicates a snapshot was requested without an exporter
	ErrNoExporter = errors.New("no exporter configured")

	// ErrInvalidName indicates an export name that is not a plain file name
	ErrInvalidName = errors.New("invalid export name")
)

// Exporter receives encoded snapshots.
type Exporter interface {
	Export(ctx context.Context, name string, data []byte) error
}

// DirExporter writes snapshots as files into a directory.
type DirExporter struct {
	dir string
}

// NewDirExporter creates an exporter for dir, creating it if needed.
func NewDirExporter(dir string) (*DirExporter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &DirExporter{dir: dir}, nil
}

// Dir returns the target directory.
func (e *DirExporter) Dir() string {
	return e.dir
}

// ValidateName checks that name is a plain file name that stays inside the
// export directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Export writes data to dir/name. The file appears atomically: data goes to
// a temporary file that is renamed into place.
func (e *DirExporter) Export(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(e.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}

	path := filepath.Join(e.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "DirExporter.Export",
		"path":     path,
		"bytes":    len(data),
	}).Debug("Wrote snapshot file")

	return nil
}
