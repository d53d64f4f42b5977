package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/denysvitali/aperture-graph/internal/models"
	"github.com/denysvitali/aperture-graph/pkg/config"
	"github.com/denysvitali/aperture-graph/pkg/metadata"
)

// Scanner walks a data root laid out as <root>/<directory>/<file>
type Scanner struct {
	root          string
	extensions    map[string]bool
	strict        bool
	includeHidden bool
	logger        *logrus.Logger
	tracer        trace.Tracer
}

// New creates a new scanner
func New(cfg config.ScanConfig, logger *logrus.Logger) *Scanner {
	var exts map[string]bool
	if len(cfg.Extensions) > 0 {
		exts = make(map[string]bool, len(cfg.Extensions))
		for _, ext := range cfg.Extensions {
			exts[strings.ToLower(ext)] = true
		}
	}

	return &Scanner{
		root:          filepath.Clean(cfg.Root),
		extensions:    exts,
		strict:        cfg.Strict,
		includeHidden: cfg.IncludeHidden,
		logger:        logger,
		tracer:        otel.Tracer("aperture-graph"),
	}
}

// Root returns the data root being scanned
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns one record per file found in the source directories of the root.
// The first I/O failure stops the scan.
func (s *Scanner) Scan(ctx context.Context) ([]models.ImageRecord, error) {
	ctx, span := s.tracer.Start(ctx, "scan")
	defer span.End()

	span.SetAttributes(
		attribute.String("root", s.root),
		attribute.Bool("strict", s.strict),
	)

	dirs, err := s.sourceDirectories()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Infof("Scanning %d directories under %s", len(dirs), s.root)

	records := make([]models.ImageRecord, 0, 128)
	for _, dir := range dirs {
		dirRecords, err := s.scanDirectory(ctx, dir)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		records = append(records, dirRecords...)
	}

	span.SetAttributes(attribute.Int("files", len(records)))
	return records, nil
}

// sourceDirectories lists the direct subdirectories of the root.
// os.ReadDir already orders entries by name.
func (s *Scanner) sourceDirectories() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read data root %s: %w", s.root, err)
	}

	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if s.hidden(name) {
			continue
		}
		if !s.isDir(s.root, entry) {
			s.logger.Debugf("Ignoring file at data root: %s", name)
			continue
		}
		dirs = append(dirs, filepath.Join(s.root, name))
	}

	return dirs, nil
}

func (s *Scanner) scanDirectory(ctx context.Context, dir string) ([]models.ImageRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	dirName := filepath.Base(dir)
	var records []models.ImageRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if s.hidden(name) {
			continue
		}
		if s.isDir(dir, entry) {
			s.logger.Debugf("Skipping nested directory %s", filepath.Join(dir, name))
			continue
		}
		if !s.accepts(name) {
			continue
		}

		record, err := s.readRecord(ctx, filepath.Join(dir, name), dirName)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	s.logger.Debugf("Directory %s: %d files", dirName, len(records))
	return records, nil
}

func (s *Scanner) readRecord(ctx context.Context, path, dirName string) (models.ImageRecord, error) {
	_, span := s.tracer.Start(ctx, "read_image")
	defer span.End()

	span.SetAttributes(attribute.String("path", path))

	info, err := os.Stat(path)
	if err != nil {
		span.RecordError(err)
		return models.ImageRecord{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	fnumber, err := metadata.FNumberFile(path)
	if err != nil {
		if !errors.Is(err, metadata.ErrMalformed) || s.strict {
			span.RecordError(err)
			return models.ImageRecord{}, fmt.Errorf("%s: %w", path, err)
		}
		s.logger.Warnf("Ignoring metadata of %s: %v", path, err)
		fnumber = nil
	}

	if fnumber != nil {
		span.SetAttributes(attribute.Float64("f_number", *fnumber))
	}

	return models.ImageRecord{
		Directory: dirName,
		Filename:  filepath.Base(path),
		FNumber:   fnumber,
		FileSize:  info.Size(),
	}, nil
}

// isDir follows symlinks. A dangling link counts as a file.
func (s *Scanner) isDir(parent string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	if err != nil {
		s.logger.Debugf("Cannot resolve symlink %s: %v", filepath.Join(parent, entry.Name()), err)
		return false
	}
	return info.IsDir()
}

func (s *Scanner) hidden(name string) bool {
	return !s.includeHidden && strings.HasPrefix(name, ".")
}

func (s *Scanner) accepts(name string) bool {
	if s.extensions == nil {
		return true
	}
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}
