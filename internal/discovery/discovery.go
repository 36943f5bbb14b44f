package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dockling/internal/domain"
)

// ErrInputNotFound is returned when the configured input folder is missing.
var ErrInputNotFound = errors.New("input folder not found")

// ErrOutputNotFound is returned when the output folder is missing and
// auto-creation is disabled.
var ErrOutputNotFound = errors.New("output folder not found")

// supportedExtensions is the set of convertible document formats,
// keyed without the leading dot.
var supportedExtensions = map[string]bool{
	"pdf": true, "docx": true, "doc": true,
	"pptx": true, "ppt": true,
	"xlsx": true, "xls": true,
	"html": true, "htm": true, "xml": true,
	"md": true, "asciidoc": true, "adoc": true,
}

// Scanner resolves input selections into ordered candidate files.
type Scanner struct {
	stat     func(string) (os.FileInfo, error)
	walkDir  func(string, fs.WalkDirFunc) error
	mkdirAll func(string, os.FileMode) error
}

// NewScanner builds a scanner using real OS dependencies.
func NewScanner() *Scanner {
	return &Scanner{
		stat:     os.Stat,
		walkDir:  filepath.WalkDir,
		mkdirAll: os.MkdirAll,
	}
}

// ResolveFolder enumerates supported files under dir recursively.
// It returns candidates in lexicographic path order; an existing but
// empty folder yields an empty sequence, not an error.
func (s *Scanner) ResolveFolder(dir string, settings domain.Settings) ([]domain.CandidateFile, error) {
	dir = absPath(dir)
	info, err := s.stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, dir)
	}

	var candidates []domain.CandidateFile
	err = s.walkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !SupportedExtension(path) {
			return nil
		}
		fileInfo, err := d.Info()
		if err != nil {
			return err
		}
		candidates = append(candidates, newCandidate(path, fileInfo.Size(), settings))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input folder: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})
	return dedupe(candidates), nil
}

// ResolveFiles validates an explicit file selection. Missing or
// non-regular entries become pre-marked skipped candidates rather
// than failing the whole batch.
func (s *Scanner) ResolveFiles(paths []string, settings domain.Settings) []domain.CandidateFile {
	candidates := make([]domain.CandidateFile, 0, len(paths))
	for _, path := range paths {
		path = absPath(path)
		info, err := s.stat(path)
		if err != nil || info.IsDir() {
			candidates = append(candidates, domain.CandidateFile{
				Path:       path,
				Format:     formatOf(path),
				SkipReason: "file not found",
			})
			continue
		}
		candidates = append(candidates, newCandidate(path, info.Size(), settings))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})
	return dedupe(candidates)
}

// EnsureOutputDir prepares the output folder before any file is
// processed, creating it only when the settings allow.
func (s *Scanner) EnsureOutputDir(settings domain.Settings) error {
	dir := settings.OutputDir
	if info, err := s.stat(dir); err == nil && info.IsDir() {
		return nil
	}
	if !settings.CreateOutputFolder {
		return fmt.Errorf("%w: %s", ErrOutputNotFound, dir)
	}
	if err := s.mkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	return nil
}

// SupportedExtension reports whether the path has a convertible
// document extension, case-insensitively.
func SupportedExtension(path string) bool {
	return supportedExtensions[formatOf(path)]
}

// newCandidate builds a candidate, applying the size limit filter.
func newCandidate(path string, size int64, settings domain.Settings) domain.CandidateFile {
	c := domain.CandidateFile{
		Path:      path,
		SizeBytes: size,
		Format:    formatOf(path),
	}
	if limit := settings.MaxFileSizeBytes(); limit > 0 && size > limit {
		c.SkipReason = "exceeds size limit"
	}
	return c
}

// absPath normalizes a user-supplied path so candidates always carry
// absolute paths and dedupe cannot miss a relative twin.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// formatOf returns the lowercased extension without the dot.
func formatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// dedupe drops repeated paths from an already sorted slice.
func dedupe(candidates []domain.CandidateFile) []domain.CandidateFile {
	out := candidates[:0]
	seen := ""
	for _, c := range candidates {
		if c.Path == seen {
			continue
		}
		seen = c.Path
		out = append(out, c)
	}
	return out
}

// NewScannerForTests creates a scanner with injectable dependencies.
func NewScannerForTests(
	stat func(string) (os.FileInfo, error),
	walkDir func(string, fs.WalkDirFunc) error,
	mkdirAll func(string, os.FileMode) error,
) *Scanner {
	return &Scanner{stat: stat, walkDir: walkDir, mkdirAll: mkdirAll}
}
