// Package scanner walks a project tree and materializes the ordered file
// list the engine consumes. The engine itself never touches the
// filesystem; it treats the scanner's output as an opaque, already-read
// list.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sift/internal/analysis"
	"sift/internal/logging"
	"sift/internal/paths"
)

// DefaultMaxFileSize bounds how much of a file the scanner will read.
const DefaultMaxFileSize = 1_000_000

// DefaultExcludes are directory names skipped during the walk.
var DefaultExcludes = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor",
	"build", "dist", "target", "out",
	paths.SiftDirName,
}

// Options configures a scan.
type Options struct {
	Excludes    []string // directory names to skip; nil = DefaultExcludes
	MaxFileSize int64    // bytes; <= 0 = DefaultMaxFileSize
}

// Scanner produces FileEntry lists from a directory tree.
type Scanner struct {
	logger *logging.Logger
}

// New creates a scanner.
func New(logger *logging.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan walks baseDir and returns file entries in deterministic order
// (sorted by relative path). Unreadable and binary files are skipped
// with a debug log, never an error: a partial listing is still useful.
func (s *Scanner) Scan(baseDir string, opts Options) ([]analysis.FileEntry, error) {
	excludes := opts.Excludes
	if excludes == nil {
		excludes = DefaultExcludes
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	excluded := make(map[string]struct{}, len(excludes))
	for _, name := range excludes {
		excluded[name] = struct{}{}
	}

	var entries []analysis.FileEntry

	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == baseDir {
				return err
			}
			s.logger.Debug("Skipping unreadable path", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == baseDir {
				return nil
			}
			if _, skip := excluded[d.Name()]; skip {
				return filepath.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			s.logger.Debug("Skipping oversized file", map[string]interface{}{
				"path": path,
				"size": info.Size(),
			})
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Debug("Skipping unreadable file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return nil
		}
		if isBinary(data) {
			return nil
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}

		entries = append(entries, analysis.FileEntry{
			RelPath:  paths.NormalizePath(rel),
			FullPath: path,
			Content:  string(data),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", baseDir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})

	return entries, nil
}

// isBinary uses a cheap heuristic: a NUL byte in the first chunk.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return false
}
