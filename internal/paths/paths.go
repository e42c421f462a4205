// Package paths normalizes file paths and locates sift's per-project
// state directory.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// SiftDirName is the per-project state directory under the repo root.
const SiftDirName = ".sift"

// SiftDir returns the state directory for a repo root.
func SiftDir(repoRoot string) string {
	return filepath.Join(repoRoot, SiftDirName)
}

// EnsureSiftDir creates the state directory if missing and returns it.
func EnsureSiftDir(repoRoot string) (string, error) {
	dir := SiftDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath converts an absolute path to a repo-relative canonical
// path: symlinks resolved, relative to the repo root, forward slashes.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = repoRoot
		} else {
			return "", err
		}
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// IsWithinRepo checks whether a path is inside the repository root.
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a repo root with a canonical (slash-separated) path
// using OS-specific separators.
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	normalized := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalized, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
