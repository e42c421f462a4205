package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSiftDir(t *testing.T) {
	if got := SiftDir("/repo"); got != filepath.Join("/repo", ".sift") {
		t.Errorf("SiftDir() = %q", got)
	}
}

func TestEnsureSiftDir(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureSiftDir(root)
	if err != nil {
		t.Fatalf("EnsureSiftDir() error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("state dir missing after EnsureSiftDir: %v", err)
	}

	// Second call is a no-op.
	if _, err := EnsureSiftDir(root); err != nil {
		t.Errorf("EnsureSiftDir() twice: %v", err)
	}
}

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := CanonicalizePath(filepath.Join(sub, "file.go"), root)
	if err != nil {
		t.Fatalf("CanonicalizePath() error: %v", err)
	}
	if got != "src/deep/file.go" {
		t.Errorf("got %q, want src/deep/file.go", got)
	}
}

func TestIsWithinRepo(t *testing.T) {
	root := t.TempDir()

	if !IsWithinRepo(filepath.Join(root, "a", "b.txt"), root) {
		t.Error("path under root must be within repo")
	}
	if IsWithinRepo(filepath.Join(root, "..", "outside.txt"), root) {
		t.Error("path above root must not be within repo")
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath(`a\b\c.go`); got != "a/b/c.go" && got != `a\b\c.go` {
		// On unix backslashes are literal filename characters; ToSlash
		// leaves them alone there, so both forms are acceptable.
		t.Errorf("NormalizePath() = %q", got)
	}
}

func TestJoinRepoPath(t *testing.T) {
	got := JoinRepoPath("/repo", "src/deep/file.go")
	want := filepath.Join("/repo", "src", "deep", "file.go")
	if got != want {
		t.Errorf("JoinRepoPath() = %q, want %q", got, want)
	}
}
