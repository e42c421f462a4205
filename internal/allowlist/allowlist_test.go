package allowlist

import (
	"os"
	"path/filepath"
	"testing"

	"sift/internal/analysis"
	"sift/internal/paths"
)

func writeAllowlist(t *testing.T, repoRoot, content string) {
	t.Helper()

	dir, err := paths.EnsureSiftDir(repoRoot)
	if err != nil {
		t.Fatalf("Failed to create state dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write allowlist: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	al, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(al.Rules) != 0 {
		t.Errorf("missing file should yield an empty allowlist, got %+v", al.Rules)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	root := t.TempDir()
	writeAllowlist(t, root, "[[rule]\nkind = broken")

	if _, err := Load(root); err == nil {
		t.Fatal("malformed allowlist must fail loudly")
	}
}

func TestFilter(t *testing.T) {
	root := t.TempDir()
	writeAllowlist(t, root, `
[[rule]]
kind = "todo-pending"
path_prefix = "vendor-lite/"
reason = "vendored code, not ours"

[[rule]]
technique = "debug-print"
reason = "debug builds are fine here"
`)

	al, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	occs := []analysis.Occurrence{
		{Kind: "todo-pending", FilePath: "vendor-lite/x.go", Technique: "todo-finder"},
		{Kind: "todo-pending", FilePath: "src/x.go", Technique: "todo-finder"},
		{Kind: "debug-print", FilePath: "src/y.go", Technique: "debug-print"},
		{Kind: "line-too-long", FilePath: "src/z.go", Technique: "long-line"},
	}

	kept, suppressed := al.Filter(occs)
	if len(suppressed) != 2 {
		t.Fatalf("suppressed %d, want 2: %+v", len(suppressed), suppressed)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d, want 2: %+v", len(kept), kept)
	}
	if kept[0].FilePath != "src/x.go" || kept[1].Kind != "line-too-long" {
		t.Errorf("wrong occurrences survived: %+v", kept)
	}
}

func TestEmptyRuleMatchesNothing(t *testing.T) {
	al := &Allowlist{Rules: []Rule{{Reason: "just a note"}}}

	occ := analysis.Occurrence{Kind: "todo-pending", FilePath: "a.go"}
	if al.Matches(&occ) {
		t.Error("a rule with no selectors must not suppress anything")
	}
}

func TestFilterWithNoRulesKeepsEverything(t *testing.T) {
	al := &Allowlist{}
	occs := []analysis.Occurrence{{Kind: "x"}, {Kind: "y"}}

	kept, suppressed := al.Filter(occs)
	if len(kept) != 2 || suppressed != nil {
		t.Errorf("kept=%v suppressed=%v, want passthrough", kept, suppressed)
	}
}
