// Package analysis defines the common currency of the sift engine:
// occurrences (findings), file entries, the shared execution context, and
// the technique contract every analysis rule must satisfy.
package analysis

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Weight returns a numeric weight for severity comparison.
func (s Severity) Weight() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Occurrence is a single reported finding. Immutable once created.
// Occurrences are produced by techniques or synthesized by the engine
// itself for technique faults and timeouts.
type Occurrence struct {
	Kind      string   `json:"kind"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	FilePath  string   `json:"filePath"`
	Line      int      `json:"line,omitempty"`   // 1-indexed, 0 = unknown
	Column    int      `json:"column,omitempty"` // 1-indexed, 0 = unknown
	Technique string   `json:"technique"`
}

// FileEntry is one scanned source file handed to the engine. The engine
// only reads entries, it never mutates them.
type FileEntry struct {
	RelPath  string `json:"relPath"`  // repo-relative, forward slashes
	FullPath string `json:"fullPath"` // absolute path on disk
	Content  string `json:"-"`
	Size     int64  `json:"size"`

	// SyntaxTree is an opaque parse handle built lazily by the engine's
	// tree builder. nil means the file was not parsed or parsing failed.
	SyntaxTree any `json:"-"`
}

// Context is the shared, read-mostly state handed to every technique
// invocation during a run. Files and Flags must not be mutated by
// techniques.
type Context struct {
	BaseDir string
	Files   []FileEntry
	Flags   map[string]bool

	// Report is a side channel for emitting occurrences outside the
	// technique's return value. It is only available in sequential mode
	// and for global techniques; the parallel executor strips it before
	// dispatching work to the pool, so per-file techniques must tolerate
	// a nil Report.
	Report func(Occurrence)
}

// Emit reports an occurrence through the side channel if one is attached.
func (c *Context) Emit(occ Occurrence) {
	if c != nil && c.Report != nil {
		c.Report(occ)
	}
}

// WithoutReport returns a copy of the context with the report callback
// removed. Used before handing the context across the worker boundary.
func (c *Context) WithoutReport() *Context {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Report = nil
	return &clone
}

// TechniqueFunc is the fixed contract every analysis rule satisfies.
// Global techniques receive empty content/path placeholders and a nil
// tree. The return value may be nil, meaning "nothing to report".
type TechniqueFunc func(content, relPath string, tree any, fullPath string, ctx *Context) []Occurrence

// Technique describes one registered analysis rule.
type Technique struct {
	// Name identifies the technique in occurrences and metrics.
	Name string

	// Global techniques run once per project instead of once per file.
	Global bool

	// Match restricts which files a per-file technique sees. nil means
	// all files. Ignored for global techniques.
	Match func(relPath string) bool

	Run TechniqueFunc
}

// Applies reports whether a per-file technique should run on relPath.
func (t *Technique) Applies(relPath string) bool {
	if t.Global {
		return false
	}
	if t.Match == nil {
		return true
	}
	return t.Match(relPath)
}
