package engine

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"sift/internal/analysis"
	"sift/internal/incremental"
	"sift/internal/logging"
	"sift/internal/storage"
)

func newTestStore(t *testing.T) (*storage.DB, *incremental.Store) {
	t.Helper()

	db, err := storage.Open(t.TempDir(), logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db, incremental.NewStore(db, logging.NewDiscardLogger())
}

func newTestEngine(t *testing.T, reg *analysis.Registry, cache *incremental.Store, db *storage.DB) *Engine {
	t.Helper()

	eng, err := New(Config{
		Registry: reg,
		Cache:    cache,
		DB:       db,
		Logger:   logging.NewDiscardLogger(),
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

func todoTechnique() analysis.Technique {
	return analysis.Technique{
		Name: "todo-finder",
		Run: func(content, relPath string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			var occs []analysis.Occurrence
			for i, line := range strings.Split(content, "\n") {
				if strings.Contains(line, "TODO") {
					occs = append(occs, analysis.Occurrence{
						Kind:      "todo-pending",
						Severity:  analysis.SeverityInfo,
						Message:   strings.TrimSpace(line),
						FilePath:  relPath,
						Line:      i + 1,
						Technique: "todo-finder",
					})
				}
			}
			return occs
		},
	}
}

func testFiles() []analysis.FileEntry {
	return []analysis.FileEntry{
		{RelPath: "a.go", Content: "package a\n\n// TODO: fix this\nfunc A() {}\n"},
		{RelPath: "b.go", Content: "package b\n\nfunc B() {}\n"},
		{RelPath: "c.txt", Content: "notes\nTODO later\n"},
	}
}

func TestSequentialFindsTodos(t *testing.T) {
	reg := analysis.NewRegistry()
	reg.MustRegister(todoTechnique())
	eng := newTestEngine(t, reg, nil, nil)

	result, err := eng.Run(testFiles(), ".", DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(result.Occurrences) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(result.Occurrences))
	}

	first := result.Occurrences[0]
	if first.Kind != "todo-pending" {
		t.Errorf("Kind = %q, want todo-pending", first.Kind)
	}
	if first.FilePath != "a.go" || first.Line != 3 {
		t.Errorf("location = %s:%d, want a.go:3", first.FilePath, first.Line)
	}
	if second := result.Occurrences[1]; second.FilePath != "c.txt" || second.Line != 2 {
		t.Errorf("location = %s:%d, want c.txt:2", second.FilePath, second.Line)
	}
}

func TestSecondRunHitsCache(t *testing.T) {
	db, store := newTestStore(t)
	files := testFiles()

	reg := analysis.NewRegistry()
	reg.MustRegister(todoTechnique())
	eng := newTestEngine(t, reg, store, db)

	first, err := eng.Run(files, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("First run error: %v", err)
	}
	if first.Metrics.CacheHits != 0 || first.Metrics.CacheMisses != len(files) {
		t.Fatalf("first run hits=%d misses=%d, want 0/%d",
			first.Metrics.CacheHits, first.Metrics.CacheMisses, len(files))
	}

	second, err := eng.Run(files, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("Second run error: %v", err)
	}
	if second.Metrics.CacheHits != len(files) || second.Metrics.CacheMisses != 0 {
		t.Errorf("second run hits=%d misses=%d, want %d/0",
			second.Metrics.CacheHits, second.Metrics.CacheMisses, len(files))
	}

	if !reflect.DeepEqual(first.Occurrences, second.Occurrences) {
		t.Errorf("cached occurrences differ from executed ones:\nfirst:  %+v\nsecond: %+v",
			first.Occurrences, second.Occurrences)
	}
}

func TestChangedFileMissesCache(t *testing.T) {
	db, store := newTestStore(t)
	files := testFiles()

	reg := analysis.NewRegistry()
	reg.MustRegister(todoTechnique())
	eng := newTestEngine(t, reg, store, db)

	if _, err := eng.Run(files, ".", DefaultOptions()); err != nil {
		t.Fatalf("First run error: %v", err)
	}

	files[0].Content += "// TODO: another\n"
	result, err := eng.Run(files, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("Second run error: %v", err)
	}

	if result.Metrics.CacheHits != len(files)-1 {
		t.Errorf("hits = %d, want %d", result.Metrics.CacheHits, len(files)-1)
	}
	if result.Metrics.CacheMisses != 1 {
		t.Errorf("misses = %d, want 1", result.Metrics.CacheMisses)
	}

	count := 0
	for _, occ := range result.Occurrences {
		if occ.FilePath == "a.go" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("a.go occurrences = %d, want 2 after edit", count)
	}
}

func TestPanickingTechniqueIsIsolated(t *testing.T) {
	reg := analysis.NewRegistry()
	reg.MustRegister(todoTechnique())
	reg.MustRegister(analysis.Technique{
		Name: "always-throws",
		Run: func(_, relPath string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			panic(fmt.Sprintf("boom on %s", relPath))
		},
	})
	eng := newTestEngine(t, reg, nil, nil)

	files := testFiles()
	result, err := eng.Run(files, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var faults, todos int
	for _, occ := range result.Occurrences {
		switch occ.Kind {
		case KindTechniqueError:
			faults++
			if occ.Severity != analysis.SeverityError {
				t.Errorf("fault severity = %q, want error", occ.Severity)
			}
			if occ.Technique != "always-throws" {
				t.Errorf("fault technique = %q, want always-throws", occ.Technique)
			}
			if !strings.Contains(occ.Message, "boom") {
				t.Errorf("fault message %q does not carry the panic value", occ.Message)
			}
		case "todo-pending":
			todos++
		}
	}

	if faults != len(files) {
		t.Errorf("fault occurrences = %d, want one per file (%d)", faults, len(files))
	}
	if todos != 2 {
		t.Errorf("todo occurrences = %d, want 2; the fault must not disturb other techniques", todos)
	}
}

func TestHangingTechniqueTimesOut(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	reg := analysis.NewRegistry()
	reg.MustRegister(analysis.Technique{
		Name: "infinite-loop",
		Match: func(relPath string) bool {
			return relPath == "a.go"
		},
		Run: func(_, _ string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			<-block
			return nil
		},
	})
	eng := newTestEngine(t, reg, nil, nil)

	opts := DefaultOptions()
	opts.TimeoutMs = 50

	start := time.Now()
	result, err := eng.Run(testFiles(), ".", opts)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("run took %v, should be bounded by the 50ms budget", elapsed)
	}

	if len(result.Occurrences) != 1 {
		t.Fatalf("got %d occurrences, want 1 timeout", len(result.Occurrences))
	}
	occ := result.Occurrences[0]
	if occ.Kind != KindTechniqueTimeout {
		t.Errorf("Kind = %q, want %q", occ.Kind, KindTechniqueTimeout)
	}
	if occ.Severity != analysis.SeverityWarning {
		t.Errorf("Severity = %q, want warning", occ.Severity)
	}
	if occ.FilePath != "a.go" {
		t.Errorf("FilePath = %q, want a.go", occ.FilePath)
	}
}

func TestSyntheticOccurrencesAreCached(t *testing.T) {
	db, store := newTestStore(t)

	reg := analysis.NewRegistry()
	reg.MustRegister(analysis.Technique{
		Name: "always-throws",
		Run: func(_, _ string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			panic("boom")
		},
	})
	eng := newTestEngine(t, reg, store, db)

	files := testFiles()
	first, err := eng.Run(files, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("First run error: %v", err)
	}

	second, err := eng.Run(files, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("Second run error: %v", err)
	}

	if second.Metrics.CacheHits != len(files) {
		t.Fatalf("hits = %d, want %d", second.Metrics.CacheHits, len(files))
	}
	if !reflect.DeepEqual(first.Occurrences, second.Occurrences) {
		t.Errorf("cached synthetic occurrences must replay verbatim")
	}
}

func TestSequentialDeterminism(t *testing.T) {
	build := func() *Engine {
		reg := analysis.NewRegistry()
		reg.MustRegister(todoTechnique())
		reg.MustRegister(analysis.Technique{
			Name: "liner",
			Run: func(content, relPath string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
				return []analysis.Occurrence{{
					Kind:      "line-count",
					Severity:  analysis.SeverityInfo,
					Message:   fmt.Sprintf("%d lines", strings.Count(content, "\n")),
					FilePath:  relPath,
					Technique: "liner",
				}}
			},
		})
		return newTestEngine(t, reg, nil, nil)
	}

	opts := DefaultOptions()
	opts.Incremental = false

	first, err := build().Run(testFiles(), ".", opts)
	if err != nil {
		t.Fatalf("First run error: %v", err)
	}
	second, err := build().Run(testFiles(), ".", opts)
	if err != nil {
		t.Fatalf("Second run error: %v", err)
	}

	if !reflect.DeepEqual(first.Occurrences, second.Occurrences) {
		t.Errorf("identical inputs must yield identical occurrence sequences")
	}
}

func sortedOccurrences(occs []analysis.Occurrence) []analysis.Occurrence {
	out := make([]analysis.Occurrence, len(occs))
	copy(out, occs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func TestParallelMatchesSequential(t *testing.T) {
	files := testFiles()
	for i := 0; i < 20; i++ {
		files = append(files, analysis.FileEntry{
			RelPath: fmt.Sprintf("gen/f%02d.go", i),
			Content: fmt.Sprintf("package gen\n\n// TODO: item %d\n", i),
		})
	}

	build := func() *Engine {
		reg := analysis.NewRegistry()
		reg.MustRegister(todoTechnique())
		return newTestEngine(t, reg, nil, nil)
	}

	seqOpts := DefaultOptions()
	seqOpts.Incremental = false
	seq, err := build().Run(files, ".", seqOpts)
	if err != nil {
		t.Fatalf("Sequential run error: %v", err)
	}

	parOpts := seqOpts
	parOpts.Mode = ModeParallel
	parOpts.WorkerCount = 4
	par, err := build().Run(files, ".", parOpts)
	if err != nil {
		t.Fatalf("Parallel run error: %v", err)
	}

	if !reflect.DeepEqual(sortedOccurrences(seq.Occurrences), sortedOccurrences(par.Occurrences)) {
		t.Errorf("parallel occurrences differ from sequential:\nseq: %+v\npar: %+v",
			seq.Occurrences, par.Occurrences)
	}
}

func TestReportChannelStrippedInParallel(t *testing.T) {
	reporter := analysis.Technique{
		Name: "reporter",
		Run: func(_, relPath string, _ any, _ string, ctx *analysis.Context) []analysis.Occurrence {
			ctx.Emit(analysis.Occurrence{
				Kind:      "reported",
				Severity:  analysis.SeverityInfo,
				Message:   "via side channel",
				FilePath:  relPath,
				Technique: "reporter",
			})
			return nil
		},
	}

	countReported := func(mode Mode) int {
		reg := analysis.NewRegistry()
		reg.MustRegister(reporter)
		eng := newTestEngine(t, reg, nil, nil)

		opts := DefaultOptions()
		opts.Mode = mode
		opts.Incremental = false

		result, err := eng.Run(testFiles(), ".", opts)
		if err != nil {
			t.Fatalf("Run(%s) error: %v", mode, err)
		}
		n := 0
		for _, occ := range result.Occurrences {
			if occ.Kind == "reported" {
				n++
			}
		}
		return n
	}

	if n := countReported(ModeSequential); n != len(testFiles()) {
		t.Errorf("sequential emitted %d, want %d", n, len(testFiles()))
	}
	// The pool strips the callback, so per-file emissions are dropped.
	if n := countReported(ModeParallel); n != 0 {
		t.Errorf("parallel emitted %d, want 0", n)
	}
}

func TestGlobalTechniqueKeepsReportInParallel(t *testing.T) {
	reg := analysis.NewRegistry()
	reg.MustRegister(analysis.Technique{
		Name:   "global-reporter",
		Global: true,
		Run: func(_, _ string, _ any, _ string, ctx *analysis.Context) []analysis.Occurrence {
			ctx.Emit(analysis.Occurrence{
				Kind:      "global-reported",
				Severity:  analysis.SeverityInfo,
				Message:   fmt.Sprintf("%d files", len(ctx.Files)),
				Technique: "global-reporter",
			})
			return nil
		},
	})
	eng := newTestEngine(t, reg, nil, nil)

	opts := DefaultOptions()
	opts.Mode = ModeParallel
	opts.Incremental = false

	result, err := eng.Run(testFiles(), ".", opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Occurrences) != 1 || result.Occurrences[0].Kind != "global-reported" {
		t.Errorf("global side-channel emission missing: %+v", result.Occurrences)
	}
}

type recordingListener struct {
	files    []string
	complete int
}

func (l *recordingListener) FileProcessed(relPath string, occurrences int) {
	l.files = append(l.files, relPath)
}

func (l *recordingListener) AnalysisComplete(result *Result) {
	l.complete++
}

func TestListenerNotifications(t *testing.T) {
	reg := analysis.NewRegistry()
	reg.MustRegister(todoTechnique())

	listener := &recordingListener{}
	eng, err := New(Config{
		Registry: reg,
		Logger:   logging.NewDiscardLogger(),
		Listener: listener,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	files := testFiles()
	if _, err := eng.Run(files, ".", DefaultOptions()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{"a.go", "b.go", "c.txt"}
	if !reflect.DeepEqual(listener.files, want) {
		t.Errorf("FileProcessed order = %v, want %v", listener.files, want)
	}
	if listener.complete != 1 {
		t.Errorf("AnalysisComplete fired %d times, want 1", listener.complete)
	}
}

func TestMetricsPerTechniqueOrder(t *testing.T) {
	reg := analysis.NewRegistry()
	reg.MustRegister(analysis.Technique{
		Name:   "census",
		Global: true,
		Run: func(_, _ string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			return nil
		},
	})
	reg.MustRegister(todoTechnique())
	eng := newTestEngine(t, reg, nil, nil)

	result, err := eng.Run(testFiles(), ".", DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	m := result.Metrics
	if m == nil {
		t.Fatal("Metrics missing with Metrics option on")
	}
	if m.TotalFiles != len(testFiles()) {
		t.Errorf("TotalFiles = %d, want %d", m.TotalFiles, len(testFiles()))
	}
	if len(m.PerTechnique) != 2 {
		t.Fatalf("PerTechnique entries = %d, want 2", len(m.PerTechnique))
	}
	if m.PerTechnique[0].Name != "census" || !m.PerTechnique[0].Global {
		t.Errorf("first entry = %+v, want global census", m.PerTechnique[0])
	}
	if m.PerTechnique[1].Name != "todo-finder" {
		t.Errorf("second entry = %+v, want todo-finder", m.PerTechnique[1])
	}
	if m.PerTechnique[1].Occurrences != 2 {
		t.Errorf("todo-finder occurrences = %d, want 2", m.PerTechnique[1].Occurrences)
	}
}

func TestRunHistoryPersisted(t *testing.T) {
	db, store := newTestStore(t)

	reg := analysis.NewRegistry()
	reg.MustRegister(todoTechnique())
	eng := newTestEngine(t, reg, store, db)

	if _, err := eng.Run(testFiles(), ".", DefaultOptions()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if _, err := eng.Run(testFiles(), ".", DefaultOptions()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	count, err := db.RunHistoryCount()
	if err != nil {
		t.Fatalf("RunHistoryCount() error: %v", err)
	}
	if count != 2 {
		t.Errorf("history count = %d, want 2", count)
	}
}

func TestNilRegistryRejected(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() with nil registry must fail")
	}
}

func TestEmptyFileListYieldsEmptyResult(t *testing.T) {
	reg := analysis.NewRegistry()
	reg.MustRegister(todoTechnique())
	eng := newTestEngine(t, reg, nil, nil)

	result, err := eng.Run(nil, ".", DefaultOptions())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Occurrences == nil || len(result.Occurrences) != 0 {
		t.Errorf("Occurrences = %v, want empty non-nil slice", result.Occurrences)
	}
}
