// Package engine schedules analysis techniques over files, enforcing
// per-invocation timeouts and fault isolation, deduplicating work across
// runs through the incremental store, and aggregating execution metrics.
//
// Two execution strategies are offered: sequential (deterministic
// ordering, cooperative suspension at invocation boundaries) and parallel
// (bounded worker pool, results merged back in scan order).
package engine

import (
	"time"

	"github.com/google/uuid"

	"sift/internal/analysis"
	sifterrors "sift/internal/errors"
	"sift/internal/incremental"
	"sift/internal/logging"
	"sift/internal/storage"
)

// TreeBuilder turns raw source text into a language-specific tree handle,
// or nil when the language is unknown or parsing fails. The engine passes
// handles through to techniques unchanged and never inspects them.
type TreeBuilder func(content, relPath string) any

// Config wires an Engine's collaborators. Registry is required;
// everything else is optional.
type Config struct {
	Registry *analysis.Registry
	Cache    *incremental.Store // nil disables incremental persistence
	DB       *storage.DB        // nil disables the metrics history
	Trees    TreeBuilder        // nil means techniques receive nil trees
	Logger   *logging.Logger
	Listener Listener // nil means no progress notifications

	// HistoryMax bounds the persisted run history; older entries are
	// evicted. <= 0 uses DefaultHistoryMax.
	HistoryMax int
}

// DefaultHistoryMax is the run-history bound used when none is set.
const DefaultHistoryMax = 100

// Engine executes registered techniques over a file set.
type Engine struct {
	registry   *analysis.Registry
	cache      *incremental.Store
	db         *storage.DB
	trees      TreeBuilder
	logger     *logging.Logger
	listener   Listener
	historyMax int
}

// New creates an engine. A nil or empty registry is a structural fault,
// the only error class that aborts before any run.
func New(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, sifterrors.NewSiftError(sifterrors.RegistrationInvalid,
			"engine requires a technique registry", nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDiscardLogger()
	}
	if cfg.HistoryMax <= 0 {
		cfg.HistoryMax = DefaultHistoryMax
	}

	cfg.Registry.Seal()

	return &Engine{
		registry:   cfg.Registry,
		cache:      cfg.Cache,
		db:         cfg.DB,
		trees:      cfg.Trees,
		logger:     cfg.Logger,
		listener:   cfg.Listener,
		historyMax: cfg.HistoryMax,
	}, nil
}

// Result is what a run hands back to the caller.
type Result struct {
	Occurrences []analysis.Occurrence `json:"occurrences"`
	Metrics     *Metrics              `json:"metrics,omitempty"`
}

// runOutput is the internal result of either executor before
// finalization.
type runOutput struct {
	occurrences []analysis.Occurrence
	metrics     *Metrics
	snapshot    *incremental.Snapshot
}

// Run executes all registered techniques over files. Per-item faults are
// recovered into occurrences; the returned error is always nil today and
// reserved for future structural failures.
func (e *Engine) Run(files []analysis.FileEntry, baseDir string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()

	e.logger.Debug("Starting analysis run", map[string]interface{}{
		"mode":       string(opts.Mode),
		"files":      len(files),
		"techniques": e.registry.Len(),
	})

	var out *runOutput
	if opts.Mode == ModeParallel {
		out = e.runParallel(files, baseDir, opts)
	} else {
		out = e.runSequential(files, baseDir, opts)
	}

	totalMs := float64(time.Since(start)) / float64(time.Millisecond)
	out.snapshot.Stats.LastDurationMs = totalMs

	// A failed run persists nothing; reaching this point means success.
	if opts.Incremental && e.cache != nil {
		if err := e.cache.Replace(out.snapshot); err != nil {
			e.logger.Warn("Failed to persist analysis cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	result := &Result{Occurrences: out.occurrences}
	if result.Occurrences == nil {
		result.Occurrences = []analysis.Occurrence{}
	}

	if opts.Metrics {
		result.Metrics = out.metrics
		e.appendHistory(out.metrics, len(result.Occurrences))
	}

	e.logger.Info("Analysis run complete", map[string]interface{}{
		"occurrences": len(result.Occurrences),
		"durationMs":  totalMs,
	})

	e.notifyComplete(result)
	return result, nil
}

// loadSnapshot returns the previous snapshot, or nil when incremental
// mode is off or no store is attached.
func (e *Engine) loadSnapshot(opts Options) *incremental.Snapshot {
	if !opts.Incremental || e.cache == nil {
		return nil
	}
	return e.cache.Load()
}

func (e *Engine) appendHistory(m *Metrics, occurrences int) {
	if e.db == nil || m == nil {
		return
	}

	samples := make([]storage.TechniqueSample, 0, len(m.PerTechnique))
	for _, tm := range m.PerTechnique {
		samples = append(samples, storage.TechniqueSample{
			Name:        tm.Name,
			DurationMs:  tm.DurationMs,
			Occurrences: tm.Occurrences,
			Global:      tm.Global,
		})
	}

	rec := &storage.RunRecord{
		ID:              uuid.New().String(),
		RecordedAt:      time.Now(),
		TotalFiles:      m.TotalFiles,
		ParseMs:         m.ParseTimeMs,
		AnalysisMs:      m.AnalysisTimeMs,
		CacheHits:       m.CacheHits,
		CacheMisses:     m.CacheMisses,
		OccurrenceCount: occurrences,
		PerTechnique:    samples,
	}

	if err := e.db.AppendRunRecord(rec, e.historyMax); err != nil {
		e.logger.Warn("Failed to append run history", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
