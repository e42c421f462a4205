package engine

import (
	"time"

	"sift/internal/analysis"
	"sift/internal/incremental"
)

// runSequential is the deterministic single-threaded strategy. Conceptual
// state machine: Idle -> RunningGlobal -> RunningPerFile(i) -> Finalizing
// -> Done. Suspension happens only at technique-invocation boundaries,
// where the invocation races its timeout timer.
func (e *Engine) runSequential(files []analysis.FileEntry, baseDir string, opts Options) *runOutput {
	agg := newAggregator(e.registry)

	ctx := &analysis.Context{
		BaseDir: baseDir,
		Files:   files,
		Flags:   opts.Flags,
	}

	// RunningGlobal: every global technique once, registration order.
	occurrences := e.runGlobals(ctx, opts, agg)

	prev := e.loadSnapshot(opts)
	next := incremental.NewSnapshot()
	if prev != nil {
		next.Stats = prev.Stats
	}

	// RunningPerFile: files in scan order, techniques in registration
	// order within each file.
	analysisStart := time.Now()
	for i := range files {
		out := e.processFile(&files[i], ctx, prev, opts, true)

		occurrences = append(occurrences, out.occurrences...)
		next.Put(out.record)

		if out.cacheHit {
			agg.metrics.CacheHits++
			next.Stats.TotalReuses++
		} else {
			agg.metrics.CacheMisses++
			next.Stats.TotalProcessed++
			agg.metrics.ParseTimeMs += out.parseMs
			for name, sample := range out.samples {
				agg.addMs(name, sample.DurationMs, sample.Occurrences)
			}
		}

		e.notifyFile(files[i].RelPath, len(out.occurrences))
	}

	// Finalizing: aggregate metrics; persistence happens in Run.
	agg.metrics.TotalFiles = len(files)
	agg.metrics.AnalysisTimeMs = float64(time.Since(analysisStart)) / float64(time.Millisecond)

	return &runOutput{
		occurrences: occurrences,
		metrics:     agg.finish(),
		snapshot:    next,
	}
}
