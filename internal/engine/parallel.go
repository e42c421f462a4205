package engine

import (
	"time"

	"golang.org/x/sync/errgroup"

	"sift/internal/analysis"
	"sift/internal/incremental"
)

// runParallel is the worker-pool strategy. Global techniques still run
// once on the coordinator; per-file work is partitioned into contiguous
// batches dispatched to a bounded pool. Fingerprinting and cache lookups
// happen inside the workers so the coordinator never becomes a
// bottleneck. Workers return plain data only — the report callback is
// stripped from the context before dispatch — and the coordinator merges
// results back in scan order, which keeps occurrence identity
// deterministic even though wall-clock interleaving is not.
func (e *Engine) runParallel(files []analysis.FileEntry, baseDir string, opts Options) *runOutput {
	agg := newAggregator(e.registry)

	ctx := &analysis.Context{
		BaseDir: baseDir,
		Files:   files,
		Flags:   opts.Flags,
	}

	occurrences := e.runGlobals(ctx, opts, agg)

	prev := e.loadSnapshot(opts)
	workerCtx := ctx.WithoutReport()

	analysisStart := time.Now()
	results := make([]fileOutcome, len(files))

	var g errgroup.Group
	g.SetLimit(opts.WorkerCount)

	batch := batchSize(len(files), opts.WorkerCount)
	for lo := 0; lo < len(files); lo += batch {
		lo := lo
		hi := lo + batch
		if hi > len(files) {
			hi = len(files)
		}

		g.Go(func() error {
			for i := lo; i < hi; i++ {
				results[i] = e.processFile(&files[i], workerCtx, prev, opts, false)
			}
			return nil
		})
	}

	// Workers never return errors: per-item faults are already data.
	_ = g.Wait()

	// Merge step: the only cross-worker synchronization, a simple
	// associative combine in scan order.
	next := incremental.NewSnapshot()
	if prev != nil {
		next.Stats = prev.Stats
	}

	for i := range files {
		out := results[i]

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

	agg.metrics.TotalFiles = len(files)
	agg.metrics.AnalysisTimeMs = float64(time.Since(analysisStart)) / float64(time.Millisecond)

	return &runOutput{
		occurrences: occurrences,
		metrics:     agg.finish(),
		snapshot:    next,
	}
}

// batchSize spreads files evenly over the pool, at least one per batch.
func batchSize(total, workers int) int {
	if total == 0 {
		return 1
	}
	size := (total + workers - 1) / workers
	if size < 1 {
		size = 1
	}
	return size
}
