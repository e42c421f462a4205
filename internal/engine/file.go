package engine

import (
	"time"

	"sift/internal/analysis"
	"sift/internal/incremental"
)

// fileOutcome is the result of processing one file. It is plain data so
// parallel workers can hand it back across the pool boundary.
type fileOutcome struct {
	occurrences []analysis.Occurrence
	record      *incremental.Record
	cacheHit    bool
	parseMs     float64
	samples     map[string]incremental.TechniqueStat
}

// processFile runs all applicable per-file techniques against one file,
// consulting the previous snapshot first. On a fingerprint match the
// stored occurrences are re-emitted verbatim and no technique runs.
//
// prev is read-only and safe for concurrent lookups; the returned record
// is always a fresh value, never a pointer into prev. allowReport gates
// the side-channel callback (false inside the worker pool).
func (e *Engine) processFile(f *analysis.FileEntry, ctx *analysis.Context,
	prev *incremental.Snapshot, opts Options, allowReport bool) fileOutcome {

	fp := incremental.Fingerprint(f.Content)

	if cached := prev.Lookup(f.RelPath, fp); cached != nil {
		reused := *cached
		reused.ReuseCount++
		return fileOutcome{
			occurrences: cached.Occurrences,
			record:      &reused,
			cacheHit:    true,
			samples:     nil, // nothing executed
		}
	}

	tree := f.SyntaxTree
	var parseMs float64
	if tree == nil && e.trees != nil {
		parseStart := time.Now()
		tree = e.trees(f.Content, f.RelPath)
		parseMs = float64(time.Since(parseStart)) / float64(time.Millisecond)
	}

	var occs []analysis.Occurrence
	samples := make(map[string]incremental.TechniqueStat)
	budget := opts.fileBudget()

	for _, t := range e.registry.PerFile() {
		if !t.Applies(f.RelPath) {
			continue
		}

		res := invokeGuarded(t, f.Content, f.RelPath, tree, f.FullPath, ctx, budget, allowReport)

		switch res.outcome {
		case outcomeOK:
			occs = append(occs, res.occurrences...)
			samples[t.Name] = incremental.TechniqueStat{
				DurationMs:  float64(res.elapsed) / float64(time.Millisecond),
				Occurrences: len(res.occurrences),
			}
		case outcomeFault:
			e.logger.Debug("Technique fault", map[string]interface{}{
				"technique": t.Name,
				"file":      f.RelPath,
				"panic":     res.faultMsg,
			})
			occs = append(occs, faultOccurrence(t.Name, f.RelPath, res.faultMsg))
			samples[t.Name] = incremental.TechniqueStat{
				DurationMs: float64(res.elapsed) / float64(time.Millisecond),
			}
		case outcomeTimeout:
			e.logger.Debug("Technique timeout", map[string]interface{}{
				"technique": t.Name,
				"file":      f.RelPath,
				"budgetMs":  budget.Milliseconds(),
			})
			occs = append(occs, timeoutOccurrence(t.Name, f.RelPath, budget))
			samples[t.Name] = incremental.TechniqueStat{
				DurationMs: float64(res.elapsed) / float64(time.Millisecond),
			}
		}
	}

	if occs == nil {
		occs = []analysis.Occurrence{}
	}

	rec := &incremental.Record{
		Path:         f.RelPath,
		Fingerprint:  fp,
		Occurrences:  occs,
		PerTechnique: samples,
		LastRunMs:    time.Now().UnixMilli(),
	}

	return fileOutcome{
		occurrences: occs,
		record:      rec,
		parseMs:     parseMs,
		samples:     samples,
	}
}

// runGlobals executes every global technique once, in registration order,
// on the coordinating goroutine. The report side channel stays available
// here in both modes.
func (e *Engine) runGlobals(ctx *analysis.Context, opts Options, agg *aggregator) []analysis.Occurrence {
	var occs []analysis.Occurrence
	budget := opts.globalBudget()

	for _, t := range e.registry.Globals() {
		res := invokeGuarded(t, "", "", nil, "", ctx, budget, true)

		switch res.outcome {
		case outcomeOK:
			occs = append(occs, res.occurrences...)
			agg.add(t.Name, res.elapsed, len(res.occurrences))
		case outcomeFault:
			e.logger.Debug("Global technique fault", map[string]interface{}{
				"technique": t.Name,
				"panic":     res.faultMsg,
			})
			occs = append(occs, faultOccurrence(t.Name, "", res.faultMsg))
			agg.add(t.Name, res.elapsed, 0)
		case outcomeTimeout:
			e.logger.Debug("Global technique timeout", map[string]interface{}{
				"technique": t.Name,
				"budgetMs":  budget.Milliseconds(),
			})
			occs = append(occs, timeoutOccurrence(t.Name, "", budget))
			agg.add(t.Name, res.elapsed, 0)
		}
	}

	return occs
}
