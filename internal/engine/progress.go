package engine

// Listener receives advisory progress notifications during a run. The
// engine behaves identically with or without one attached; it exists for
// CLI progress reporting only.
type Listener interface {
	// FileProcessed fires after each file, whether executed or reused
	// from the cache.
	FileProcessed(relPath string, occurrences int)

	// AnalysisComplete fires once with the full result before Run
	// returns.
	AnalysisComplete(result *Result)
}

func (e *Engine) notifyFile(relPath string, occurrences int) {
	if e.listener != nil {
		e.listener.FileProcessed(relPath, occurrences)
	}
}

func (e *Engine) notifyComplete(result *Result) {
	if e.listener != nil {
		e.listener.AnalysisComplete(result)
	}
}
