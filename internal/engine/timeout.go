package engine

import (
	"fmt"
	"time"

	"sift/internal/analysis"
)

// invocation outcome classification. Faults and timeouts are soft: they
// become synthetic occurrences, never run aborts.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeFault
	outcomeTimeout
)

// Synthetic occurrence kinds produced by the engine itself.
const (
	KindTechniqueError   = "technique-error"
	KindTechniqueTimeout = "technique-timeout"
)

type invokeResult struct {
	occurrences []analysis.Occurrence
	outcome     outcome
	faultMsg    string
	elapsed     time.Duration
}

// invokeGuarded races one technique invocation against a countdown timer.
// The invocation runs in its own goroutine with panic recovery; whichever
// side finishes first wins. On timeout the goroutine is abandoned — it may
// run to completion in the background but its result lands in a buffered
// channel nobody reads and is discarded.
//
// Side-channel emissions are collected into an invocation-local buffer
// and merged into the result only on clean completion, so an abandoned
// invocation can never write into a later file's results. allowReport
// is false for per-file invocations in parallel mode, where the callback
// must not cross the worker boundary.
func invokeGuarded(t analysis.Technique, content, relPath string, tree any,
	fullPath string, ctx *analysis.Context, budget time.Duration, allowReport bool) invokeResult {

	type runResult struct {
		returned []analysis.Occurrence
		emitted  []analysis.Occurrence
		panicked bool
		panicMsg string
	}

	done := make(chan runResult, 1)
	start := time.Now()

	go func() {
		var emitted []analysis.Occurrence

		local := ctx.WithoutReport()
		if allowReport && local != nil {
			local.Report = func(occ analysis.Occurrence) {
				emitted = append(emitted, occ)
			}
		}

		defer func() {
			if r := recover(); r != nil {
				done <- runResult{panicked: true, panicMsg: fmt.Sprint(r)}
			}
		}()

		returned := t.Run(content, relPath, tree, fullPath, local)
		done <- runResult{returned: returned, emitted: emitted}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case res := <-done:
		elapsed := time.Since(start)
		if res.panicked {
			return invokeResult{outcome: outcomeFault, faultMsg: res.panicMsg, elapsed: elapsed}
		}
		// Emissions precede the return value in insertion order.
		occs := append(res.emitted, res.returned...)
		return invokeResult{occurrences: occs, outcome: outcomeOK, elapsed: elapsed}
	case <-timer.C:
		return invokeResult{outcome: outcomeTimeout, elapsed: budget}
	}
}

// faultOccurrence synthesizes the error-severity occurrence for a
// technique that panicked.
func faultOccurrence(technique, relPath, msg string) analysis.Occurrence {
	return analysis.Occurrence{
		Kind:      KindTechniqueError,
		Severity:  analysis.SeverityError,
		Message:   fmt.Sprintf("technique %s failed: %s", technique, msg),
		FilePath:  relPath,
		Technique: technique,
	}
}

// timeoutOccurrence synthesizes the warning-severity occurrence for a
// technique that exceeded its budget.
func timeoutOccurrence(technique, relPath string, budget time.Duration) analysis.Occurrence {
	return analysis.Occurrence{
		Kind:      KindTechniqueTimeout,
		Severity:  analysis.SeverityWarning,
		Message:   fmt.Sprintf("technique %s timed out after %dms", technique, budget.Milliseconds()),
		FilePath:  relPath,
		Technique: technique,
	}
}
