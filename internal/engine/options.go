package engine

import (
	"runtime"
	"time"
)

// Mode selects the execution strategy.
type Mode string

const (
	// ModeSequential runs techniques one at a time with fully
	// deterministic ordering (registration order, scan order).
	ModeSequential Mode = "sequential"

	// ModeParallel partitions per-file work across a bounded worker
	// pool. Occurrence identity stays deterministic because results are
	// merged back in scan order; wall-clock interleaving is not.
	ModeParallel Mode = "parallel"
)

// Default per-invocation budgets. A technique that exceeds its budget is
// abandoned and reported as a timeout occurrence.
const (
	DefaultTimeoutMs       = 2000
	DefaultGlobalTimeoutMs = 10000
)

// Options configures a single engine run.
type Options struct {
	Mode            Mode
	TimeoutMs       int // per technique-per-file budget
	GlobalTimeoutMs int // per global technique budget
	Incremental     bool
	Metrics         bool
	WorkerCount     int // parallel mode only; 0 = available parallelism
	Flags           map[string]bool
}

// DefaultOptions returns the options used when the caller passes zero
// values.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeSequential,
		TimeoutMs:       DefaultTimeoutMs,
		GlobalTimeoutMs: DefaultGlobalTimeoutMs,
		Incremental:     true,
		Metrics:         true,
	}
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeSequential
	}
	if o.TimeoutMs <= 0 {
		o.TimeoutMs = DefaultTimeoutMs
	}
	if o.GlobalTimeoutMs <= 0 {
		o.GlobalTimeoutMs = DefaultGlobalTimeoutMs
	}
	if o.WorkerCount <= 0 {
		o.WorkerCount = runtime.NumCPU()
	}
	return o
}

func (o Options) fileBudget() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

func (o Options) globalBudget() time.Duration {
	return time.Duration(o.GlobalTimeoutMs) * time.Millisecond
}
