// Package incremental provides content-addressed caching of analysis
// results. A file whose fingerprint is unchanged between runs is skipped
// entirely and its stored occurrences are re-emitted verbatim.
package incremental

import "sift/internal/analysis"

// SnapshotVersion is the persisted snapshot format version. A stored
// snapshot with a different version is discarded and the engine starts
// from an empty cache.
const SnapshotVersion = 1

// TechniqueStat records one technique's cost on one file.
type TechniqueStat struct {
	DurationMs  float64 `json:"durationMs"`
	Occurrences int     `json:"occurrences"`
}

// Record is the cached analysis state of a single file.
// Invariant: Fingerprint always reflects the content that produced
// Occurrences.
type Record struct {
	Path         string                   `json:"path"`
	Fingerprint  string                   `json:"fingerprint"`
	Occurrences  []analysis.Occurrence    `json:"occurrences"`
	PerTechnique map[string]TechniqueStat `json:"perTechnique"`
	LastRunMs    int64                    `json:"lastRunMs"` // epoch milliseconds
	ReuseCount   int                      `json:"reuseCount"`
}

// Stats summarizes cache effectiveness across a snapshot's lifetime.
type Stats struct {
	TotalReuses    int     `json:"totalReuses"`
	TotalProcessed int     `json:"totalProcessed"`
	LastDurationMs float64 `json:"lastDurationMs"`
}

// Snapshot is the full incremental store for one project. It is loaded
// once per run; a new snapshot built during the run fully replaces it on
// success. Files deleted from the project simply stop appearing.
type Snapshot struct {
	SchemaVersion int                `json:"schemaVersion"`
	Records       map[string]*Record `json:"records"`
	Stats         Stats              `json:"stats"`
}

// NewSnapshot creates an empty snapshot at the current version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		SchemaVersion: SnapshotVersion,
		Records:       make(map[string]*Record),
	}
}

// Lookup returns the record for path if its fingerprint matches, nil
// otherwise. A match means the stored occurrences are authoritative.
func (s *Snapshot) Lookup(path, fingerprint string) *Record {
	if s == nil {
		return nil
	}
	rec, ok := s.Records[path]
	if !ok || rec.Fingerprint != fingerprint {
		return nil
	}
	return rec
}

// Put stores a record, replacing any previous entry for the same path.
func (s *Snapshot) Put(rec *Record) {
	s.Records[rec.Path] = rec
}

// Len returns the number of cached files.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}
