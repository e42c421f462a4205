package incremental

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"sift/internal/analysis"
	"sift/internal/logging"
	"sift/internal/storage"
)

// cache_meta keys.
const (
	metaKeySnapshotVersion = "snapshot_version"
	metaKeyTotalReuses     = "total_reuses"
	metaKeyTotalProcessed  = "total_processed"
	metaKeyLastDurationMs  = "last_duration_ms"
)

// Store persists incremental snapshots in SQLite. Persistence faults are
// never fatal: a failed load yields an empty snapshot and a failed save
// leaves the previous snapshot in place, which at worst re-runs work.
type Store struct {
	db     *storage.DB
	logger *logging.Logger
}

// NewStore creates an incremental store backed by db.
func NewStore(db *storage.DB, logger *logging.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Load reads the persisted snapshot. A missing, unreadable, or
// version-mismatched snapshot silently yields an empty one.
func (s *Store) Load() *Snapshot {
	version := s.getMetaInt(metaKeySnapshotVersion)
	if version != SnapshotVersion {
		if version != 0 {
			s.logger.Info("Discarding incompatible analysis cache", map[string]interface{}{
				"storedVersion":   version,
				"expectedVersion": SnapshotVersion,
			})
		}
		return NewSnapshot()
	}

	rows, err := s.db.Query(`
		SELECT path, fingerprint, occurrences, per_technique, last_run_ms, reuse_count
		FROM analyzed_files
	`)
	if err != nil {
		s.logger.Warn("Failed to load analysis cache, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		return NewSnapshot()
	}
	defer rows.Close() //nolint:errcheck // Best effort cleanup

	snap := NewSnapshot()
	for rows.Next() {
		var rec Record
		var occurrences, perTechnique string

		if err := rows.Scan(&rec.Path, &rec.Fingerprint, &occurrences, &perTechnique,
			&rec.LastRunMs, &rec.ReuseCount); err != nil {
			s.logger.Warn("Failed to scan cache record, starting empty", map[string]interface{}{
				"error": err.Error(),
			})
			return NewSnapshot()
		}

		if err := json.Unmarshal([]byte(occurrences), &rec.Occurrences); err != nil {
			s.logger.Warn("Corrupt cached occurrences, skipping record", map[string]interface{}{
				"path":  rec.Path,
				"error": err.Error(),
			})
			continue
		}
		if err := json.Unmarshal([]byte(perTechnique), &rec.PerTechnique); err != nil {
			rec.PerTechnique = make(map[string]TechniqueStat)
		}
		if rec.Occurrences == nil {
			rec.Occurrences = []analysis.Occurrence{}
		}

		snap.Put(&rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("Failed to iterate cache records, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		return NewSnapshot()
	}

	snap.Stats = Stats{
		TotalReuses:    int(s.getMetaInt(metaKeyTotalReuses)),
		TotalProcessed: int(s.getMetaInt(metaKeyTotalProcessed)),
		LastDurationMs: s.getMetaFloat(metaKeyLastDurationMs),
	}

	return snap
}

// Replace atomically swaps the persisted snapshot for snap. The old
// records are fully discarded, so entries for deleted files never
// accumulate. Only called after a successful run.
func (s *Store) Replace(snap *Snapshot) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM analyzed_files`); err != nil {
			return fmt.Errorf("failed to clear analyzed_files: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO analyzed_files (path, fingerprint, occurrences, per_technique, last_run_ms, reuse_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare cache insert: %w", err)
		}
		defer stmt.Close() //nolint:errcheck // Best effort cleanup

		for _, rec := range snap.Records {
			occurrences, err := json.Marshal(rec.Occurrences)
			if err != nil {
				return fmt.Errorf("failed to encode occurrences for %s: %w", rec.Path, err)
			}
			perTechnique, err := json.Marshal(rec.PerTechnique)
			if err != nil {
				return fmt.Errorf("failed to encode technique stats for %s: %w", rec.Path, err)
			}

			if _, err := stmt.Exec(rec.Path, rec.Fingerprint, string(occurrences),
				string(perTechnique), rec.LastRunMs, rec.ReuseCount); err != nil {
				return fmt.Errorf("failed to insert cache record for %s: %w", rec.Path, err)
			}
		}

		meta := map[string]string{
			metaKeySnapshotVersion: strconv.Itoa(snap.SchemaVersion),
			metaKeyTotalReuses:     strconv.Itoa(snap.Stats.TotalReuses),
			metaKeyTotalProcessed:  strconv.Itoa(snap.Stats.TotalProcessed),
			metaKeyLastDurationMs:  strconv.FormatFloat(snap.Stats.LastDurationMs, 'f', -1, 64),
		}
		for key, value := range meta {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO cache_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
				return fmt.Errorf("failed to set cache meta %s: %w", key, err)
			}
		}

		return nil
	})
}

// Clear removes the persisted snapshot entirely.
func (s *Store) Clear() error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM analyzed_files`); err != nil {
			return fmt.Errorf("failed to clear analyzed_files: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM cache_meta`); err != nil {
			return fmt.Errorf("failed to clear cache_meta: %w", err)
		}
		return nil
	})
}

func (s *Store) getMeta(key string) string {
	var value string
	row := s.db.QueryRow(`SELECT value FROM cache_meta WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		return ""
	}
	return value
}

func (s *Store) getMetaInt(key string) int64 {
	value := s.getMeta(key)
	if value == "" {
		return 0
	}
	i, _ := strconv.ParseInt(value, 10, 64)
	return i
}

func (s *Store) getMetaFloat(key string) float64 {
	value := s.getMeta(key)
	if value == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(value, 64)
	return f
}
