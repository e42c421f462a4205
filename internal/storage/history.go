package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// TechniqueSample is one technique's aggregate within a recorded run.
type TechniqueSample struct {
	Name        string  `json:"name"`
	DurationMs  float64 `json:"durationMs"`
	Occurrences int     `json:"occurrences"`
	Global      bool    `json:"global"`
}

// RunRecord is one entry of the persisted execution metrics history.
type RunRecord struct {
	ID              string            `json:"id"`
	RecordedAt      time.Time         `json:"recordedAt"`
	TotalFiles      int               `json:"totalFiles"`
	ParseMs         float64           `json:"parseMs"`
	AnalysisMs      float64           `json:"analysisMs"`
	CacheHits       int               `json:"cacheHits"`
	CacheMisses     int               `json:"cacheMisses"`
	OccurrenceCount int               `json:"occurrenceCount"`
	PerTechnique    []TechniqueSample `json:"perTechnique"`
}

// AppendRunRecord persists a run record and evicts the oldest entries
// beyond maxEntries. maxEntries <= 0 disables eviction.
func (db *DB) AppendRunRecord(rec *RunRecord, maxEntries int) error {
	perTechnique, err := json.Marshal(rec.PerTechnique)
	if err != nil {
		return fmt.Errorf("failed to encode per-technique samples: %w", err)
	}

	return db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO run_history (
				id, recorded_at, total_files, parse_ms, analysis_ms,
				cache_hits, cache_misses, occurrence_count, per_technique
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.RecordedAt.UTC().Format(time.RFC3339Nano), rec.TotalFiles,
			rec.ParseMs, rec.AnalysisMs, rec.CacheHits, rec.CacheMisses,
			rec.OccurrenceCount, string(perTechnique))
		if err != nil {
			return fmt.Errorf("failed to insert run record: %w", err)
		}

		if maxEntries > 0 {
			_, err = tx.Exec(`
				DELETE FROM run_history WHERE id NOT IN (
					SELECT id FROM run_history ORDER BY recorded_at DESC LIMIT ?
				)
			`, maxEntries)
			if err != nil {
				return fmt.Errorf("failed to evict old run records: %w", err)
			}
		}

		return nil
	})
}

// GetRunHistory returns the most recent run records, newest first.
func (db *DB) GetRunHistory(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, recorded_at, total_files, parse_ms, analysis_ms,
		       cache_hits, cache_misses, occurrence_count, per_technique
		FROM run_history
		ORDER BY recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best effort cleanup

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var recordedAt, perTechnique string
		if err := rows.Scan(
			&rec.ID, &recordedAt, &rec.TotalFiles, &rec.ParseMs, &rec.AnalysisMs,
			&rec.CacheHits, &rec.CacheMisses, &rec.OccurrenceCount, &perTechnique,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}

		rec.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		if perTechnique != "" {
			if err := json.Unmarshal([]byte(perTechnique), &rec.PerTechnique); err != nil {
				return nil, fmt.Errorf("failed to decode per-technique samples: %w", err)
			}
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// RunHistoryCount returns the number of persisted run records.
func (db *DB) RunHistoryCount() (int, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM run_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count run history: %w", err)
	}
	return count, nil
}
