// Package export writes analysis results to compressed snapshot files
// so runs can be archived or diffed outside the repo.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"sift/internal/engine"
)

// FormatVersion identifies the snapshot layout. Bump on breaking changes.
const FormatVersion = 1

// Snapshot is the serialized form of one analysis run.
type Snapshot struct {
	FormatVersion int            `json:"formatVersion"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	RepoRoot      string         `json:"repoRoot"`
	Result        *engine.Result `json:"result"`
}

// Write serializes a result to path as zstd-compressed JSON. The parent
// directory is created if needed.
func Write(path, repoRoot string, result *engine.Result) error {
	if result == nil {
		return fmt.Errorf("cannot export a nil result")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}

	snap := Snapshot{
		FormatVersion: FormatVersion,
		GeneratedAt:   time.Now().UTC(),
		RepoRoot:      repoRoot,
		Result:        result,
	}

	if err := json.NewEncoder(enc).Encode(&snap); err != nil {
		enc.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize compression: %w", err)
	}
	return f.Close()
}

// Read loads a snapshot previously written by Write.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec.IOReadCloser()).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if snap.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (want %d)", snap.FormatVersion, FormatVersion)
	}
	return &snap, nil
}
