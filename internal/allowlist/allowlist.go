// Package allowlist filters occurrences against project-level
// suppressions declared in .sift/allow.toml.
package allowlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"sift/internal/analysis"
	"sift/internal/paths"
)

// FileName is the suppression file inside the state directory.
const FileName = "allow.toml"

// Rule suppresses occurrences matching all of its non-empty fields.
type Rule struct {
	Kind       string `toml:"kind"`
	Technique  string `toml:"technique"`
	PathPrefix string `toml:"path_prefix"`
	Reason     string `toml:"reason"`
}

// Allowlist is the parsed suppression file.
type Allowlist struct {
	Rules []Rule `toml:"rule"`
}

// Load reads the allowlist for a repo. A missing file yields an empty
// allowlist; a malformed file is an error so typos do not silently
// suppress nothing.
func Load(repoRoot string) (*Allowlist, error) {
	path := filepath.Join(paths.SiftDir(repoRoot), FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Allowlist{}, nil
		}
		return nil, fmt.Errorf("failed to read allowlist: %w", err)
	}

	var al Allowlist
	if err := toml.Unmarshal(data, &al); err != nil {
		return nil, fmt.Errorf("failed to parse allowlist: %w", err)
	}

	return &al, nil
}

// Matches reports whether any rule suppresses occ.
func (a *Allowlist) Matches(occ *analysis.Occurrence) bool {
	for i := range a.Rules {
		if a.Rules[i].matches(occ) {
			return true
		}
	}
	return false
}

func (r *Rule) matches(occ *analysis.Occurrence) bool {
	if r.Kind != "" && r.Kind != occ.Kind {
		return false
	}
	if r.Technique != "" && r.Technique != occ.Technique {
		return false
	}
	if r.PathPrefix != "" && !strings.HasPrefix(occ.FilePath, r.PathPrefix) {
		return false
	}
	// An all-empty rule matches nothing rather than everything.
	return r.Kind != "" || r.Technique != "" || r.PathPrefix != ""
}

// Filter partitions occurrences into kept and suppressed.
func (a *Allowlist) Filter(occs []analysis.Occurrence) (kept, suppressed []analysis.Occurrence) {
	if len(a.Rules) == 0 {
		return occs, nil
	}
	for _, occ := range occs {
		if a.Matches(&occ) {
			suppressed = append(suppressed, occ)
		} else {
			kept = append(kept, occ)
		}
	}
	return kept, suppressed
}
