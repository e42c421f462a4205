// Package techniques contains sift's builtin analysis rules: single-pass
// text and manifest inspections registered against the engine's technique
// contract. Registration happens once at process startup; there is no
// runtime discovery.
package techniques

import (
	"fmt"

	"sift/internal/analysis"
)

// Builtin names, in registration order.
const (
	NameTodoFinder    = "todo-finder"
	NameLongLine      = "long-line"
	NameDebugPrint    = "debug-print"
	NameYAMLSyntax    = "yaml-syntax"
	NameManifestAudit = "manifest-audit"
	NameFileCensus    = "file-census"
)

// All lists every builtin in registration order.
func All() []analysis.Technique {
	return []analysis.Technique{
		manifestAudit(),
		fileCensus(),
		todoFinder(),
		longLine(),
		debugPrint(),
		yamlSyntax(),
	}
}

// Register adds the builtin techniques to reg. enabled restricts the set
// by name; nil enables everything. Unknown names in enabled are a
// registration-time error so config typos fail fast.
func Register(reg *analysis.Registry, enabled map[string]bool) error {
	known := make(map[string]struct{})
	for _, t := range All() {
		known[t.Name] = struct{}{}
	}
	for name := range enabled {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("unknown technique in configuration: %q", name)
		}
	}

	for _, t := range All() {
		if enabled != nil {
			on, listed := enabled[t.Name]
			if listed && !on {
				continue
			}
		}
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func hasAnySuffix(path string, suffixes ...string) bool {
	for _, s := range suffixes {
		if len(path) >= len(s) && path[len(path)-len(s):] == s {
			return true
		}
	}
	return false
}
