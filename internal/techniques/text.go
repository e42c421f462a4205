package techniques

import (
	"fmt"
	"strings"

	"sift/internal/analysis"
)

// maxLineLength is the threshold for the long-line rule.
const maxLineLength = 120

// todoFinder flags lines containing pending TODO or FIXME markers.
func todoFinder() analysis.Technique {
	return analysis.Technique{
		Name: NameTodoFinder,
		Run: func(content, relPath string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			var occs []analysis.Occurrence
			for i, line := range strings.Split(content, "\n") {
				marker := ""
				switch {
				case strings.Contains(line, "TODO"):
					marker = "TODO"
				case strings.Contains(line, "FIXME"):
					marker = "FIXME"
				default:
					continue
				}
				occs = append(occs, analysis.Occurrence{
					Kind:      "todo-pending",
					Severity:  analysis.SeverityInfo,
					Message:   fmt.Sprintf("pending %s: %s", marker, strings.TrimSpace(line)),
					FilePath:  relPath,
					Line:      i + 1,
					Technique: NameTodoFinder,
				})
			}
			return occs
		},
	}
}

// longLine flags lines longer than maxLineLength characters.
func longLine() analysis.Technique {
	return analysis.Technique{
		Name: NameLongLine,
		Run: func(content, relPath string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			var occs []analysis.Occurrence
			for i, line := range strings.Split(content, "\n") {
				length := len([]rune(line))
				if length <= maxLineLength {
					continue
				}
				occs = append(occs, analysis.Occurrence{
					Kind:      "line-too-long",
					Severity:  analysis.SeverityInfo,
					Message:   fmt.Sprintf("line is %d characters (limit %d)", length, maxLineLength),
					FilePath:  relPath,
					Line:      i + 1,
					Technique: NameLongLine,
				})
			}
			return occs
		},
	}
}

// debugPrintPatterns maps a source-file suffix group to the leftover
// debug statements worth flagging there.
var debugPrintPatterns = []struct {
	suffixes []string
	needles  []string
}{
	{[]string{".go"}, []string{"fmt.Println(", "println("}},
	{[]string{".js", ".jsx", ".ts", ".tsx", ".mjs"}, []string{"console.log(", "debugger"}},
	{[]string{".py"}, []string{"breakpoint()", "pdb.set_trace("}},
}

// debugPrint flags leftover debugging statements in source files.
func debugPrint() analysis.Technique {
	var allSuffixes []string
	for _, p := range debugPrintPatterns {
		allSuffixes = append(allSuffixes, p.suffixes...)
	}

	return analysis.Technique{
		Name: NameDebugPrint,
		Match: func(relPath string) bool {
			return hasAnySuffix(relPath, allSuffixes...)
		},
		Run: func(content, relPath string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			var needles []string
			for _, p := range debugPrintPatterns {
				if hasAnySuffix(relPath, p.suffixes...) {
					needles = p.needles
					break
				}
			}
			if needles == nil {
				return nil
			}

			var occs []analysis.Occurrence
			for i, line := range strings.Split(content, "\n") {
				for _, needle := range needles {
					if !strings.Contains(line, needle) {
						continue
					}
					occs = append(occs, analysis.Occurrence{
						Kind:      "debug-print",
						Severity:  analysis.SeverityWarning,
						Message:   fmt.Sprintf("leftover debug statement %q", strings.TrimSuffix(needle, "(")),
						FilePath:  relPath,
						Line:      i + 1,
						Technique: NameDebugPrint,
					})
					break
				}
			}
			return occs
		},
	}
}
