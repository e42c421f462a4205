package techniques

import (
	"fmt"
	"path"
	"sort"

	"sift/internal/analysis"
)

// duplicateBasenameThreshold is how many identically named files it takes
// before navigation gets painful enough to flag.
const duplicateBasenameThreshold = 3

// fileCensus is a global technique that surveys the file list for
// structural smells. It reports through the context's side channel to
// exercise the report path; global techniques always run on the
// coordinator, so the callback is available in both execution modes.
func fileCensus() analysis.Technique {
	return analysis.Technique{
		Name:   NameFileCensus,
		Global: true,
		Run: func(_, _ string, _ any, _ string, ctx *analysis.Context) []analysis.Occurrence {
			byName := make(map[string][]string)
			for i := range ctx.Files {
				base := path.Base(ctx.Files[i].RelPath)
				byName[base] = append(byName[base], ctx.Files[i].RelPath)
			}

			names := make([]string, 0, len(byName))
			for name, files := range byName {
				if len(files) >= duplicateBasenameThreshold {
					names = append(names, name)
				}
			}
			sort.Strings(names)

			for _, name := range names {
				files := byName[name]
				ctx.Emit(analysis.Occurrence{
					Kind:      "duplicate-basename",
					Severity:  analysis.SeverityInfo,
					Message:   fmt.Sprintf("%d files named %q; consider more distinctive names", len(files), name),
					FilePath:  files[0],
					Technique: NameFileCensus,
				})
			}
			return nil
		},
	}
}
