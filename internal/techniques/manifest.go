package techniques

import (
	"fmt"
	"path"

	toml "github.com/pelletier/go-toml/v2"

	"sift/internal/analysis"
)

// cargoManifest is the subset of Cargo.toml we audit.
type cargoManifest struct {
	Package struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
		License     string `toml:"license"`
	} `toml:"package"`
}

// pyProject is the subset of pyproject.toml we audit.
type pyProject struct {
	Project struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
		License     any    `toml:"license"` // string or table, both accepted
	} `toml:"project"`
}

// manifestAudit is a global technique: it walks the whole file list once
// and flags package manifests missing basic metadata.
func manifestAudit() analysis.Technique {
	return analysis.Technique{
		Name:   NameManifestAudit,
		Global: true,
		Run: func(_, _ string, _ any, _ string, ctx *analysis.Context) []analysis.Occurrence {
			var occs []analysis.Occurrence
			for i := range ctx.Files {
				f := &ctx.Files[i]
				switch path.Base(f.RelPath) {
				case "Cargo.toml":
					occs = append(occs, auditCargo(f)...)
				case "pyproject.toml":
					occs = append(occs, auditPyProject(f)...)
				}
			}
			return occs
		},
	}
}

func auditCargo(f *analysis.FileEntry) []analysis.Occurrence {
	var m cargoManifest
	if err := toml.Unmarshal([]byte(f.Content), &m); err != nil {
		return []analysis.Occurrence{manifestInvalid(f.RelPath, err)}
	}

	var occs []analysis.Occurrence
	if m.Package.Description == "" {
		occs = append(occs, manifestMissing(f.RelPath, "package.description"))
	}
	if m.Package.License == "" {
		occs = append(occs, manifestMissing(f.RelPath, "package.license"))
	}
	return occs
}

func auditPyProject(f *analysis.FileEntry) []analysis.Occurrence {
	var m pyProject
	if err := toml.Unmarshal([]byte(f.Content), &m); err != nil {
		return []analysis.Occurrence{manifestInvalid(f.RelPath, err)}
	}

	// A pyproject without a [project] table (e.g. poetry-only) is not
	// audited.
	if m.Project.Name == "" {
		return nil
	}

	var occs []analysis.Occurrence
	if m.Project.Description == "" {
		occs = append(occs, manifestMissing(f.RelPath, "project.description"))
	}
	if m.Project.License == nil {
		occs = append(occs, manifestMissing(f.RelPath, "project.license"))
	}
	return occs
}

func manifestInvalid(relPath string, err error) analysis.Occurrence {
	return analysis.Occurrence{
		Kind:      "manifest-invalid",
		Severity:  analysis.SeverityError,
		Message:   fmt.Sprintf("unparseable manifest: %v", err),
		FilePath:  relPath,
		Technique: NameManifestAudit,
	}
}

func manifestMissing(relPath, field string) analysis.Occurrence {
	return analysis.Occurrence{
		Kind:      "manifest-missing-field",
		Severity:  analysis.SeverityWarning,
		Message:   fmt.Sprintf("manifest is missing %s", field),
		FilePath:  relPath,
		Technique: NameManifestAudit,
	}
}
