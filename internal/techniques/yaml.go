package techniques

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"sift/internal/analysis"
)

// yamlSyntax flags YAML files that fail to parse.
func yamlSyntax() analysis.Technique {
	return analysis.Technique{
		Name: NameYAMLSyntax,
		Match: func(relPath string) bool {
			return hasAnySuffix(relPath, ".yaml", ".yml")
		},
		Run: func(content, relPath string, _ any, _ string, _ *analysis.Context) []analysis.Occurrence {
			var doc any
			err := yaml.Unmarshal([]byte(content), &doc)
			if err == nil {
				return nil
			}
			return []analysis.Occurrence{{
				Kind:      "yaml-invalid",
				Severity:  analysis.SeverityError,
				Message:   fmt.Sprintf("invalid YAML: %v", err),
				FilePath:  relPath,
				Technique: NameYAMLSyntax,
			}}
		},
	}
}
