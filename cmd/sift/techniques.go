package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sift/internal/analysis"
	"sift/internal/techniques"
)

var techniquesCmd = &cobra.Command{
	Use:   "techniques",
	Short: "List registered techniques",
	Long:  "Prints every technique that would run, honoring the config's enable map.",
	RunE:  runTechniques,
}

func init() {
	rootCmd.AddCommand(techniquesCmd)
}

func runTechniques(cmd *cobra.Command, args []string) error {
	_, cfg, _ := mustLoadEnvironment()

	registry := analysis.NewRegistry()
	if err := techniques.Register(registry, cfg.Techniques); err != nil {
		return err
	}

	for _, t := range registry.List() {
		scope := "per-file"
		if t.Global {
			scope = "global"
		}
		filtered := ""
		if t.Match != nil {
			filtered = " (filtered)"
		}
		fmt.Printf("%-20s %s%s\n", t.Name, scope, filtered)
	}
	fmt.Printf("\n%d techniques registered\n", registry.Len())

	return nil
}
