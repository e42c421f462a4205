package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sift/internal/config"
	"sift/internal/errors"
	"sift/internal/logging"
	"sift/internal/paths"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sift configuration",
	Long:  "Creates a .sift/ directory with default configuration in the repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .sift directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	repoRoot, err := resolveRepoRoot()
	if err != nil {
		return errors.NewSiftError(errors.InternalError, "Failed to resolve repository root", err)
	}

	siftDir := paths.SiftDir(repoRoot)
	if _, statErr := os.Stat(siftDir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success (CI-friendly)
			fmt.Println("sift already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(siftDir, "config.json"))
			fmt.Println("\nRun 'sift init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(siftDir); removeErr != nil {
			return errors.NewSiftError(errors.InternalError, "Failed to remove existing .sift directory", removeErr)
		}
		logger.Info("Removed existing .sift directory", nil)
	}

	if _, err := paths.EnsureSiftDir(repoRoot); err != nil {
		return errors.NewSiftError(errors.InternalError, "Failed to create .sift directory", err)
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = "."

	if err := cfg.Save(repoRoot); err != nil {
		return errors.NewSiftError(errors.InternalError, "Failed to write config file", err)
	}

	configPath := filepath.Join(siftDir, "config.json")
	logger.Info("sift initialized successfully", map[string]interface{}{
		"config_path": configPath,
	})

	fmt.Println("sift initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'sift techniques' to see the registered techniques")
	fmt.Println("  2. Run 'sift analyze' to analyze the repository")

	return nil
}
