package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sift/internal/allowlist"
	"sift/internal/analysis"
	"sift/internal/engine"
	"sift/internal/errors"
	"sift/internal/export"
	"sift/internal/incremental"
	"sift/internal/parser"
	"sift/internal/scanner"
	"sift/internal/storage"
	"sift/internal/techniques"
)

var (
	analyzeParallel   bool
	analyzeWorkers    int
	analyzeNoCache    bool
	analyzeNoMetrics  bool
	analyzeTimeoutMs  int
	analyzeGlobalMs   int
	analyzeJSON       bool
	analyzeProgress   bool
	analyzeExportPath string
	analyzeFailOn     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run all registered techniques over the repository",
	Long: `Scans the repository, runs every enabled technique over the file list,
and prints the occurrences found. Unchanged files are served from the
incremental cache.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeParallel, "parallel", "p", false, "Use the parallel executor")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Worker count for --parallel (0 = one per CPU)")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "Ignore and do not update the incremental cache")
	analyzeCmd.Flags().BoolVar(&analyzeNoMetrics, "no-metrics", false, "Skip metrics collection and history")
	analyzeCmd.Flags().IntVar(&analyzeTimeoutMs, "timeout-ms", 0, "Per technique-per-file budget in ms (0 = config/default)")
	analyzeCmd.Flags().IntVar(&analyzeGlobalMs, "global-timeout-ms", 0, "Per global-technique budget in ms (0 = config/default)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Emit the full result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeProgress, "progress", false, "Print each file as it is processed")
	analyzeCmd.Flags().StringVar(&analyzeExportPath, "export", "", "Write a compressed result snapshot to this path")
	analyzeCmd.Flags().StringVar(&analyzeFailOn, "fail-on", "", "Exit non-zero if occurrences at or above this severity exist (info, warning, error)")
	rootCmd.AddCommand(analyzeCmd)
}

// progressPrinter streams per-file progress to stderr so stdout stays
// parseable.
type progressPrinter struct {
	enabled bool
}

func (p *progressPrinter) FileProcessed(relPath string, occurrences int) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "  %s (%d)\n", relPath, occurrences)
}

func (p *progressPrinter) AnalysisComplete(result *engine.Result) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "done: %d occurrences\n", len(result.Occurrences))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	repoRoot, cfg, logger := mustLoadEnvironment()

	// Missing state storage degrades to a cold, history-less run.
	var db *storage.DB
	var store *incremental.Store
	if d, err := storage.Open(repoRoot, logger); err != nil {
		logger.Warn("Incremental store unavailable, running cold", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		db = d
		store = incremental.NewStore(db, logger)
		defer db.Close() //nolint:errcheck // Best effort cleanup
	}

	files, err := scanner.New(logger).Scan(repoRoot, scanner.Options{
		Excludes:    cfg.Scan.Exclude,
		MaxFileSize: int64(cfg.Scan.MaxFileSizeBytes),
	})
	if err != nil {
		return errors.NewSiftError(errors.InternalError, "Repository scan failed", err)
	}

	registry := analysis.NewRegistry()
	if err := techniques.Register(registry, cfg.Techniques); err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		Registry:   registry,
		Cache:      store,
		DB:         db,
		Trees:      parser.Build,
		Logger:     logger,
		Listener:   &progressPrinter{enabled: analyzeProgress},
		HistoryMax: cfg.Engine.HistoryMax,
	})
	if err != nil {
		return err
	}

	opts := engine.Options{
		Mode:            engine.ModeSequential,
		TimeoutMs:       firstPositive(analyzeTimeoutMs, cfg.Engine.TimeoutMs),
		GlobalTimeoutMs: firstPositive(analyzeGlobalMs, cfg.Engine.GlobalTimeoutMs),
		Incremental:     cfg.Engine.Incremental && !analyzeNoCache && store != nil,
		Metrics:         cfg.Engine.Metrics && !analyzeNoMetrics,
		WorkerCount:     firstPositive(analyzeWorkers, cfg.Engine.WorkerCount),
	}
	if analyzeParallel || cfg.Engine.Mode == "parallel" {
		opts.Mode = engine.ModeParallel
	}

	result, err := eng.Run(files, repoRoot, opts)
	if err != nil {
		return err
	}

	al, err := allowlist.Load(repoRoot)
	if err != nil {
		return errors.NewSiftError(errors.ConfigInvalid, "Failed to load allowlist", err)
	}
	kept, suppressed := al.Filter(result.Occurrences)
	result.Occurrences = kept

	if analyzeExportPath != "" {
		if err := export.Write(analyzeExportPath, repoRoot, result); err != nil {
			return errors.NewSiftError(errors.ExportFailed, "Failed to write snapshot", err)
		}
		logger.Info("Snapshot written", map[string]interface{}{
			"path": analyzeExportPath,
		})
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(result, len(files), len(suppressed))
	}

	return checkFailOn(result.Occurrences)
}

func printResult(result *engine.Result, fileCount, suppressed int) {
	for _, occ := range result.Occurrences {
		loc := occ.FilePath
		if loc == "" {
			loc = "(repository)"
		}
		if occ.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, occ.Line)
		}
		fmt.Printf("%-7s %-22s %s  %s\n", occ.Severity, occ.Kind, loc, occ.Message)
	}

	fmt.Printf("\n%d occurrences in %d files", len(result.Occurrences), fileCount)
	if suppressed > 0 {
		fmt.Printf(" (%d suppressed by allowlist)", suppressed)
	}
	fmt.Println()

	if m := result.Metrics; m != nil {
		fmt.Printf("cache: %d hits, %d misses | parse %.1fms, analysis %.1fms\n",
			m.CacheHits, m.CacheMisses, m.ParseTimeMs, m.AnalysisTimeMs)
	}
}

// checkFailOn turns the --fail-on threshold into an exit error.
func checkFailOn(occs []analysis.Occurrence) error {
	if analyzeFailOn == "" {
		return nil
	}
	threshold := analysis.Severity(analyzeFailOn)
	if threshold.Weight() == 0 && threshold != analysis.SeverityInfo {
		return errors.NewSiftError(errors.ConfigInvalid,
			fmt.Sprintf("invalid --fail-on severity %q", analyzeFailOn), nil)
	}

	count := 0
	for _, occ := range occs {
		if occ.Severity.Weight() >= threshold.Weight() {
			count++
		}
	}
	if count > 0 {
		return fmt.Errorf("%d occurrences at or above %s severity", count, threshold)
	}
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
