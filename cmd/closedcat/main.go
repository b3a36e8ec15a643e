package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"closedcat/internal/config"
	"closedcat/internal/logging"
	"closedcat/internal/report"
	"closedcat/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgPath   string
	dataDir   string
	outputDir string
	verbose   bool
	render    bool
	noLedger  bool
	alignment string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "closedcat",
	Short: "Closed-category annotation analyses",
	Long: `closedcat analyses a dataset of source-code identifiers annotated with
grammar patterns, focusing on the closed-category parts of speech: digits,
determiners, prepositions and conjunctions.

Each subcommand reads the configured data files, runs one analysis and
writes CSV, Markdown or console reports to the output directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			c.Data.Dir = dataDir
		}
		if outputDir != "" {
			c.Output.Dir = outputDir
		}
		if noLedger {
			c.Store.Enabled = false
		}
		if alignment != "" {
			c.Data.Alignment = alignment
		}
		if verbose {
			c.Logging.Level = "debug"
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if err := logging.Initialize(loggingOptions(c.Logging)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Root().Named("cli")
		cfg = c
		logging.Boot("closedcat starting: config=%s ledger=%t", cfgPath, c.Store.Enabled)
		logger.Debug("configuration loaded",
			zap.String("config", cfgPath),
			zap.String("data_dir", c.Data.Dir),
			zap.String("output_dir", c.Output.Dir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "closedcat.yaml", "Configuration file (defaults apply when missing)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Directory holding the annotation files")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for generated reports")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&render, "render", false, "Render Markdown reports in the terminal")
	rootCmd.PersistentFlags().BoolVar(&noLedger, "no-ledger", false, "Do not record runs in the ledger")
	rootCmd.PersistentFlags().StringVar(&alignment, "alignment", "", "Pairing of split words with tags when counts differ: strict or truncate")

	rootCmd.AddCommand(chiSquareCmd)
	rootCmd.AddCommand(kappaCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(topTermsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(allCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loggingOptions(c config.LoggingConfig) logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		Categories: c.Categories,
	}
}

// commandContext returns the command context, or Background for commands
// invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// track runs fn as one ledger entry. Ledger failures are logged and never
// fail the analysis itself.
func track(ctx context.Context, analysis string, inputs []string, fn func(run *store.Run) error) error {
	timer := logging.StartTimer(logging.CategoryStore, analysis)
	defer timer.StopWithInfo()

	detached := &store.Run{Analysis: analysis, Inputs: inputs}
	if !cfg.Store.Enabled {
		return fn(detached)
	}

	ledger, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Warn("run ledger unavailable", zap.String("path", cfg.Store.Path), zap.Error(err))
		return fn(detached)
	}
	defer ledger.Close()

	run, err := ledger.Begin(ctx, analysis, inputs)
	if err != nil {
		logger.Warn("failed to record run", zap.String("analysis", analysis), zap.Error(err))
		return fn(detached)
	}
	runErr := fn(run)
	if err := ledger.Finish(ctx, run, runErr); err != nil {
		logger.Warn("failed to finish run", zap.String("id", run.ID), zap.Error(err))
	}
	return runErr
}

// showMarkdown prints md, rendered for the terminal when --render is set.
func showMarkdown(w io.Writer, md string) error {
	if render {
		out, err := report.Render(md, 100)
		if err != nil {
			return err
		}
		md = out
	}
	return report.WriteString(w, md)
}

func consoleStyles() report.Styles {
	return report.DefaultStyles()
}
