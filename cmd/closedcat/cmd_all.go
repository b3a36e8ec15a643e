package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// allCmd runs the main analyses in sequence
var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run chisquare, kappa, topterms and sweep in sequence",
	RunE:  runAll,
}

func runAll(cmd *cobra.Command, args []string) error {
	steps := []struct {
		name string
		run  func(*cobra.Command, []string) error
	}{
		{"chisquare", runChiSquare},
		{"kappa", runKappa},
		{"topterms", runTopTerms},
		{"sweep", runSweep},
	}
	for _, step := range steps {
		if err := commandContext(cmd).Err(); err != nil {
			return err
		}
		logger.Info("running analysis", zap.String("analysis", step.name))
		if err := step.run(cmd, args); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}
