package fix

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/rulepack"
	"github.com/mendio-dev/mendio/internal/transform"
	"github.com/mendio-dev/mendio/pkg/shared"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// RunOptionsFix holds the arguments for the fix command.
type RunOptionsFix struct {
	Layers     []int
	Write      bool
	OutputPath string
	ReportPath string
	Verbose    bool
}

// Global variables for configuration and command arguments
var (
	AppConfig       *config.Config
	fixOptions      RunOptionsFix
	exampleFixUsage = `  # Printing the fixed source to stdout
  mendio fix src/app.js

  # Rewriting the file in place
  mendio fix --write src/app.js

  # Fixing selected layers only and writing the result elsewhere
  mendio fix --layers 2,3 --output fixed.js src/app.js

  # Keeping the full JSON report of the run next to the fix
  mendio fix --write --report fix-report.json src/app.js`
)

// FixCmd represents the fix command.
var FixCmd = &cobra.Command{
	Use:                   "fix [--layers/-l LAYERS] [--write/-w] [--output/-o PATH] [--report PATH] FILE",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleFixUsage,
	Short:                 "Apply automatic fixes to a file, layer by layer, under the validation protocol",
	RunE:                  runFixCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runFixCommand executes the fix command.
func runFixCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-fix")

	if err := validateFixArgs(&fixOptions, args); err != nil {
		logger.Error("invalid fix arguments", "error", err)
		return err
	}

	extra, err := rulepack.Load(AppConfig, "core-fix")
	if err != nil {
		logger.Error("failed to load rulepacks", "error", err)
		return err
	}

	facade := core.New(AppConfig, logger, extra...)

	target := args[0]
	code, err := os.ReadFile(target)
	if err != nil {
		logger.Error("failed to read target file", "file", target, "error", err)
		return err
	}

	report, err := facade.Fix(context.Background(), string(code), engine.Options{
		Filename: target,
		Layers:   fixOptions.Layers,
		Verbose:  fixOptions.Verbose,
	}, printLayerOutcome)
	if err != nil {
		logger.Error("fix run failed", "file", target, "error", err)
		return err
	}

	if err := writeFixed(report, target, &fixOptions); err != nil {
		logger.Error("failed to write fixed source", "error", err)
		return err
	}

	if fixOptions.ReportPath != "" {
		if err := report.Save(fixOptions.ReportPath); err != nil {
			logger.Error("failed to save fix report", "path", fixOptions.ReportPath, "error", err)
			return err
		}
	}

	logger.Info("fix command completed successfully",
		"file", target,
		"applied", len(report.Fix.AppliedFixes),
	)
	return nil
}

// printLayerOutcome streams per-layer progress to stderr so stdout stays
// reserved for the fixed source.
func printLayerOutcome(outcome transform.LayerOutcome) {
	switch {
	case outcome.Reverted:
		fmt.Fprintf(os.Stderr, "layer %d (%s): rolled back (%s)\n", outcome.Layer, outcome.Name, outcome.Reason)
	case outcome.Changed:
		fmt.Fprintf(os.Stderr, "layer %d (%s): %d fixes\n", outcome.Layer, outcome.Name, len(outcome.Fixes))
	default:
		fmt.Fprintf(os.Stderr, "layer %d (%s): clean\n", outcome.Layer, outcome.Name)
	}
}

// writeFixed routes the fixed buffer to the requested destination.
func writeFixed(report *core.Report, target string, options *RunOptionsFix) error {
	fixed := []byte(report.Fix.Code)
	switch {
	case options.Write:
		info, err := os.Stat(target)
		if err != nil {
			return err
		}
		return os.WriteFile(target, fixed, info.Mode().Perm())
	case options.OutputPath != "":
		return os.WriteFile(options.OutputPath, fixed, 0644)
	default:
		_, err := os.Stdout.Write(fixed)
		return err
	}
}

// Initialize flags for the fix command.
func init() {
	FixCmd.Flags().IntSliceVarP(&fixOptions.Layers, "layers", "l", nil, "Layers to fix (1-8). Defaults to every layer.")
	FixCmd.Flags().BoolVarP(&fixOptions.Write, "write", "w", false, "Rewrite the target file in place.")
	FixCmd.Flags().BoolP("help", "h", false, "Show help for the fix command.")
	FixCmd.Flags().StringVarP(&fixOptions.OutputPath, "output", "o", "", "Path where the fixed source will be written. Defaults to stdout.")
	FixCmd.Flags().StringVar(&fixOptions.ReportPath, "report", "", "Path where the full JSON report of the run will be saved.")
	FixCmd.Flags().BoolVarP(&fixOptions.Verbose, "verbose", "v", false, "Include rule descriptions and code context in reported issues.")
}
