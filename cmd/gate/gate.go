package gate

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/ci"
	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/gitsource"
	"github.com/mendio-dev/mendio/internal/rulepack"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/errors"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// The gate exits with a dedicated code on threshold violations so pipelines
// can tell a failed gate from a broken run.
const gateFailedExitCode = 2

// RunOptionsGate holds the arguments for the gate command.
type RunOptionsGate struct {
	MinQuality int
	FailOn     string
	ReportPath string
	Layers     []int
	Branch     string
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	gateOptions      RunOptionsGate
	exampleGateUsage = `  # Gating the repository resolved from the CI environment
  mendio gate --min-quality 80

  # Gating a local project directory, failing on any error-severity issue
  mendio gate --fail-on error ./my-project

  # Gating a previously saved report
  mendio gate --report report.json --min-quality 90

  # Gating a remote branch
  mendio gate --branch main --min-quality 75 https://github.com/acme/webapp`
)

// GateCmd represents the gate command.
var GateCmd = &cobra.Command{
	Use:                   "gate [--min-quality SCORE] [--fail-on SEVERITY] [--report PATH] [PATH|URL]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleGateUsage,
	Short:                 "Enforce quality thresholds and exit non-zero when the target falls below them",
	RunE:                  runGateCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runGateCommand executes the gate command.
func runGateCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-gate")

	if err := validateGateArgs(&gateOptions, args); err != nil {
		logger.Error("invalid gate arguments", "error", err)
		return err
	}

	reports, err := collectGateReports(&gateOptions, args, logger)
	if err != nil {
		logger.Error("failed to produce reports for the gate", "error", err)
		return err
	}

	verdict := evaluate(reports, &gateOptions)
	for _, reason := range verdict.Reasons {
		fmt.Fprintf(os.Stderr, "gate: %s\n", reason)
	}

	if !verdict.Passed {
		logger.Error("quality gate failed", "violations", len(verdict.Reasons))
		return errors.NewCommandError(
			fmt.Errorf("quality gate failed with %d violation(s)", len(verdict.Reasons)),
			gateFailedExitCode,
		)
	}

	fmt.Fprintf(os.Stdout, "gate passed: %d file(s), lowest quality %d/100\n",
		len(reports), verdict.LowestQuality)
	logger.Info("quality gate passed", "files", len(reports), "lowest_quality", verdict.LowestQuality)
	return nil
}

// collectGateReports either loads a saved report or analyzes the target. With
// no positional target the repository is resolved from the CI environment.
func collectGateReports(options *RunOptionsGate, args []string, log hclog.Logger) ([]*core.Report, error) {
	if options.ReportPath != "" {
		report, err := core.LoadReport(options.ReportPath)
		if err != nil {
			return nil, err
		}
		return []*core.Report{report}, nil
	}

	target := ""
	branch := options.Branch
	if len(args) > 0 {
		target = args[0]
	} else {
		ciTarget, err := ci.ResolveTarget(log)
		if err != nil {
			return nil, fmt.Errorf("no target given and none found in the environment: %w", err)
		}
		target = ciTarget.URL
		if branch == "" {
			branch = ciTarget.Branch
		}
	}

	extra, err := rulepack.Load(AppConfig, "core-gate")
	if err != nil {
		return nil, err
	}
	facade := core.New(AppConfig, log, extra...)
	fetcher := gitsource.NewFetcher(AppConfig, gitsource.CredentialsFromEnv(), log)

	sources, err := fetcher.Resolve(target, branch)
	if err != nil {
		return nil, err
	}

	reports := make([]*core.Report, 0, len(sources))
	for _, source := range sources {
		code, err := os.ReadFile(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", source.Path, err)
		}
		report, err := facade.Analyze(string(code), engine.Options{
			Filename: source.Name,
			Layers:   options.Layers,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to analyze %q: %w", source.Name, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Initialize flags for the gate command.
func init() {
	GateCmd.Flags().IntVar(&gateOptions.MinQuality, "min-quality", 0, "Lowest acceptable quality score (0 disables the score check).")
	GateCmd.Flags().StringVar(&gateOptions.FailOn, "fail-on", "error", "Severity that fails the gate: error, warning or info (each includes the ones above it).")
	GateCmd.Flags().BoolP("help", "h", false, "Show help for the gate command.")
	GateCmd.Flags().StringVar(&gateOptions.ReportPath, "report", "", "Gate a previously saved JSON report instead of analyzing a target.")
	GateCmd.Flags().IntSliceVarP(&gateOptions.Layers, "layers", "l", nil, "Layers to run (1-8). Defaults to every layer.")
	GateCmd.Flags().StringVarP(&gateOptions.Branch, "branch", "b", "", "Branch to check out when the target is a remote repository.")
}
