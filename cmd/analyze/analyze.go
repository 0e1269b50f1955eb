package analyze

import (
	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/gitsource"
	"github.com/mendio-dev/mendio/internal/rulepack"
	"github.com/mendio-dev/mendio/pkg/shared"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// RunOptionsAnalyze holds the arguments for the analyze command.
type RunOptionsAnalyze struct {
	Layers       []int
	ReportFormat string
	OutputPath   string
	Branch       string
	Verbose      bool
}

// Global variables for configuration and command arguments
var (
	AppConfig           *config.Config
	analyzeOptions      RunOptionsAnalyze
	exampleAnalyzeUsage = `  # Analyzing a single file across all layers
  mendio analyze src/app.js

  # Analyzing selected layers only
  mendio analyze --layers 2,3 src/app.js

  # Analyzing a project directory and writing a SARIF report
  mendio analyze --format sarif --output report.sarif ./my-project

  # Analyzing a branch of a remote repository
  mendio analyze --branch develop https://github.com/acme/webapp

  # Writing the full JSON report to a file
  mendio analyze --format json --output report.json src/app.js`
)

// AnalyzeCmd represents the analyze command.
var AnalyzeCmd = &cobra.Command{
	Use:                   "analyze [--layers/-l LAYERS] [--format/-f OUTPUT_FORMAT] [--output/-o PATH] [--branch/-b BRANCH] PATH|URL",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyzeUsage,
	Short:                 "Run the layered analysis over a file, a directory or a remote repository",
	RunE:                  runAnalyzeCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runAnalyzeCommand executes the analyze command.
func runAnalyzeCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-analyze")

	if err := validateAnalyzeArgs(&analyzeOptions, args); err != nil {
		logger.Error("invalid analyze arguments", "error", err)
		return err
	}

	extra, err := rulepack.Load(AppConfig, "core-analyze")
	if err != nil {
		logger.Error("failed to load rulepacks", "error", err)
		return err
	}

	facade := core.New(AppConfig, logger, extra...)
	fetcher := gitsource.NewFetcher(AppConfig, gitsource.CredentialsFromEnv(), logger)

	sources, err := fetcher.Resolve(args[0], analyzeOptions.Branch)
	if err != nil {
		logger.Error("failed to resolve analysis target", "target", args[0], "error", err)
		return err
	}

	reports, err := collectReports(facade, sources, &analyzeOptions)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return err
	}

	if err := renderReports(reports, analyzeOptions.ReportFormat, analyzeOptions.OutputPath); err != nil {
		logger.Error("failed to render results", "error", err)
		return err
	}

	logger.Info("analyze command completed successfully", "files", len(reports))
	return nil
}

// Initialize flags for the analyze command.
func init() {
	AnalyzeCmd.Flags().IntSliceVarP(&analyzeOptions.Layers, "layers", "l", nil, "Layers to run (1-8). Defaults to the configured default set, or every layer.")
	AnalyzeCmd.Flags().StringVarP(&analyzeOptions.ReportFormat, "format", "f", "summary", "Output format: summary, json or sarif.")
	AnalyzeCmd.Flags().BoolP("help", "h", false, "Show help for the analyze command.")
	AnalyzeCmd.Flags().StringVarP(&analyzeOptions.OutputPath, "output", "o", "", "Path to the file where the report will be written. Defaults to stdout.")
	AnalyzeCmd.Flags().StringVarP(&analyzeOptions.Branch, "branch", "b", "", "Branch to check out when the target is a remote repository.")
	AnalyzeCmd.Flags().BoolVarP(&analyzeOptions.Verbose, "verbose", "v", false, "Include rule descriptions and code context in reported issues.")
}
