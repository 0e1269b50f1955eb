package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/gitsource"
	"github.com/mendio-dev/mendio/internal/security"
	"github.com/mendio-dev/mendio/pkg/shared"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	ReportFormat string
	OutputPath   string
	Branch       string
	Threads      int
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Scanning a single file for security findings
  mendio scan src/app.js

  # Scanning a project directory with four concurrent scans
  mendio scan -j 4 ./my-project

  # Scanning a remote repository and keeping the JSON result
  mendio scan --format json --output scan.json https://github.com/acme/webapp`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [--format/-f OUTPUT_FORMAT] [--output/-o PATH] [--branch/-b BRANCH] [-j THREADS_NUMBER, default=1] PATH|URL",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Run the security layer only and report the risk posture",
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-scan")

	if err := validateScanArgs(&scanOptions, args); err != nil {
		logger.Error("invalid scan arguments", "error", err)
		return err
	}

	facade := core.New(AppConfig, logger)
	fetcher := gitsource.NewFetcher(AppConfig, gitsource.CredentialsFromEnv(), logger)

	sources, err := fetcher.Resolve(args[0], scanOptions.Branch)
	if err != nil {
		logger.Error("failed to resolve scan target", "target", args[0], "error", err)
		return err
	}

	// The engine is stateless, so files scan in parallel. Indexed writes keep
	// the output order equal to the resolve order.
	values := make([]interface{}, len(sources))
	for i, source := range sources {
		values[i] = source
	}
	results := make([]*security.ScanResult, len(sources))
	errs := make([]error, len(sources))
	shared.ForEveryStringWithBoundedGoroutines(scanOptions.Threads, values, func(i int, value interface{}) {
		source := value.(gitsource.Source)
		code, err := os.ReadFile(source.Path)
		if err != nil {
			errs[i] = fmt.Errorf("failed to read %q: %w", source.Path, err)
			return
		}
		report, err := facade.Analyze(string(code), engine.Options{
			Filename: source.Name,
			Layers:   []int{engine.LayerSecurity},
		})
		if err != nil {
			errs[i] = fmt.Errorf("failed to scan %q: %w", source.Name, err)
			return
		}
		results[i] = report.Security
	})
	for _, err := range errs {
		if err != nil {
			logger.Error("scan failed", "error", err)
			return err
		}
	}

	if err := renderScanResults(results, scanOptions.ReportFormat, scanOptions.OutputPath); err != nil {
		logger.Error("failed to render results", "error", err)
		return err
	}

	logger.Info("scan command completed successfully", "files", len(results))
	return nil
}

// renderScanResults writes the security view in the requested format.
func renderScanResults(results []*security.ScanResult, format, outputPath string) error {
	if format == "json" {
		var payload interface{} = results
		if len(results) == 1 {
			payload = results[0]
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal scan results: %w", err)
		}
		return writeOut(append(data, '\n'), outputPath)
	}

	var b strings.Builder
	for _, result := range results {
		name := result.Filename
		if name == "" {
			name = "input"
		}
		fmt.Fprintf(&b, "%s\n", name)
		fmt.Fprintf(&b, "  risk: %s  findings: %d  compromise indicators: %d\n",
			result.RiskLevel, len(result.Issues), result.CompromiseIndicators)
		for _, issue := range result.Issues {
			fmt.Fprintf(&b, "  [%s] %d:%d %s (%s): %s\n",
				issue.Severity, issue.Line, issue.Column, issue.PatternID, issue.Type, issue.Message)
			if issue.Remediation != "" {
				fmt.Fprintf(&b, "          remediation: %s\n", issue.Remediation)
			}
		}
		b.WriteString("\n")
	}
	return writeOut([]byte(b.String()), outputPath)
}

func writeOut(data []byte, outputPath string) error {
	if outputPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output to %q: %w", outputPath, err)
	}
	return nil
}

// Initialize flags for the scan command.
func init() {
	ScanCmd.Flags().StringVarP(&scanOptions.ReportFormat, "format", "f", "summary", "Output format: summary or json.")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "Path to the file where results will be written. Defaults to stdout.")
	ScanCmd.Flags().StringVarP(&scanOptions.Branch, "branch", "b", "", "Branch to check out when the target is a remote repository.")
	ScanCmd.Flags().IntVarP(&scanOptions.Threads, "threads", "j", 1, "Number of concurrent file scans.")
}
