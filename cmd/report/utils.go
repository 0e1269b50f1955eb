package report

import (
	"fmt"
	"os"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/tracker"
)

// loadReportArg loads the single report file every subcommand takes.
func loadReportArg(args []string) (*core.Report, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("a report file must be specified")
	}
	if len(args) > 1 {
		return nil, fmt.Errorf("only one report file is allowed, got %d", len(args))
	}
	return core.LoadReport(args[0])
}

// sourceCode returns the buffer findings are fingerprinted against: the
// explicit source file when given, else the original code kept by a fix run.
// Without either, hashes stay empty and correlation falls back to locations.
func sourceCode(saved *core.Report, sourcePath string) (string, error) {
	if sourcePath != "" {
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return "", fmt.Errorf("failed to read %q: %w", sourcePath, err)
		}
		return string(data), nil
	}
	if saved.Fix != nil {
		return saved.Fix.OriginalCode, nil
	}
	return "", nil
}

// validateIssuesArgs validates the flags of the issues subcommand.
func validateIssuesArgs(options *RunOptionsReport) error {
	switch options.MinSeverity {
	case "", "info", "warning", "error":
	default:
		return fmt.Errorf("unsupported min-severity %q, expected one of: info, warning, error", options.MinSeverity)
	}
	return nil
}

// printIssuesResult renders the outcome of one filing run.
func printIssuesResult(result *tracker.Result) {
	for _, created := range result.Created {
		fmt.Fprintf(os.Stdout, "created %s\n", created)
	}
	for _, planned := range result.Planned {
		fmt.Fprintf(os.Stdout, "would create: %s\n", planned.Title)
	}
	fmt.Fprintf(os.Stdout, "%d new, %d already tracked, %d stale\n",
		len(result.Created)+len(result.Planned), result.Duplicates, result.Stale)
}
