package scan

import (
	"fmt"

	"github.com/mendio-dev/mendio/internal/gitsource"
)

// validateScanArgs validates the arguments provided to the scan command.
func validateScanArgs(options *RunOptionsScan, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("a target path or repository URL must be specified")
	}
	if len(args) > 1 {
		return fmt.Errorf("only one target can be scanned at a time, got %d", len(args))
	}

	switch options.ReportFormat {
	case "summary", "json":
	default:
		return fmt.Errorf("unsupported format %q, expected one of: summary, json", options.ReportFormat)
	}

	if options.Threads <= 0 {
		return fmt.Errorf("the 'threads' flag must be a positive integer")
	}

	if options.Branch != "" && !gitsource.IsRemote(args[0]) {
		return fmt.Errorf("the 'branch' flag only applies to remote repository targets")
	}

	return nil
}
