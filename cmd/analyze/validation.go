package analyze

import (
	"fmt"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/gitsource"
)

// validateAnalyzeArgs validates the arguments provided to the analyze command.
func validateAnalyzeArgs(options *RunOptionsAnalyze, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("a target path or repository URL must be specified")
	}
	if len(args) > 1 {
		return fmt.Errorf("only one target can be analyzed at a time, got %d", len(args))
	}

	switch options.ReportFormat {
	case formatSummary, formatJSON, formatSarif:
	default:
		return fmt.Errorf("unsupported format %q, expected one of: summary, json, sarif", options.ReportFormat)
	}

	for _, layer := range options.Layers {
		if layer < engine.MinLayer || layer > engine.MaxLayer {
			return fmt.Errorf("layer %d is out of range [%d, %d]", layer, engine.MinLayer, engine.MaxLayer)
		}
	}

	if options.Branch != "" && !gitsource.IsRemote(args[0]) {
		return fmt.Errorf("the 'branch' flag only applies to remote repository targets")
	}

	return nil
}
