package gate

import (
	"fmt"
	"os"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/gitsource"
)

// validateGateArgs validates the arguments provided to the gate command.
func validateGateArgs(options *RunOptionsGate, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("only one target can be gated at a time, got %d", len(args))
	}
	if options.ReportPath != "" && len(args) > 0 {
		return fmt.Errorf("you cannot use a 'report' flag and a target at the same time")
	}
	if options.ReportPath != "" {
		if _, err := os.Stat(options.ReportPath); os.IsNotExist(err) {
			return fmt.Errorf("the report file does not exist: %v", options.ReportPath)
		}
	}

	switch engine.Severity(options.FailOn) {
	case engine.SeverityError, engine.SeverityWarning, engine.SeverityInfo:
	default:
		return fmt.Errorf("unsupported fail-on severity %q, expected one of: error, warning, info", options.FailOn)
	}

	if options.MinQuality < 0 || options.MinQuality > 100 {
		return fmt.Errorf("min-quality must be within [0, 100], got %d", options.MinQuality)
	}

	for _, layer := range options.Layers {
		if layer < engine.MinLayer || layer > engine.MaxLayer {
			return fmt.Errorf("layer %d is out of range [%d, %d]", layer, engine.MinLayer, engine.MaxLayer)
		}
	}

	if options.Branch != "" && len(args) > 0 && !gitsource.IsRemote(args[0]) {
		return fmt.Errorf("the 'branch' flag only applies to remote repository targets")
	}

	return nil
}
