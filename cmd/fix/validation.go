package fix

import (
	"fmt"
	"os"

	"github.com/mendio-dev/mendio/internal/engine"
)

// validateFixArgs validates the arguments provided to the fix command.
func validateFixArgs(options *RunOptionsFix, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("a target file must be specified")
	}
	if len(args) > 1 {
		return fmt.Errorf("only one file can be fixed at a time, got %d", len(args))
	}

	info, err := os.Stat(args[0])
	if os.IsNotExist(err) {
		return fmt.Errorf("the target file does not exist: %v", args[0])
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("the target must be a single file, %q is a directory", args[0])
	}

	if options.Write && options.OutputPath != "" {
		return fmt.Errorf("you cannot use the 'write' flag and an 'output' path at the same time")
	}

	for _, layer := range options.Layers {
		if layer < engine.MinLayer || layer > engine.MaxLayer {
			return fmt.Errorf("layer %d is out of range [%d, %d]", layer, engine.MinLayer, engine.MaxLayer)
		}
	}

	return nil
}
