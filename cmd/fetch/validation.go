package fetch

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/mendio-dev/mendio/internal/gitsource"
	"github.com/mendio-dev/mendio/pkg/shared/files"
)

// validateFetchArgs validates the arguments provided to the fetch command.
func validateFetchArgs(options *RunOptionsFetch, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("a repository URL must be specified")
	}
	if len(args) > 1 {
		return fmt.Errorf("invalid argument(s) received, only one positional argument is allowed")
	}

	if !gitsource.IsRemote(args[0]) {
		return fmt.Errorf("the target does not look like a remote repository URL: %v", args[0])
	}

	switch options.AuthType {
	case "", gitsource.AuthNone, gitsource.AuthHTTP, gitsource.AuthSSHKey, gitsource.AuthSSHAgent:
	default:
		return fmt.Errorf("unknown auth-type: %v", options.AuthType)
	}

	if options.AuthType == gitsource.AuthSSHKey {
		if options.SSHKey == "" {
			return fmt.Errorf("you must specify ssh-key with auth-type 'ssh-key'")
		}
		return validateSSHKey(options.SSHKey)
	}

	return nil
}

// validateSSHKey checks the key file exists and parses. Passphrase-protected
// keys pass here; the passphrase is read from the environment at clone time.
func validateSSHKey(path string) error {
	expandedPath, err := files.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", path, err)
	}

	keyData, err := os.ReadFile(expandedPath)
	if err != nil {
		return fmt.Errorf("failed to read SSH key file: %w", err)
	}

	if _, err := ssh.ParsePrivateKey(keyData); err != nil {
		if _, ok := err.(*ssh.PassphraseMissingError); !ok {
			return fmt.Errorf("invalid SSH key format: %w", err)
		}
	}
	return nil
}
