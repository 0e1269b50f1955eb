package fetch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/gitsource"
	"github.com/mendio-dev/mendio/pkg/shared"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// RunOptionsFetch holds the arguments for the fetch command.
type RunOptionsFetch struct {
	AuthType string
	SSHKey   string
	Branch   string
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	fetchOptions      RunOptionsFetch
	exampleFetchUsage = `  # Fetching a repository anonymously over HTTPS
  mendio fetch https://github.com/acme/webapp

  # Fetching a branch using SSH agent authentication
  mendio fetch --auth-type ssh-agent -b develop ssh://git@github.com/acme/webapp.git

  # Fetching using HTTP authentication from MENDIO_GIT_USERNAME/MENDIO_GIT_TOKEN
  mendio fetch --auth-type http https://gitlab.com/acme/webapp

  # Fetching using SSH key authentication
  mendio fetch --auth-type ssh-key --ssh-key ~/.ssh/id_ed25519 git@github.com:acme/webapp.git`
)

// FetchCmd represents the fetch command.
var FetchCmd = &cobra.Command{
	Use:                   "fetch [--auth-type/-a AUTH_TYPE] [--ssh-key/-k PATH] [--branch/-b BRANCH] URL",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleFetchUsage,
	Short:                 "Clone a remote repository into the projects folder for later analysis",
	RunE:                  runFetchCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runFetchCommand executes the fetch command.
func runFetchCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-fetch")

	if err := validateFetchArgs(&fetchOptions, args); err != nil {
		logger.Error("invalid fetch arguments", "error", err)
		return err
	}

	// Flags override the configured git client settings for this run only.
	cfg := *AppConfig
	if fetchOptions.AuthType != "" {
		cfg.GitClient.AuthType = fetchOptions.AuthType
	}
	if fetchOptions.SSHKey != "" {
		cfg.GitClient.SSHKeyPath = fetchOptions.SSHKey
	}

	fetcher := gitsource.NewFetcher(&cfg, gitsource.CredentialsFromEnv(), logger)
	path, err := fetcher.Fetch(args[0], fetchOptions.Branch)
	if err != nil {
		logger.Error("fetch failed", "url", args[0], "error", err)
		return err
	}

	fmt.Fprintln(os.Stdout, path)
	logger.Info("fetch command completed successfully", "path", path)
	return nil
}

// Initialize flags for the fetch command.
func init() {
	FetchCmd.Flags().StringVarP(&fetchOptions.AuthType, "auth-type", "a", "", "Authentication type: none, http, ssh-key or ssh-agent. Defaults to the configured git client.")
	FetchCmd.Flags().BoolP("help", "h", false, "Show help for the fetch command.")
	FetchCmd.Flags().StringVarP(&fetchOptions.SSHKey, "ssh-key", "k", "", "Path to the SSH private key for ssh-key authentication.")
	FetchCmd.Flags().StringVarP(&fetchOptions.Branch, "branch", "b", "", "Branch to check out after the clone.")
}
