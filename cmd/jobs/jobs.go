package jobs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/pkg/client"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// RunOptionsJobs holds the arguments shared by the jobs subcommands.
type RunOptionsJobs struct {
	ServerURL string
	APIKey    string
	Priority  string
	Layers    []int
	Filename  string
	JSON      bool
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	jobsOptions      RunOptionsJobs
	exampleJobsUsage = `  # Submitting a file for asynchronous analysis
  mendio jobs submit --server http://localhost:8617 --api-key KEY src/app.js

  # Submitting with a priority request (honored up to the caller tier)
  mendio jobs submit --priority high src/app.js

  # Polling a job
  mendio jobs status 3f6cdb3e-9c9a-4b6e-b1a7-0a57c6a0f2d1

  # Cancelling a job that has not finished
  mendio jobs cancel 3f6cdb3e-9c9a-4b6e-b1a7-0a57c6a0f2d1`
)

// JobsCmd represents the jobs command group.
var JobsCmd = &cobra.Command{
	Use:                   "jobs [submit|status|cancel]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleJobsUsage,
	Short:                 "Submit, poll and cancel analysis jobs on a mendio server",
}

var submitCmd = &cobra.Command{
	Use:                   "submit [--priority PRIORITY] [--layers/-l LAYERS] [--filename NAME] FILE",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Submit a file for asynchronous analysis",
	RunE:                  runSubmitCommand,
}

var statusCmd = &cobra.Command{
	Use:                   "status JOB_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Show the state, progress and result of a job",
	RunE:                  runStatusCommand,
}

var cancelCmd = &cobra.Command{
	Use:                   "cancel JOB_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Cancel a job that has not reached a terminal state",
	RunE:                  runCancelCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// newClient builds the API client from flags and environment.
func newClient() (*client.Client, error) {
	apiKey := jobsOptions.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("MENDIO_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("an API key must be given via the 'api-key' flag or MENDIO_API_KEY")
	}
	log := logger.NewLogger(AppConfig, "core-jobs")
	return client.New(jobsOptions.ServerURL, apiKey, log, AppConfig), nil
}

// runSubmitCommand executes the jobs submit command.
func runSubmitCommand(cmd *cobra.Command, args []string) error {
	if err := validateSubmitArgs(&jobsOptions, args); err != nil {
		return err
	}

	apiClient, err := newClient()
	if err != nil {
		return err
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", args[0], err)
	}
	filename := jobsOptions.Filename
	if filename == "" {
		filename = args[0]
	}

	accepted, err := apiClient.SubmitJob(client.JobRequest{
		AnalyzeRequest: client.AnalyzeRequest{
			Code:     string(code),
			Filename: filename,
			Layers:   jobsOptions.Layers,
		},
		Priority: jobsOptions.Priority,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "job %s accepted (status %s, estimated wait %s)\n",
		accepted.JobID, accepted.Status, accepted.EstimatedWait)
	return nil
}

// runStatusCommand executes the jobs status command.
func runStatusCommand(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("a job id must be specified")
	}

	apiClient, err := newClient()
	if err != nil {
		return err
	}

	job, err := apiClient.GetJob(args[0])
	if err != nil {
		return err
	}

	if jobsOptions.JSON {
		data, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	fmt.Fprintf(os.Stdout, "job %s: %s (progress %d%%)\n", job.ID, job.Status, job.Progress)
	if job.Error != "" {
		fmt.Fprintf(os.Stdout, "error: %s\n", job.Error)
	}
	if len(job.Result) > 0 {
		fmt.Fprintln(os.Stdout, string(job.Result))
	}
	return nil
}

// runCancelCommand executes the jobs cancel command.
func runCancelCommand(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("a job id must be specified")
	}

	apiClient, err := newClient()
	if err != nil {
		return err
	}

	cancelled, err := apiClient.CancelJob(args[0])
	if err != nil {
		return err
	}

	if cancelled {
		fmt.Fprintf(os.Stdout, "job %s cancelled\n", args[0])
	} else {
		fmt.Fprintf(os.Stdout, "job %s already finished, nothing to cancel\n", args[0])
	}
	return nil
}

// validateSubmitArgs validates the arguments provided to jobs submit.
func validateSubmitArgs(options *RunOptionsJobs, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one file must be submitted, got %d", len(args))
	}
	if _, err := os.Stat(args[0]); os.IsNotExist(err) {
		return fmt.Errorf("the target file does not exist: %v", args[0])
	}
	switch options.Priority {
	case "", "low", "normal", "high", "urgent":
	default:
		return fmt.Errorf("unsupported priority %q, expected one of: low, normal, high, urgent", options.Priority)
	}
	for _, layer := range options.Layers {
		if layer < engine.MinLayer || layer > engine.MaxLayer {
			return fmt.Errorf("layer %d is out of range [%d, %d]", layer, engine.MinLayer, engine.MaxLayer)
		}
	}
	return nil
}

// Initialize flags for the jobs command group.
func init() {
	JobsCmd.PersistentFlags().StringVar(&jobsOptions.ServerURL, "server", "http://localhost:8617", "Base URL of the mendio server.")
	JobsCmd.PersistentFlags().StringVar(&jobsOptions.APIKey, "api-key", "", "API key for the server. Defaults to MENDIO_API_KEY.")

	submitCmd.Flags().StringVar(&jobsOptions.Priority, "priority", "", "Requested priority: low, normal, high or urgent.")
	submitCmd.Flags().IntSliceVarP(&jobsOptions.Layers, "layers", "l", nil, "Layers to run (1-8). Defaults to every layer.")
	submitCmd.Flags().StringVar(&jobsOptions.Filename, "filename", "", "Filename recorded on the job. Defaults to the target path.")

	statusCmd.Flags().BoolVar(&jobsOptions.JSON, "json", false, "Print the raw job JSON instead of the human view.")

	JobsCmd.AddCommand(submitCmd, statusCmd, cancelCmd)
}
