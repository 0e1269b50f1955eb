package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/cmd/analyze"
	"github.com/mendio-dev/mendio/cmd/fetch"
	"github.com/mendio-dev/mendio/cmd/fix"
	"github.com/mendio-dev/mendio/cmd/gate"
	"github.com/mendio-dev/mendio/cmd/jobs"
	"github.com/mendio-dev/mendio/cmd/report"
	"github.com/mendio-dev/mendio/cmd/rules"
	"github.com/mendio-dev/mendio/cmd/scan"
	"github.com/mendio-dev/mendio/cmd/serve"
	"github.com/mendio-dev/mendio/cmd/version"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "mendio [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Mendio analyzes and repairs JavaScript and JSX sources.",
		Long: `Mendio is a layered code quality and security engine for JavaScript and JSX.
	It analyzes sources across eight layers, applies automatic fixes under a
	validation protocol, gates CI pipelines on quality thresholds, and runs as
	an HTTP service with an asynchronous job queue.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(
		analyze.AnalyzeCmd,
		fix.FixCmd,
		scan.ScanCmd,
		gate.GateCmd,
		fetch.FetchCmd,
		rules.RulesCmd,
		serve.ServeCmd,
		jobs.JobsCmd,
		report.ReportCmd,
		version.NewVersionCmd(),
	)
}

func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		var cmdErr *errors.CommandError
		if stderrors.As(err, &cmdErr) {
			os.Exit(cmdErr.ExitCode)
		}
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	explicit := cfgFile != ""
	if cfgFile == "" {
		cfgFile = "config.yml"
	}

	var err error
	AppConfig, err = config.LoadConfig(cfgFile, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %q: %v\n", cfgFile, err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	analyze.Init(AppConfig)
	fix.Init(AppConfig)
	scan.Init(AppConfig)
	gate.Init(AppConfig)
	fetch.Init(AppConfig)
	rules.Init(AppConfig)
	serve.Init(AppConfig)
	jobs.Init(AppConfig)
	report.Init(AppConfig)
	version.Init(AppConfig)
}
