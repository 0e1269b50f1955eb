package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/artifacts"
	"github.com/mendio-dev/mendio/internal/ci"
	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/sarif"
	"github.com/mendio-dev/mendio/internal/tracker"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// RunOptionsReport holds the arguments shared by the report subcommands.
type RunOptionsReport struct {
	OutputPath  string
	Owner       string
	Sarif       bool
	Target      string
	SourcePath  string
	DryRun      bool
	MinSeverity string
	Ref         string
}

// Global variables for configuration and command arguments
var (
	AppConfig          *config.Config
	reportOptions      RunOptionsReport
	exampleReportUsage = `  # Exporting a saved report as SARIF for code-scanning upload
  mendio report export --output report.sarif report.json

  # Uploading a report to the configured S3 bucket
  mendio report upload --owner ci report.json

  # Uploading the SARIF rendering instead of the raw report
  mendio report upload --owner ci --sarif report.json

  # Opening tracker issues for new findings, resolving the repository from CI
  mendio report issues --source src/app.js report.json

  # Previewing the issues that would be opened against an explicit repository
  mendio report issues --target https://github.com/acme/webapp --dry-run report.json`
)

// ReportCmd represents the report command group.
var ReportCmd = &cobra.Command{
	Use:                   "report [export|upload|issues]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleReportUsage,
	Short:                 "Export, upload or open tracker issues from a saved analysis report",
}

var exportCmd = &cobra.Command{
	Use:                   "export [--output/-o PATH] REPORT_FILE",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Render a saved report as a SARIF 2.1.0 document",
	RunE:                  runExportCommand,
}

var uploadCmd = &cobra.Command{
	Use:                   "upload [--owner NAME] [--sarif] REPORT_FILE",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Upload a saved report to the configured artifact store",
	RunE:                  runUploadCommand,
}

var issuesCmd = &cobra.Command{
	Use:                   "issues [--target URL] [--source FILE] [--ref REF] [--dry-run] [--min-severity SEVERITY] REPORT_FILE",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Open tracker issues for findings that are not tracked yet",
	RunE:                  runIssuesCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runExportCommand executes the report export command.
func runExportCommand(cmd *cobra.Command, args []string) error {
	log := logger.NewLogger(AppConfig, "core-report")

	saved, err := loadReportArg(args)
	if err != nil {
		log.Error("invalid export arguments", "error", err)
		return err
	}

	if reportOptions.OutputPath != "" {
		if err := sarif.WriteFile([]*core.Report{saved}, reportOptions.OutputPath); err != nil {
			log.Error("failed to write SARIF", "path", reportOptions.OutputPath, "error", err)
			return err
		}
		log.Info("report exported", "path", reportOptions.OutputPath)
		return nil
	}

	doc, err := sarif.FromReport(saved)
	if err != nil {
		log.Error("failed to render SARIF", "error", err)
		return err
	}
	return doc.PrettyWrite(os.Stdout)
}

// runUploadCommand executes the report upload command.
func runUploadCommand(cmd *cobra.Command, args []string) error {
	log := logger.NewLogger(AppConfig, "core-report")

	saved, err := loadReportArg(args)
	if err != nil {
		log.Error("invalid upload arguments", "error", err)
		return err
	}

	store := artifacts.NewStore(AppConfig, log)
	if !store.UploadEnabled() {
		return fmt.Errorf("artifact upload is not configured, set artifacts.s3 in the config")
	}

	owner := reportOptions.Owner
	if owner == "" {
		owner = "cli"
	}

	var location string
	if reportOptions.Sarif {
		// The SARIF rendering goes through a temp file so the uploaded
		// object is byte-identical to a local export.
		sarifPath := filepath.Join(config.GetMendioTempHome(AppConfig), saved.Metadata.ReportID+".sarif")
		if err := sarif.WriteFile([]*core.Report{saved}, sarifPath); err != nil {
			log.Error("failed to render SARIF for upload", "error", err)
			return err
		}
		defer os.Remove(sarifPath)
		location, err = store.UploadFile(owner, sarifPath)
	} else {
		location, err = store.Upload(owner, saved)
	}
	if err != nil {
		log.Error("artifact upload failed", "error", err)
		return err
	}

	fmt.Fprintln(os.Stdout, location)
	log.Info("report uploaded", "location", location)
	return nil
}

// runIssuesCommand executes the report issues command.
func runIssuesCommand(cmd *cobra.Command, args []string) error {
	log := logger.NewLogger(AppConfig, "core-report")

	saved, err := loadReportArg(args)
	if err != nil {
		log.Error("invalid issues arguments", "error", err)
		return err
	}
	if err := validateIssuesArgs(&reportOptions); err != nil {
		log.Error("invalid issues arguments", "error", err)
		return err
	}

	target := reportOptions.Target
	ref := reportOptions.Ref
	if target == "" {
		ciTarget, err := ci.ResolveTarget(log)
		if err != nil {
			return fmt.Errorf("no target given and none found in the environment: %w", err)
		}
		target = ciTarget.URL
		if ref == "" {
			// The commit pins source links even after the branch moves on.
			ref = ciTarget.Commit
			if ref == "" {
				ref = ciTarget.Branch
			}
		}
	}

	code, err := sourceCode(saved, reportOptions.SourcePath)
	if err != nil {
		log.Error("failed to read source for fingerprinting", "error", err)
		return err
	}

	tr, err := tracker.NewFromTarget(AppConfig, target, log)
	if err != nil {
		log.Error("failed to resolve tracker platform", "target", target, "error", err)
		return err
	}

	result, err := tr.FileIssues(context.Background(), saved, code, tracker.FileOptions{
		DryRun:      reportOptions.DryRun,
		MinSeverity: engine.Severity(reportOptions.MinSeverity),
		Ref:         ref,
	})
	if err != nil {
		log.Error("failed to file issues", "error", err)
		return err
	}

	printIssuesResult(result)
	log.Info("report issues command completed successfully",
		"created", len(result.Created),
		"planned", len(result.Planned),
		"duplicates", result.Duplicates,
		"stale", result.Stale,
	)
	return nil
}

// Initialize flags for the report command group.
func init() {
	exportCmd.Flags().StringVarP(&reportOptions.OutputPath, "output", "o", "", "Path where the SARIF document will be written. Defaults to stdout.")

	uploadCmd.Flags().StringVar(&reportOptions.Owner, "owner", "", "Owner segment of the uploaded object key. Defaults to 'cli'.")
	uploadCmd.Flags().BoolVar(&reportOptions.Sarif, "sarif", false, "Upload the SARIF rendering instead of the raw report JSON.")

	issuesCmd.Flags().StringVar(&reportOptions.Target, "target", "", "Repository URL for the tracker. Defaults to the CI environment.")
	issuesCmd.Flags().StringVar(&reportOptions.SourcePath, "source", "", "Analyzed source file, used to fingerprint findings across line moves.")
	issuesCmd.Flags().BoolVar(&reportOptions.DryRun, "dry-run", false, "Plan the issues without creating them.")
	issuesCmd.Flags().StringVar(&reportOptions.MinSeverity, "min-severity", "", "Lowest severity to file: info, warning or error. Defaults to everything.")
	issuesCmd.Flags().StringVar(&reportOptions.Ref, "ref", "", "Branch or commit for source links in issue bodies. Defaults to the CI commit.")

	ReportCmd.AddCommand(exportCmd, uploadCmd, issuesCmd)
}
