package analyze

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/gitsource"
	"github.com/mendio-dev/mendio/internal/sarif"
)

const (
	formatSummary = "summary"
	formatJSON    = "json"
	formatSarif   = "sarif"
)

// collectReports runs the facade over every resolved source. Layers missing
// from the options fall back to the configured default set.
func collectReports(facade *core.Facade, sources []gitsource.Source, options *RunOptionsAnalyze) ([]*core.Report, error) {
	layers := options.Layers
	if len(layers) == 0 {
		layers = AppConfig.Engine.DefaultLayers
	}

	reports := make([]*core.Report, 0, len(sources))
	for _, source := range sources {
		code, err := os.ReadFile(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", source.Path, err)
		}
		report, err := facade.Analyze(string(code), engine.Options{
			Filename: source.Name,
			Layers:   layers,
			Verbose:  options.Verbose,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to analyze %q: %w", source.Name, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// renderReports writes the reports in the requested format to the output
// path, or to stdout when no path is given.
func renderReports(reports []*core.Report, format, outputPath string) error {
	switch format {
	case formatJSON:
		return renderJSON(reports, outputPath)
	case formatSarif:
		return renderSarif(reports, outputPath)
	default:
		return renderSummary(reports, outputPath)
	}
}

// renderJSON keeps the single-file case an object so scripted callers do not
// have to unwrap a one-element array.
func renderJSON(reports []*core.Report, outputPath string) error {
	var payload interface{} = reports
	if len(reports) == 1 {
		payload = reports[0]
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return writeOut(append(data, '\n'), outputPath)
}

func renderSarif(reports []*core.Report, outputPath string) error {
	if outputPath != "" {
		return sarif.WriteFile(reports, outputPath)
	}
	doc, err := sarif.FromReports(reports)
	if err != nil {
		return err
	}
	return doc.PrettyWrite(os.Stdout)
}

func renderSummary(reports []*core.Report, outputPath string) error {
	var b strings.Builder
	totalIssues := 0
	totalQuality := 0
	severities := make(map[engine.Severity]int)

	for _, report := range reports {
		writeReportSummary(&b, report)
		totalIssues += len(report.Analysis.Issues)
		totalQuality += report.Analysis.QualityScore
		for severity, n := range report.Analysis.IssuesBySeverity {
			severities[severity] += n
		}
	}

	if len(reports) > 1 {
		fmt.Fprintf(&b, "%d files analyzed: %d issues (%d errors, %d warnings), mean quality %d/100\n",
			len(reports),
			totalIssues,
			severities[engine.SeverityError],
			severities[engine.SeverityWarning],
			totalQuality/len(reports),
		)
	}
	return writeOut([]byte(b.String()), outputPath)
}

// writeReportSummary renders one file's outcome in a compact human form.
func writeReportSummary(b *strings.Builder, report *core.Report) {
	name := report.Metadata.Filename
	if name == "" {
		name = "input"
	}
	fmt.Fprintf(b, "%s\n", name)
	fmt.Fprintf(b, "  quality: %d/100  readiness: %d/100  issues: %d\n",
		report.Analysis.QualityScore,
		report.Analysis.ReadinessScore,
		len(report.Analysis.Issues),
	)
	if report.Security != nil {
		fmt.Fprintf(b, "  risk: %s\n", report.Security.RiskLevel)
	}

	issues := make([]engine.Issue, len(report.Analysis.Issues))
	copy(issues, report.Analysis.Issues)
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Column < issues[j].Column
	})
	for _, issue := range issues {
		fmt.Fprintf(b, "  [%s] %d:%d %s: %s\n",
			issue.Severity, issue.Line, issue.Column, issue.RuleID, issue.Message)
	}
	b.WriteString("\n")
}

func writeOut(data []byte, outputPath string) error {
	if outputPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output to %q: %w", outputPath, err)
	}
	return nil
}
