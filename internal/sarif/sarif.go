// Package sarif exports analysis reports as SARIF 2.1.0 documents for
// code-scanning integrations.
package sarif

import (
	"fmt"
	"os"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
)

const (
	toolName       = "mendio"
	informationURI = "https://github.com/mendio-dev/mendio"
)

// FromReport converts a single analysis report into a SARIF document.
func FromReport(report *core.Report) (*sarif.Report, error) {
	return FromReports([]*core.Report{report})
}

// FromReports merges analysis reports into one SARIF document with a single
// run, the way one run of the tool over many files is expected to land in
// code-scanning UIs. Every distinct rule that produced an issue is
// registered once on the driver; each issue becomes one result bound to its
// report's file.
func FromReports(reports []*core.Report) (*sarif.Report, error) {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, informationURI)
	for _, report := range reports {
		if version := report.Metadata.EngineVersion; version != "" && run.Tool.Driver.SemanticVersion == nil {
			run.Tool.Driver.SemanticVersion = &version
		}
	}

	registered := make(map[string]bool)
	for _, report := range reports {
		uri := report.Metadata.Filename
		if uri == "" {
			uri = "input"
		}

		for _, issue := range report.Analysis.Issues {
			if !registered[issue.RuleID] {
				rule := run.AddRule(issue.RuleID).
					WithDescription(issue.Message).
					WithDefaultConfiguration(&sarif.ReportingConfiguration{
						Level: toSarifLevel(issue.Severity),
					})
				props := sarif.Properties{"layer": issue.Layer}
				if len(issue.Tags) > 0 {
					props["tags"] = issue.Tags
				}
				if issue.Category != "" {
					props["category"] = issue.Category
				}
				rule.WithProperties(props)
				registered[issue.RuleID] = true
			}

			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)).
					WithRegion(sarif.NewRegion().
						WithStartLine(issue.Line).
						WithStartColumn(issue.Column)),
			)
			result := sarif.NewRuleResult(issue.RuleID).
				WithMessage(sarif.NewTextMessage(issue.Message)).
				WithLevel(toSarifLevel(issue.Severity)).
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}

	doc.AddRun(run)
	return doc, nil
}

// WriteFile renders the reports as pretty-printed SARIF into path.
func WriteFile(reports []*core.Report, path string) error {
	doc, err := FromReports(reports)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create SARIF file '%s': %w", path, err)
	}
	defer func() { _ = file.Close() }()
	if err := doc.PrettyWrite(file); err != nil {
		return fmt.Errorf("failed to write SARIF file '%s': %w", path, err)
	}
	return nil
}

func toSarifLevel(severity engine.Severity) string {
	switch severity {
	case engine.SeverityError:
		return "error"
	case engine.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
