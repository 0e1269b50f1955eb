package gate

import (
	"fmt"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
)

// Verdict is the aggregated outcome of one gate evaluation.
type Verdict struct {
	Passed        bool
	Reasons       []string
	LowestQuality int
}

// evaluate applies the configured thresholds to every report. A report with
// no filename is shown as "input" so reasons stay readable for stdin runs.
func evaluate(reports []*core.Report, options *RunOptionsGate) Verdict {
	verdict := Verdict{Passed: true, LowestQuality: 100}
	failRank := severityRank(engine.Severity(options.FailOn))

	for _, report := range reports {
		name := report.Metadata.Filename
		if name == "" {
			name = "input"
		}

		quality := report.Analysis.QualityScore
		if quality < verdict.LowestQuality {
			verdict.LowestQuality = quality
		}
		if options.MinQuality > 0 && quality < options.MinQuality {
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("%s: quality %d/100 below threshold %d", name, quality, options.MinQuality))
		}

		blocking := 0
		for _, issue := range report.Analysis.Issues {
			if severityRank(issue.Severity) >= failRank {
				blocking++
			}
		}
		if blocking > 0 {
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("%s: %d issue(s) at or above %s severity", name, blocking, options.FailOn))
		}
	}

	verdict.Passed = len(verdict.Reasons) == 0
	return verdict
}

func severityRank(severity engine.Severity) int {
	switch severity {
	case engine.SeverityError:
		return 2
	case engine.SeverityWarning:
		return 1
	default:
		return 0
	}
}
