package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
)

func savedReport(t *testing.T) string {
	t.Helper()
	report := &core.Report{
		Analysis: engine.AnalysisResult{QualityScore: 90},
		Metadata: core.Metadata{ReportID: "r-1", Filename: "src/app.js"},
	}
	path := filepath.Join(t.TempDir(), "report.json")
	assert.NoError(t, report.Save(path))
	return path
}

func TestLoadReportArg(t *testing.T) {
	path := savedReport(t)

	report, err := loadReportArg([]string{path})
	assert.NoError(t, err)
	assert.Equal(t, "src/app.js", report.Metadata.Filename)

	_, err = loadReportArg([]string{})
	assert.EqualError(t, err, "a report file must be specified")

	_, err = loadReportArg([]string{path, path})
	assert.EqualError(t, err, "only one report file is allowed, got 2")

	_, err = loadReportArg([]string{"/invalid/report.json"})
	assert.Error(t, err)
}

func TestSourceCode(t *testing.T) {
	source := filepath.Join(t.TempDir(), "app.js")
	assert.NoError(t, os.WriteFile(source, []byte("console.log(1)\n"), 0644))

	// explicit source wins
	code, err := sourceCode(&core.Report{}, source)
	assert.NoError(t, err)
	assert.Equal(t, "console.log(1)\n", code)

	// fix runs keep the original buffer
	withFix := &core.Report{Fix: &engine.FixResult{OriginalCode: "var a = 1;"}}
	code, err = sourceCode(withFix, "")
	assert.NoError(t, err)
	assert.Equal(t, "var a = 1;", code)

	// nothing available degrades to location-only fingerprints
	code, err = sourceCode(&core.Report{}, "")
	assert.NoError(t, err)
	assert.Equal(t, "", code)

	_, err = sourceCode(&core.Report{}, "/invalid/app.js")
	assert.Error(t, err)
}

func TestValidateIssuesArgs(t *testing.T) {
	assert.NoError(t, validateIssuesArgs(&RunOptionsReport{}))
	assert.NoError(t, validateIssuesArgs(&RunOptionsReport{MinSeverity: "warning"}))
	assert.EqualError(t,
		validateIssuesArgs(&RunOptionsReport{MinSeverity: "fatal"}),
		`unsupported min-severity "fatal", expected one of: info, warning, error`)
}
