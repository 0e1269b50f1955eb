package tracker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/pkg/issuecorrelation"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/permalink"
)

const testCode = "const a = 1;\nconsole.log(a);\neval(userInput);\n"

func testReport() *core.Report {
	return &core.Report{
		Analysis: engine.AnalysisResult{
			Issues: []engine.Issue{
				{
					ID: "no-console-2-1", RuleID: "no-console", Layer: 2,
					Severity: engine.SeverityWarning,
					Message:  "Unexpected console statement", Line: 2, Column: 1,
				},
				{
					ID: "eval-injection-3-1", RuleID: "eval-injection", Layer: 8,
					Severity: engine.SeverityError, Category: "Code Injection",
					Message: "eval() with dynamic input", Line: 3, Column: 1,
				},
			},
		},
		Metadata: core.Metadata{ReportID: "r-1", Filename: "src/app.js"},
	}
}

type fakePlatform struct {
	known   []issuecorrelation.Fingerprint
	created []NewIssue
}

func (f *fakePlatform) ListOpen(ctx context.Context) ([]issuecorrelation.Fingerprint, error) {
	return f.known, nil
}

func (f *fakePlatform) Create(ctx context.Context, issue NewIssue) (string, error) {
	f.created = append(f.created, issue)
	return fmt.Sprintf("#%d", len(f.created)), nil
}

func TestFileIssuesCreatesOnlyNew(t *testing.T) {
	platform := &fakePlatform{
		known: []issuecorrelation.Fingerprint{{
			ExternalID:  "#41",
			RuleID:      "no-console",
			Filename:    "src/app.js",
			Line:        2,
			SnippetHash: issuecorrelation.SnippetHash(testCode, 2),
		}},
	}
	tr := New(platform, hclog.NewNullLogger())

	res, err := tr.FileIssues(context.Background(), testReport(), testCode, FileOptions{})
	if err != nil {
		t.Fatalf("FileIssues failed: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("expected 1 created issue, got %d", len(res.Created))
	}
	if res.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", res.Duplicates)
	}
	if !strings.Contains(platform.created[0].Title, "eval-injection") {
		t.Fatalf("wrong issue filed: %q", platform.created[0].Title)
	}
	if _, ok := parseMarker(platform.created[0].Body); !ok {
		t.Fatalf("filed issue body is missing the fingerprint marker")
	}
}

func TestFileIssuesDryRun(t *testing.T) {
	platform := &fakePlatform{}
	tr := New(platform, hclog.NewNullLogger())

	res, err := tr.FileIssues(context.Background(), testReport(), testCode, FileOptions{DryRun: true})
	if err != nil {
		t.Fatalf("FileIssues failed: %v", err)
	}
	if len(res.Planned) != 2 {
		t.Fatalf("expected 2 planned issues, got %d", len(res.Planned))
	}
	if len(platform.created) != 0 {
		t.Fatalf("dry run must not create issues, created %d", len(platform.created))
	}
}

func TestFileIssuesMinSeverity(t *testing.T) {
	platform := &fakePlatform{}
	tr := New(platform, hclog.NewNullLogger())

	res, err := tr.FileIssues(context.Background(), testReport(), testCode,
		FileOptions{MinSeverity: engine.SeverityError})
	if err != nil {
		t.Fatalf("FileIssues failed: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("expected only the error-severity finding, got %d issues", len(res.Created))
	}
	if platform.created[0].Fingerprint.RuleID != "eval-injection" {
		t.Fatalf("wrong finding filed: %q", platform.created[0].Fingerprint.RuleID)
	}
}

func TestFileIssuesCollapsesColumns(t *testing.T) {
	report := &core.Report{
		Analysis: engine.AnalysisResult{
			Issues: []engine.Issue{
				{RuleID: "no-console", Severity: engine.SeverityWarning, Message: "first", Line: 2, Column: 1},
				{RuleID: "no-console", Severity: engine.SeverityWarning, Message: "second", Line: 2, Column: 17},
			},
		},
		Metadata: core.Metadata{Filename: "src/app.js"},
	}
	platform := &fakePlatform{}
	tr := New(platform, hclog.NewNullLogger())

	res, err := tr.FileIssues(context.Background(), report, testCode, FileOptions{})
	if err != nil {
		t.Fatalf("FileIssues failed: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("findings on the same rule and line must collapse to one issue, got %d", len(res.Created))
	}
}

func TestFileIssuesLinksSourceWhenRefGiven(t *testing.T) {
	platform := &fakePlatform{}
	tr := New(platform, hclog.NewNullLogger())
	tr.origin = permalink.Params{
		Platform: permalink.GitHub, Host: "github.com",
		Namespace: "acme", Name: "web-app",
	}

	_, err := tr.FileIssues(context.Background(), testReport(), testCode, FileOptions{Ref: "1f2e3d"})
	if err != nil {
		t.Fatalf("FileIssues failed: %v", err)
	}
	want := "[src/app.js:2:1](https://github.com/acme/web-app/blob/1f2e3d/src/app.js#L2)"
	if !strings.Contains(platform.created[0].Body, want) {
		t.Fatalf("issue body is missing the source link:\n%s", platform.created[0].Body)
	}

	// Without a ref the location stays plain text.
	platform.created = nil
	_, err = tr.FileIssues(context.Background(), testReport(), testCode, FileOptions{})
	if err != nil {
		t.Fatalf("FileIssues failed: %v", err)
	}
	if strings.Contains(platform.created[0].Body, "](https://") {
		t.Fatalf("issue body must not carry a link without a ref:\n%s", platform.created[0].Body)
	}
}

func TestFileIssuesReportsStale(t *testing.T) {
	platform := &fakePlatform{
		known: []issuecorrelation.Fingerprint{{
			ExternalID: "#9", RuleID: "no-var", Filename: "src/app.js", Line: 50,
		}},
	}
	tr := New(platform, hclog.NewNullLogger())

	res, err := tr.FileIssues(context.Background(), testReport(), testCode, FileOptions{})
	if err != nil {
		t.Fatalf("FileIssues failed: %v", err)
	}
	if res.Stale != 1 {
		t.Fatalf("expected 1 stale issue, got %d", res.Stale)
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	fp := issuecorrelation.Fingerprint{
		RuleID:      "no-console",
		Filename:    "src/my app.js",
		Line:        12,
		SnippetHash: "abc123",
	}
	got, ok := parseMarker("some prose\n\n" + marker(fp) + "\n")
	if !ok {
		t.Fatalf("marker did not parse back")
	}
	if got != fp {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, fp)
	}

	// An empty hash survives the round trip too.
	fp.SnippetHash = ""
	got, ok = parseMarker(marker(fp))
	if !ok || got != fp {
		t.Fatalf("empty-hash round trip mismatch: got %+v ok=%v", got, ok)
	}
}

func TestParseMarkerRejectsForeignBodies(t *testing.T) {
	if _, ok := parseMarker("a hand-written issue without any marker"); ok {
		t.Fatalf("prose must not parse as a fingerprint")
	}
	if _, ok := parseMarker("<!-- mendio:fingerprint rule=x file=y line=NaN hash= -->"); ok {
		t.Fatalf("malformed line number must not parse")
	}
}

func TestNewFromTarget(t *testing.T) {
	cfg := &config.Config{}
	cfg.Tracker.GitHub.Token = "gh-token"
	cfg.Tracker.GitLab.Token = "gl-token"

	tr, err := NewFromTarget(cfg, "https://github.com/acme/app", hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("github target failed: %v", err)
	}
	gh, ok := tr.platform.(*GitHub)
	if !ok {
		t.Fatalf("expected a GitHub platform, got %T", tr.platform)
	}
	if gh.owner != "acme" || gh.repo != "app" {
		t.Fatalf("wrong repo parsed: %s/%s", gh.owner, gh.repo)
	}
	wantOrigin := permalink.Params{
		Platform: permalink.GitHub, Host: "github.com", Namespace: "acme", Name: "app",
	}
	if tr.origin != wantOrigin {
		t.Fatalf("wrong origin: %+v", tr.origin)
	}

	tr, err = NewFromTarget(cfg, "https://gitlab.com/grp/sub/proj", hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("gitlab target failed: %v", err)
	}
	gl, ok := tr.platform.(*GitLab)
	if !ok {
		t.Fatalf("expected a GitLab platform, got %T", tr.platform)
	}
	if gl.project != "grp/sub/proj" {
		t.Fatalf("wrong project parsed: %s", gl.project)
	}
	if tr.origin.Namespace != "grp/sub" || tr.origin.Name != "proj" {
		t.Fatalf("wrong gitlab origin: %+v", tr.origin)
	}

	if _, err := NewFromTarget(cfg, "https://svn.example.com/x/y", hclog.NewNullLogger()); err == nil {
		t.Fatalf("unknown host must not resolve to a tracker")
	}
}
