// Package tracker files analysis findings as issues on GitHub or GitLab.
// Each filed issue carries a fingerprint comment in its body; before filing,
// the open issues with the tool label are correlated against the fresh report
// so a finding that is already tracked never produces a second issue.
package tracker

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/pkg/issuecorrelation"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/permalink"
)

// NewIssue is one issue the tracker wants to file.
type NewIssue struct {
	Title       string
	Body        string
	Fingerprint issuecorrelation.Fingerprint
}

// Platform is the minimal surface over one issue tracker.
type Platform interface {
	// ListOpen returns the fingerprints of open issues previously filed by
	// this tool, identified by the tool label and the body marker.
	ListOpen(ctx context.Context) ([]issuecorrelation.Fingerprint, error)
	// Create files a new issue and returns an external reference to it.
	Create(ctx context.Context, issue NewIssue) (string, error)
}

// FileOptions tunes one filing run.
type FileOptions struct {
	// DryRun plans issues without creating them.
	DryRun bool
	// MinSeverity drops findings below the given severity. Empty means
	// everything is filed.
	MinSeverity engine.Severity
	// Ref pins source links in issue bodies to a branch, tag or commit.
	// Empty leaves the bodies without links.
	Ref string
}

// Result summarizes one filing run.
type Result struct {
	Created    []string   // external references of issues filed this run
	Planned    []NewIssue // issues that would be filed (dry run only)
	Duplicates int        // findings already tracked by an open issue
	Stale      int        // open issues whose finding no longer reproduces
}

// Tracker correlates a report against a platform's open issues and files
// what is genuinely new.
type Tracker struct {
	platform Platform
	logger   hclog.Logger

	// origin identifies the repository behind the platform. A zero value is
	// fine; it only disables source links in issue bodies.
	origin permalink.Params
}

// New creates a Tracker on an already constructed platform.
func New(platform Platform, logger hclog.Logger) *Tracker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Tracker{platform: platform, logger: logger}
}

// NewFromTarget picks the platform from a repository URL. GitHub targets need
// tracker.github configured, GitLab targets tracker.gitlab; a self-hosted
// instance is recognized when its host matches the configured base URL.
func NewFromTarget(cfg *config.Config, target string, logger hclog.Logger) (*Tracker, error) {
	info, err := vcsurl.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse tracker target %q: %w", target, err)
	}

	var platform Platform
	origin := permalink.Params{Host: string(info.Host), Name: info.Name}
	switch {
	case info.Host == vcsurl.GitHub,
		strings.Contains(string(info.Host), "github"),
		hostOf(cfg.Tracker.GitHub.BaseURL) == string(info.Host):
		platform, err = NewGitHub(cfg.Tracker.GitHub, info.Username, info.Name, logger)
		origin.Platform = permalink.GitHub
		origin.Namespace = info.Username
	case info.Host == vcsurl.GitLab,
		strings.Contains(string(info.Host), "gitlab"),
		hostOf(cfg.Tracker.GitLab.BaseURL) == string(info.Host):
		platform, err = NewGitLab(cfg.Tracker.GitLab, info.FullName, logger)
		origin.Platform = permalink.GitLab
		// FullName carries subgroups, so the namespace is everything
		// before the repository name.
		origin.Namespace = strings.TrimSuffix(info.FullName, "/"+info.Name)
	default:
		return nil, fmt.Errorf("no issue tracker configured for host %q", info.Host)
	}
	if err != nil {
		return nil, err
	}

	t := New(platform, logger)
	t.origin = origin
	return t, nil
}

// hostOf extracts the host part of a configured base URL, empty when the URL
// is absent or unparseable.
func hostOf(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// FileIssues correlates the report against the platform's open issues and
// files one issue per unmatched finding. Findings are deduplicated to one
// issue per rule, file and line before correlation; issue trackers work at
// line granularity, not column granularity.
func (t *Tracker) FileIssues(ctx context.Context, report *core.Report, code string, opts FileOptions) (*Result, error) {
	fresh, byFingerprint := fingerprints(report, code, opts.MinSeverity)
	res := &Result{}
	if len(fresh) == 0 {
		t.logger.Info("no findings to file")
		return res, nil
	}

	known, err := t.platform.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open issues: %w", err)
	}

	c := issuecorrelation.NewCorrelator(fresh, known)
	c.Process()
	res.Duplicates = len(c.Matches())
	res.Stale = len(c.UnmatchedKnown())

	for _, fp := range c.UnmatchedNew() {
		is := byFingerprint[fp]
		issue := NewIssue{
			Title:       issueTitle(is, fp.Filename),
			Body:        issueBody(is, fp, t.sourceLink(fp, opts.Ref)),
			Fingerprint: fp,
		}
		if opts.DryRun {
			res.Planned = append(res.Planned, issue)
			continue
		}
		ref, err := t.platform.Create(ctx, issue)
		if err != nil {
			return res, fmt.Errorf("create issue %q: %w", issue.Title, err)
		}
		t.logger.Info("issue filed", "ref", ref, "rule", fp.RuleID, "line", fp.Line)
		res.Created = append(res.Created, ref)
	}

	t.logger.Info("filing finished",
		"created", len(res.Created), "planned", len(res.Planned),
		"duplicates", res.Duplicates, "stale", res.Stale)
	return res, nil
}

// sourceLink renders a permalink to the finding on its hosting platform,
// empty when the origin is unknown or no ref was given. A link that cannot
// be built never blocks filing the issue.
func (t *Tracker) sourceLink(fp issuecorrelation.Fingerprint, ref string) string {
	if t.origin.Platform == "" || ref == "" {
		return ""
	}
	p := t.origin
	p.Ref = ref
	p.File = fp.Filename
	p.Line = fp.Line
	link, err := permalink.Build(p)
	if err != nil {
		t.logger.Debug("source link skipped", "file", fp.Filename, "error", err)
		return ""
	}
	return link
}

// fingerprints converts report findings into correlation fingerprints,
// collapsing findings that share rule, file and line. The returned map links
// each fingerprint back to the finding that will describe the filed issue.
func fingerprints(report *core.Report, code string, min engine.Severity) ([]issuecorrelation.Fingerprint, map[issuecorrelation.Fingerprint]engine.Issue) {
	filename := report.Metadata.Filename
	if filename == "" {
		filename = "input"
	}

	var fps []issuecorrelation.Fingerprint
	byFingerprint := make(map[issuecorrelation.Fingerprint]engine.Issue)
	for _, is := range report.Analysis.Issues {
		if severityRank(is.Severity) < severityRank(min) {
			continue
		}
		fp := issuecorrelation.Fingerprint{
			RuleID:      is.RuleID,
			Filename:    filename,
			Line:        is.Line,
			SnippetHash: issuecorrelation.SnippetHash(code, is.Line),
		}
		if _, seen := byFingerprint[fp]; seen {
			continue
		}
		byFingerprint[fp] = is
		fps = append(fps, fp)
	}
	return fps, byFingerprint
}

func severityRank(s engine.Severity) int {
	switch s {
	case engine.SeverityError:
		return 2
	case engine.SeverityWarning:
		return 1
	default:
		return 0
	}
}
