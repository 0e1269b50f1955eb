package tracker

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/xanzy/go-gitlab"

	"github.com/mendio-dev/mendio/pkg/issuecorrelation"
	"github.com/mendio-dev/mendio/pkg/shared/config"
)

// GitLab files issues on a GitLab project.
type GitLab struct {
	client  *gitlab.Client
	project string
	logger  hclog.Logger
}

// NewGitLab builds a GitLab platform for a project path such as
// "group/project". A base URL in the auth settings points the client at a
// self-hosted instance.
func NewGitLab(auth config.TrackerAuth, project string, logger hclog.Logger) (*GitLab, error) {
	if auth.Token == "" {
		return nil, fmt.Errorf("gitlab tracker requires a token")
	}
	if project == "" {
		return nil, fmt.Errorf("gitlab tracker requires a project path")
	}

	var opts []gitlab.ClientOptionFunc
	if auth.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(auth.BaseURL))
	}
	client, err := gitlab.NewClient(auth.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("init gitlab client: %w", err)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GitLab{client: client, project: project, logger: logger}, nil
}

// ListOpen walks the opened issues carrying the tool label and parses their
// fingerprints.
func (g *GitLab) ListOpen(ctx context.Context) ([]issuecorrelation.Fingerprint, error) {
	state := "opened"
	labels := gitlab.LabelOptions{Label}
	opt := &gitlab.ListProjectIssuesOptions{
		State:       &state,
		Labels:      &labels,
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	var fps []issuecorrelation.Fingerprint
	for {
		issues, resp, err := g.client.Issues.ListProjectIssues(g.project, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list issues for %s: %w", g.project, err)
		}
		for _, is := range issues {
			fp, ok := parseMarker(is.Description)
			if !ok {
				g.logger.Debug("open issue without fingerprint skipped", "iid", is.IID)
				continue
			}
			fp.ExternalID = fmt.Sprintf("#%d", is.IID)
			fps = append(fps, fp)
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	g.logger.Debug("open issues listed", "project", g.project, "fingerprints", len(fps))
	return fps, nil
}

// Create files one labeled issue and returns its web URL.
func (g *GitLab) Create(ctx context.Context, issue NewIssue) (string, error) {
	labels := gitlab.LabelOptions{Label}
	opt := &gitlab.CreateIssueOptions{
		Title:       &issue.Title,
		Description: &issue.Body,
		Labels:      &labels,
	}
	created, _, err := g.client.Issues.CreateIssue(g.project, opt, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create issue in %s: %w", g.project, err)
	}
	return created.WebURL, nil
}
