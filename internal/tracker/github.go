package tracker

import (
	"context"
	"fmt"

	"github.com/google/go-github/v47/github"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/mendio-dev/mendio/pkg/issuecorrelation"
	"github.com/mendio-dev/mendio/pkg/shared/config"
)

// GitHub files issues on a GitHub repository.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	logger hclog.Logger
}

// NewGitHub builds a GitHub platform for owner/repo. A base URL in the auth
// settings switches the client to a GitHub Enterprise instance.
func NewGitHub(auth config.TrackerAuth, owner, repo string, logger hclog.Logger) (*GitHub, error) {
	if auth.Token == "" {
		return nil, fmt.Errorf("github tracker requires a token")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github tracker requires an owner and a repository")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(httpClient)
	if auth.BaseURL != "" {
		var err error
		client, err = github.NewEnterpriseClient(auth.BaseURL, auth.BaseURL, httpClient)
		if err != nil {
			return nil, fmt.Errorf("init github enterprise client: %w", err)
		}
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GitHub{client: client, owner: owner, repo: repo, logger: logger}, nil
}

// ListOpen walks the open issues carrying the tool label and parses their
// fingerprints. Pull requests and issues without a marker are skipped.
func (g *GitHub) ListOpen(ctx context.Context) ([]issuecorrelation.Fingerprint, error) {
	opt := &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{Label},
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var fps []issuecorrelation.Fingerprint
	for {
		issues, resp, err := g.client.Issues.ListByRepo(ctx, g.owner, g.repo, opt)
		if err != nil {
			return nil, fmt.Errorf("list issues for %s/%s: %w", g.owner, g.repo, err)
		}
		for _, is := range issues {
			if is.IsPullRequest() {
				continue
			}
			fp, ok := parseMarker(is.GetBody())
			if !ok {
				g.logger.Debug("open issue without fingerprint skipped", "number", is.GetNumber())
				continue
			}
			fp.ExternalID = fmt.Sprintf("#%d", is.GetNumber())
			fps = append(fps, fp)
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	g.logger.Debug("open issues listed", "repo", g.owner+"/"+g.repo, "fingerprints", len(fps))
	return fps, nil
}

// Create files one labeled issue and returns its HTML URL.
func (g *GitHub) Create(ctx context.Context, issue NewIssue) (string, error) {
	req := &github.IssueRequest{
		Title:  github.String(issue.Title),
		Body:   github.String(issue.Body),
		Labels: &[]string{Label},
	}
	created, _, err := g.client.Issues.Create(ctx, g.owner, g.repo, req)
	if err != nil {
		return "", fmt.Errorf("create issue in %s/%s: %w", g.owner, g.repo, err)
	}
	return created.GetHTMLURL(), nil
}
