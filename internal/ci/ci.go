// Package ci discovers repository metadata from CI environments so gate and
// report runs need no explicit target flags inside a pipeline.
package ci

import (
	"net/url"
	"os"
	"strconv"
	"strings"
)

// CIKind identifies a CI provider.
type CIKind int

const (
	// CIUnknown indicates the CI provider could not be identified.
	CIUnknown CIKind = iota
	// CIGitHub identifies GitHub Actions environments.
	CIGitHub
	// CIGitLab identifies GitLab CI environments.
	CIGitLab
	// CIBitbucket identifies Bitbucket Pipelines environments.
	CIBitbucket
)

// String returns the lower-case provider name.
func (c CIKind) String() string {
	switch c {
	case CIGitHub:
		return "github"
	case CIGitLab:
		return "gitlab"
	case CIBitbucket:
		return "bitbucket"
	default:
		return "unknown"
	}
}

// LookupFunc fetches environment variables and defaults to os.Getenv.
type LookupFunc func(string) string

// CIEnvironment captures canonical repository metadata derived from CI
// environment variables.
type CIEnvironment struct {
	Kind               CIKind
	CI                 bool   // CI reports whether the process runs inside a pipeline.
	CommitHash         string // CommitHash is the tip commit that triggered the job.
	Reference          string // Reference is the fully qualified git reference (e.g. refs/heads/main).
	ReferenceName      string // ReferenceName is the short reference or branch name.
	VCSServerURL       string // VCSServerURL is the scheme and host of the VCS server.
	RepositoryName     string // RepositoryName is the repository slug without namespace.
	RepositoryFullName string // RepositoryFullName is the namespace-qualified repository name.
	RepositoryFullPath string // RepositoryFullPath is the full web URL of the repository.
	Namespace          string // Namespace is the owner, organization or group path.
}

// DetectCIKind infers the CI provider from well-known environment variables.
func DetectCIKind() CIKind {
	return detectCIKindWithLookup(os.Getenv)
}

func detectCIKindWithLookup(lookup LookupFunc) CIKind {
	if lookup == nil {
		lookup = os.Getenv
	}

	if lookup("GITHUB_REPOSITORY") != "" || lookup("GITHUB_SHA") != "" {
		return CIGitHub
	}
	if strings.EqualFold(lookup("GITLAB_CI"), "true") || lookup("CI_PROJECT_PATH") != "" {
		return CIGitLab
	}
	if lookup("BITBUCKET_WORKSPACE") != "" || lookup("BITBUCKET_REPO_SLUG") != "" {
		return CIBitbucket
	}

	return CIUnknown
}

// Environment resolves the provider's variables using the process
// environment.
func Environment(kind CIKind) (CIEnvironment, bool) {
	return environmentWithLookup(kind, os.Getenv)
}

func environmentWithLookup(kind CIKind, lookup LookupFunc) (CIEnvironment, bool) {
	if lookup == nil {
		lookup = os.Getenv
	}

	switch kind {
	case CIGitHub:
		return extractGitHubVariables(lookup), true
	case CIGitLab:
		return extractGitLabVariables(lookup), true
	case CIBitbucket:
		return extractBitbucketVariables(lookup), true
	default:
		return CIEnvironment{}, false
	}
}

// extractGitHubVariables builds the CIEnvironment from GitHub-specific variables.
// See https://docs.github.com/en/actions/reference/workflows-and-actions/variables.
func extractGitHubVariables(lookup LookupFunc) CIEnvironment {
	ci, _ := strconv.ParseBool(lookup("CI"))

	fullName := lookup("GITHUB_REPOSITORY")
	repoName := ""
	if i := strings.LastIndex(fullName, "/"); i >= 0 && i < len(fullName)-1 {
		repoName = fullName[i+1:]
	}

	serverURL := lookup("GITHUB_SERVER_URL")
	fullPath := ""
	if serverURL != "" && fullName != "" {
		fullPath = serverURL + "/" + fullName
	}

	return CIEnvironment{
		Kind:               CIGitHub,
		CI:                 ci,
		CommitHash:         lookup("GITHUB_SHA"),
		VCSServerURL:       serverURL,
		Reference:          lookup("GITHUB_REF"),
		ReferenceName:      lookup("GITHUB_REF_NAME"),
		RepositoryName:     repoName,
		RepositoryFullName: fullName,
		RepositoryFullPath: fullPath,
		Namespace:          lookup("GITHUB_REPOSITORY_OWNER"),
	}
}

// extractGitLabVariables builds the CIEnvironment from GitLab-specific variables.
// See https://docs.gitlab.com/ci/variables/predefined_variables/.
func extractGitLabVariables(lookup LookupFunc) CIEnvironment {
	ci, _ := strconv.ParseBool(lookup("CI"))

	var fullRef, refName string
	if tag := lookup("CI_COMMIT_TAG"); tag != "" {
		// Tag pipeline.
		fullRef = "refs/tags/" + tag
		refName = tag
	} else if mrRef := lookup("CI_MERGE_REQUEST_REF_PATH"); mrRef != "" {
		// Merge request pipeline. The source branch is what was analyzed.
		fullRef = mrRef
		refName = lookup("CI_MERGE_REQUEST_SOURCE_BRANCH_NAME")
	} else {
		refName = lookup("CI_COMMIT_REF_NAME")
		if refName != "" {
			fullRef = "refs/heads/" + refName
		}
	}

	return CIEnvironment{
		Kind:               CIGitLab,
		CI:                 ci,
		CommitHash:         lookup("CI_COMMIT_SHA"),
		VCSServerURL:       lookup("CI_SERVER_URL"),
		Reference:          fullRef,
		ReferenceName:      refName,
		RepositoryName:     lookup("CI_PROJECT_NAME"),
		RepositoryFullName: lookup("CI_PROJECT_PATH"),
		RepositoryFullPath: lookup("CI_PROJECT_URL"),
		Namespace:          lookup("CI_PROJECT_NAMESPACE"),
	}
}

// extractBitbucketVariables builds the CIEnvironment from Bitbucket-specific variables.
// See https://support.atlassian.com/bitbucket-cloud/docs/variables-and-secrets/.
func extractBitbucketVariables(lookup LookupFunc) CIEnvironment {
	ci, _ := strconv.ParseBool(lookup("CI"))

	var reference, refName string
	if tag := lookup("BITBUCKET_TAG"); tag != "" {
		reference = "refs/tags/" + tag
		refName = tag
	} else if branch := lookup("BITBUCKET_BRANCH"); branch != "" {
		reference = "refs/heads/" + branch
		refName = branch
	}

	origin := lookup("BITBUCKET_GIT_HTTP_ORIGIN")
	u, err := url.Parse(origin)
	var serverURL string
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverURL = u.Scheme + "://" + u.Host
	}

	return CIEnvironment{
		Kind:               CIBitbucket,
		CI:                 ci,
		CommitHash:         lookup("BITBUCKET_COMMIT"),
		VCSServerURL:       serverURL,
		Reference:          reference,
		ReferenceName:      refName,
		RepositoryName:     lookup("BITBUCKET_REPO_SLUG"),
		RepositoryFullName: lookup("BITBUCKET_REPO_FULL_NAME"),
		RepositoryFullPath: origin,
		Namespace:          lookup("BITBUCKET_WORKSPACE"),
	}
}
