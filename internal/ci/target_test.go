package ci

import (
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestResolveTargetGitHub(t *testing.T) {
	env := map[string]string{
		"CI":                      "true",
		"GITHUB_REPOSITORY":       "acme/webapp",
		"GITHUB_SERVER_URL":       "https://github.com",
		"GITHUB_SHA":              "cafe01",
		"GITHUB_REF_NAME":         "main",
		"GITHUB_REPOSITORY_OWNER": "acme",
	}

	target, err := resolveTargetWithLookup(hclog.NewNullLogger(), mapLookup(env))
	if err != nil {
		t.Fatalf("resolveTargetWithLookup failed: %v", err)
	}
	if target.URL != "https://github.com/acme/webapp" {
		t.Fatalf("wrong URL: %q", target.URL)
	}
	if target.Branch != "main" || target.Commit != "cafe01" {
		t.Fatalf("wrong ref data: %+v", target)
	}
	if target.Kind != CIGitHub {
		t.Fatalf("wrong kind: %v", target.Kind)
	}
}

func TestResolveTargetAssemblesURLFromServer(t *testing.T) {
	// GitLab without CI_PROJECT_URL still yields a usable URL.
	env := map[string]string{
		"GITLAB_CI":          "true",
		"CI_SERVER_URL":      "https://gitlab.example.com/",
		"CI_PROJECT_PATH":    "group/demo",
		"CI_COMMIT_REF_NAME": "main",
	}

	target, err := resolveTargetWithLookup(nil, mapLookup(env))
	if err != nil {
		t.Fatalf("resolveTargetWithLookup failed: %v", err)
	}
	if target.URL != "https://gitlab.example.com/group/demo" {
		t.Fatalf("wrong URL: %q", target.URL)
	}
}

func TestResolveTargetOutsideCI(t *testing.T) {
	if _, err := resolveTargetWithLookup(nil, mapLookup(nil)); err == nil {
		t.Fatalf("expected an error outside CI")
	}
}

func TestResolveTargetWithoutRepositoryURL(t *testing.T) {
	env := map[string]string{"GITHUB_SHA": "cafe01"}
	if _, err := resolveTargetWithLookup(nil, mapLookup(env)); err == nil {
		t.Fatalf("expected an error when the environment has no repository URL")
	}
}
