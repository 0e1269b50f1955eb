package ci

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Target is the repository coordinate hydrated from a CI environment. It is
// what gate and report runs use when the caller passes no explicit target.
type Target struct {
	Kind      CIKind
	URL       string // web URL of the repository, e.g. https://github.com/acme/app
	Branch    string
	Commit    string
	Namespace string
	Name      string
}

// ResolveTarget hydrates the repository target from the detected CI
// environment. Outside a recognized pipeline it fails, so callers can ask
// for an explicit target instead of guessing.
func ResolveTarget(log hclog.Logger) (Target, error) {
	return resolveTargetWithLookup(log, os.Getenv)
}

func resolveTargetWithLookup(log hclog.Logger, lookup LookupFunc) (Target, error) {
	kind := detectCIKindWithLookup(lookup)
	if kind == CIUnknown {
		return Target{}, fmt.Errorf("not a recognized CI environment; pass a target explicitly")
	}

	env, ok := environmentWithLookup(kind, lookup)
	if !ok {
		return Target{}, fmt.Errorf("unable to read %s environment", kind)
	}

	url := env.RepositoryFullPath
	if url == "" && env.VCSServerURL != "" && env.RepositoryFullName != "" {
		url = strings.TrimSuffix(env.VCSServerURL, "/") + "/" + env.RepositoryFullName
	}
	if url == "" {
		return Target{}, fmt.Errorf("%s environment carries no repository URL", kind)
	}

	target := Target{
		Kind:      kind,
		URL:       url,
		Branch:    env.ReferenceName,
		Commit:    env.CommitHash,
		Namespace: env.Namespace,
		Name:      env.RepositoryName,
	}
	if log != nil {
		log.Debug("target hydrated from CI environment",
			"kind", kind.String(), "url", target.URL, "branch", target.Branch)
	}
	return target, nil
}
