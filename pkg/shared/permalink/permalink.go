// Package permalink builds web links that open a file at a given line on a
// git hosting platform. The issue tracker embeds them in issue bodies so a
// finding can be inspected right where it was reported.
package permalink

import (
	"fmt"
	"strings"
)

// Platform selects the URL layout of the hosting product.
type Platform string

const (
	GitHub    Platform = "github"
	GitLab    Platform = "gitlab"
	Bitbucket Platform = "bitbucket" // Bitbucket Server layout, Host required
)

// publicHosts supplies the host when Params.Host is empty. Bitbucket has no
// entry: only the self-hosted server layout is supported, so its host must
// be explicit.
var publicHosts = map[Platform]string{
	GitHub: "github.com",
	GitLab: "gitlab.com",
}

// Params locates one file position on one hosted repository.
type Params struct {
	Platform  Platform
	Host      string // empty picks the platform's public host
	Namespace string // owner, group path or project key
	Name      string // repository name
	Ref       string // branch, tag or commit SHA
	File      string // repository-relative path
	Line      int    // 1-based, 0 links to the file without a line anchor
	EndLine   int    // closes a range, 0 or below Line means a single line
}

func (p Params) validate() error {
	switch {
	case p.Namespace == "":
		return fmt.Errorf("permalink: namespace is required")
	case p.Name == "":
		return fmt.Errorf("permalink: repository name is required")
	case p.Ref == "":
		return fmt.Errorf("permalink: ref is required")
	case p.File == "":
		return fmt.Errorf("permalink: file path is required")
	}
	return nil
}

// Build renders the permalink for p. Platforms without a public default need
// an explicit Host; unknown platforms fall back to the GitHub layout.
//
// URL layouts:
//
//	GitHub:    https://{host}/{namespace}/{name}/blob/{ref}/{file}#L{line}-L{end}
//	GitLab:    https://{host}/{namespace}/{name}/-/blob/{ref}/{file}#L{line}-{end}
//	Bitbucket: https://{host}/projects/{namespace}/repos/{name}/browse/{file}?at={ref}#{line}-{end}
func Build(p Params) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	host := p.Host
	if host == "" {
		host = publicHosts[p.Platform]
	}
	if host == "" {
		return "", fmt.Errorf("permalink: no default host for platform %q", p.Platform)
	}

	// Windows-style separators from local analysis never belong in a URL.
	file := strings.TrimLeft(strings.ReplaceAll(p.File, `\`, "/"), "/")

	switch p.Platform {
	case GitLab:
		return fmt.Sprintf("https://%s/%s/%s/-/blob/%s/%s%s",
			host, p.Namespace, p.Name, p.Ref, file, anchor(p.Platform, p.Line, p.EndLine)), nil
	case Bitbucket:
		return fmt.Sprintf("https://%s/projects/%s/repos/%s/browse/%s?at=%s%s",
			host, p.Namespace, p.Name, file, p.Ref, anchor(p.Platform, p.Line, p.EndLine)), nil
	default:
		return fmt.Sprintf("https://%s/%s/%s/blob/%s/%s%s",
			host, p.Namespace, p.Name, p.Ref, file, anchor(p.Platform, p.Line, p.EndLine)), nil
	}
}

// anchor renders the line fragment. GitHub wants #L3-L9, GitLab #L3-9 and
// Bitbucket #3-9; a single line drops the range part on every platform.
func anchor(platform Platform, line, end int) string {
	if line <= 0 {
		return ""
	}
	if end < line {
		end = line
	}

	prefix := "L"
	if platform == Bitbucket {
		prefix = ""
	}
	if end == line {
		return fmt.Sprintf("#%s%d", prefix, line)
	}
	if platform == GitLab || platform == Bitbucket {
		return fmt.Sprintf("#%s%d-%d", prefix, line, end)
	}
	return fmt.Sprintf("#L%d-L%d", line, end)
}
