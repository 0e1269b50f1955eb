package tracker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/pkg/issuecorrelation"
)

// Label is applied to every issue the tracker files. Listing open issues
// filters on it so unrelated issues never enter correlation.
const Label = "mendio"

// markerRe recognizes the machine-readable fingerprint embedded in issue
// bodies. The file group is lazy so filenames with spaces survive.
var markerRe = regexp.MustCompile(`<!-- mendio:fingerprint rule=(\S+) file=(.+?) line=(\d+) hash=(\S*) -->`)

// marker renders the fingerprint comment appended to each issue body. The
// comment is invisible in rendered markdown but lets a later run recover the
// fingerprint without guessing from prose.
func marker(fp issuecorrelation.Fingerprint) string {
	return fmt.Sprintf("<!-- mendio:fingerprint rule=%s file=%s line=%d hash=%s -->",
		fp.RuleID, fp.Filename, fp.Line, fp.SnippetHash)
}

// parseMarker extracts a fingerprint from an issue body. Issues without a
// marker (or with a mangled one) are ignored rather than treated as errors;
// they were not filed by this tool.
func parseMarker(body string) (issuecorrelation.Fingerprint, bool) {
	m := markerRe.FindStringSubmatch(body)
	if m == nil {
		return issuecorrelation.Fingerprint{}, false
	}
	line, err := strconv.Atoi(m[3])
	if err != nil {
		return issuecorrelation.Fingerprint{}, false
	}
	return issuecorrelation.Fingerprint{
		RuleID:      m[1],
		Filename:    m[2],
		Line:        line,
		SnippetHash: m[4],
	}, true
}

func issueTitle(is engine.Issue, filename string) string {
	return fmt.Sprintf("[%s] %s: %s (%s:%d)", Label, is.RuleID, is.Message, filename, is.Line)
}

// issueBody renders the markdown body of one issue. A non-empty link turns
// the location into a permalink on the hosting platform.
func issueBody(is engine.Issue, fp issuecorrelation.Fingerprint, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Rule**: `%s` (layer %d)\n", is.RuleID, is.Layer)
	fmt.Fprintf(&b, "**Severity**: %s\n", is.Severity)
	if is.Category != "" {
		fmt.Fprintf(&b, "**Category**: %s\n", is.Category)
	}
	if link != "" {
		fmt.Fprintf(&b, "**Location**: [%s:%d:%d](%s)\n\n", fp.Filename, is.Line, is.Column, link)
	} else {
		fmt.Fprintf(&b, "**Location**: %s:%d:%d\n\n", fp.Filename, is.Line, is.Column)
	}
	fmt.Fprintf(&b, "%s\n", is.Message)
	if is.Suggestion != "" {
		fmt.Fprintf(&b, "\n> %s\n", is.Suggestion)
	}
	if is.Context != "" {
		fmt.Fprintf(&b, "\n```js\n%s\n```\n", is.Context)
	}
	b.WriteString("\n" + marker(fp) + "\n")
	return b.String()
}
