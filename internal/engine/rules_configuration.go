package engine

import (
	"regexp"
	"strings"
)

// configurationRules detect build and framework configuration drift, layer 1.
// They target next.config.js / package.json style buffers but run on any
// source handed to the engine.
func configurationRules() []Rule {
	return []Rule{
		{
			ID:          "config-serverless-target",
			Layer:       LayerConfiguration,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\btarget\s*:\s*['"]serverless['"]`),
			Message:     "Deprecated serverless build target",
			Description: "The serverless target was removed in Next.js 12; builds now select the output mode automatically.",
			Suggestion:  "Remove the target option from next.config.js",
			Check:       notCommentedOrQuoted,
			Fix: func(code string, m Match) (string, bool) {
				return removeSpan(code, m.Start, consumeProperty(code, m.End)), true
			},
		},
		{
			ID:          "config-strict-mode-disabled",
			Layer:       LayerConfiguration,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\breactStrictMode\s*:\s*(false)`),
			Message:     "React strict mode is disabled",
			Description: "Strict mode surfaces unsafe lifecycles and double-render hazards before they reach production.",
			Suggestion:  "Set reactStrictMode: true",
			Check:       notCommentedOrQuoted,
			Fix: func(code string, m Match) (string, bool) {
				return code[:m.Start] + "true" + code[m.End:], true
			},
		},
		{
			ID:          "config-images-domains",
			Layer:       LayerConfiguration,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`\bdomains\s*:\s*\[`),
			Message:     "images.domains is deprecated",
			Description: "The domains allow-list is superseded by images.remotePatterns, which also matches protocol and path.",
			Suggestion:  "Migrate images.domains to images.remotePatterns",
			Check: func(code string, m Match) bool {
				if !notCommentedOrQuoted(code, m) {
					return false
				}
				return guardedBy(code, m, "images")
			},
		},
		{
			ID:          "config-inline-secret",
			Layer:       LayerConfiguration,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`(?i)\b(?:secret|password|apikey|api_key|token)\w*\s*:\s*['"][^'"]+['"]`),
			Message:     "Inline secret in configuration",
			Description: "Secrets committed inside configuration files leak through version control and build artifacts.",
			Suggestion:  "Move the value to an environment variable",
			Check: func(code string, m Match) bool {
				if !notCommentedOrQuoted(code, m) {
					return false
				}
				// process.env references are the fix, not the defect
				return !strings.Contains(m.Text, "process.env")
			},
		},
		{
			ID:          "config-swc-minify",
			Layer:       LayerConfiguration,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`\bswcMinify\s*:\s*(?:true|false)`),
			Message:     "swcMinify option has been removed",
			Description: "SWC minification is always on in current Next.js releases; the flag is ignored.",
			Suggestion:  "Delete the swcMinify entry",
			Check:       notCommentedOrQuoted,
			Fix: func(code string, m Match) (string, bool) {
				return removeSpan(code, m.Start, consumeProperty(code, m.End)), true
			},
		},
	}
}

// consumeProperty extends an object-property match to swallow the trailing
// comma so removal does not leave dangling separators behind.
func consumeProperty(code string, end int) int {
	for end < len(code) && (code[end] == ' ' || code[end] == '\t') {
		end++
	}
	if end < len(code) && code[end] == ',' {
		end++
	}
	return end
}
