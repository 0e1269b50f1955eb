package engine

import (
	"regexp"
	"strings"
)

// testingRules are the layer 6 detectors for test hygiene and unhandled
// async failure paths.
func testingRules() []Rule {
	return []Rule{
		{
			ID:          "no-focused-tests",
			Layer:       LayerTesting,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\b(?:describe|it|test)(\.only)\s*\(`),
			Message:     "Focused test left in suite",
			Description: ".only silently disables every other test in the run.",
			Suggestion:  "Remove .only",
			Check:       notCommentedOrQuoted,
			Fix: func(code string, m Match) (string, bool) {
				return code[:m.Start] + code[m.End:], true
			},
		},
		{
			ID:          "no-skipped-tests",
			Layer:       LayerTesting,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`\b(?:describe|it|test)\.skip\s*\(`),
			Message:     "Skipped test",
			Description: "Skipped tests rot; they keep compiling but stop guarding anything.",
			Suggestion:  "Re-enable the test or delete it with its feature",
			Check:       notCommentedOrQuoted,
		},
		{
			ID:          "no-async-effect",
			Layer:       LayerTesting,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\buse(?:Layout)?Effect\s*\(\s*async\b`),
			Message:     "Async effect callback",
			Description: "Effects treat a returned promise as a cleanup function, so rejections vanish and cleanup never runs.",
			Suggestion:  "Declare an async function inside the effect and invoke it",
			Check:       notCommentedOrQuoted,
		},
		{
			ID:          "promise-requires-catch",
			Layer:       LayerTesting,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\.then\s*\(`),
			Message:     "Promise chain without rejection handling",
			Description: "A rejected promise without a catch handler surfaces as an unhandled rejection at runtime.",
			Suggestion:  "Append .catch or convert to try/await",
			Check: func(code string, m Match) bool {
				if !notCommentedOrQuoted(code, m) {
					return false
				}
				to := m.End + contextWindow
				if to > len(code) {
					to = len(code)
				}
				ahead := code[m.End:to]
				return !strings.Contains(ahead, ".catch") && !strings.Contains(ahead, "finally")
			},
		},
		{
			ID:          "no-empty-test",
			Layer:       LayerTesting,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`\b(?:it|test)\s*\(\s*['"][^'"]*['"]\s*,\s*(?:async\s*)?\(\s*\)\s*=>\s*\{\s*\}`),
			Message:     "Empty test body",
			Description: "An empty body passes unconditionally and reports cover it never has.",
			Suggestion:  "Write the assertion or remove the placeholder",
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start)
			},
		},
	}
}
