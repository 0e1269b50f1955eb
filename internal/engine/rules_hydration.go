package engine

import (
	"regexp"
	"strings"
)

// hydrationRules are the layer 4 detectors for code that breaks server
// rendering or produces hydration mismatches: unguarded browser globals and
// render-time nondeterminism.
func hydrationRules() []Rule {
	return []Rule{
		{
			ID:          "window-requires-guard",
			Layer:       LayerHydration,
			Severity:    SeverityError,
			Pattern:     regexp.MustCompile(`(?:^|[^.\w])(window\.\w+)`),
			Message:     "Unguarded window access",
			Description: "window does not exist during server rendering; unguarded access throws before hydration.",
			Suggestion:  "Guard with typeof window !== 'undefined' or move into an effect",
			Check:       browserGlobalCheck("typeof window"),
			Fix:         guardStatementFix("window"),
		},
		{
			ID:          "document-requires-guard",
			Layer:       LayerHydration,
			Severity:    SeverityError,
			Pattern:     regexp.MustCompile(`(?:^|[^.\w])(document\.\w+)`),
			Message:     "Unguarded document access",
			Description: "document does not exist during server rendering; unguarded access throws before hydration.",
			Suggestion:  "Guard with typeof document !== 'undefined' or move into an effect",
			Check:       browserGlobalCheck("typeof document", "typeof window"),
			Fix:         guardStatementFix("document"),
		},
		{
			ID:          "storage-requires-guard",
			Layer:       LayerHydration,
			Severity:    SeverityError,
			Pattern:     regexp.MustCompile(`(?:^|[^.\w])((?:localStorage|sessionStorage)\.\w+)`),
			Message:     "Unguarded web storage access",
			Description: "localStorage and sessionStorage are browser-only; on the server every access throws.",
			Suggestion:  "Guard with typeof window !== 'undefined' or move into an effect",
			Check:       browserGlobalCheck("typeof window", "typeof localStorage", "typeof sessionStorage"),
			Fix:         guardStatementFix("window"),
		},
		{
			ID:          "render-nondeterminism",
			Layer:       LayerHydration,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\bMath\.random\s*\(`),
			Message:     "Math.random during render",
			Description: "Random values differ between server and client render, so hydration sees mismatched markup.",
			Suggestion:  "Seed the value in an effect or derive it from props",
			Check:       notCommentedOrQuoted,
		},
		{
			ID:          "render-current-date",
			Layer:       LayerHydration,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`\bnew\s+Date\s*\(\s*\)`),
			Message:     "Current time during render",
			Description: "new Date() drifts between server and client passes and produces text mismatches.",
			Suggestion:  "Capture the timestamp in an effect or pass it from the server",
			Check:       notCommentedOrQuoted,
		},
	}
}

// browserGlobalCheck builds a checker that drops matches already wrapped in
// one of the given typeof guards, or sitting in comments or strings.
func browserGlobalCheck(guards ...string) CheckFunc {
	return func(code string, m Match) bool {
		if !notCommentedOrQuoted(code, m) {
			return false
		}
		if guardedBy(code, m, guards...) {
			return false
		}
		// effect bodies run client side only; treat them as guarded
		return !guardedBy(code, m, "useEffect", "useLayoutEffect", "componentDidMount")
	}
}

// guardStatementFix wraps the statement's line in a typeof guard on the
// named global. Only simple semicolon-terminated expression statements are
// rewritten; declarations would change scope and block constructs would
// change control flow, so those stay for manual review.
func guardStatementFix(global string) FixFunc {
	skipPrefixes := []string{"if", "const", "let", "var", "return", "}", "export", "import"}
	return func(code string, m Match) (string, bool) {
		start, end := lineBounds(code, m.Start)
		line := code[start:end]
		trimmed := strings.TrimSpace(line)
		if !strings.HasSuffix(trimmed, ";") {
			return code, false
		}
		for _, p := range skipPrefixes {
			if strings.HasPrefix(trimmed, p) {
				return code, false
			}
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		guarded := indent + "if (typeof " + global + " !== 'undefined') { " + trimmed + " }"
		return code[:start] + guarded + code[end:], true
	}
}
