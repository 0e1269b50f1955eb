package engine

import (
	"regexp"
)

// patternRules are the layer 2 code-quality detectors: leftover debug
// statements, legacy syntax, loose comparisons.
func patternRules() []Rule {
	return []Rule{
		{
			ID:          "no-console",
			Layer:       LayerPatterns,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\bconsole\.(?:log|warn|error|info|debug|trace)\s*\(`),
			Message:     "Console statement in source",
			Description: "Console output leaks into production bundles and server logs.",
			Suggestion:  "Remove the statement or route it through a logger",
			Check:       notCommentedOrQuoted,
			Fix:         removeCallFix,
		},
		{
			ID:          "no-debugger",
			Layer:       LayerPatterns,
			Severity:    SeverityError,
			Pattern:     regexp.MustCompile(`\bdebugger\b\s*;?`),
			Message:     "Debugger statement in source",
			Description: "A debugger statement halts execution whenever developer tools are open.",
			Suggestion:  "Delete the debugger statement",
			Check:       notCommentedOrQuoted,
			Fix: func(code string, m Match) (string, bool) {
				return removeSpan(code, m.Start, m.End), true
			},
		},
		{
			ID:          "no-var",
			Layer:       LayerPatterns,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`\bvar\s+[A-Za-z_$]`),
			Message:     "var declaration",
			Description: "var hoists to function scope and allows accidental redeclaration.",
			Suggestion:  "Use let or const",
			Check:       notCommentedOrQuoted,
			Fix: func(code string, m Match) (string, bool) {
				return code[:m.Start] + "let" + code[m.Start+3:], true
			},
		},
		{
			ID:          "eqeqeq",
			Layer:       LayerPatterns,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`(?:^|[^=!<>])(==|!=)[^=]`),
			Message:     "Loose equality comparison",
			Description: "== and != coerce types before comparing, which hides subtle bugs.",
			Suggestion:  "Use === or !==",
			Check:       notCommentedOrQuoted,
			Fix: func(code string, m Match) (string, bool) {
				return code[:m.Start] + m.Text + "=" + code[m.End:], true
			},
		},
		{
			ID:          "no-alert",
			Layer:       LayerPatterns,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\b(?:alert|confirm|prompt)\s*\(`),
			Message:     "Blocking dialog call",
			Description: "alert, confirm and prompt block the main thread and break server rendering.",
			Suggestion:  "Replace with a non-blocking dialog component",
			Check:       notCommentedOrQuoted,
		},
		{
			ID:          "no-empty-catch",
			Layer:       LayerPatterns,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`catch\s*(?:\([^)]*\))?\s*\{\s*\}`),
			Message:     "Empty catch block",
			Description: "Swallowed errors disappear without a trace.",
			Suggestion:  "Handle the error or at least record it",
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start)
			},
		},
		{
			ID:          "no-todo-comment",
			Layer:       LayerPatterns,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`(?i)(?://|/\*)\s*(?:todo|fixme|hack)\b`),
			Message:     "Unresolved marker comment",
			Description: "TODO and FIXME markers accumulate silently unless they are tracked.",
			Suggestion:  "File the follow-up and link it, or resolve the marker",
		},
	}
}

// removeCallFix deletes a full call statement starting at the match, e.g. a
// console.log line. Leaves the buffer untouched when the call never closes.
func removeCallFix(code string, m Match) (string, bool) {
	end := consumeCall(code, m.Start)
	if end < 0 {
		return code, false
	}
	out := removeSpan(code, m.Start, end)
	return out, out != code
}

// debugStatementPatterns are the layer 2 targets eligible for structural
// removal; the transform package consumes them when rewriting statements.
func debugStatementPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`^\s*console\.(?:log|warn|error|info|debug|trace)\s*\(`),
		regexp.MustCompile(`^\s*debugger\b`),
	}
}
