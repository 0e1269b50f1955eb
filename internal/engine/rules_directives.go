package engine

import (
	"regexp"
	"strings"
)

// ClientHookPattern matches the built-in React hooks whose presence makes a
// file a client component.
var ClientHookPattern = regexp.MustCompile(`\buse(?:State|Effect|LayoutEffect|Reducer|Ref|Context|Callback|Memo|Transition|DeferredValue|ImperativeHandle|SyncExternalStore)\s*\(`)

// EventHandlerPattern matches interactive JSX props that require a client
// component.
var EventHandlerPattern = regexp.MustCompile(`\bon(?:Click|Change|Submit|Input|KeyDown|KeyUp|Focus|Blur|MouseEnter|MouseLeave)\s*=\s*\{`)

// directiveRules are the layer 5 detectors for client/server boundary
// markers and framework API migration.
func directiveRules() []Rule {
	return []Rule{
		{
			ID:          "use-client-for-hooks",
			Layer:       LayerDirectives,
			Severity:    SeverityError,
			Pattern:     ClientHookPattern,
			Message:     "Hook usage without 'use client' directive",
			Description: "Files calling React hooks run on the client; without the directive the app router treats them as server components and fails.",
			Suggestion:  "Add 'use client' as the first statement of the file",
			Check: func(code string, m Match) bool {
				return notCommentedOrQuoted(code, m) && !HasClientDirective(code)
			},
			Fix: insertClientDirective,
		},
		{
			ID:          "use-client-for-handlers",
			Layer:       LayerDirectives,
			Severity:    SeverityWarning,
			Pattern:     EventHandlerPattern,
			Message:     "Event handler without 'use client' directive",
			Description: "Interactive props only fire in client components; server components silently drop them.",
			Suggestion:  "Add 'use client' as the first statement of the file",
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start) && !HasClientDirective(code)
			},
			Fix: insertClientDirective,
		},
		{
			ID:          "use-client-first",
			Layer:       LayerDirectives,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`(?m)^[ \t]*(['"]use client['"];?)`),
			Message:     "'use client' is not the first statement",
			Description: "The directive only takes effect when it precedes every import and statement.",
			Suggestion:  "Move 'use client' to the top of the file",
			Check: func(code string, m Match) bool {
				return !directiveIsFirst(code, m.Start)
			},
			Fix: func(code string, m Match) (string, bool) {
				start, end := lineBounds(code, m.Start)
				cut := end
				if cut < len(code) && code[cut] == '\n' {
					cut++
				}
				rest := code[:start] + code[cut:]
				return "'use client';\n\n" + rest, true
			},
		},
		{
			ID:          "legacy-router-import",
			Layer:       LayerDirectives,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`['"]next/router['"]`),
			Message:     "Import from next/router",
			Description: "The pages-router hooks moved to next/navigation in the app router.",
			Suggestion:  "Import useRouter and friends from next/navigation",
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start)
			},
			Fix: func(code string, m Match) (string, bool) {
				quote := string(code[m.Start])
				return code[:m.Start] + quote + "next/navigation" + quote + code[m.End:], true
			},
		},
		{
			ID:          "legacy-head-import",
			Layer:       LayerDirectives,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`['"]next/head['"]`),
			Message:     "Import from next/head",
			Description: "App-router pages describe head content through the metadata export instead of the Head component.",
			Suggestion:  "Replace the Head element with a metadata export",
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start)
			},
		},
	}
}

// insertClientDirective places 'use client' at the very top of the buffer.
func insertClientDirective(code string, m Match) (string, bool) {
	if HasClientDirective(code) {
		return code, false
	}
	return "'use client';\n\n" + code, true
}

// directiveIsFirst reports whether only whitespace and comments precede the
// directive at offset.
func directiveIsFirst(code string, offset int) bool {
	head := code[:offset]
	head = stripComments(head)
	return strings.TrimSpace(head) == ""
}

// stripComments removes // and /* */ comments. Good enough for directive
// placement checks on file heads; not a general lexer.
func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "//") {
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				break
			}
			i += nl
			continue
		}
		if strings.HasPrefix(s[i:], "/*") {
			close := strings.Index(s[i:], "*/")
			if close < 0 {
				break
			}
			i += close + 2
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
