package transform

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mendio-dev/mendio/internal/engine"
)

// errStructuralUnsupported marks layers that have no structure-aware
// rewrite; the safety protocol sends them straight to the pattern fallback.
var errStructuralUnsupported = errors.New("no structural transform for layer")

// edit is one span replacement the structural pass wants to make.
// Replacement of "" deletes the span.
type edit struct {
	start, end  int
	replacement string
	ruleID      string
	description string
}

// structuralFunc rewrites a whole buffer for one layer, or fails cleanly.
type structuralFunc func(code string) (string, []engine.AppliedFix, error)

// structuralFor returns the structure-aware rewrite of a layer, or nil.
// Layers without one rely on the pattern fallback alone.
func (t *Transformer) structuralFor(layer int) structuralFunc {
	switch layer {
	case engine.LayerPatterns:
		return t.structuralPatterns
	case engine.LayerHydration:
		return t.structuralHydration
	case engine.LayerDirectives:
		return t.structuralDirectives
	}
	return nil
}

// lexClean builds the structural model, failing when the buffer does not
// lex well enough to trust it.
func lexClean(code string) (*lexResult, error) {
	lx := lex(code)
	if lx.stats.Unterminated {
		return nil, fmt.Errorf("input does not lex cleanly: unterminated literal or comment")
	}
	return lx, nil
}

var (
	debugCallPattern  = regexp.MustCompile(`\bconsole\.(?:log|warn|error|info|debug|trace)\s*\(`)
	debuggerPattern   = regexp.MustCompile(`\bdebugger\b\s*;?`)
	varDeclPattern    = regexp.MustCompile(`\bvar\s+[A-Za-z_$]`)
	looseEqPattern    = regexp.MustCompile(`(?:^|[^=!<>])(==|!=)[^=]`)
	browserGlobalUse  = regexp.MustCompile(`(?:^|[^.\w])((?:window|document|localStorage|sessionStorage)\.\w+)`)
	routerImportToken = regexp.MustCompile(`['"]next/router['"]`)
)

// structuralPatterns is the layer 2 rewrite: statement-aware removal of
// debug statements plus token-safe var and loose-equality repairs, all
// filtered through the lex mask so literals and comments stay untouched.
func (t *Transformer) structuralPatterns(code string) (string, []engine.AppliedFix, error) {
	lx, err := lexClean(code)
	if err != nil {
		return "", nil, err
	}

	var edits []edit
	for _, idx := range debugCallPattern.FindAllStringIndex(code, -1) {
		if !lx.cleanAt(idx[0], idx[0]+7) {
			continue
		}
		start, end, ok := statementSpan(code, lx, idx[0])
		if !ok {
			continue
		}
		edits = append(edits, edit{start: start, end: end, ruleID: "no-console", description: "Console statement in source"})
	}
	for _, idx := range debuggerPattern.FindAllStringIndex(code, -1) {
		if !lx.cleanAt(idx[0], idx[0]+8) {
			continue
		}
		start, end := lineSpanIfAlone(code, idx[0], idx[1])
		edits = append(edits, edit{start: start, end: end, ruleID: "no-debugger", description: "Debugger statement in source"})
	}
	for _, idx := range varDeclPattern.FindAllStringIndex(code, -1) {
		if !lx.cleanAt(idx[0], idx[0]+3) {
			continue
		}
		edits = append(edits, edit{start: idx[0], end: idx[0] + 3, replacement: "let", ruleID: "no-var", description: "var declaration"})
	}
	for _, idx := range looseEqPattern.FindAllStringSubmatchIndex(code, -1) {
		s, e := idx[2], idx[3]
		if !lx.cleanAt(s, e) {
			continue
		}
		edits = append(edits, edit{start: s, end: e, replacement: code[s:e] + "=", ruleID: "eqeqeq", description: "Loose equality comparison"})
	}

	return applyEdits(code, edits)
}

// structuralHydration is the layer 4 rewrite: wraps standalone browser
// global statements in typeof guards.
func (t *Transformer) structuralHydration(code string) (string, []engine.AppliedFix, error) {
	lx, err := lexClean(code)
	if err != nil {
		return "", nil, err
	}

	var edits []edit
	for _, idx := range browserGlobalUse.FindAllStringSubmatchIndex(code, -1) {
		s, e := idx[2], idx[3]
		if !lx.cleanAt(s, e) {
			continue
		}
		if guardedNearby(code, s) {
			continue
		}
		start, end, indent, stmt, ok := wrappableStatement(code, s)
		if !ok {
			continue
		}
		global := "window"
		if strings.HasPrefix(code[s:e], "document.") {
			global = "document"
		}
		guarded := indent + "if (typeof " + global + " !== 'undefined') { " + stmt + " }"
		ruleID := "window-requires-guard"
		switch {
		case global == "document":
			ruleID = "document-requires-guard"
		case strings.HasPrefix(code[s:e], "localStorage.") || strings.HasPrefix(code[s:e], "sessionStorage."):
			ruleID = "storage-requires-guard"
		}
		edits = append(edits, edit{start: start, end: end, replacement: guarded, ruleID: ruleID, description: "Unguarded browser global access"})
	}

	return applyEdits(code, edits)
}

// structuralDirectives is the layer 5 rewrite: places the 'use client'
// directive after any leading comment block and modernizes router imports.
func (t *Transformer) structuralDirectives(code string) (string, []engine.AppliedFix, error) {
	lx, err := lexClean(code)
	if err != nil {
		return "", nil, err
	}

	var edits []edit

	needsDirective := false
	if !engine.HasClientDirective(code) {
		for _, idx := range engine.ClientHookPattern.FindAllStringIndex(code, -1) {
			if lx.cleanAt(idx[0], idx[0]+3) {
				needsDirective = true
				break
			}
		}
		if !needsDirective {
			for _, idx := range engine.EventHandlerPattern.FindAllStringIndex(code, -1) {
				if lx.cleanAt(idx[0], idx[0]+2) {
					needsDirective = true
					break
				}
			}
		}
	}
	if needsDirective {
		at := insertionPoint(code, lx)
		edits = append(edits, edit{start: at, end: at, replacement: "'use client';\n\n",
			ruleID: "use-client-for-hooks", description: "Hook usage without 'use client' directive"})
	}

	if misplaced, start, end := misplacedDirective(code, lx); misplaced {
		at := insertionPoint(code, lx)
		if at < start {
			edits = append(edits,
				edit{start: at, end: at, replacement: "'use client';\n\n",
					ruleID: "use-client-first", description: "'use client' is not the first statement"},
				edit{start: start, end: end, ruleID: "use-client-first", description: "'use client' is not the first statement"})
		}
	}

	for _, idx := range routerImportToken.FindAllStringIndex(code, -1) {
		line := strings.TrimSpace(lineOf(code, idx[0]))
		if !strings.HasPrefix(line, "import") && !strings.Contains(line, "require(") {
			continue
		}
		quote := string(code[idx[0]])
		edits = append(edits, edit{start: idx[0], end: idx[1], replacement: quote + "next/navigation" + quote,
			ruleID: "legacy-router-import", description: "Import from next/router"})
	}

	return applyEdits(code, edits)
}

// applyEdits performs span edits back to front so earlier offsets stay
// valid, skipping overlaps, and reports each as an applied fix.
func applyEdits(code string, edits []edit) (string, []engine.AppliedFix, error) {
	if len(edits) == 0 {
		return code, nil, nil
	}
	ordered := make([]edit, len(edits))
	copy(ordered, edits)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].start > ordered[j].start })

	buf := code
	var fixes []engine.AppliedFix
	lastStart := len(code) + 1
	for _, ed := range ordered {
		if ed.end > lastStart || ed.start > ed.end {
			continue // overlapping a later edit; first writer wins
		}
		line := lineNumber(code, ed.start)
		col := ed.start - (strings.LastIndexByte(code[:ed.start], '\n') + 1) + 1
		buf = buf[:ed.start] + ed.replacement + buf[ed.end:]
		lastStart = ed.start
		fixes = append(fixes, engine.AppliedFix{
			IssueID:     fmt.Sprintf("%s-%d-%d", ed.ruleID, line, col),
			RuleID:      ed.ruleID,
			Layer:       layerOfRule(ed.ruleID),
			Description: ed.description,
			Line:        line,
		})
	}
	// report in ascending source order
	for i, j := 0, len(fixes)-1; i < j; i, j = i+1, j-1 {
		fixes[i], fixes[j] = fixes[j], fixes[i]
	}
	return buf, fixes, nil
}

func layerOfRule(ruleID string) int {
	switch ruleID {
	case "no-console", "no-debugger", "no-var", "eqeqeq":
		return engine.LayerPatterns
	case "window-requires-guard", "document-requires-guard", "storage-requires-guard":
		return engine.LayerHydration
	default:
		return engine.LayerDirectives
	}
}

// statementSpan finds the full extent of a standalone call statement
// starting at offset: leading indentation through the balanced close, any
// trailing semicolon, and the line break when nothing else shares the line.
func statementSpan(code string, lx *lexResult, offset int) (int, int, bool) {
	lineStart := strings.LastIndexByte(code[:offset], '\n') + 1
	if strings.TrimSpace(code[lineStart:offset]) != "" {
		return 0, 0, false // shares its line with other code
	}
	open := strings.IndexByte(code[offset:], '(')
	if open < 0 {
		return 0, 0, false
	}
	depth := 0
	end := -1
	for i := offset + open; i < len(code); i++ {
		if !lx.clean[i] {
			continue
		}
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return 0, 0, false
	}
	for end < len(code) && (code[end] == ' ' || code[end] == '\t') {
		end++
	}
	if end < len(code) && code[end] == ';' {
		end++
	}
	// swallow the line break when the statement ends its line
	rest := code[end:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && strings.TrimSpace(rest[:nl]) == "" {
		end += nl + 1
	} else if strings.TrimSpace(rest) == "" {
		end = len(code)
	}
	return lineStart, end, true
}

// lineSpanIfAlone widens [start,end) to the whole line including the break
// when the span is the only content of its line.
func lineSpanIfAlone(code string, start, end int) (int, int) {
	lineStart := strings.LastIndexByte(code[:start], '\n') + 1
	lineEnd := strings.IndexByte(code[end:], '\n')
	if lineEnd < 0 {
		lineEnd = len(code)
	} else {
		lineEnd += end
	}
	if strings.TrimSpace(code[lineStart:start]) == "" && strings.TrimSpace(code[end:lineEnd]) == "" {
		if lineEnd < len(code) {
			return lineStart, lineEnd + 1
		}
		return lineStart, lineEnd
	}
	return start, end
}

// wrappableStatement qualifies the line holding offset for guard wrapping:
// a simple semicolon-terminated statement that does not open a declaration
// or control construct.
func wrappableStatement(code string, offset int) (int, int, string, string, bool) {
	lineStart := strings.LastIndexByte(code[:offset], '\n') + 1
	lineEnd := strings.IndexByte(code[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(code)
	} else {
		lineEnd += offset
	}
	line := code[lineStart:lineEnd]
	trimmed := strings.TrimSpace(line)
	if !strings.HasSuffix(trimmed, ";") {
		return 0, 0, "", "", false
	}
	for _, p := range []string{"if", "const", "let", "var", "return", "}", "export", "import", "for", "while"} {
		if strings.HasPrefix(trimmed, p) {
			return 0, 0, "", "", false
		}
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return lineStart, lineEnd, indent, trimmed, true
}

// guardedNearby reports whether a typeof guard already covers the access.
func guardedNearby(code string, offset int) bool {
	from := offset - 240
	if from < 0 {
		from = 0
	}
	window := code[from:offset]
	return strings.Contains(window, "typeof window") ||
		strings.Contains(window, "typeof document") ||
		strings.Contains(window, "typeof localStorage") ||
		strings.Contains(window, "typeof sessionStorage") ||
		strings.Contains(window, "useEffect") ||
		strings.Contains(window, "useLayoutEffect")
}

// insertionPoint is where a directive belongs: after the leading comment
// block and blank lines, at a line start.
func insertionPoint(code string, lx *lexResult) int {
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		if !lx.clean[i] {
			continue // comment interior
		}
		if c == '/' { // comment opener kept above the directive
			continue
		}
		return strings.LastIndexByte(code[:i], '\n') + 1
	}
	return 0
}

// misplacedDirective locates a 'use client' directive that real code
// precedes, returning the span of its full line.
func misplacedDirective(code string, lx *lexResult) (bool, int, int) {
	for _, q := range []string{"'use client'", `"use client"`} {
		at := strings.Index(code, q)
		if at < 0 {
			continue
		}
		start := strings.LastIndexByte(code[:at], '\n') + 1
		if insertionPoint(code, lx) >= start {
			continue // already first
		}
		end := strings.IndexByte(code[at:], '\n')
		if end < 0 {
			end = len(code)
		} else {
			end += at + 1
		}
		return true, start, end
	}
	return false, 0, 0
}

func lineOf(code string, offset int) string {
	start := strings.LastIndexByte(code[:offset], '\n') + 1
	end := strings.IndexByte(code[offset:], '\n')
	if end < 0 {
		return code[start:]
	}
	return code[start : end+offset]
}

func lineNumber(code string, offset int) int {
	return 1 + strings.Count(code[:offset], "\n")
}
