package engine

import (
	"regexp"
	"strings"
)

// contextWindow bounds how far checkers look around a match for lexical
// context. Detections relying on it are heuristic and may miss deeply
// nested constructs; that is expected behavior, not a defect.
const contextWindow = 240

// scan returns every non-overlapping match of pattern in code in offset
// order. When the pattern declares a capture group, the first group is the
// reported span so rules can anchor on surrounding text without widening
// the match. Matching state is created fresh per call, so concurrent scans
// never interleave.
func scan(pattern *regexp.Regexp, code string) []Match {
	idxs := pattern.FindAllStringSubmatchIndex(code, -1)
	if idxs == nil {
		return nil
	}
	matches := make([]Match, 0, len(idxs))
	for _, idx := range idxs {
		start, end := idx[0], idx[1]
		if len(idx) > 3 && idx[2] >= 0 {
			start, end = idx[2], idx[3]
		}
		matches = append(matches, Match{Start: start, End: end, Text: code[start:end]})
	}
	return matches
}

// lineCol converts a byte offset to 1-based line and column numbers.
func lineCol(code string, offset int) (int, int) {
	if offset > len(code) {
		offset = len(code)
	}
	prefix := code[:offset]
	line := 1 + strings.Count(prefix, "\n")
	lastNL := strings.LastIndex(prefix, "\n")
	return line, offset - lastNL
}

// lineAt returns the full text of the line containing offset, without the
// trailing newline.
func lineAt(code string, offset int) string {
	start, end := lineBounds(code, offset)
	return code[start:end]
}

// lineBounds returns the [start,end) byte range of the line containing
// offset, excluding the line terminator.
func lineBounds(code string, offset int) (int, int) {
	if offset > len(code) {
		offset = len(code)
	}
	start := strings.LastIndex(code[:offset], "\n") + 1
	end := strings.Index(code[offset:], "\n")
	if end < 0 {
		end = len(code)
	} else {
		end += offset
	}
	return start, end
}

// inLineComment reports whether offset sits behind a // marker on its own
// line.
func inLineComment(code string, offset int) bool {
	start, _ := lineBounds(code, offset)
	return strings.Contains(code[start:offset], "//")
}

// inBlockComment reports whether offset sits inside a /* */ comment. The
// check is bounded: it scans back at most contextWindow bytes for an
// unclosed opener.
func inBlockComment(code string, offset int) bool {
	from := offset - contextWindow
	if from < 0 {
		from = 0
	}
	window := code[from:offset]
	open := strings.LastIndex(window, "/*")
	if open < 0 {
		return false
	}
	return !strings.Contains(window[open:], "*/")
}

// inComment reports whether offset is inside a line or block comment.
func inComment(code string, offset int) bool {
	return inLineComment(code, offset) || inBlockComment(code, offset)
}

// inString reports whether offset sits inside a single- or double-quoted
// string on its line. Template literals are not tracked; detections inside
// them are accepted as matches.
func inString(code string, offset int) bool {
	start, _ := lineBounds(code, offset)
	var quote byte
	for i := start; i < offset; i++ {
		c := code[i]
		if c == '\\' {
			i++
			continue
		}
		switch {
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
		case quote != 0 && c == quote:
			quote = 0
		}
	}
	return quote != 0
}

// notCommentedOrQuoted is the default checker for textual rules.
func notCommentedOrQuoted(code string, m Match) bool {
	return !inComment(code, m.Start) && !inString(code, m.Start)
}

// guardedBy reports whether the bounded window preceding the match already
// contains one of the given guard markers, e.g. a typeof check wrapping a
// browser-global access.
func guardedBy(code string, m Match, markers ...string) bool {
	from := m.Start - contextWindow
	if from < 0 {
		from = 0
	}
	window := code[from:m.Start]
	for _, marker := range markers {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}

// HasClientDirective reports whether the buffer opens with a "use client"
// boundary marker within the leading window.
func HasClientDirective(code string) bool {
	head := code
	if len(head) > 2*contextWindow {
		head = head[:2*contextWindow]
	}
	return strings.Contains(head, "'use client'") || strings.Contains(head, `"use client"`)
}

// hookCallPattern matches anything shaped like a hook invocation by naming
// convention, wider than the built-in hook list.
var hookCallPattern = regexp.MustCompile(`\buse[A-Z]\w*\s*\(`)

// UsesHooks reports whether the buffer calls anything shaped like a hook.
func UsesHooks(code string) bool {
	return hookCallPattern.MatchString(code)
}

// consumeCall returns the end offset of a call expression starting at the
// opening identifier at start: the offset just past the balanced closing
// parenthesis, plus a trailing semicolon when one follows immediately.
// Returns -1 when the call never closes.
func consumeCall(code string, start int) int {
	open := strings.IndexByte(code[start:], '(')
	if open < 0 {
		return -1
	}
	depth := 0
	var quote byte
	for i := start + open; i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end := i + 1
				for end < len(code) && (code[end] == ' ' || code[end] == '\t') {
					end++
				}
				if end < len(code) && code[end] == ';' {
					return end + 1
				}
				return i + 1
			}
		}
	}
	return -1
}

// removeSpan deletes [start,end) from code. When the deletion leaves the
// surrounding line blank, the whole line goes with it.
func removeSpan(code string, start, end int) string {
	out := code[:start] + code[end:]
	lineStart, lineEnd := lineBounds(out, start)
	if strings.TrimSpace(out[lineStart:lineEnd]) == "" {
		cut := lineEnd
		if cut < len(out) && out[cut] == '\n' {
			cut++
		}
		return out[:lineStart] + out[cut:]
	}
	return out
}
