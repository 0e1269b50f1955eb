package transform

import "strings"

// lexState is what the lexer is inside of at a given byte.
type lexState int

const (
	stateCode lexState = iota
	stateLineComment
	stateBlockComment
	stateSingle
	stateDouble
	stateTemplate
	stateRegex
)

// Stats summarizes a lex pass. Balances are the final nesting depths;
// Statements counts clean semicolons outside parentheses, which is the
// statement count class the validation gate compares.
type Stats struct {
	ParenBalance   int
	BraceBalance   int
	BracketBalance int
	Unterminated   bool
	Statements     int
}

// balanceScore folds the stats into a single badness number so rewrites can
// be required to be no worse than their input.
func (s Stats) balanceScore() int {
	score := abs(s.ParenBalance) + abs(s.BraceBalance) + abs(s.BracketBalance)
	if s.Unterminated {
		score++
	}
	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// lexResult is the structural model of a buffer: a per-byte cleanliness
// mask plus aggregate stats. A byte is clean when it is executable code
// text rather than comment, string, template or regex literal interior.
// Template substitution code inside ${} counts as clean.
type lexResult struct {
	code  string
	clean []bool
	stats Stats
}

// cleanAt reports whether the byte range [start,end) is entirely code text.
func (l *lexResult) cleanAt(start, end int) bool {
	if start < 0 || end > len(l.clean) || start >= end {
		return false
	}
	return l.clean[start] && l.clean[end-1]
}

// regexPreceders are the last significant characters after which a slash
// starts a regex literal rather than division.
const regexPreceders = "(,=:[!&|?{};\n"

// lex tokenizes JavaScript/TypeScript/JSX source far enough to know, for
// every byte, whether it is code or literal interior, and to balance
// brackets. It is not a parser; JSX text is treated as code text, which is
// fine for the balance and masking guarantees the safety protocol needs.
func lex(code string) *lexResult {
	res := &lexResult{code: code, clean: make([]bool, len(code))}
	state := stateCode
	// brace stack distinguishes template substitutions from plain blocks
	var braces []byte
	inClass := false // inside a regex character class
	var lastSignificant byte = '\n'

	for i := 0; i < len(code); i++ {
		c := code[i]
		switch state {
		case stateCode:
			res.clean[i] = true
			switch c {
			case '/':
				if i+1 < len(code) && code[i+1] == '/' {
					state = stateLineComment
					res.clean[i] = false
					continue
				}
				if i+1 < len(code) && code[i+1] == '*' {
					state = stateBlockComment
					res.clean[i] = false
					continue
				}
				if strings.IndexByte(regexPreceders, lastSignificant) >= 0 || isKeywordBoundary(code, i) {
					state = stateRegex
					inClass = false
					continue
				}
				lastSignificant = c
			case '\'':
				state = stateSingle
			case '"':
				state = stateDouble
			case '`':
				state = stateTemplate
			case '(':
				res.stats.ParenBalance++
				lastSignificant = c
			case ')':
				res.stats.ParenBalance--
				lastSignificant = c
			case '[':
				res.stats.BracketBalance++
				lastSignificant = c
			case ']':
				res.stats.BracketBalance--
				lastSignificant = c
			case '{':
				braces = append(braces, 'B')
				lastSignificant = c
			case '}':
				if n := len(braces); n > 0 && braces[n-1] == 'T' {
					braces = braces[:n-1]
					state = stateTemplate
				} else if n > 0 {
					braces = braces[:n-1]
				} else {
					res.stats.BraceBalance--
				}
				lastSignificant = c
			case ';':
				if res.stats.ParenBalance == 0 {
					res.stats.Statements++
				}
				lastSignificant = c
			default:
				if c != ' ' && c != '\t' && c != '\r' {
					lastSignificant = c
				}
			}

		case stateLineComment:
			if c == '\n' {
				state = stateCode
				lastSignificant = '\n'
			}

		case stateBlockComment:
			if c == '*' && i+1 < len(code) && code[i+1] == '/' {
				i++
				state = stateCode
			}

		case stateSingle, stateDouble:
			quote := byte('\'')
			if state == stateDouble {
				quote = '"'
			}
			if c == '\\' {
				i++
			} else if c == quote {
				state = stateCode
				lastSignificant = quote
			} else if c == '\n' {
				// unterminated on its line; recover rather than poison the rest
				state = stateCode
				lastSignificant = '\n'
				res.stats.Unterminated = true
			}

		case stateTemplate:
			if c == '\\' {
				i++
			} else if c == '`' {
				state = stateCode
				lastSignificant = '`'
			} else if c == '$' && i+1 < len(code) && code[i+1] == '{' {
				braces = append(braces, 'T')
				res.clean[i] = false
				i++
				state = stateCode
			}

		case stateRegex:
			if c == '\\' {
				i++
			} else if c == '[' {
				inClass = true
			} else if c == ']' {
				inClass = false
			} else if c == '/' && !inClass {
				state = stateCode
				lastSignificant = '/'
			} else if c == '\n' {
				// slash was division after all, or broken input; recover
				state = stateCode
				lastSignificant = '\n'
			}
		}
	}

	for _, b := range braces {
		if b == 'B' {
			res.stats.BraceBalance++
		} else {
			res.stats.Unterminated = true
		}
	}
	if state == stateSingle || state == stateDouble || state == stateTemplate || state == stateBlockComment {
		res.stats.Unterminated = true
	}
	return res
}

// isKeywordBoundary reports whether the slash at offset follows a keyword
// like return or typeof, where a regex literal is legal.
func isKeywordBoundary(code string, offset int) bool {
	head := strings.TrimRight(code[:offset], " \t")
	for _, kw := range []string{"return", "typeof", "case", "in", "of", "do", "else"} {
		if !strings.HasSuffix(head, kw) {
			continue
		}
		if len(head) == len(kw) {
			return true
		}
		prev := head[len(head)-len(kw)-1]
		if !isWordByte(prev) {
			return true
		}
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
