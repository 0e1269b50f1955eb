package security

import (
	"fmt"
	"strings"
)

// RiskLevelClean is reported when a scan finds nothing.
const RiskLevelClean = "clean"

// Scanner matches source buffers against the security signature catalogue.
// Like the rule engine it is stateless across calls and safe for concurrent
// use on separate buffers.
type Scanner struct {
	patterns []Pattern
}

// NewScanner builds a scanner over the built-in catalogue.
func NewScanner() *Scanner {
	return &Scanner{patterns: catalogue()}
}

// Patterns returns a copy of the signature catalogue.
func (s *Scanner) Patterns() []Pattern {
	out := make([]Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Scan runs every signature against code. Detection only: the scanner never
// rewrites the buffer, and every hit carries the fixed severity of its
// pattern.
func (s *Scanner) Scan(code, filename string) ScanResult {
	result := ScanResult{
		Filename:         filename,
		Issues:           []Issue{},
		IssuesByType:     make(map[Type]int),
		IssuesBySeverity: make(map[Severity]int),
		RiskLevel:        RiskLevelClean,
	}

	highest := Severity("")
	for _, p := range s.patterns {
		for _, loc := range p.Pattern.FindAllStringIndex(code, -1) {
			line, col := position(code, loc[0])
			issue := Issue{
				ID:          fmt.Sprintf("%s-%d-%d", p.ID, line, col),
				PatternID:   p.ID,
				Type:        p.Type,
				Severity:    p.Severity,
				Category:    p.Category,
				Message:     p.Message,
				Line:        line,
				Column:      col,
				Snippet:     snippet(code, loc[0], loc[1]),
				Remediation: p.Remediation,
				VulnID:      p.VulnID,
			}
			result.Issues = append(result.Issues, issue)
			result.IssuesByType[p.Type]++
			result.IssuesBySeverity[p.Severity]++
			if p.Type == TypeIOC || p.Type == TypeBackdoor {
				result.CompromiseIndicators++
			}
			if p.Severity.rank() > highest.rank() {
				highest = p.Severity
			}
		}
	}

	if highest != "" {
		result.RiskLevel = string(highest)
	}
	return result
}

func position(code string, offset int) (int, int) {
	prefix := code[:offset]
	line := 1 + strings.Count(prefix, "\n")
	lastNL := strings.LastIndex(prefix, "\n")
	return line, offset - lastNL
}

// snippet extracts the matched text clipped to its line and a sane length.
func snippet(code string, start, end int) string {
	if end-start > 120 {
		end = start + 120
	}
	text := code[start:end]
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	return text
}
