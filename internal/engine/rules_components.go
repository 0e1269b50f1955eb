package engine

import (
	"regexp"
	"strings"
)

// componentRules are the layer 3 detectors for JSX and component hygiene,
// accessibility gaps included.
func componentRules() []Rule {
	return []Rule{
		{
			ID:          "img-requires-alt",
			Layer:       LayerComponents,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`<img\b[^>]*>`),
			Message:     "Image without alt attribute",
			Description: "Screen readers announce images through their alt text; without it the element is invisible to assistive tech.",
			Suggestion:  `Add an alt attribute, empty ("") for purely decorative images`,
			Tags:        []string{"accessibility"},
			Check: func(code string, m Match) bool {
				if inComment(code, m.Start) {
					return false
				}
				return !strings.Contains(m.Text, "alt=") && !strings.Contains(m.Text, "alt ")
			},
			Fix: func(code string, m Match) (string, bool) {
				closer := strings.LastIndex(m.Text, "/>")
				insert := ` alt=""`
				if closer < 0 {
					closer = strings.LastIndex(m.Text, ">")
				}
				if closer < 0 {
					return code, false
				}
				tag := m.Text[:closer] + insert + m.Text[closer:]
				return code[:m.Start] + tag + code[m.End:], true
			},
		},
		{
			ID:          "anchor-requires-href",
			Layer:       LayerComponents,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`<a\b[^>]*>`),
			Message:     "Anchor without href",
			Description: "Anchors without an href are skipped by keyboard navigation; use a button for pure click handlers.",
			Suggestion:  "Add an href, or switch the element to a button",
			Tags:        []string{"accessibility"},
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start) && !strings.Contains(m.Text, "href")
			},
		},
		{
			ID:          "list-key-required",
			Layer:       LayerComponents,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`\.map\s*\(\s*(?:\([^)]*\)|\w+)\s*=>\s*(?:\(\s*)?<\w+`),
			Message:     "List rendering without key",
			Description: "Elements rendered from map need a stable key prop for reconciliation.",
			Suggestion:  "Add key={...} to the returned element",
			Check: func(code string, m Match) bool {
				if inComment(code, m.Start) {
					return false
				}
				// the key prop usually sits within the opening tag right after
				// the arrow body
				from := m.End
				to := from + contextWindow
				if to > len(code) {
					to = len(code)
				}
				return !strings.Contains(code[from:to], "key=")
			},
		},
		{
			ID:          "button-requires-type",
			Layer:       LayerComponents,
			Severity:    SeverityInfo,
			Pattern:     regexp.MustCompile(`<button\b[^>]*>`),
			Message:     "Button without explicit type",
			Description: "Buttons default to type=submit and trigger surprise form submissions.",
			Suggestion:  `Add type="button" unless submission is intended`,
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start) && !strings.Contains(m.Text, "type=")
			},
			Fix: func(code string, m Match) (string, bool) {
				insert := ` type="button"`
				tag := m.Text[:len("<button")] + insert + m.Text[len("<button"):]
				return code[:m.Start] + tag + code[m.End:], true
			},
		},
		{
			ID:          "no-dangerous-html",
			Layer:       LayerComponents,
			Severity:    SeverityWarning,
			Pattern:     regexp.MustCompile(`dangerouslySetInnerHTML\s*=`),
			Message:     "dangerouslySetInnerHTML usage",
			Description: "Injected markup bypasses escaping; any user-influenced content here is an XSS vector.",
			Suggestion:  "Sanitize the HTML or render the content as elements",
			Check: func(code string, m Match) bool {
				return !inComment(code, m.Start)
			},
		},
	}
}
