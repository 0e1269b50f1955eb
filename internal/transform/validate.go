package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	exportDeclPattern    = regexp.MustCompile(`\bexport\s+(?:async\s+)?(?:default\s+)?(?:function|class|const|let|var)\s+([A-Za-z_$][\w$]*)`)
	exportDefaultPattern = regexp.MustCompile(`\bexport\s+default\b`)
	exportListPattern    = regexp.MustCompile(`\bexport\s*\{([^}]*)\}`)
	moduleExportsPattern = regexp.MustCompile(`\bmodule\.exports\b`)
	exportsFieldPattern  = regexp.MustCompile(`\bexports\.([A-Za-z_$][\w$]*)`)
)

// exportedBindings extracts the set of bindings a buffer exports. Matches
// inside strings and comments are ignored via the lex mask.
func exportedBindings(lx *lexResult) map[string]bool {
	code := lx.code
	out := make(map[string]bool)

	for _, idx := range exportDeclPattern.FindAllStringSubmatchIndex(code, -1) {
		if lx.cleanAt(idx[0], idx[0]+6) {
			out[code[idx[2]:idx[3]]] = true
		}
	}
	for _, idx := range exportDefaultPattern.FindAllStringIndex(code, -1) {
		if lx.cleanAt(idx[0], idx[0]+6) {
			out["default"] = true
		}
	}
	for _, idx := range exportListPattern.FindAllStringSubmatchIndex(code, -1) {
		if !lx.cleanAt(idx[0], idx[0]+6) {
			continue
		}
		for _, name := range strings.Split(code[idx[2]:idx[3]], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			// "a as b" exports b
			if parts := strings.Fields(name); len(parts) == 3 && parts[1] == "as" {
				name = parts[2]
			}
			out[name] = true
		}
	}
	for _, idx := range moduleExportsPattern.FindAllStringIndex(code, -1) {
		if lx.cleanAt(idx[0], idx[0]+6) {
			out["module.exports"] = true
		}
	}
	for _, idx := range exportsFieldPattern.FindAllStringSubmatchIndex(code, -1) {
		if lx.cleanAt(idx[0], idx[0]+7) {
			out[code[idx[2]:idx[3]]] = true
		}
	}
	return out
}

// validate is the gate every rewrite must pass before it becomes the new
// known-good buffer. It re-lexes the rewritten buffer and rejects it when
// it balances worse than its input, when the exported-binding set changed,
// or when the statement count moved outside the size class the claimed
// number of edits allows.
func validate(original, rewritten string, edits int) error {
	lo := lex(original)
	lr := lex(rewritten)

	if lr.stats.balanceScore() > lo.stats.balanceScore() {
		return fmt.Errorf("rewrite balances worse than input (score %d > %d)",
			lr.stats.balanceScore(), lo.stats.balanceScore())
	}

	before := exportedBindings(lo)
	after := exportedBindings(lr)
	if !sameBindings(before, after) {
		return fmt.Errorf("exported bindings changed: %v -> %v", bindingNames(before), bindingNames(after))
	}

	tolerance := edits + maxInt(2, lo.stats.Statements/10)
	delta := abs(lo.stats.Statements - lr.stats.Statements)
	if delta > tolerance {
		return fmt.Errorf("statement count shifted by %d, tolerance %d", delta, tolerance)
	}
	return nil
}

func sameBindings(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func bindingNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
