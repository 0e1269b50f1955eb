package transform

import (
	"strings"
	"testing"
)

func TestLexMasksLiteralInteriors(t *testing.T) {
	code := `const s = "console.log"; // console.log` + "\nconsole.log(s);\n"
	lx := lex(code)

	quoted := strings.Index(code, `"console`) + 1
	if lx.cleanAt(quoted, quoted+7) {
		t.Fatalf("string interior must not be clean")
	}
	commented := strings.LastIndex(code[:strings.Index(code, "\n")], "console")
	if lx.cleanAt(commented, commented+7) {
		t.Fatalf("comment interior must not be clean")
	}
	real := strings.Index(code, "\n") + 1
	if !lx.cleanAt(real, real+7) {
		t.Fatalf("code text must be clean")
	}
}

func TestLexTemplateSubstitutionIsCode(t *testing.T) {
	code := "const s = `count: ${getCount()}`;\n"
	lx := lex(code)

	inner := strings.Index(code, "getCount")
	if !lx.cleanAt(inner, inner+8) {
		t.Fatalf("template substitution interior is code")
	}
	text := strings.Index(code, "count:")
	if lx.cleanAt(text, text+5) {
		t.Fatalf("template text must not be clean")
	}
	if lx.stats.Unterminated {
		t.Fatalf("balanced template flagged as unterminated")
	}
	if lx.stats.balanceScore() != 0 {
		t.Fatalf("balanced buffer has score %d", lx.stats.balanceScore())
	}
}

func TestLexCountsStatements(t *testing.T) {
	code := "const a = 1;\nfn(1, 2);\nfor (let i = 0; i < 3; i++) { a += i; }\n"
	lx := lex(code)

	// the two for-header semicolons sit inside parens and do not count
	if lx.stats.Statements != 3 {
		t.Fatalf("expected 3 statements, got %d", lx.stats.Statements)
	}
}

func TestLexRegexLiteral(t *testing.T) {
	code := "const re = /a\\/(b)[(]/; const x = (1);\n"
	lx := lex(code)

	if lx.stats.ParenBalance != 0 {
		t.Fatalf("parens inside a regex literal leaked into the balance: %d", lx.stats.ParenBalance)
	}
	inner := strings.Index(code, "(b)")
	if lx.cleanAt(inner, inner+3) {
		t.Fatalf("regex interior must not be clean")
	}

	division := lex("const y = a / b; const z = c / d;\n")
	if division.stats.Unterminated || division.stats.Statements != 2 {
		t.Fatalf("division misread as a regex: %+v", division.stats)
	}
}

func TestLexFlagsUnterminatedLiterals(t *testing.T) {
	for _, code := range []string{
		"const s = `oops\n",
		"/* never closed\nconst a = 1;\n",
		"const s = 'broken\nconst a = 1;\n",
	} {
		if lx := lex(code); !lx.stats.Unterminated {
			t.Fatalf("unterminated input not flagged: %q", code)
		}
	}
}

func TestLexBalances(t *testing.T) {
	lx := lex("function f() { return [1, 2]; }\n")
	if lx.stats.balanceScore() != 0 {
		t.Fatalf("balanced input scored %d", lx.stats.balanceScore())
	}

	broken := lex("function f() { return [1, 2];\n")
	if broken.stats.BraceBalance != 1 {
		t.Fatalf("missing close brace not counted: %+v", broken.stats)
	}
	if broken.stats.balanceScore() == 0 {
		t.Fatalf("unbalanced input must score worse than zero")
	}
}
