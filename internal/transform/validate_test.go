package transform

import (
	"strings"
	"testing"
)

func TestValidateAcceptsEquivalentRewrite(t *testing.T) {
	original := "export const answer = 42;\nconsole.log('boot');\nexport default answer;\n"
	rewritten := "export const answer = 42;\nexport default answer;\n"

	if err := validate(original, rewritten, 1); err != nil {
		t.Fatalf("clean removal rejected: %v", err)
	}
}

func TestValidateRejectsWorseBalance(t *testing.T) {
	original := "function f() { return 1; }\n"
	rewritten := "function f() { return 1;\n"

	err := validate(original, rewritten, 1)
	if err == nil {
		t.Fatalf("missing close brace accepted")
	}
	if !strings.Contains(err.Error(), "balances worse") {
		t.Fatalf("wrong rejection reason: %v", err)
	}
}

func TestValidateRejectsExportChanges(t *testing.T) {
	original := "export const a = 1;\nexport function b() {}\n"
	rewritten := "export const a = 1;\nfunction b() {}\n"

	err := validate(original, rewritten, 1)
	if err == nil {
		t.Fatalf("dropped export accepted")
	}
	if !strings.Contains(err.Error(), "exported bindings changed") {
		t.Fatalf("wrong rejection reason: %v", err)
	}
}

func TestValidateRejectsMassStatementLoss(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("doWork();\n")
	}
	original := b.String()
	rewritten := "doWork();\n"

	err := validate(original, rewritten, 1)
	if err == nil {
		t.Fatalf("losing most of the buffer accepted")
	}
	if !strings.Contains(err.Error(), "statement count shifted") {
		t.Fatalf("wrong rejection reason: %v", err)
	}
}

func TestValidateToleranceScalesWithEdits(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("console.log(1);\n")
	}
	original := b.String()

	// removing all ten statements is fine when ten edits claim them
	if err := validate(original, "", 10); err != nil {
		t.Fatalf("claimed edits rejected: %v", err)
	}
	if err := validate(original, "", 0); err == nil {
		t.Fatalf("unclaimed mass removal accepted")
	}
}

func TestExportedBindings(t *testing.T) {
	code := "export const a = 1;\n" +
		"export default function main() {}\n" +
		"export { b, c as d };\n" +
		"exports.helper = helper;\n" +
		"// export const ghost = 1;\n" +
		"const s = 'export const fake = 2;';\n"

	got := exportedBindings(lex(code))
	for _, want := range []string{"a", "default", "b", "d", "helper"} {
		if !got[want] {
			t.Fatalf("binding %q not extracted: %v", want, bindingNames(got))
		}
	}
	if got["ghost"] || got["fake"] {
		t.Fatalf("bindings from comments or strings leaked: %v", bindingNames(got))
	}
	if got["c"] {
		t.Fatalf("aliased source name must not count as exported")
	}
}
