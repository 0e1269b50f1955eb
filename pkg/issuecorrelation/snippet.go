package issuecorrelation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SnippetHash returns the SHA256 hex digest of the trimmed source line, or
// an empty string when the line is out of range. Trimming keeps the hash
// stable across re-indents.
func SnippetHash(code string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(code, "\n")
	if line > len(lines) {
		return ""
	}
	snippet := strings.TrimSpace(lines[line-1])
	if snippet == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(snippet))
	return hex.EncodeToString(sum[:])
}
