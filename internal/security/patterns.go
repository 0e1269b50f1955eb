package security

import "regexp"

// catalogue returns the built-in signature set. Severities are fixed per
// pattern; the scanner never computes them. Patterns are heuristic
// signatures, not proofs of exploitation.
func catalogue() []Pattern {
	return []Pattern{
		{
			ID:          "eval-injection",
			Type:        TypeVulnerability,
			Severity:    SeverityCritical,
			Category:    "Code Injection",
			Pattern:     regexp.MustCompile(`\beval\s*\(`),
			Message:     "eval() executes arbitrary strings as code",
			Remediation: "Replace eval with JSON.parse or an explicit dispatch table",
			VulnID:      "CWE-95",
		},
		{
			ID:          "function-constructor",
			Type:        TypeVulnerability,
			Severity:    SeverityHigh,
			Category:    "Code Injection",
			Pattern:     regexp.MustCompile(`\bnew\s+Function\s*\(`),
			Message:     "Function constructor compiles strings to code",
			Remediation: "Define the function statically instead of from strings",
			VulnID:      "CWE-95",
		},
		{
			ID:          "child-process-require",
			Type:        TypeVulnerability,
			Severity:    SeverityHigh,
			Category:    "Command Execution",
			Pattern:     regexp.MustCompile(`require\s*\(\s*['"]child_process['"]\s*\)`),
			Message:     "child_process gives shell access to the host",
			Remediation: "Audit every spawned command; avoid shell execution in web-facing code",
			VulnID:      "CWE-78",
		},
		{
			ID:          "inner-html-assignment",
			Type:        TypeVulnerability,
			Severity:    SeverityMedium,
			Category:    "Cross-Site Scripting",
			Pattern:     regexp.MustCompile(`\.innerHTML\s*=[^=]`),
			Message:     "Direct innerHTML assignment bypasses escaping",
			Remediation: "Use textContent, or sanitize markup before insertion",
			VulnID:      "CWE-79",
		},
		{
			ID:          "document-write",
			Type:        TypeVulnerability,
			Severity:    SeverityMedium,
			Category:    "Cross-Site Scripting",
			Pattern:     regexp.MustCompile(`document\.write(?:ln)?\s*\(`),
			Message:     "document.write injects unescaped markup",
			Remediation: "Build DOM nodes explicitly or use a templating layer",
			VulnID:      "CWE-79",
		},
		{
			ID:          "hardcoded-credential",
			Type:        TypeIOC,
			Severity:    SeverityHigh,
			Category:    "Hardcoded Credential",
			Pattern:     regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret|password|passwd|auth[_-]?token)\b\s*[:=]\s*['"][^'"]{8,}['"]`),
			Message:     "Credential literal embedded in source",
			Remediation: "Move the secret to environment configuration and rotate it",
			VulnID:      "CWE-798",
		},
		{
			ID:          "obfuscated-payload",
			Type:        TypeIOC,
			Severity:    SeverityMedium,
			Category:    "Obfuscated Payload",
			Pattern:     regexp.MustCompile(`['"][A-Za-z0-9+/]{120,}={0,2}['"]`),
			Message:     "Long base64 blob in source",
			Remediation: "Verify the payload's origin; decode and inspect it",
		},
		{
			ID:          "webshell-request-exec",
			Type:        TypeBackdoor,
			Severity:    SeverityCritical,
			Category:    "Webshell",
			Pattern:     regexp.MustCompile(`(?:cmd|command)\s*=\s*req(?:uest)?\.(?:query|body|params)`),
			Message:     "Request parameter routed into a command variable",
			Remediation: "Remove the handler; treat the host as compromised until audited",
			VulnID:      "CWE-94",
		},
		{
			ID:          "reverse-shell",
			Type:        TypeBackdoor,
			Severity:    SeverityCritical,
			Category:    "Reverse Shell",
			Pattern:     regexp.MustCompile(`require\s*\(\s*['"]net['"]\s*\)[\s\S]{0,200}?(?:/bin/(?:ba)?sh|cmd\.exe)`),
			Message:     "Socket connection wired to a shell binary",
			Remediation: "Remove the code and rotate every credential reachable from this host",
			VulnID:      "CWE-94",
		},
		{
			ID:          "cookie-exfiltration",
			Type:        TypeExfiltration,
			Severity:    SeverityHigh,
			Category:    "Data Exfiltration",
			Pattern:     regexp.MustCompile(`document\.cookie[\s\S]{0,160}?(?:fetch\s*\(|XMLHttpRequest|sendBeacon|\.src\s*=)`),
			Message:     "Cookie contents flow into an outbound request",
			Remediation: "Remove the flow; scope cookies HttpOnly so scripts cannot read them",
			VulnID:      "CWE-200",
		},
		{
			ID:          "env-exfiltration",
			Type:        TypeExfiltration,
			Severity:    SeverityMedium,
			Category:    "Data Exfiltration",
			Pattern:     regexp.MustCompile(`JSON\.stringify\s*\(\s*process\.env\s*\)`),
			Message:     "Whole environment serialized",
			Remediation: "Pass individual variables instead of the full environment",
			VulnID:      "CWE-200",
		},
		{
			ID:          "miner-signature",
			Type:        TypeCryptoMiner,
			Severity:    SeverityCritical,
			Category:    "Cryptocurrency Miner",
			Pattern:     regexp.MustCompile(`(?i)(?:coinhive|cryptonight|coin-?imp|stratum\+tcp|minerd)`),
			Message:     "Known miner signature",
			Remediation: "Remove the miner and audit how it was introduced",
		},
		{
			ID:          "install-script-fetch",
			Type:        TypeSupplyChain,
			Severity:    SeverityHigh,
			Category:    "Supply Chain",
			Pattern:     regexp.MustCompile(`"(?:pre|post)?install"\s*:\s*"[^"]*(?:curl|wget|node\s+-e|bash\s)`),
			Message:     "Install hook downloads or evaluates code",
			Remediation: "Pin and audit the package; prefer install hooks that only build",
			VulnID:      "CWE-829",
		},
		{
			ID:          "dynamic-require",
			Type:        TypeSupplyChain,
			Severity:    SeverityMedium,
			Category:    "Supply Chain",
			Pattern:     regexp.MustCompile(`require\s*\(\s*[A-Za-z_$][\w$]*\s*[)+\[]`),
			Message:     "Module path resolved at runtime",
			Remediation: "Require static literals so audits can see what loads",
			VulnID:      "CWE-829",
		},
		{
			ID:          "open-redirect",
			Type:        TypeVulnerability,
			Severity:    SeverityMedium,
			Category:    "Open Redirect",
			Pattern:     regexp.MustCompile(`location\.(?:href|replace)\s*[=(]\s*(?:req\.|request\.|params|query|searchParams)`),
			Message:     "Navigation target taken from request input",
			Remediation: "Validate the destination against an allow-list",
			VulnID:      "CWE-601",
		},
		{
			ID:          "prototype-pollution",
			Type:        TypeVulnerability,
			Severity:    SeverityMedium,
			Category:    "Prototype Pollution",
			Pattern:     regexp.MustCompile(`(?:\[\s*['"]__proto__['"]\s*\]|\.__proto__\s*[.=\[])`),
			Message:     "__proto__ accessor reachable in code",
			Remediation: "Use Object.create(null) maps or block the key explicitly",
			VulnID:      "CWE-1321",
		},
		{
			ID:          "sql-interpolation",
			Type:        TypeVulnerability,
			Severity:    SeverityHigh,
			Category:    "SQL Injection",
			Pattern:     regexp.MustCompile("`[^`]*\\b(?i:select|insert into|update|delete from)\\b[^`]*\\$\\{"),
			Message:     "SQL assembled with template interpolation",
			Remediation: "Use parameterized queries",
			VulnID:      "CWE-89",
		},
	}
}
