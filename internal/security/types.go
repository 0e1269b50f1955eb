package security

import (
	"regexp"

	"github.com/mendio-dev/mendio/internal/engine"
)

// Type classifies what a security finding indicates. The set is closed.
type Type string

const (
	TypeIOC           Type = "ioc"
	TypeVulnerability Type = "vulnerability"
	TypeBackdoor      Type = "backdoor"
	TypeExfiltration  Type = "exfiltration"
	TypeCryptoMiner   Type = "crypto-miner"
	TypeSupplyChain   Type = "supply-chain"
)

// Severity of a security finding. Fixed per pattern, never computed.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// rank orders severities for risk-level aggregation.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// ToIssueSeverity maps a security severity onto the generic issue scale:
// critical and high become errors, medium a warning, low an info.
func (s Severity) ToIssueSeverity() engine.Severity {
	switch s {
	case SeverityCritical, SeverityHigh:
		return engine.SeverityError
	case SeverityMedium:
		return engine.SeverityWarning
	default:
		return engine.SeverityInfo
	}
}

// Pattern is one signature in the security catalogue.
type Pattern struct {
	ID          string
	Type        Type
	Severity    Severity
	Category    string
	Pattern     *regexp.Regexp
	Message     string
	Remediation string
	VulnID      string
}

// Issue is one security finding. Detection only; remediation is advisory
// text, the scanner never rewrites code.
type Issue struct {
	ID          string   `json:"id"`
	PatternID   string   `json:"patternId"`
	Type        Type     `json:"type"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Message     string   `json:"message"`
	Line        int      `json:"line"`
	Column      int      `json:"column"`
	Snippet     string   `json:"snippet,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	VulnID      string   `json:"vulnId,omitempty"`
}

// ToEngineIssue converts a finding into a generic issue under the security
// layer id for merged analysis results.
func (i Issue) ToEngineIssue() engine.Issue {
	return engine.Issue{
		ID:          i.ID,
		RuleID:      i.PatternID,
		Layer:       engine.LayerSecurity,
		Severity:    i.Severity.ToIssueSeverity(),
		Category:    i.Category,
		Message:     i.Message,
		Description: i.Remediation,
		Line:        i.Line,
		Column:      i.Column,
		Suggestion:  i.Remediation,
		Tags:        []string{"security", string(i.Type)},
	}
}

// ScanResult aggregates one scan call.
type ScanResult struct {
	Filename             string           `json:"filename,omitempty"`
	Issues               []Issue          `json:"issues"`
	IssuesByType         map[Type]int     `json:"issuesByType"`
	IssuesBySeverity     map[Severity]int `json:"issuesBySeverity"`
	RiskLevel            string           `json:"riskLevel"`
	CompromiseIndicators int              `json:"compromiseIndicators"`
}
