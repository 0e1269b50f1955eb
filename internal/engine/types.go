package engine

import (
	"fmt"
	"regexp"
	"sort"
)

// Layer identifiers are stable integers. New layers are appended, never
// renumbered.
const (
	MinLayer = 1
	MaxLayer = 8

	LayerConfiguration = 1
	LayerPatterns      = 2
	LayerComponents    = 3
	LayerHydration     = 4
	LayerDirectives    = 5
	LayerTesting       = 6
	LayerAdaptive      = 7
	LayerSecurity      = 8
)

var layerNames = map[int]string{
	LayerConfiguration: "configuration",
	LayerPatterns:      "patterns",
	LayerComponents:    "components",
	LayerHydration:     "hydration",
	LayerDirectives:    "directives",
	LayerTesting:       "testing",
	LayerAdaptive:      "adaptive",
	LayerSecurity:      "security",
}

// LayerName returns the human name of a layer id, or "unknown" for ids
// outside the supported range.
func LayerName(layer int) string {
	if name, ok := layerNames[layer]; ok {
		return name
	}
	return "unknown"
}

// AllLayers returns the full supported layer set in ascending order.
func AllLayers() []int {
	layers := make([]int, 0, MaxLayer-MinLayer+1)
	for l := MinLayer; l <= MaxLayer; l++ {
		layers = append(layers, l)
	}
	return layers
}

// Severity classifies an issue. The set is closed; any other value is a
// contract violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Weight returns the quality-score penalty of one issue of this severity.
func (s Severity) Weight() int {
	switch s {
	case SeverityError:
		return 10
	case SeverityWarning:
		return 5
	case SeverityInfo:
		return 1
	}
	return 0
}

// Valid reports whether s is a member of the closed severity set.
func (s Severity) Valid() bool {
	return s == SeverityError || s == SeverityWarning || s == SeverityInfo
}

// Match is a single pattern hit in a source buffer. Offsets are byte
// positions into the scanned buffer; Text is the matched slice.
type Match struct {
	Start int
	End   int
	Text  string
}

// CheckFunc confirms a raw pattern match as a real issue. Returning false
// suppresses the match as a false positive, for example when the matched
// call is already correctly guarded.
type CheckFunc func(code string, m Match) bool

// FixFunc rewrites the buffer to remove the issue at m. It returns the new
// buffer and whether anything changed. Fixers must be no-ops on input they
// cannot rewrite safely.
type FixFunc func(code string, m Match) (string, bool)

// Rule is one detector, bound to a layer and a source pattern, with an
// optional automatic fixer. Rules are immutable once the catalogue is built.
type Rule struct {
	ID          string
	Layer       int
	Severity    Severity
	Pattern     *regexp.Regexp
	Message     string
	Description string
	Suggestion  string
	Tags        []string
	Check       CheckFunc
	Fix         FixFunc
}

// HasTag reports whether the rule carries the given tag.
func (r Rule) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Issue is one reported defect instance. Issues are produced fresh on every
// analysis call and never mutated after creation.
type Issue struct {
	ID          string   `json:"id"`
	RuleID      string   `json:"ruleId"`
	Layer       int      `json:"layer"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category,omitempty"`
	Message     string   `json:"message"`
	Description string   `json:"description,omitempty"`
	Line        int      `json:"line"`
	Column      int      `json:"column"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Context     string   `json:"context,omitempty"`
}

// issueID builds the deterministic identity of an issue so that repeated
// analysis of an unchanged buffer yields byte-identical results.
func issueID(ruleID string, line, column int) string {
	return fmt.Sprintf("%s-%d-%d", ruleID, line, column)
}

// AnalysisResult is the outcome of one analyze call.
type AnalysisResult struct {
	Issues            []Issue          `json:"issues"`
	IssuesByLayer     map[int]int      `json:"issuesByLayer"`
	IssuesBySeverity  map[Severity]int `json:"issuesBySeverity"`
	QualityScore      int              `json:"qualityScore"`
	ReadinessScore    int              `json:"readinessScore"`
	RecommendedLayers []int            `json:"recommendedLayers"`
	AnalyzedLayers    []int            `json:"analyzedLayers"`
}

// AppliedFix records one successful in-place change made by ApplyFixes.
type AppliedFix struct {
	IssueID     string `json:"issueId"`
	RuleID      string `json:"ruleId"`
	Layer       int    `json:"layer"`
	Description string `json:"description"`
	Line        int    `json:"line"`
}

// FixResult is the outcome of one fix pass. When no fixes applied, Code
// equals OriginalCode and Success is false.
type FixResult struct {
	Success      bool         `json:"success"`
	OriginalCode string       `json:"originalCode"`
	Code         string       `json:"code"`
	AppliedFixes []AppliedFix `json:"appliedFixes"`
}

// Options selects what an analyze or fix call covers. A nil or empty Layers
// slice selects the full supported set.
type Options struct {
	Filename string
	Layers   []int
	Verbose  bool
}

// NormalizeLayers dedupes, sorts and clamps a requested layer set to the
// supported range. Empty input selects every layer.
func NormalizeLayers(layers []int) []int {
	if len(layers) == 0 {
		return AllLayers()
	}
	seen := make(map[int]bool, len(layers))
	out := make([]int, 0, len(layers))
	for _, l := range layers {
		if l < MinLayer || l > MaxLayer || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}
