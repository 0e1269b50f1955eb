package engine

import (
	"sort"
)

// Engine scans source buffers against an immutable rule catalogue. It holds
// no mutable state between calls and is safe for concurrent use, one buffer
// per call.
type Engine struct {
	rules []Rule
}

// New builds an engine over the built-in catalogue. Extra rules, typically
// adaptive layer 7 rules loaded from a rulepack provider, are appended after
// the built-ins so issue ordering stays deterministic.
func New(extra ...Rule) *Engine {
	rules := make([]Rule, 0, 32+len(extra))
	rules = append(rules, configurationRules()...)
	rules = append(rules, patternRules()...)
	rules = append(rules, componentRules()...)
	rules = append(rules, hydrationRules()...)
	rules = append(rules, directiveRules()...)
	rules = append(rules, testingRules()...)
	rules = append(rules, extra...)
	return &Engine{rules: rules}
}

// Rules returns a copy of the catalogue.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Analyze runs every catalogue rule whose layer is requested against code
// and aggregates the findings. It never fails: malformed input yields at
// worst zero issues and a neutral score. Calling it twice on the same
// buffer produces identical results.
func (e *Engine) Analyze(code string, opts Options) AnalysisResult {
	layers := NormalizeLayers(opts.Layers)
	inScope := make(map[int]bool, len(layers))
	for _, l := range layers {
		inScope[l] = true
	}

	var issues []Issue
	for _, rule := range e.rules {
		if !inScope[rule.Layer] {
			continue
		}
		for _, m := range scan(rule.Pattern, code) {
			if rule.Check != nil && !rule.Check(code, m) {
				continue
			}
			issues = append(issues, newIssue(rule, code, m, opts.Verbose))
		}
	}

	return BuildResult(code, issues, layers)
}

// ApplyFixes rewrites code to remove every fixable issue in the requested
// layers. Each rule re-scans the buffer as it stands at that point, and
// every match is re-checked against the live buffer before its fixer runs,
// since an earlier fix may have already invalidated it. Matches apply
// back-to-front so pending offsets stay valid.
func (e *Engine) ApplyFixes(code string, opts Options) FixResult {
	layers := NormalizeLayers(opts.Layers)
	inScope := make(map[int]bool, len(layers))
	for _, l := range layers {
		inScope[l] = true
	}

	result := FixResult{OriginalCode: code, Code: code, AppliedFixes: []AppliedFix{}}
	buf := code
	for _, rule := range e.rules {
		if !inScope[rule.Layer] || rule.Fix == nil {
			continue
		}
		matches := scan(rule.Pattern, buf)
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			if m.End > len(buf) || buf[m.Start:m.End] != m.Text {
				continue // an earlier fix moved this region
			}
			if rule.Check != nil && !rule.Check(buf, m) {
				continue
			}
			line, col := lineCol(buf, m.Start)
			fixed, changed := rule.Fix(buf, m)
			if !changed || fixed == buf {
				continue
			}
			buf = fixed
			result.AppliedFixes = append(result.AppliedFixes, AppliedFix{
				IssueID:     issueID(rule.ID, line, col),
				RuleID:      rule.ID,
				Layer:       rule.Layer,
				Description: rule.Message,
				Line:        line,
			})
		}
	}

	sort.SliceStable(result.AppliedFixes, func(i, j int) bool {
		if result.AppliedFixes[i].Layer != result.AppliedFixes[j].Layer {
			return result.AppliedFixes[i].Layer < result.AppliedFixes[j].Layer
		}
		return result.AppliedFixes[i].Line < result.AppliedFixes[j].Line
	})
	result.Code = buf
	result.Success = len(result.AppliedFixes) > 0
	return result
}

// FixableRules returns the rules of one layer that carry a fixer. The
// transform safety protocol uses this set for its pattern-based fallback.
func (e *Engine) FixableRules(layer int) []Rule {
	var out []Rule
	for _, rule := range e.rules {
		if rule.Layer == layer && rule.Fix != nil {
			out = append(out, rule)
		}
	}
	return out
}

func newIssue(rule Rule, code string, m Match, verbose bool) Issue {
	line, col := lineCol(code, m.Start)
	issue := Issue{
		ID:          issueID(rule.ID, line, col),
		RuleID:      rule.ID,
		Layer:       rule.Layer,
		Severity:    rule.Severity,
		Message:     rule.Message,
		Description: rule.Description,
		Line:        line,
		Column:      col,
		Suggestion:  rule.Suggestion,
		Tags:        rule.Tags,
	}
	if verbose {
		issue.Context = lineAt(code, m.Start)
	}
	return issue
}

// BuildResult aggregates issues into a full AnalysisResult. The core façade
// reuses it to rebuild the envelope after merging security findings into
// the issue list.
func BuildResult(code string, issues []Issue, analyzedLayers []int) AnalysisResult {
	if issues == nil {
		issues = []Issue{}
	}
	byLayer := make(map[int]int)
	bySeverity := make(map[Severity]int)
	for _, issue := range issues {
		byLayer[issue.Layer]++
		bySeverity[issue.Severity]++
	}
	return AnalysisResult{
		Issues:            issues,
		IssuesByLayer:     byLayer,
		IssuesBySeverity:  bySeverity,
		QualityScore:      QualityScore(issues),
		ReadinessScore:    ReadinessScore(code, issues),
		RecommendedLayers: RecommendLayers(issues),
		AnalyzedLayers:    analyzedLayers,
	}
}

// QualityScore is the severity-weighted penalty score: 100 minus 10 per
// error, 5 per warning and 1 per info, floored at 0.
func QualityScore(issues []Issue) int {
	score := 100
	for _, issue := range issues {
		score -= issue.Severity.Weight()
	}
	if score < 0 {
		return 0
	}
	return score
}

// ReadinessScore estimates migration readiness: 20 points off when hooks
// appear without a client boundary marker, 10 per hydration issue, 5 per
// accessibility issue, floored at 0.
func ReadinessScore(code string, issues []Issue) int {
	score := 100
	if UsesHooks(code) && !HasClientDirective(code) {
		score -= 20
	}
	for _, issue := range issues {
		if issue.Layer == LayerHydration {
			score -= 10
		}
		if hasTag(issue.Tags, "accessibility") {
			score -= 5
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// RecommendLayers returns the sorted distinct layers that produced issues,
// or the anchor layers {1,2,3} when the buffer came back clean.
func RecommendLayers(issues []Issue) []int {
	if len(issues) == 0 {
		return []int{LayerConfiguration, LayerPatterns, LayerComponents}
	}
	seen := make(map[int]bool)
	var layers []int
	for _, issue := range issues {
		if !seen[issue.Layer] {
			seen[issue.Layer] = true
			layers = append(layers, issue.Layer)
		}
	}
	sort.Ints(layers)
	return layers
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
