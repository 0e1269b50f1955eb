// Package rulepack loads adaptive rules from rule-provider plugins and
// compiles them into engine rules. Adaptive rules extend the built-in
// catalogue with team-specific patterns without a rebuild of the engine.
package rulepack

import (
	"fmt"
	"regexp"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/pkg/shared"
	"github.com/mendio-dev/mendio/pkg/shared/config"
)

// Load starts every enabled rulepack plugin from the config, collects its
// rule specifications and compiles them. A failing pack fails the whole
// load; a half-loaded catalogue would make results depend on plugin order.
func Load(cfg *config.Config, loggerName string) ([]engine.Rule, error) {
	var rules []engine.Rule
	for _, rp := range cfg.Rulepacks {
		if !rp.Enabled {
			continue
		}
		specs, err := fetch(cfg, loggerName, rp.Name)
		if err != nil {
			return nil, fmt.Errorf("load rulepack %q: %w", rp.Name, err)
		}
		compiled, err := Compile(specs)
		if err != nil {
			return nil, fmt.Errorf("compile rulepack %q: %w", rp.Name, err)
		}
		rules = append(rules, compiled...)
	}
	return rules, nil
}

// fetch dispenses the rule provider plugin and asks it for the named pack.
func fetch(cfg *config.Config, loggerName, name string) ([]shared.RuleSpec, error) {
	var specs []shared.RuleSpec
	err := shared.WithPlugin(cfg, loggerName, shared.PluginTypeRuleProvider, name, func(raw interface{}) error {
		provider, ok := raw.(shared.RuleProvider)
		if !ok {
			return fmt.Errorf("plugin %q does not implement the rule provider interface", name)
		}
		if _, err := provider.Setup(*cfg); err != nil {
			return fmt.Errorf("plugin setup failed: %w", err)
		}
		resp, err := provider.Provide(shared.RuleProviderRequest{Rulepack: name})
		if err != nil {
			return err
		}
		specs = resp.Rules
		return nil
	})
	return specs, err
}

// Compile validates wire specs and turns them into engine rules. The layer
// is forced to the adaptive layer regardless of what the pack claims, so a
// pack can never inject rules into another layer's scope.
func Compile(specs []shared.RuleSpec) ([]engine.Rule, error) {
	rules := make([]engine.Rule, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("rule with an empty id")
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate rule id %q", spec.ID)
		}
		seen[spec.ID] = true

		severity := engine.Severity(spec.Severity)
		if !severity.Valid() {
			return nil, fmt.Errorf("rule %q: unknown severity %q", spec.ID, spec.Severity)
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid pattern: %w", spec.ID, err)
		}

		rule := engine.Rule{
			ID:         spec.ID,
			Layer:      engine.LayerAdaptive,
			Severity:   severity,
			Pattern:    re,
			Message:    spec.Message,
			Suggestion: spec.Suggestion,
			Tags:       spec.Tags,
		}
		if spec.Fixable {
			rule.Fix = replacementFix(re, spec.Replacement)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// replacementFix rewrites a match with the rule's replacement template.
// Group references such as $1 expand against the match. The fixer is a
// no-op when the match no longer holds at the recorded offsets.
func replacementFix(re *regexp.Regexp, replacement string) engine.FixFunc {
	return func(code string, m engine.Match) (string, bool) {
		if m.Start < 0 || m.End > len(code) || m.Start > m.End {
			return code, false
		}
		matched := code[m.Start:m.End]
		idx := re.FindStringSubmatchIndex(matched)
		if idx == nil || idx[0] != 0 || idx[1] != len(matched) {
			return code, false
		}
		expanded := re.ExpandString(nil, replacement, matched, idx)
		out := code[:m.Start] + string(expanded) + code[m.End:]
		return out, out != code
	}
}
