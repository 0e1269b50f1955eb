package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/mendio-dev/mendio/pkg/shared"
	"github.com/mendio-dev/mendio/pkg/shared/config"
)

// ruleFile is the on-disk YAML format of an adaptive rulepack. The file
// lives next to the plugin binary as <rulepack>.yaml.
type ruleFile struct {
	Rulepack string     `yaml:"rulepack"`
	Rules    []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID          string   `yaml:"id"`
	Severity    string   `yaml:"severity"`
	Pattern     string   `yaml:"pattern"`
	Message     string   `yaml:"message"`
	Suggestion  string   `yaml:"suggestion"`
	Tags        []string `yaml:"tags"`
	Replacement string   `yaml:"replacement"`
	Fixable     bool     `yaml:"fixable"`
}

// RuleFileProvider serves adaptive rules out of YAML files in the plugins
// folder.
type RuleFileProvider struct {
	logger hclog.Logger
	cfg    config.Config
}

func (p *RuleFileProvider) Setup(configData config.Config) (bool, error) {
	p.cfg = configData
	p.logger.Debug("rule provider configured", "pluginsFolder", config.GetMendioPluginsHome(&p.cfg))
	return true, nil
}

func (p *RuleFileProvider) Provide(args shared.RuleProviderRequest) (shared.RuleProviderResponse, error) {
	name := args.Rulepack
	if name == "" {
		name = "adaptive"
	}
	path := filepath.Join(config.GetMendioPluginsHome(&p.cfg), name+".yaml")

	var file ruleFile
	if err := config.LoadYAML(path, &file); err != nil {
		return shared.RuleProviderResponse{}, fmt.Errorf("unable to read rulepack file %q: %w", path, err)
	}

	resp := shared.RuleProviderResponse{Rulepack: name}
	for _, r := range file.Rules {
		resp.Rules = append(resp.Rules, shared.RuleSpec{
			ID:          r.ID,
			Severity:    r.Severity,
			Pattern:     r.Pattern,
			Message:     r.Message,
			Suggestion:  r.Suggestion,
			Tags:        r.Tags,
			Replacement: r.Replacement,
			Fixable:     r.Fixable,
		})
	}

	p.logger.Info("rulepack served", "rulepack", name, "rules", len(resp.Rules))
	return resp, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	provider := &RuleFileProvider{logger: logger}

	pluginMap := map[string]plugin.Plugin{
		shared.PluginTypeRuleProvider: &shared.RuleProviderPlugin{Impl: provider},
	}

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins:         pluginMap,
	})
}
