package shared

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-plugin"
	"github.com/spf13/pflag"

	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

const (
	PluginTypeRuleProvider string = "ruleprovider"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MENDIO",
	MagicCookieValue: "4c1f7b2e9d0a6358e4b1c2a7f0d9e8365712c4ab",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeRuleProvider: &RuleProviderPlugin{},
}

// WithPlugin starts the named plugin binary, dispenses an implementation of
// pluginType and hands it to f. The plugin process is killed when f returns.
func WithPlugin(cfg *config.Config, loggerName string, pluginType string, pluginName string, f func(interface{}) error) error {
	log := logger.NewLogger(cfg, loggerName)

	pluginPath := filepath.Join(config.GetMendioPluginsHome(cfg), pluginName)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          log,
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return fmt.Errorf("failed to start plugin '%s': %w", pluginName, err)
	}

	raw, err := rpcClient.Dispense(pluginType)
	if err != nil {
		return fmt.Errorf("failed to dispense plugin '%s': %w", pluginName, err)
	}

	return f(raw)
}

// Versions holds build-time version information, injected via -ldflags.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// HasFlags reports whether any flag in the set was changed on the command
// line. Commands use it to decide between doing work and printing help.
func HasFlags(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(*pflag.Flag) {
		changed = true
	})
	return changed
}

// ForEveryStringWithBoundedGoroutines runs f over values with at most limit
// goroutines in flight at once.
func ForEveryStringWithBoundedGoroutines(limit int, values []interface{}, f func(i int, value interface{})) {
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, value interface{}) {
			defer wg.Done()
			f(i, value)
			<-guard
		}(i, value)
	}
	wg.Wait()
}
