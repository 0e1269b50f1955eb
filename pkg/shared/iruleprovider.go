package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/mendio-dev/mendio/pkg/shared/config"
)

// RuleProvider is implemented by adaptive rulepack plugins. Providers hand
// back rule specifications that the engine compiles and runs as layer 7.
type RuleProvider interface {
	Setup(configData config.Config) (bool, error)
	Provide(args RuleProviderRequest) (RuleProviderResponse, error)
}

// RuleProviderRequest asks a provider for the rules of a named rulepack.
type RuleProviderRequest struct {
	Rulepack string // Name of the rulepack to load, empty for the provider default
}

// RuleSpec is a single adaptive rule in wire form. Pattern is an uncompiled
// regular expression; the engine compiles and validates it before use.
type RuleSpec struct {
	ID          string
	Severity    string // "error", "warning" or "info"
	Pattern     string
	Message     string
	Suggestion  string
	Tags        []string
	Replacement string // Replacement text for fixable rules, empty when not fixable
	Fixable     bool
}

type RuleProviderResponse struct {
	Rulepack string
	Rules    []RuleSpec
}

type RuleProviderRPCClient struct{ client *rpc.Client }

func (g *RuleProviderRPCClient) Setup(configData config.Config) (bool, error) {
	var resp bool
	err := g.client.Call("Plugin.Setup", configData, &resp)
	if err != nil {
		return false, err
	}
	return resp, nil
}

func (g *RuleProviderRPCClient) Provide(req RuleProviderRequest) (RuleProviderResponse, error) {
	var resp RuleProviderResponse
	err := g.client.Call("Plugin.Provide", req, &resp)
	if err != nil {
		return resp, err
	}
	return resp, nil
}

type RuleProviderRPCServer struct {
	Impl RuleProvider
}

func (s *RuleProviderRPCServer) Setup(configData config.Config, resp *bool) error {
	var err error
	*resp, err = s.Impl.Setup(configData)
	return err
}

func (s *RuleProviderRPCServer) Provide(args RuleProviderRequest, resp *RuleProviderResponse) error {
	var err error
	*resp, err = s.Impl.Provide(args)
	return err
}

type RuleProviderPlugin struct {
	Impl RuleProvider
}

func (p *RuleProviderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RuleProviderRPCServer{Impl: p.Impl}, nil
}

func (RuleProviderPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RuleProviderRPCClient{client: c}, nil
}
