package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/rulepack"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

// RunOptionsRules holds the arguments for the rules command.
type RunOptionsRules struct {
	Layers       []int
	ReportFormat string
}

// ruleView is the serializable projection of a rule. The compiled pattern
// stays internal.
type ruleView struct {
	ID        string   `json:"id"`
	Layer     int      `json:"layer"`
	LayerName string   `json:"layerName"`
	Severity  string   `json:"severity"`
	Message   string   `json:"message"`
	Fixable   bool     `json:"fixable"`
	Tags      []string `json:"tags,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	rulesOptions      RunOptionsRules
	exampleRulesUsage = `  # Listing the full rule catalogue
  mendio rules

  # Listing security and pattern rules only
  mendio rules --layers 2,8

  # Dumping the catalogue as JSON
  mendio rules --format json`
)

// RulesCmd represents the rules command.
var RulesCmd = &cobra.Command{
	Use:                   "rules [--layers/-l LAYERS] [--format/-f OUTPUT_FORMAT]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleRulesUsage,
	Short:                 "Print the rule catalogue, including adaptive rules from installed rulepacks",
	RunE:                  runRulesCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runRulesCommand executes the rules command.
func runRulesCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-rules")

	if err := validateRulesArgs(&rulesOptions, args); err != nil {
		logger.Error("invalid rules arguments", "error", err)
		return err
	}

	extra, err := rulepack.Load(AppConfig, "core-rules")
	if err != nil {
		logger.Error("failed to load rulepacks", "error", err)
		return err
	}

	views := collectRuleViews(engine.New(extra...).Rules(), rulesOptions.Layers)

	if rulesOptions.ReportFormat == "json" {
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal rules: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	printRuleTable(views)
	return nil
}

// collectRuleViews filters and orders the catalogue for display.
func collectRuleViews(catalogue []engine.Rule, layers []int) []ruleView {
	wanted := make(map[int]bool, len(layers))
	for _, layer := range layers {
		wanted[layer] = true
	}

	views := make([]ruleView, 0, len(catalogue))
	for _, rule := range catalogue {
		if len(wanted) > 0 && !wanted[rule.Layer] {
			continue
		}
		views = append(views, ruleView{
			ID:        rule.ID,
			Layer:     rule.Layer,
			LayerName: engine.LayerName(rule.Layer),
			Severity:  string(rule.Severity),
			Message:   rule.Message,
			Fixable:   rule.Fix != nil,
			Tags:      rule.Tags,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Layer != views[j].Layer {
			return views[i].Layer < views[j].Layer
		}
		return views[i].ID < views[j].ID
	})
	return views
}

func printRuleTable(views []ruleView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LAYER\tRULE\tSEVERITY\tFIXABLE\tMESSAGE")
	for _, view := range views {
		fixable := ""
		if view.Fixable {
			fixable = "yes"
		}
		fmt.Fprintf(w, "%d (%s)\t%s\t%s\t%s\t%s\n",
			view.Layer, view.LayerName, view.ID, view.Severity, fixable, view.Message)
	}
	w.Flush()
}

// validateRulesArgs validates the arguments provided to the rules command.
func validateRulesArgs(options *RunOptionsRules, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("the rules command takes no positional arguments, got %q", strings.Join(args, " "))
	}
	switch options.ReportFormat {
	case "table", "json":
	default:
		return fmt.Errorf("unsupported format %q, expected one of: table, json", options.ReportFormat)
	}
	for _, layer := range options.Layers {
		if layer < engine.MinLayer || layer > engine.MaxLayer {
			return fmt.Errorf("layer %d is out of range [%d, %d]", layer, engine.MinLayer, engine.MaxLayer)
		}
	}
	return nil
}

// Initialize flags for the rules command.
func init() {
	RulesCmd.Flags().IntSliceVarP(&rulesOptions.Layers, "layers", "l", nil, "Restrict the listing to the given layers (1-8).")
	RulesCmd.Flags().StringVarP(&rulesOptions.ReportFormat, "format", "f", "table", "Output format: table or json.")
	RulesCmd.Flags().BoolP("help", "h", false, "Show help for the rules command.")
}
