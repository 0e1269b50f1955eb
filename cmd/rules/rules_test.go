package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mendio-dev/mendio/internal/engine"
)

func TestCollectRuleViewsFiltersAndSorts(t *testing.T) {
	catalogue := engine.New().Rules()
	views := collectRuleViews(catalogue, []int{engine.LayerPatterns})

	assert.NotEmpty(t, views)
	for _, view := range views {
		assert.Equal(t, engine.LayerPatterns, view.Layer)
		assert.Equal(t, "patterns", view.LayerName)
	}
	for i := 1; i < len(views); i++ {
		assert.LessOrEqual(t, views[i-1].ID, views[i].ID)
	}
}

func TestCollectRuleViewsNoFilterKeepsCatalogueSize(t *testing.T) {
	catalogue := engine.New().Rules()
	views := collectRuleViews(catalogue, nil)
	assert.Len(t, views, len(catalogue))
}

func TestValidateRulesArgs(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptionsRules
		args    []string
		wantErr string
	}{
		{
			name:    "Valid defaults",
			options: RunOptionsRules{ReportFormat: "table"},
			args:    []string{},
			wantErr: "",
		},
		{
			name:    "Valid json with layer filter",
			options: RunOptionsRules{ReportFormat: "json", Layers: []int{2, 8}},
			args:    []string{},
			wantErr: "",
		},
		{
			name:    "Positional arguments rejected",
			options: RunOptionsRules{ReportFormat: "table"},
			args:    []string{"extra"},
			wantErr: `the rules command takes no positional arguments, got "extra"`,
		},
		{
			name:    "Unsupported format",
			options: RunOptionsRules{ReportFormat: "xml"},
			args:    []string{},
			wantErr: `unsupported format "xml", expected one of: table, json`,
		},
		{
			name:    "Layer out of range",
			options: RunOptionsRules{ReportFormat: "table", Layers: []int{42}},
			args:    []string{},
			wantErr: "layer 42 is out of range [1, 8]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRulesArgs(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
