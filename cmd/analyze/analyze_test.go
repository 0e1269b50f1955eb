package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAnalyzeArgs(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptionsAnalyze
		args    []string
		wantErr string
	}{
		{
			// valid: mendio analyze src/app.js
			name:    "Valid file target with defaults",
			options: RunOptionsAnalyze{ReportFormat: "summary"},
			args:    []string{"src/app.js"},
			wantErr: "",
		},
		{
			// valid: mendio analyze --layers 2,3 --format sarif src/app.js
			name:    "Valid layers and sarif format",
			options: RunOptionsAnalyze{ReportFormat: "sarif", Layers: []int{2, 3}},
			args:    []string{"src/app.js"},
			wantErr: "",
		},
		{
			// valid: mendio analyze --branch develop https://github.com/acme/webapp
			name:    "Valid remote target with branch",
			options: RunOptionsAnalyze{ReportFormat: "summary", Branch: "develop"},
			args:    []string{"https://github.com/acme/webapp"},
			wantErr: "",
		},
		{
			// fail: mendio analyze
			name:    "Missing target",
			options: RunOptionsAnalyze{ReportFormat: "summary"},
			args:    []string{},
			wantErr: "a target path or repository URL must be specified",
		},
		{
			// fail: mendio analyze a.js b.js
			name:    "Multiple targets",
			options: RunOptionsAnalyze{ReportFormat: "summary"},
			args:    []string{"a.js", "b.js"},
			wantErr: "only one target can be analyzed at a time, got 2",
		},
		{
			// fail: mendio analyze --format yaml src/app.js
			name:    "Unsupported format",
			options: RunOptionsAnalyze{ReportFormat: "yaml"},
			args:    []string{"src/app.js"},
			wantErr: `unsupported format "yaml", expected one of: summary, json, sarif`,
		},
		{
			// fail: mendio analyze --layers 0 src/app.js
			name:    "Layer below range",
			options: RunOptionsAnalyze{ReportFormat: "summary", Layers: []int{0}},
			args:    []string{"src/app.js"},
			wantErr: "layer 0 is out of range [1, 8]",
		},
		{
			// fail: mendio analyze --layers 9 src/app.js
			name:    "Layer above range",
			options: RunOptionsAnalyze{ReportFormat: "summary", Layers: []int{9}},
			args:    []string{"src/app.js"},
			wantErr: "layer 9 is out of range [1, 8]",
		},
		{
			// fail: mendio analyze --branch develop src/app.js
			name:    "Branch on a local target",
			options: RunOptionsAnalyze{ReportFormat: "summary", Branch: "develop"},
			args:    []string{"src/app.js"},
			wantErr: "the 'branch' flag only applies to remote repository targets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAnalyzeArgs(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
