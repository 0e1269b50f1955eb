package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateScanArgs(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptionsScan
		args    []string
		wantErr string
	}{
		{
			// valid: mendio scan src/app.js
			name:    "Valid file target",
			options: RunOptionsScan{ReportFormat: "summary", Threads: 1},
			args:    []string{"src/app.js"},
			wantErr: "",
		},
		{
			// valid: mendio scan --format json --output scan.json ./project
			name:    "Valid json format",
			options: RunOptionsScan{ReportFormat: "json", OutputPath: "scan.json", Threads: 1},
			args:    []string{"./project"},
			wantErr: "",
		},
		{
			// valid: mendio scan --branch develop https://github.com/acme/webapp
			name:    "Valid branch on remote target",
			options: RunOptionsScan{ReportFormat: "summary", Branch: "develop", Threads: 1},
			args:    []string{"https://github.com/acme/webapp"},
			wantErr: "",
		},
		{
			// fail: mendio scan
			name:    "Missing target",
			options: RunOptionsScan{ReportFormat: "summary", Threads: 1},
			args:    []string{},
			wantErr: "a target path or repository URL must be specified",
		},
		{
			// fail: mendio scan a.js b.js
			name:    "Two targets",
			options: RunOptionsScan{ReportFormat: "summary", Threads: 1},
			args:    []string{"a.js", "b.js"},
			wantErr: "only one target can be scanned at a time, got 2",
		},
		{
			// fail: mendio scan --format xml src/app.js
			name:    "Unsupported format",
			options: RunOptionsScan{ReportFormat: "xml", Threads: 1},
			args:    []string{"src/app.js"},
			wantErr: `unsupported format "xml", expected one of: summary, json`,
		},
		{
			// fail: mendio scan --threads 0 src/app.js
			name:    "Non-positive threads",
			options: RunOptionsScan{ReportFormat: "summary", Threads: 0},
			args:    []string{"src/app.js"},
			wantErr: "the 'threads' flag must be a positive integer",
		},
		{
			// fail: mendio scan --branch develop src/app.js
			name:    "Branch on local target",
			options: RunOptionsScan{ReportFormat: "summary", Branch: "develop", Threads: 1},
			args:    []string{"src/app.js"},
			wantErr: "the 'branch' flag only applies to remote repository targets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScanArgs(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
