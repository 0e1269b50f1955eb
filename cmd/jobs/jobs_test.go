package jobs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSubmitArgs(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "app.js")
	err := os.WriteFile(target, []byte("var a = 1\n"), 0644)
	assert.NoError(t, err)

	tests := []struct {
		name    string
		options RunOptionsJobs
		args    []string
		wantErr string
	}{
		{
			name:    "Valid submission",
			options: RunOptionsJobs{},
			args:    []string{target},
			wantErr: "",
		},
		{
			name:    "Valid priority and layers",
			options: RunOptionsJobs{Priority: "high", Layers: []int{2, 8}},
			args:    []string{target},
			wantErr: "",
		},
		{
			name:    "Missing file argument",
			options: RunOptionsJobs{},
			args:    []string{},
			wantErr: "exactly one file must be submitted, got 0",
		},
		{
			name:    "Nonexistent file",
			options: RunOptionsJobs{},
			args:    []string{"/invalid/app.js"},
			wantErr: "the target file does not exist: /invalid/app.js",
		},
		{
			name:    "Unknown priority",
			options: RunOptionsJobs{Priority: "immediate"},
			args:    []string{target},
			wantErr: `unsupported priority "immediate", expected one of: low, normal, high, urgent`,
		},
		{
			name:    "Layer out of range",
			options: RunOptionsJobs{Layers: []int{-1}},
			args:    []string{target},
			wantErr: "layer -1 is out of range [1, 8]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSubmitArgs(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
