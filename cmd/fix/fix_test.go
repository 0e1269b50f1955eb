package fix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFixArgs(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "app.js")
	err := os.WriteFile(target, []byte("var a = 1\n"), 0644)
	assert.NoError(t, err)

	tests := []struct {
		name    string
		options RunOptionsFix
		args    []string
		wantErr string
	}{
		{
			// valid: mendio fix src/app.js
			name:    "Valid file target",
			options: RunOptionsFix{},
			args:    []string{target},
			wantErr: "",
		},
		{
			// valid: mendio fix --write --layers 2 src/app.js
			name:    "Valid in-place fix with layers",
			options: RunOptionsFix{Write: true, Layers: []int{2}},
			args:    []string{target},
			wantErr: "",
		},
		{
			// fail: mendio fix
			name:    "Missing target",
			options: RunOptionsFix{},
			args:    []string{},
			wantErr: "a target file must be specified",
		},
		{
			// fail: mendio fix /invalid/path/app.js
			name:    "Missing file",
			options: RunOptionsFix{},
			args:    []string{"/invalid/path/app.js"},
			wantErr: "the target file does not exist: /invalid/path/app.js",
		},
		{
			// fail: mendio fix ./src
			name:    "Directory target",
			options: RunOptionsFix{},
			args:    []string{tmpDir},
			wantErr: `the target must be a single file, "` + tmpDir + `" is a directory`,
		},
		{
			// fail: mendio fix --write --output fixed.js src/app.js
			name:    "Write and output together",
			options: RunOptionsFix{Write: true, OutputPath: "fixed.js"},
			args:    []string{target},
			wantErr: "you cannot use the 'write' flag and an 'output' path at the same time",
		},
		{
			// fail: mendio fix --layers 12 src/app.js
			name:    "Layer out of range",
			options: RunOptionsFix{Layers: []int{12}},
			args:    []string{target},
			wantErr: "layer 12 is out of range [1, 8]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFixArgs(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
