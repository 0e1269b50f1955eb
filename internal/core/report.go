package core

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/security"
	"github.com/mendio-dev/mendio/internal/transform"
)

// Metadata describes one engine run.
type Metadata struct {
	ReportID        string    `json:"reportId"`
	Filename        string    `json:"filename,omitempty"`
	LayersAnalyzed  []int     `json:"layersAnalyzed"`
	ExecutionTimeMs int64     `json:"executionTimeMs"`
	EngineVersion   string    `json:"engineVersion"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Report is the unified envelope returned by the façade: the merged
// analysis, the raw security view when layer 8 ran, the fix outcome when
// fixes were requested, and the per-layer protocol outcomes. The same JSON
// is the wire response and the saved report-file format.
type Report struct {
	Analysis engine.AnalysisResult    `json:"analysis"`
	Security *security.ScanResult     `json:"security,omitempty"`
	Fix      *engine.FixResult        `json:"fix,omitempty"`
	Layers   []transform.LayerOutcome `json:"layers,omitempty"`
	Metadata Metadata                 `json:"metadata"`
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to '%s': %w", path, err)
	}
	return nil
}

// LoadReport reads a report saved by Save.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report '%s': %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report '%s': %w", path, err)
	}
	return &r, nil
}
