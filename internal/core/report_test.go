package core

import (
	"path/filepath"
	"testing"

	"github.com/mendio-dev/mendio/internal/engine"
)

func TestReportSaveLoadRoundtrip(t *testing.T) {
	f := New(nil, nil)
	report, err := f.Analyze("eval(x);\n", engine.Options{Filename: "a.js", Layers: []int{8}})
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := report.Save(path); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport() unexpected error: %v", err)
	}
	if loaded.Metadata.ReportID != report.Metadata.ReportID {
		t.Fatalf("report ID = %q, want %q", loaded.Metadata.ReportID, report.Metadata.ReportID)
	}
	if loaded.Analysis.QualityScore != 90 {
		t.Fatalf("quality = %d, want 90", loaded.Analysis.QualityScore)
	}
	if len(loaded.Analysis.Issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(loaded.Analysis.Issues))
	}
	if loaded.Analysis.IssuesByLayer[8] != 1 {
		t.Fatalf("issues by layer = %v, want layer 8 entry", loaded.Analysis.IssuesByLayer)
	}
	if loaded.Security == nil || loaded.Security.RiskLevel != "critical" {
		t.Fatalf("security view lost in roundtrip: %+v", loaded.Security)
	}
}

func TestLoadReportMissingFile(t *testing.T) {
	if _, err := LoadReport(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing file loaded without error")
	}
}
