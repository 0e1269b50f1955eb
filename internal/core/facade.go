package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/security"
	"github.com/mendio-dev/mendio/internal/transform"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/errors"
)

// Version is the engine version stamped into run metadata.
// Overridden at build time.
var Version = "dev"

// ProgressFunc receives each layer outcome while a fix run advances.
// It is called from the goroutine running the fix.
type ProgressFunc func(outcome transform.LayerOutcome)

// Facade bundles the rule engine, the security scanner and the transform
// pipeline behind the two operations every entry point (CLI, HTTP API, job
// worker) goes through. One Facade is safe for concurrent use.
type Facade struct {
	logger   hclog.Logger
	engine   *engine.Engine
	scanner  *security.Scanner
	xform    *transform.Transformer
	maxBytes int
}

// New builds a Facade from the loaded configuration. Extra rules (for
// example from rulepack plugins) participate in analysis and fixing next to
// the built-in catalogue.
func New(cfg *config.Config, logger hclog.Logger, extra ...engine.Rule) *Facade {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	maxKB := config.DefaultMaxFileSizeKB
	if cfg != nil && cfg.Engine.MaxFileSizeKB > 0 {
		maxKB = cfg.Engine.MaxFileSizeKB
	}
	eng := engine.New(extra...)
	return &Facade{
		logger:   logger,
		engine:   eng,
		scanner:  security.NewScanner(),
		xform:    transform.NewTransformer(eng),
		maxBytes: maxKB * 1024,
	}
}

// Engine exposes the underlying rule engine, mainly for listing rules.
func (f *Facade) Engine() *engine.Engine {
	return f.engine
}

// Analyze runs the requested layers over code and returns the merged report.
// When layer 8 is in scope the security scanner runs too and its findings
// are folded into the analysis result.
func (f *Facade) Analyze(code string, opts engine.Options) (*Report, error) {
	start := time.Now()
	if err := f.checkSize(code); err != nil {
		return nil, err
	}

	layers := engine.NormalizeLayers(opts.Layers)
	opts.Layers = layers

	analysis := f.engine.Analyze(code, opts)
	report := &Report{Analysis: analysis}

	if containsLayer(layers, engine.LayerSecurity) {
		scan := f.scanner.Scan(code, opts.Filename)
		report.Security = &scan
		if len(scan.Issues) > 0 {
			merged := analysis.Issues
			for _, si := range scan.Issues {
				merged = append(merged, si.ToEngineIssue())
			}
			report.Analysis = engine.BuildResult(code, merged, layers)
		}
	}

	report.Metadata = f.metadata(opts.Filename, layers, start)
	f.logger.Debug("analysis finished",
		"filename", opts.Filename,
		"layers", layers,
		"issues", len(report.Analysis.Issues),
		"quality", report.Analysis.QualityScore,
	)
	return report, nil
}

// Fix analyzes code, then rewrites it layer by layer in ascending order.
// Every layer goes through the transform safety protocol, so a rewrite that
// fails validation is rolled back and reported in the layer outcomes rather
// than propagated. The context is checked between layers; a fix run aborted
// by cancellation returns the context error and no report.
func (f *Facade) Fix(ctx context.Context, code string, opts engine.Options, progress ProgressFunc) (*Report, error) {
	start := time.Now()
	if err := f.checkSize(code); err != nil {
		return nil, err
	}

	layers := engine.NormalizeLayers(opts.Layers)
	opts.Layers = layers

	report, err := f.Analyze(code, opts)
	if err != nil {
		return nil, err
	}

	fixed := code
	outcomes := make([]transform.LayerOutcome, 0, len(layers))
	var applied []engine.AppliedFix
	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			f.logger.Info("fix run aborted", "layer", layer, "reason", err)
			return nil, err
		}
		next, outcome := f.xform.TransformLayer(fixed, layer)
		outcomes = append(outcomes, outcome)
		applied = append(applied, outcome.Fixes...)
		fixed = next
		if progress != nil {
			progress(outcome)
		}
		if outcome.Reverted {
			f.logger.Warn("layer rewrite rolled back", "layer", layer, "reason", outcome.Reason)
		}
	}

	report.Fix = &engine.FixResult{
		Success:      len(applied) > 0,
		OriginalCode: code,
		Code:         fixed,
		AppliedFixes: applied,
	}
	report.Layers = outcomes
	report.Metadata = f.metadata(opts.Filename, layers, start)
	f.logger.Debug("fix run finished",
		"filename", opts.Filename,
		"layers", layers,
		"applied", len(applied),
	)
	return report, nil
}

func (f *Facade) checkSize(code string) error {
	if len(code) > f.maxBytes {
		return errors.NewValidationError("code",
			fmt.Sprintf("input is %d bytes, limit is %d KB", len(code), f.maxBytes/1024))
	}
	return nil
}

func (f *Facade) metadata(filename string, layers []int, start time.Time) Metadata {
	return Metadata{
		ReportID:        uuid.NewString(),
		Filename:        filename,
		LayersAnalyzed:  layers,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		EngineVersion:   Version,
		GeneratedAt:     time.Now().UTC(),
	}
}

func containsLayer(layers []int, layer int) bool {
	for _, l := range layers {
		if l == layer {
			return true
		}
	}
	return false
}
