package transform

import (
	"fmt"

	"github.com/mendio-dev/mendio/internal/engine"
)

// Strategy names which rewrite path produced a layer's accepted output.
type Strategy string

const (
	StrategyStructural Strategy = "structural"
	StrategyPattern    Strategy = "pattern"
	StrategyNone       Strategy = "none"
)

// LayerOutcome reports what happened to one layer inside the safety
// protocol.
type LayerOutcome struct {
	Layer    int                 `json:"layer"`
	Name     string              `json:"name"`
	Strategy Strategy            `json:"strategy"`
	Changed  bool                `json:"changed"`
	Reverted bool                `json:"reverted"`
	Reason   string              `json:"reason,omitempty"`
	Fixes    []engine.AppliedFix `json:"fixes,omitempty"`
}

// Transformer wraps every layer rewrite in the safety protocol: a
// structural attempt, a validation gate, a pattern fallback on the last
// known-good buffer, the same gate again, and acceptance or reversion.
// The final output is always either the unmodified input or a buffer that
// passed validation once per accepted layer.
type Transformer struct {
	engine *engine.Engine
}

// NewTransformer builds a transformer over the given rule engine, whose
// fixers serve as the pattern fallback.
func NewTransformer(e *engine.Engine) *Transformer {
	return &Transformer{engine: e}
}

// TransformLayer runs one layer against the known-good buffer and returns
// the new known-good buffer. On reversion the input comes back unchanged
// with the reason recorded in the outcome; a failed layer never corrupts
// the work of earlier ones.
func (t *Transformer) TransformLayer(code string, layer int) (string, LayerOutcome) {
	outcome := LayerOutcome{Layer: layer, Name: engine.LayerName(layer), Strategy: StrategyNone}

	structuralErr := errStructuralUnsupported
	if structural := t.structuralFor(layer); structural != nil {
		rewritten, fixes, err := structural(code)
		switch {
		case err != nil:
			structuralErr = err
		case rewritten == code:
			// nothing in this layer to rewrite; the buffer is already good
			return code, outcome
		default:
			if verr := validate(code, rewritten, len(fixes)); verr != nil {
				structuralErr = verr
			} else {
				outcome.Strategy = StrategyStructural
				outcome.Changed = true
				outcome.Fixes = fixes
				return rewritten, outcome
			}
		}
	}

	// pattern fallback operates on the last known-good buffer, never on a
	// rejected structural output
	fix := t.engine.ApplyFixes(code, engine.Options{Layers: []int{layer}})
	if !fix.Success {
		return code, outcome
	}
	if verr := validate(code, fix.Code, len(fix.AppliedFixes)); verr != nil {
		outcome.Reverted = true
		outcome.Reason = fmt.Sprintf("pattern fallback rejected: %v (structural: %v)", verr, structuralErr)
		return code, outcome
	}

	outcome.Strategy = StrategyPattern
	outcome.Changed = true
	outcome.Fixes = fix.AppliedFixes
	if structuralErr != errStructuralUnsupported {
		outcome.Reason = fmt.Sprintf("structural attempt rejected: %v", structuralErr)
	}
	return fix.Code, outcome
}

// Transform runs the requested layers in ascending order, each against the
// known-good output of the previous one.
func (t *Transformer) Transform(code string, layers []int) (string, []LayerOutcome) {
	buf := code
	var outcomes []LayerOutcome
	for _, layer := range engine.NormalizeLayers(layers) {
		next, outcome := t.TransformLayer(buf, layer)
		outcomes = append(outcomes, outcome)
		buf = next
	}
	return buf, outcomes
}
