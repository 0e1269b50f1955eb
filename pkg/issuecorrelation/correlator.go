// Package issuecorrelation correlates freshly reported analysis issues with
// issues already filed in an external tracker, so repeated runs over the
// same code never open duplicates.
package issuecorrelation

// Fingerprint identifies one issue for correlation purposes.
//
//   - ExternalID: tracker-side identifier; carried through, never matched on.
//   - RuleID, Filename: identify the rule and the analyzed file.
//   - Line: 1-based line the issue was reported on.
//   - SnippetHash: fingerprint of the offending source line, empty when the
//     source is unavailable.
type Fingerprint struct {
	ExternalID  string
	RuleID      string
	Filename    string
	Line        int
	SnippetHash string
}

// Match groups one known issue with the new issues correlated to it.
type Match struct {
	Known Fingerprint
	New   []Fingerprint
}

// Correlator matches new fingerprints against known ones in ordered stages.
// An issue matched in an earlier stage is excluded from later stages, so
// the strongest available evidence wins. The stages are:
//
//  1. rule + file + line + snippet hash
//  2. rule + file + snippet hash (the line moved but the code did not)
//  3. rule + file + line (no hash available on either side)
//
// Use NewCorrelator, then Process, then Matches / UnmatchedNew /
// UnmatchedKnown. Relationships are many-to-many: one known issue may
// absorb several new findings and vice versa.
type Correlator struct {
	NewIssues   []Fingerprint
	KnownIssues []Fingerprint

	knownToNew map[int][]int
	newToKnown map[int][]int
	processed  bool
}

// NewCorrelator builds a Correlator over the given fingerprint sets. It is
// inert until Process is called.
func NewCorrelator(newIssues, knownIssues []Fingerprint) *Correlator {
	return &Correlator{
		NewIssues:   newIssues,
		KnownIssues: knownIssues,
	}
}

// Process computes the correlation. It is idempotent.
func (c *Correlator) Process() {
	if c.processed {
		return
	}
	c.knownToNew = make(map[int][]int)
	c.newToKnown = make(map[int][]int)

	matchedKnown := make(map[int]bool)
	matchedNew := make(map[int]bool)

	for stage := 1; stage <= 3; stage++ {
		matchedKnownThis := make(map[int]bool)
		matchedNewThis := make(map[int]bool)

		for ki, known := range c.KnownIssues {
			if matchedKnown[ki] {
				continue
			}
			for ni, fresh := range c.NewIssues {
				if matchedNew[ni] {
					continue
				}
				if matchStage(known, fresh, stage) {
					c.knownToNew[ki] = append(c.knownToNew[ki], ni)
					c.newToKnown[ni] = append(c.newToKnown[ni], ki)
					matchedKnownThis[ki] = true
					matchedNewThis[ni] = true
				}
			}
		}

		for ki := range matchedKnownThis {
			matchedKnown[ki] = true
		}
		for ni := range matchedNewThis {
			matchedNew[ni] = true
		}
	}

	c.processed = true
}

// matchStage applies one stage's rules. Rule and filename must be present
// and equal in every stage; hash stages additionally require a non-empty
// hash so two unknown snippets never count as equal.
func matchStage(a, b Fingerprint, stage int) bool {
	if a.RuleID == "" || b.RuleID == "" || a.RuleID != b.RuleID {
		return false
	}
	if a.Filename != b.Filename {
		return false
	}

	switch stage {
	case 1:
		return a.SnippetHash != "" && a.SnippetHash == b.SnippetHash && a.Line == b.Line
	case 2:
		return a.SnippetHash != "" && a.SnippetHash == b.SnippetHash
	case 3:
		return a.Line == b.Line
	}
	return false
}

// UnmatchedNew returns new issues with no known counterpart; these are the
// issues worth filing. Runs Process if it has not run yet.
func (c *Correlator) UnmatchedNew() []Fingerprint {
	if !c.processed {
		c.Process()
	}
	var out []Fingerprint
	for ni, fresh := range c.NewIssues {
		if len(c.newToKnown[ni]) == 0 {
			out = append(out, fresh)
		}
	}
	return out
}

// UnmatchedKnown returns known issues no current finding corresponds to;
// candidates for closing as resolved. Runs Process if it has not run yet.
func (c *Correlator) UnmatchedKnown() []Fingerprint {
	if !c.processed {
		c.Process()
	}
	var out []Fingerprint
	for ki, known := range c.KnownIssues {
		if len(c.knownToNew[ki]) == 0 {
			out = append(out, known)
		}
	}
	return out
}

// Matches returns every known issue that absorbed at least one new finding,
// with the findings attached. Runs Process if it has not run yet.
func (c *Correlator) Matches() []Match {
	if !c.processed {
		c.Process()
	}
	var out []Match
	for ki, newIdxs := range c.knownToNew {
		if len(newIdxs) == 0 {
			continue
		}
		m := Match{Known: c.KnownIssues[ki], New: make([]Fingerprint, 0, len(newIdxs))}
		for _, ni := range newIdxs {
			m.New = append(m.New, c.NewIssues[ni])
		}
		out = append(out, m)
	}
	return out
}
