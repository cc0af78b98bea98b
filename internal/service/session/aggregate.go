package session

import (
	"fmt"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

// aggregate turns the per-index result slots into the ordered output
// list. Every index must be present; a gap means the orchestrator's
// bookkeeping is broken and the whole run is surfaced as failed, which
// is a different condition from a single section's recoverable failure.
func aggregate(results []*core.SectionResult) ([]core.SectionResult, error) {
	out := make([]core.SectionResult, len(results))
	for i, r := range results {
		if r == nil {
			return nil, core.ErrAggregation(fmt.Sprintf("section %d missing from results after all tasks completed", i))
		}
		if r.SectionIndex != i {
			return nil, core.ErrAggregation(fmt.Sprintf("section result at slot %d carries index %d", i, r.SectionIndex))
		}
		out[i] = *r
	}
	return out, nil
}
