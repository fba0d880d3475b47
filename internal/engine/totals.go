// Package engine folds typed stream events into per-mode session state. One
// reducer exists per interaction mode (single, compare, crew); reducers are
// the only writers of session state, and all reads are value-copy snapshots.
package engine

import "github.com/codeswap/codeswap/internal/usage"

// Totals accumulates usage across streams for the lifetime of the process.
// It is owned by the caller and injected into reducers, never reached as an
// ambient global. TokensIn/TokensOut/Cost are monotonically non-decreasing
// and cleared only by an explicit Reset.
type Totals struct {
	TokensIn  int
	TokensOut int
	Cost      float64

	// CrewTotalCost is authoritative once a crew_done event reports it,
	// overriding any locally summed per-agent cost. CrewBudget is a display
	// ceiling, not enforced client-side.
	CrewTotalCost float64
	CrewBudget    float64
}

// Add folds one resolved usage record into the session totals.
func (t *Totals) Add(info usage.Info) {
	t.TokensIn += info.TokensIn
	t.TokensOut += info.TokensOut
	t.Cost += info.Cost
}

// Reset clears all accumulators. Only an explicit user action calls this.
func (t *Totals) Reset() {
	*t = Totals{CrewBudget: t.CrewBudget}
}
