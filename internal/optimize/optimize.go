// Package optimize implements the optimizer pipeline run over one
// definition at a time: merge-chained-assignment and dead-store
// elimination, driven to a fixed point against a recomputed liveness
// dataflow, gated by optimization level.
package optimize

import (
	"occ/internal/ir"
	"occ/internal/types"
)

// Level is the requested optimization level, corresponding to the -O0
// through -O3 driver flags.
type Level int

const (
	O0 Level = iota
	O1
	O2
	O3
)

// Run applies the optimizer pipeline to d at the given level. -O0 runs no
// passes at all. -O1 and above alternate merge-chained-assignment and
// dead-store elimination, recomputing liveness between each pass, until a
// full round removes nothing. -O2 and -O3 are accepted but run the same
// pipeline; there are no further passes to enable.
func Run(repo *types.Repo, d *ir.Definition, level Level) {
	if level == O0 {
		return
	}
	for {
		lv := ComputeLiveness(d)
		merged := MergeChainedAssignment(repo, d, lv)

		lv = ComputeLiveness(d)
		dropped := DeadStoreElimination(d, lv)

		if merged == 0 && dropped == 0 {
			return
		}
	}
}
