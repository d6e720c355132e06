package optimize

import (
	"occ/internal/ir"
	"occ/internal/symtab"
	"occ/internal/types"
)

// canMerge reports whether s1 ("t = expr;") immediately followed by s2
// ("u = t;", an identity read of s1's target) can be fused into a single
// "u = expr;", eliminating the temporary t. This requires: both are plain
// assignments; s2's right-hand side is nothing but a read of s1's target;
// both targets share a type; s1's target is a direct, non-field local with
// no linkage (never a bit-field, global, or anything nameable from another
// translation unit); and s1's target is not read again after s2 —
// merging would otherwise discard a value something else still needs.
func canMerge(repo *types.Repo, lv *Liveness, s1, s2 ir.Stmt, s2Block *ir.Block, s2Index int) bool {
	if s1.Kind != ir.StmtAssign || s2.Kind != ir.StmtAssign {
		return false
	}
	if !s2.Expr.IsIdentity(repo) {
		return false
	}
	if !s1.Target.Equal(s2.Expr.L) {
		return false
	}
	if !repo.Equal(s1.Target.Type, s2.Target.Type) {
		return false
	}
	if s1.Target.Kind != ir.Direct {
		return false
	}
	if s1.Target.Symbol == nil || s1.Target.Symbol.Linkage != symtab.LinkNone {
		return false
	}
	if s1.Target.FieldWidth != 0 {
		return false
	}
	return !lv.IsLiveAfter(s2Block, s2Index, s1.Target.Symbol)
}

// MergeChainedAssignment scans every block of d for "t = expr; u = t;"
// pairs and fuses them into "u = expr;", repeating against the fused
// statement's new successor until no further fusion applies in that
// block. It returns the number of statements eliminated.
func MergeChainedAssignment(repo *types.Repo, d *ir.Definition, lv *Liveness) int {
	removed := 0
	for _, b := range d.Blocks {
		i := b.Head + 1
		for i < b.Head+b.Count {
			s1 := d.Statements[i-1]
			s2 := d.Statements[i]
			if canMerge(repo, lv, s1, s2, b, i) {
				d.Statements[i-1] = ir.Stmt{Kind: ir.StmtAssign, Target: s2.Target, Expr: s1.Expr}
				d.EraseStatement(i)
				removed++
				// Re-examine the fused statement against its new
				// successor rather than advancing, since it may chain
				// further.
				continue
			}
			i++
		}
	}
	return removed
}
