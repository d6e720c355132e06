package optimize

import (
	"occ/internal/ir"
	"occ/internal/symtab"
	"occ/internal/types"
)

// HasSideEffects reports whether a statement can affect anything beyond
// the value its expression produces. It is the authority the dead-store
// pass uses to decide whether an otherwise-dead assignment must still be
// kept (demoted to a bare expression statement) or can be erased outright.
// Beyond the expression's own side effects (a call, a va_arg, a volatile
// read), a store whose target is itself volatile-qualified counts too:
// the write is observable even though the value is never read again.
func HasSideEffects(s ir.Stmt) bool {
	if s.Kind == ir.StmtAssign && types.Volatile(s.Target.Type) {
		return true
	}
	return s.Expr.HasSideEffects()
}

// DeadStoreElimination drops assignments to a direct, non-field local
// with no linkage whose value is never read afterward. A store whose expression has
// side effects (a call, a va_arg) is kept for its effect but demoted from
// StmtAssign to a bare StmtExpr, discarding only the now-pointless target.
// Returns the number of statements eliminated outright.
func DeadStoreElimination(d *ir.Definition, lv *Liveness) int {
	removed := 0
	for _, b := range d.Blocks {
		i := b.Head
		for i < b.Head+b.Count {
			s := d.Statements[i]
			if !isDeadStoreCandidate(s) || lv.IsLiveAfter(b, i, s.Target.Symbol) {
				i++
				continue
			}
			if HasSideEffects(s) {
				d.Statements[i] = ir.Stmt{Kind: ir.StmtExpr, Expr: s.Expr}
				i++
				continue
			}
			d.EraseStatement(i)
			removed++
			// Do not advance: the next statement has slid into index i.
		}
	}
	return removed
}

func isDeadStoreCandidate(s ir.Stmt) bool {
	return s.Kind == ir.StmtAssign &&
		s.Target.Kind == ir.Direct &&
		s.Target.FieldWidth == 0 &&
		s.Target.Symbol != nil &&
		s.Target.Symbol.Linkage == symtab.LinkNone
}
