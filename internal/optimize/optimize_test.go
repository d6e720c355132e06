package optimize

import (
	"testing"

	"occ/internal/ir"
	"occ/internal/symtab"
	"occ/internal/types"
)

func local(name string) *symtab.Symbol {
	return &symtab.Symbol{Name: name, Kind: symtab.SymVariable, Type: types.IntType, Linkage: symtab.LinkNone}
}

func direct(s *symtab.Symbol) ir.Var { return ir.Var{Kind: ir.Direct, Type: types.IntType, Symbol: s} }
func imm(n int64) ir.Var             { return ir.Var{Kind: ir.Immediate, Type: types.IntType, ImmInt: n} }

// "t = a + b; x = t;" with t never used again should fuse into "x = a + b;".
func TestMergeChainedAssignment(t *testing.T) {
	repo := types.NewRepo()
	def := &ir.Definition{}
	b := def.NewBlock()
	def.Entry = b

	a, bb, tmp, x := local("a"), local("b"), local(".t1"), local("x")
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(tmp), Expr: ir.Expr{Op: ir.OpAdd, Type: types.IntType, L: direct(a), R: direct(bb)}})
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(x), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: direct(tmp)}})
	ir.SetReturn(b, nil)

	lv := ComputeLiveness(def)
	removed := MergeChainedAssignment(repo, def, lv)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(def.Statements) != 1 {
		t.Fatalf("len(Statements) = %d, want 1", len(def.Statements))
	}
	got := def.Statements[0]
	if !got.Target.Equal(direct(x)) {
		t.Errorf("fused target = %+v, want x", got.Target)
	}
	if got.Expr.Op != ir.OpAdd {
		t.Errorf("fused expr op = %v, want OpAdd", got.Expr.Op)
	}
}

// The merge must NOT fire when the intermediate is still read afterward.
func TestMergeDeclinesWhenIntermediateStillLive(t *testing.T) {
	repo := types.NewRepo()
	def := &ir.Definition{}
	b := def.NewBlock()
	def.Entry = b

	tmp, x := local(".t1"), local("x")
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(tmp), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: imm(1)}})
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(x), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: direct(tmp)}})
	retVal := direct(tmp)
	ir.SetReturn(b, &retVal)

	lv := ComputeLiveness(def)
	removed := MergeChainedAssignment(repo, def, lv)
	if removed != 0 {
		t.Fatalf("removed = %d, want 0 (tmp is still live in the return)", removed)
	}
}

// A dead store with no side effects should be erased outright.
func TestDeadStoreElimination(t *testing.T) {
	def := &ir.Definition{}
	b := def.NewBlock()
	def.Entry = b

	dead, x := local("dead"), local("x")
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(dead), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: imm(42)}})
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(x), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: imm(1)}})
	retVal := direct(x)
	ir.SetReturn(b, &retVal)

	lv := ComputeLiveness(def)
	removed := DeadStoreElimination(def, lv)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	for _, s := range def.Statements {
		if s.Target.Symbol == dead {
			t.Error("dead store to 'dead' should have been erased")
		}
	}
}

// A dead store whose expression has a side effect (a call) must be kept,
// demoted to a bare expression statement rather than erased.
func TestDeadStoreWithSideEffectIsDemotedNotErased(t *testing.T) {
	def := &ir.Definition{}
	b := def.NewBlock()
	def.Entry = b

	dead, fn := local("dead"), local("f")
	callExpr := ir.Expr{Op: ir.OpCall, Type: types.IntType, L: direct(fn)}
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(dead), Expr: callExpr})
	ir.SetReturn(b, nil)

	lv := ComputeLiveness(def)
	removed := DeadStoreElimination(def, lv)
	if removed != 0 {
		t.Fatalf("removed = %d, want 0 (call must be kept for its side effect)", removed)
	}
	if len(def.Statements) != 1 {
		t.Fatalf("len(Statements) = %d, want 1", len(def.Statements))
	}
	if def.Statements[0].Kind != ir.StmtExpr {
		t.Errorf("kind = %v, want StmtExpr (demoted, not erased)", def.Statements[0].Kind)
	}
}

// A dead store to a volatile local must be kept for its observable write,
// demoted to a bare expression statement rather than erased, even though
// the stored expression itself (a plain immediate) has no side effects.
func TestDeadStoreToVolatileIsDemotedNotErased(t *testing.T) {
	def := &ir.Definition{}
	b := def.NewBlock()
	def.Entry = b

	vol := &symtab.Symbol{Name: "flag", Kind: symtab.SymVariable, Type: types.SetVolatile(types.IntType), Linkage: symtab.LinkNone}
	target := ir.Var{Kind: ir.Direct, Type: vol.Type, Symbol: vol}
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: target, Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: imm(1)}})
	ir.SetReturn(b, nil)

	lv := ComputeLiveness(def)
	removed := DeadStoreElimination(def, lv)
	if removed != 0 {
		t.Fatalf("removed = %d, want 0 (volatile store must be kept for its observable write)", removed)
	}
	if len(def.Statements) != 1 {
		t.Fatalf("len(Statements) = %d, want 1", len(def.Statements))
	}
	if def.Statements[0].Kind != ir.StmtExpr {
		t.Errorf("kind = %v, want StmtExpr (demoted, not erased)", def.Statements[0].Kind)
	}
}

func TestRunFixedPointChainsMergeAndDCE(t *testing.T) {
	repo := types.NewRepo()
	def := &ir.Definition{}
	b := def.NewBlock()
	def.Entry = b

	a, t1, t2, x := local("a"), local(".t1"), local(".t2"), local("x")
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(t1), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: direct(a)}})
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(t2), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: direct(t1)}})
	def.Emit(b, ir.Stmt{Kind: ir.StmtAssign, Target: direct(x), Expr: ir.Expr{Op: ir.OpCast, Type: types.IntType, L: direct(t2)}})
	ir.SetReturn(b, nil)

	Run(repo, def, O1)

	if len(def.Statements) != 0 {
		t.Fatalf("len(Statements) = %d, want 0: chain collapses to 'x = a;' then is a dead store since x is never read", len(def.Statements))
	}
}
