package parser

import (
	"testing"

	"occ/internal/diag"
	"occ/internal/ir"
	"occ/internal/symtab"
	"occ/internal/types"
)

func parseOne(t *testing.T, src string) *ir.Definition {
	t.Helper()
	repo := types.NewRepo()
	syms := symtab.NewTable(repo)
	p := New(repo, syms, diag.NewContext())
	defs, err := p.ParseTranslationUnit(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	return defs[0]
}

func TestParseSimpleFunctionReturnsDefinitionWithEntryBlock(t *testing.T) {
	def := parseOne(t, `int add(int a, int b) { return a + b; }`)
	if def.Symbol.Name != "add" {
		t.Errorf("symbol name = %q, want add", def.Symbol.Name)
	}
	if len(def.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(def.Params))
	}
	if def.Entry == nil || !def.Entry.Returns {
		t.Fatal("entry block should carry the return statement for a single-block function")
	}
}

func TestParseIfElseProducesFourBlocks(t *testing.T) {
	def := parseOne(t, `
		int max(int a, int b) {
			int r;
			if (a > b) {
				r = a;
			} else {
				r = b;
			}
			return r;
		}
	`)
	if len(def.Blocks) < 4 {
		t.Fatalf("got %d blocks, want at least 4 (entry, then, else, join)", len(def.Blocks))
	}
	var returns int
	for _, b := range def.Blocks {
		if b.Returns {
			returns++
		}
	}
	if returns != 1 {
		t.Errorf("got %d returning blocks, want 1 (the join block)", returns)
	}
}

func TestParseWhileLoopClosesBackEdge(t *testing.T) {
	def := parseOne(t, `
		int sum(int n) {
			int s;
			s = 0;
			while (n) {
				s = s + n;
				n = n - 1;
			}
			return s;
		}
	`)
	found := false
	var head *ir.Block
	for _, b := range def.Blocks {
		if b.HasBranch {
			found = true
			head = b
		}
	}
	if !found {
		t.Error("expected at least one conditional branch block for the while loop")
	} else if body := head.Jump[1]; body == nil || body.Jump[0] != head {
		t.Error("loop body does not jump back to the loop head")
	}
}

// Statements after an if must land in the join block, which was allocated
// before the branch bodies emitted anything.
func TestParseStatementAfterIfJoinsCorrectly(t *testing.T) {
	def := parseOne(t, `
		int clamp(int a) {
			if (a > 100) {
				a = 100;
			}
			a = a + 1;
			return a;
		}
	`)
	// Every statement index must belong to exactly one block window.
	owners := make([]int, len(def.Statements))
	for _, b := range def.Blocks {
		for i := b.Head; i < b.Head+b.Count; i++ {
			owners[i]++
		}
	}
	for i, n := range owners {
		if n != 1 {
			t.Errorf("statement %d owned by %d blocks, want exactly 1", i, n)
		}
	}
}

// A call must type its result temporary with the callee's declared
// return type, not a placeholder int.
func TestCallResultCarriesCalleeReturnType(t *testing.T) {
	repo := types.NewRepo()
	syms := symtab.NewTable(repo)
	p := New(repo, syms, diag.NewContext())
	defs, err := p.ParseTranslationUnit(`
		int *pick(int *p) { return p; }
		int *use(int *q) {
			int *r;
			r = pick(q);
			return r;
		}
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}

	found := false
	for _, s := range defs[1].Statements {
		if s.Kind != ir.StmtAssign || s.Expr.Op != ir.OpCall {
			continue
		}
		found = true
		if !types.IsPointer(s.Expr.Type) {
			t.Errorf("call expression type = %v, want a pointer", s.Expr.Type.Kind)
		}
		if !types.IsPointer(s.Target.Type) {
			t.Errorf("call result temporary type = %v, want a pointer", s.Target.Type.Kind)
		}
	}
	if !found {
		t.Fatal("no call statement emitted")
	}
}

func TestUndeclaredIdentifierIsError(t *testing.T) {
	repo := types.NewRepo()
	syms := symtab.NewTable(repo)
	p := New(repo, syms, diag.NewContext())
	_, err := p.ParseTranslationUnit(`int f() { return y; }`)
	if err == nil {
		t.Error("expected an error for an undeclared identifier")
	}
}
