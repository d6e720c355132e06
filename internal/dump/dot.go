// Package dump implements the GraphViz DOT dumper: a read-only recursive
// traversal over a compiled definition's control-flow graph, emitting one
// digraph per function in a format compatible with `dot -Tpng`.
package dump

import (
	"fmt"
	"io"
	"strings"

	"occ/internal/ir"
	"occ/internal/symtab"
	"occ/internal/types"
)

const maxBufLen = 256
const numBuffers = 4

// printer holds the rotating scratch buffers operand/expression
// stringification cycles through, so nested calls (an expression printing
// two operands) never see one buffer clobber another mid-statement.
type printer struct {
	repo *types.Repo
	bufs [numBuffers]string
	next int
}

func (p *printer) buffer(s string) string {
	if len(s) > maxBufLen {
		s = s[:maxBufLen]
	}
	p.bufs[p.next] = s
	p.next = (p.next + 1) % numBuffers
	return p.bufs[(p.next-1+numBuffers)%numBuffers]
}

func sanitize(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func escape(s string) string {
	return strings.NewReplacer("\"", "\\\"", "\n", "\\n").Replace(s)
}

func symbolName(s *symtab.Symbol) string {
	if s == nil {
		return "?"
	}
	return s.Name
}

func (p *printer) vartostr(v ir.Var) string {
	switch v.Kind {
	case ir.Immediate:
		return p.buffer(fmt.Sprintf("%d", v.ImmInt))
	case ir.Direct:
		if v.IsField() {
			return p.buffer(fmt.Sprintf("%s:%d:%d", symbolName(v.Symbol), v.FieldOffset, v.FieldWidth))
		}
		return p.buffer(symbolName(v.Symbol))
	case ir.Address:
		if v.Offset != 0 {
			return p.buffer(fmt.Sprintf("&%s+%d", symbolName(v.Symbol), v.Offset))
		}
		return p.buffer(fmt.Sprintf("&%s", symbolName(v.Symbol)))
	case ir.Deref:
		if v.Offset != 0 {
			return p.buffer(fmt.Sprintf("*(%s+%d)", symbolName(v.Symbol), v.Offset))
		}
		return p.buffer(fmt.Sprintf("*%s", symbolName(v.Symbol)))
	}
	return p.buffer("?")
}

var infixOp = map[ir.Opcode]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpMul: "*", ir.OpDiv: "/", ir.OpMod: "%",
	ir.OpAnd: "&", ir.OpOr: "|", ir.OpXor: "^", ir.OpShl: "<<", ir.OpShr: ">>",
	ir.OpEq: "==", ir.OpNe: "!=", ir.OpGe: ">=", ir.OpGt: ">",
}

func (p *printer) fprintexpr(e ir.Expr) string {
	if op, ok := infixOp[e.Op]; ok {
		return fmt.Sprintf("%s %s %s", p.vartostr(e.L), op, p.vartostr(e.R))
	}
	switch e.Op {
	case ir.OpCast:
		if e.IsIdentity(p.repo) {
			return p.vartostr(e.L)
		}
		return fmt.Sprintf("(%s) %s", e.Type.Kind, p.vartostr(e.L))
	case ir.OpNot:
		return fmt.Sprintf("~%s", p.vartostr(e.L))
	case ir.OpVaArg:
		return fmt.Sprintf("va_arg(%s)", p.vartostr(e.L))
	case ir.OpCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = p.vartostr(a)
		}
		return fmt.Sprintf("%s(%s)", p.vartostr(e.L), strings.Join(args, ", "))
	}
	return "?"
}

func (p *printer) fprintstmt(s ir.Stmt) string {
	switch s.Kind {
	case ir.StmtAssign:
		return fmt.Sprintf("%s = %s", p.vartostr(s.Target), p.fprintexpr(s.Expr))
	case ir.StmtParam:
		return fmt.Sprintf("param %s", p.fprintexpr(s.Expr))
	case ir.StmtVAStart:
		return fmt.Sprintf("va_start %s", p.fprintexpr(s.Expr))
	case ir.StmtExpr:
		return p.fprintexpr(s.Expr)
	}
	return "?"
}

func blockName(d *ir.Definition, b *ir.Block) string {
	for i, bb := range d.Blocks {
		if bb == b {
			return fmt.Sprintf("block%d", i)
		}
	}
	return "block?"
}

// foutputnode writes one block's record node and recurses over its
// successors, guarded by the Black color so a block reachable by more
// than one path is only ever emitted once.
func (p *printer) foutputnode(w io.Writer, d *ir.Definition, b *ir.Block) {
	if b == nil || b.Color == ir.Black {
		return
	}
	b.Color = ir.Black

	fmt.Fprintf(w, "\t%s [shape=record label=\"{%s:|", blockName(d, b), sanitize(b.Label))
	for _, s := range b.Statements(d) {
		fmt.Fprintf(w, "%s\\l", escape(p.fprintstmt(s)))
	}
	if b.HasBranch {
		fmt.Fprintf(w, "|if (%s)\\l", escape(p.fprintexpr(b.Branch)))
	}
	if b.Returns {
		if b.ReturnValue != nil {
			fmt.Fprintf(w, "|return %s\\l", escape(p.vartostr(*b.ReturnValue)))
		} else {
			fmt.Fprintf(w, "|return\\l")
		}
	}
	fmt.Fprintf(w, "}\"]\n")

	if b.HasBranch && b.Jump[1] != nil {
		fmt.Fprintf(w, "\t%s -> %s [label=\"true\"]\n", blockName(d, b), blockName(d, b.Jump[1]))
	}
	if b.Jump[0] != nil {
		fmt.Fprintf(w, "\t%s -> %s\n", blockName(d, b), blockName(d, b.Jump[0]))
	}

	if b.HasBranch {
		p.foutputnode(w, d, b.Jump[1])
	}
	p.foutputnode(w, d, b.Jump[0])
}

// FDotGen writes one digraph for d to w: the header, every reachable
// block record and edge from d.Entry, and the closing brace. It resets the
// definition's block colors to White before walking.
func FDotGen(w io.Writer, repo *types.Repo, d *ir.Definition) {
	name := "function"
	if d.Symbol != nil {
		name = d.Symbol.Name
	}
	fmt.Fprintf(w, "digraph %s {\n", sanitize(name))
	fmt.Fprintf(w, "\tnode [fontname=\"monospace\"]\n")
	p := &printer{repo: repo}
	d.ResetColors()
	p.foutputnode(w, d, d.Entry)
	fmt.Fprintf(w, "}\n")
}
