package parser

import (
	"fmt"

	"occ/internal/diag"
	"occ/internal/ir"
	"occ/internal/symtab"
	"occ/internal/types"
)

// Parser drives a token stream directly into internal/types,
// internal/symtab, and internal/ir construction calls: there is no
// separate AST stage, matching a single-pass, recursive-descent-straight-
// to-IR frontend.
type Parser struct {
	lex *lexer
	tok token

	repo *types.Repo
	syms *symtab.Table
	ctx  *diag.Context

	def      *ir.Definition
	block    *ir.Block
	tmpIndex int
}

// New returns a parser sharing repo, syms, and ctx with the rest of the
// translation unit's pipeline.
func New(repo *types.Repo, syms *symtab.Table, ctx *diag.Context) *Parser {
	return &Parser{repo: repo, syms: syms, ctx: ctx}
}

func (p *Parser) advance() { p.tok = p.lex.next() }

func (p *Parser) at(text string) bool {
	return (p.tok.kind == tokPunct || p.tok.kind == tokIdent) && p.tok.text == text
}

func (p *Parser) expect(text string) error {
	if !p.at(text) {
		return p.lex.errorAt(p.tok.pos, "expected '%s', found '%s'", text, p.tok.text)
	}
	p.advance()
	return nil
}

// ParseTranslationUnit parses every top-level function definition in src
// and returns the resulting IR definitions in source order.
func (p *Parser) ParseTranslationUnit(src string) ([]*ir.Definition, error) {
	p.lex = newLexer(src)
	p.advance()

	var defs []*ir.Definition
	for p.tok.kind != tokEOF {
		def, err := p.parseFunctionDefinition()
		if err != nil {
			return defs, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// parseTypeSpecifier parses a base type keyword followed by zero or more
// '*' pointer declarators: `int`, `char`, `void`, or a previously declared
// struct tag (`struct Name`), each optionally wrapped in pointers.
func (p *Parser) parseTypeSpecifier() (types.Type, error) {
	var base types.Type
	switch {
	case p.at("int"):
		base = types.IntType
		p.advance()
	case p.at("char"):
		base = types.CharType
		p.advance()
	case p.at("void"):
		base = types.VoidType
		p.advance()
	case p.at("struct"):
		p.advance()
		if p.tok.kind != tokIdent {
			return types.Type{}, p.lex.errorAt(p.tok.pos, "expected struct tag name")
		}
		name := p.tok.text
		p.advance()
		sym := p.syms.Lookup(symtab.NSTag, name)
		if sym == nil {
			return types.Type{}, p.lex.errorAt(p.tok.pos, "undeclared struct tag '%s'", name)
		}
		base = sym.Type
	default:
		return types.Type{}, p.lex.errorAt(p.tok.pos, "expected a type, found '%s'", p.tok.text)
	}
	for p.at("*") {
		p.advance()
		base = p.repo.MakePointer(base)
	}
	return base, nil
}

func (p *Parser) parseFunctionDefinition() (*ir.Definition, error) {
	retType, err := p.parseTypeSpecifier()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokIdent {
		return nil, p.lex.errorAt(p.tok.pos, "expected function name")
	}
	name := p.tok.text
	p.advance()

	fnType := p.repo.MakeFunction(retType)
	if err := p.expect("("); err != nil {
		return nil, err
	}

	fnSym := &symtab.Symbol{Name: name, Kind: symtab.SymFunction, Type: fnType, Linkage: symtab.LinkExternal, Defined: true}
	if _, err := p.syms.Declare(symtab.NSIdent, fnSym); err != nil {
		return nil, err
	}

	p.syms.PushScope(symtab.NSIdent)
	p.syms.PushScope(symtab.NSTag)
	defer p.syms.PopScope(symtab.NSIdent)
	defer p.syms.PopScope(symtab.NSTag)

	def := &ir.Definition{Symbol: fnSym}
	p.def = def
	p.tmpIndex = 0

	for !p.at(")") {
		pt, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		pname := ""
		if p.tok.kind == tokIdent {
			pname = p.tok.text
			p.advance()
		}
		psym := &symtab.Symbol{Name: pname, Kind: symtab.SymVariable, Type: pt, Linkage: symtab.LinkNone, Storage: symtab.StorageAuto, Defined: true}
		if pname != "" {
			if _, err := p.syms.Declare(symtab.NSIdent, psym); err != nil {
				return nil, err
			}
		}
		if _, err := p.repo.AddMember(fnType, pname, pt); err != nil {
			return nil, p.ctx.Fatal("types", err)
		}
		def.Params = append(def.Params, psym)
		if p.at(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	def.Entry = def.NewBlock()
	def.Entry.Label = "entry"
	p.block = def.Entry

	if err := p.parseBlock(); err != nil {
		return nil, err
	}
	if p.block != nil && !p.block.Returns {
		// Control can fall off the end of the body; give it an implicit
		// bare return.
		ir.SetReturn(p.block, nil)
	}
	return def, nil
}

func (p *Parser) newTemp(t types.Type) *symtab.Symbol {
	p.tmpIndex++
	sym := &symtab.Symbol{Name: fmt.Sprintf(".t%d", p.tmpIndex), Kind: symtab.SymVariable, Type: t, Linkage: symtab.LinkNone, Storage: symtab.StorageAuto, Defined: true}
	p.def.Locals = append(p.def.Locals, sym)
	return sym
}

func directOf(sym *symtab.Symbol) ir.Var {
	return ir.Var{Kind: ir.Direct, Type: sym.Type, Symbol: sym}
}

// emitAssign emits "target = expr;" into the current block.
func (p *Parser) emitAssign(target ir.Var, e ir.Expr) {
	p.def.Emit(p.block, ir.Stmt{Kind: ir.StmtAssign, Target: target, Expr: e})
}

// emitToTemp evaluates e into a freshly allocated temporary and returns a
// Direct read of it, the same "every intermediate value gets its own
// assignment" shape a straightforward single-pass codegen produces —
// exactly the raw material the merge-chained-assignment optimizer pass
// is meant to clean up.
func (p *Parser) emitToTemp(e ir.Expr) ir.Var {
	tmp := p.newTemp(e.Type)
	target := directOf(tmp)
	p.emitAssign(target, e)
	return target
}

func (p *Parser) parseBlock() error {
	if err := p.expect("{"); err != nil {
		return err
	}
	for !p.at("}") {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return p.expect("}")
}

func (p *Parser) parseStatement() error {
	switch {
	case p.at("{"):
		return p.parseBlock()
	case p.at("if"):
		return p.parseIf()
	case p.at("while"):
		return p.parseWhile()
	case p.at("return"):
		return p.parseReturn()
	case p.at("int"), p.at("char"), p.at("struct"):
		return p.parseDeclaration()
	default:
		// An expression statement's effects (assignments, calls routed
		// through temporaries) are already emitted while parsing the
		// expression itself; the resulting value is simply dropped. A
		// dead temporary holding a call result is what dead-store
		// elimination later demotes to a bare expression statement.
		if _, err := p.parseExpression(); err != nil {
			return err
		}
		return p.expect(";")
	}
}

func (p *Parser) parseDeclaration() error {
	t, err := p.parseTypeSpecifier()
	if err != nil {
		return err
	}
	if p.tok.kind != tokIdent {
		return p.lex.errorAt(p.tok.pos, "expected variable name")
	}
	name := p.tok.text
	p.advance()

	sym := &symtab.Symbol{Name: name, Kind: symtab.SymVariable, Type: t, Linkage: symtab.LinkNone, Storage: symtab.StorageAuto, Defined: true}
	if _, err := p.syms.Declare(symtab.NSIdent, sym); err != nil {
		return err
	}
	p.def.Locals = append(p.def.Locals, sym)

	if p.at("=") {
		p.advance()
		rhs, err := p.parseExpression()
		if err != nil {
			return err
		}
		if !p.repo.Equal(rhs.Type, t) && types.IsArithmetic(rhs.Type) && types.IsArithmetic(t) {
			p.ctx.Warnf("parser", "implicit conversion from %s to %s initializing '%s'", rhs.Type.Kind, t.Kind, name)
		}
		p.emitAssign(directOf(sym), ir.Expr{Op: ir.OpCast, Type: t, L: rhs})
	}
	return p.expect(";")
}

func (p *Parser) parseIf() error {
	p.advance()
	if err := p.expect("("); err != nil {
		return err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return err
	}
	if err := p.expect(")"); err != nil {
		return err
	}

	thenBlock := p.def.NewBlock()
	joinBlock := p.def.NewBlock()
	branchBlock := p.block
	elseBlock := joinBlock

	if err := p.withBlock(thenBlock, p.parseStatement); err != nil {
		return err
	}
	thenEnd := p.block

	if p.at("else") {
		p.advance()
		elseBlockReal := p.def.NewBlock()
		elseBlock = elseBlockReal
		if err := p.withBlock(elseBlockReal, p.parseStatement); err != nil {
			return err
		}
		elseEnd := p.block
		if elseEnd != nil && !elseEnd.Returns {
			ir.SetJump(elseEnd, joinBlock)
		}
	}

	ir.SetBranch(branchBlock, ir.Expr{Op: ir.OpNe, Type: types.IntType, L: cond, R: ir.Var{Kind: ir.Immediate, Type: cond.Type}}, thenBlock, elseBlock)
	if thenEnd != nil && !thenEnd.Returns {
		ir.SetJump(thenEnd, joinBlock)
	}
	p.block = joinBlock
	return nil
}

func (p *Parser) parseWhile() error {
	p.advance()
	if err := p.expect("("); err != nil {
		return err
	}

	headBlock := p.def.NewBlock()
	ir.SetJump(p.block, headBlock)
	p.block = headBlock

	cond, err := p.parseExpression()
	if err != nil {
		return err
	}
	if err := p.expect(")"); err != nil {
		return err
	}

	bodyBlock := p.def.NewBlock()
	exitBlock := p.def.NewBlock()
	ir.SetBranch(headBlock, ir.Expr{Op: ir.OpNe, Type: types.IntType, L: cond, R: ir.Var{Kind: ir.Immediate, Type: cond.Type}}, bodyBlock, exitBlock)

	if err := p.withBlock(bodyBlock, p.parseStatement); err != nil {
		return err
	}
	if p.block != nil && !p.block.Returns {
		ir.SetJump(p.block, headBlock)
	}
	p.block = exitBlock
	return nil
}

// withBlock parses one statement (or compound statement) with b as the
// current emission target, leaving p.block wherever control ended up so
// the caller can wire the fall-through edge.
func (p *Parser) withBlock(b *ir.Block, fn func() error) error {
	p.block = b
	return fn()
}

func (p *Parser) parseReturn() error {
	p.advance()
	if p.at(";") {
		p.advance()
		ir.SetReturn(p.block, nil)
		return nil
	}
	e, err := p.parseExpression()
	if err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	ir.SetReturn(p.block, &e)
	return nil
}

// parseExpression parses an assignment-or-lower expression: `ident = expr`
// or a fall-through to the precedence-climbing binary grammar.
func (p *Parser) parseExpression() (ir.Var, error) {
	if p.tok.kind == tokIdent {
		save := *p.lex
		saveTok := p.tok
		name := p.tok.text
		p.advance()
		if p.at("=") {
			sym := p.syms.Lookup(symtab.NSIdent, name)
			if sym == nil {
				return ir.Var{}, p.lex.errorAt(p.tok.pos, "undeclared identifier '%s'", name)
			}
			p.advance()
			rhs, err := p.parseExpression()
			if err != nil {
				return ir.Var{}, err
			}
			target := directOf(sym)
			p.emitAssign(target, ir.Expr{Op: ir.OpCast, Type: sym.Type, L: rhs})
			return target, nil
		}
		*p.lex = save
		p.tok = saveTok
	}
	return p.parseBinary(0)
}

type binOpInfo struct {
	op   ir.Opcode
	prec int
}

var binOps = map[string]binOpInfo{
	"||": {ir.OpOr, 1}, "&&": {ir.OpAnd, 2},
	"|": {ir.OpOr, 3}, "^": {ir.OpXor, 4}, "&": {ir.OpAnd, 5},
	"==": {ir.OpEq, 6}, "!=": {ir.OpNe, 6},
	"<": {ir.OpGt, 7}, ">": {ir.OpGt, 7}, "<=": {ir.OpGe, 7}, ">=": {ir.OpGe, 7},
	"<<": {ir.OpShl, 8}, ">>": {ir.OpShr, 8},
	"+": {ir.OpAdd, 9}, "-": {ir.OpSub, 9},
	"*": {ir.OpMul, 10}, "/": {ir.OpDiv, 10}, "%": {ir.OpMod, 10},
}

func (p *Parser) parseBinary(minPrec int) (ir.Var, error) {
	left, err := p.parseUnary()
	if err != nil {
		return ir.Var{}, err
	}
	for {
		info, ok := binOps[p.tok.text]
		if !ok || p.tok.kind != tokPunct || info.prec < minPrec {
			return left, nil
		}
		opTok := p.tok.text
		p.advance()
		right, err := p.parseBinary(info.prec + 1)
		if err != nil {
			return ir.Var{}, err
		}
		// '<' and '<=' are encoded via the modeled GT/GE with swapped
		// operands, since the IR only names EQ/NE/GE/GT.
		op := info.op
		l, r := left, right
		if opTok == "<" {
			op, l, r = ir.OpGt, right, left
		} else if opTok == "<=" {
			op, l, r = ir.OpGe, right, left
		}
		resultType := left.Type
		if types.IsArithmetic(left.Type) && types.IsArithmetic(right.Type) {
			resultType = p.repo.UsualArithmeticConversion(left.Type, right.Type)
		}
		left = p.emitToTemp(ir.Expr{Op: op, Type: resultType, L: l, R: r})
	}
}

func (p *Parser) parseUnary() (ir.Var, error) {
	switch {
	case p.at("-"):
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ir.Var{}, err
		}
		zero := ir.Var{Kind: ir.Immediate, Type: v.Type}
		return p.emitToTemp(ir.Expr{Op: ir.OpSub, Type: v.Type, L: zero, R: v}), nil
	case p.at("!"):
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ir.Var{}, err
		}
		zero := ir.Var{Kind: ir.Immediate, Type: v.Type}
		return p.emitToTemp(ir.Expr{Op: ir.OpEq, Type: types.IntType, L: v, R: zero}), nil
	case p.at("~"):
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ir.Var{}, err
		}
		return p.emitToTemp(ir.Expr{Op: ir.OpNot, Type: v.Type, L: v}), nil
	case p.at("&"):
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ir.Var{}, err
		}
		if v.Kind != ir.Direct {
			return ir.Var{}, p.lex.errorAt(p.tok.pos, "cannot take address of non-lvalue")
		}
		ptrType := p.repo.MakePointer(v.Type)
		return ir.Var{Kind: ir.Address, Type: ptrType, Symbol: v.Symbol, Offset: v.Offset}, nil
	case p.at("*"):
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ir.Var{}, err
		}
		if !types.IsPointer(v.Type) {
			return ir.Var{}, p.lex.errorAt(p.tok.pos, "cannot dereference non-pointer")
		}
		return ir.Var{Kind: ir.Deref, Type: p.repo.Deref(v.Type), Symbol: v.Symbol, Offset: v.Offset}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ir.Var, error) {
	v, err := p.parsePrimary()
	if err != nil {
		return ir.Var{}, err
	}
	for p.at("(") {
		p.advance()
		var args []ir.Var
		for !p.at(")") {
			a, err := p.parseExpression()
			if err != nil {
				return ir.Var{}, err
			}
			args = append(args, a)
			if p.at(",") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expect(")"); err != nil {
			return ir.Var{}, err
		}
		// The callee's declared return type; a call through an undeclared
		// or non-function operand defaults to int.
		retType := types.IntType
		switch {
		case types.IsPointer(v.Type) && types.IsFunction(p.repo.Deref(v.Type)):
			retType = p.repo.Next(p.repo.Deref(v.Type))
		case types.IsFunction(v.Type):
			retType = p.repo.Next(v.Type)
		}
		v = p.emitToTemp(ir.Expr{Op: ir.OpCall, Type: retType, L: v, Args: args})
	}
	return v, nil
}

func (p *Parser) parsePrimary() (ir.Var, error) {
	switch {
	case p.tok.kind == tokInt:
		v := ir.Var{Kind: ir.Immediate, Type: types.IntType, ImmInt: p.tok.ival}
		p.advance()
		return v, nil
	case p.tok.kind == tokIdent:
		name := p.tok.text
		p.advance()
		sym := p.syms.Lookup(symtab.NSIdent, name)
		if sym == nil {
			return ir.Var{}, p.lex.errorAt(p.tok.pos, "undeclared identifier '%s'", name)
		}
		return directOf(sym), nil
	case p.at("("):
		p.advance()
		v, err := p.parseExpression()
		if err != nil {
			return ir.Var{}, err
		}
		return v, p.expect(")")
	default:
		return ir.Var{}, p.lex.errorAt(p.tok.pos, "expected an expression, found '%s'", p.tok.text)
	}
}
