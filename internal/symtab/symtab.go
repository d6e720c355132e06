// Package symtab implements the symbol and scope tables: stacked ordinary
// and tag namespaces over a translation unit, with linkage-aware
// declaration merging.
package symtab

import (
	"fmt"

	"occ/internal/types"
)

// SymKind classifies what a Symbol names.
type SymKind int

const (
	SymVariable SymKind = iota
	SymFunction
	SymLabel
	SymEnumConstant
	SymStringLiteral
	SymTag
	SymTypedef
)

func (k SymKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymFunction:
		return "function"
	case SymLabel:
		return "label"
	case SymEnumConstant:
		return "enum constant"
	case SymStringLiteral:
		return "string literal"
	case SymTag:
		return "tag"
	case SymTypedef:
		return "typedef"
	}
	return "?"
}

// Linkage controls whether two declarations of the same name in different
// scopes refer to the same object.
type Linkage int

const (
	LinkNone Linkage = iota
	LinkInternal
	LinkExternal
)

// StorageClass mirrors the C storage-class specifiers relevant to codegen
// and optimization (LinkNone locals are exactly what the optimizer's
// dead-store/merge passes are allowed to rewrite).
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageAuto
	StorageStatic
	StorageExternDecl
	StorageRegister
)

// Symbol is one declared name: a variable, function, label, enum constant,
// string literal, struct/union/enum tag, or typedef.
type Symbol struct {
	Name     string
	Kind     SymKind
	Type     types.Type
	Linkage  Linkage
	Storage  StorageClass
	Index    int // disambiguates same-named locals across scopes (SSA-ish numbering for codegen)
	Defined  bool
	depth    int
}

// SymbolName implements types.SymbolRef.
func (s *Symbol) SymbolName() string { return s.Name }

// Namespace selects which of C's two parallel namespaces a lookup applies
// to: ordinary identifiers (variables, functions, typedefs, enum
// constants) or tags (struct/union/enum names).
type Namespace int

const (
	NSIdent Namespace = iota
	NSTag
)

type scope struct {
	depth int
	names map[string]*Symbol
}

// Table is a translation unit's symbol table: one stack of scopes per
// namespace, plus the set of symbols awaiting a tentative-definition
// resolution at end of translation unit. repo backs the type-compatibility
// check Declare runs against a same-scope redeclaration.
type Table struct {
	repo    *types.Repo
	ident   []*scope
	tag     []*scope
	pending []*Symbol
}

// NewTable returns an empty table with the file (depth-0) scope pushed in
// both namespaces. repo is the type repository Declare consults to decide
// whether two linked redeclarations share a compatible type.
func NewTable(repo *types.Repo) *Table {
	t := &Table{repo: repo}
	t.PushScope(NSIdent)
	t.PushScope(NSTag)
	return t
}

func (t *Table) stack(ns Namespace) *[]*scope {
	if ns == NSTag {
		return &t.tag
	}
	return &t.ident
}

// PushScope opens a new nested scope in the given namespace.
func (t *Table) PushScope(ns Namespace) {
	s := t.stack(ns)
	depth := len(*s)
	*s = append(*s, &scope{depth: depth, names: make(map[string]*Symbol)})
}

// PopScope closes the innermost scope in the given namespace. Symbols
// declared in it remain reachable through any Symbol pointers already
// handed out (e.g. held by IR operands), but stop resolving through
// Lookup.
func (t *Table) PopScope(ns Namespace) {
	s := t.stack(ns)
	if len(*s) == 0 {
		panic("symtab: pop of empty scope stack")
	}
	*s = (*s)[:len(*s)-1]
}

// Declare introduces name in the innermost scope of the given namespace.
// Redeclaration in the same scope with external/internal linkage and a
// type compatible with the existing symbol is merged into the existing
// Symbol (its Defined flag is OR'd in); conflicting linkage or an
// incompatible type is a fatal redeclaration error.
func (t *Table) Declare(ns Namespace, sym *Symbol) (*Symbol, error) {
	s := t.stack(ns)
	top := (*s)[len(*s)-1]
	sym.depth = top.depth
	if existing, ok := top.names[sym.Name]; ok {
		if existing.Linkage != LinkNone && sym.Linkage != LinkNone {
			if existing.Linkage != sym.Linkage {
				return nil, fmt.Errorf("'%s' redeclared with conflicting linkage", sym.Name)
			}
			if !t.repo.Compatible(existing.Type, sym.Type) {
				return nil, fmt.Errorf("'%s' redeclared with incompatible type", sym.Name)
			}
			existing.Defined = existing.Defined || sym.Defined
			return existing, nil
		}
		return nil, fmt.Errorf("'%s' redeclared in this scope", sym.Name)
	}
	top.names[sym.Name] = sym
	if top.depth == 0 && ns == NSIdent && sym.Linkage != LinkNone && !sym.Defined {
		t.pending = append(t.pending, sym)
	}
	return sym, nil
}

// Lookup searches the scope stack from innermost to outermost and returns
// the first matching symbol, or nil.
func (t *Table) Lookup(ns Namespace, name string) *Symbol {
	s := t.stack(ns)
	for i := len(*s) - 1; i >= 0; i-- {
		if sym, ok := (*s)[i].names[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupCurrentScope only searches the innermost scope (used to detect
// redeclaration before calling Declare).
func (t *Table) LookupCurrentScope(ns Namespace, name string) *Symbol {
	s := t.stack(ns)
	top := (*s)[len(*s)-1]
	return top.names[name]
}

// YieldDeclaration drains and returns the next file-scope symbol with
// internal or external linkage that was declared but never defined, in
// declaration order, or nil once
// none remain, resolving end-of-translation-unit tentative definitions.
func (t *Table) YieldDeclaration() *Symbol {
	for len(t.pending) > 0 {
		sym := t.pending[0]
		t.pending = t.pending[1:]
		if !sym.Defined {
			return sym
		}
	}
	return nil
}
