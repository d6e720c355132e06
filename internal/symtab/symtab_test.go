package symtab

import (
	"testing"

	"occ/internal/types"
)

func TestDeclareAndLookupNested(t *testing.T) {
	tab := NewTable(types.NewRepo())
	outer := &Symbol{Name: "x", Kind: SymVariable, Type: types.IntType, Linkage: LinkNone}
	if _, err := tab.Declare(NSIdent, outer); err != nil {
		t.Fatal(err)
	}

	tab.PushScope(NSIdent)
	inner := &Symbol{Name: "x", Kind: SymVariable, Type: types.CharType, Linkage: LinkNone}
	if _, err := tab.Declare(NSIdent, inner); err != nil {
		t.Fatal(err)
	}
	if got := tab.Lookup(NSIdent, "x"); got != inner {
		t.Error("lookup in nested scope should shadow the outer declaration")
	}
	tab.PopScope(NSIdent)

	if got := tab.Lookup(NSIdent, "x"); got != outer {
		t.Error("lookup after popping the inner scope should see the outer declaration again")
	}
}

func TestRedeclarationWithoutLinkageIsError(t *testing.T) {
	tab := NewTable(types.NewRepo())
	a := &Symbol{Name: "x", Kind: SymVariable, Type: types.IntType, Linkage: LinkNone}
	if _, err := tab.Declare(NSIdent, a); err != nil {
		t.Fatal(err)
	}
	b := &Symbol{Name: "x", Kind: SymVariable, Type: types.IntType, Linkage: LinkNone}
	if _, err := tab.Declare(NSIdent, b); err == nil {
		t.Error("expected redeclaration error for two LinkNone locals sharing a scope and name")
	}
}

func TestExternalLinkageRedeclarationMerges(t *testing.T) {
	tab := NewTable(types.NewRepo())
	decl := &Symbol{Name: "f", Kind: SymFunction, Type: types.IntType, Linkage: LinkExternal}
	if _, err := tab.Declare(NSIdent, decl); err != nil {
		t.Fatal(err)
	}
	def := &Symbol{Name: "f", Kind: SymFunction, Type: types.IntType, Linkage: LinkExternal, Defined: true}
	merged, err := tab.Declare(NSIdent, def)
	if err != nil {
		t.Fatal(err)
	}
	if !merged.Defined {
		t.Error("merged symbol should carry Defined through from the later declaration")
	}
}

func TestExternalLinkageRedeclarationWithIncompatibleTypeIsError(t *testing.T) {
	tab := NewTable(types.NewRepo())
	decl := &Symbol{Name: "f", Kind: SymFunction, Type: types.IntType, Linkage: LinkExternal}
	if _, err := tab.Declare(NSIdent, decl); err != nil {
		t.Fatal(err)
	}
	redecl := &Symbol{Name: "f", Kind: SymFunction, Type: types.CharType, Linkage: LinkExternal}
	if _, err := tab.Declare(NSIdent, redecl); err == nil {
		t.Error("expected a fatal error redeclaring 'f' with an incompatible type (int vs char)")
	}
}

func TestYieldDeclarationDrainsUndefinedExternalLinkage(t *testing.T) {
	tab := NewTable(types.NewRepo())
	decl := &Symbol{Name: "g", Kind: SymFunction, Type: types.IntType, Linkage: LinkExternal}
	if _, err := tab.Declare(NSIdent, decl); err != nil {
		t.Fatal(err)
	}
	sym := tab.YieldDeclaration()
	if sym == nil || sym.Name != "g" {
		t.Fatal("expected to yield the undefined declaration of 'g'")
	}
	if tab.YieldDeclaration() != nil {
		t.Error("expected no further pending declarations")
	}
}

func TestTagNamespaceIsIndependentOfIdentNamespace(t *testing.T) {
	tab := NewTable(types.NewRepo())
	v := &Symbol{Name: "point", Kind: SymVariable, Type: types.IntType, Linkage: LinkNone}
	if _, err := tab.Declare(NSIdent, v); err != nil {
		t.Fatal(err)
	}
	tagSym := &Symbol{Name: "point", Kind: SymTag, Linkage: LinkNone}
	if _, err := tab.Declare(NSTag, tagSym); err != nil {
		t.Fatal(err)
	}
	if tab.Lookup(NSIdent, "point") == tab.Lookup(NSTag, "point") {
		t.Error("ident and tag namespaces should not collide")
	}
}
