// Package types implements the compiler's type repository: an append-only
// interned store of type descriptors, addressed by stable handles. Every
// aggregate, pointer target, array element, and function signature is
// addressed by a Type value; basic scalar types are value-encoded without
// allocation.
package types

import "fmt"

// Kind is the tag of a Type handle.
type Kind int

const (
	Void Kind = iota
	Bool
	Char
	Short
	Int
	Long
	Float
	Double
	LongDouble
	Pointer
	Array
	Function
	Struct
	Union
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "_Bool"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case LongDouble:
		return "long double"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Function:
		return "function"
	case Struct:
		return "struct"
	case Union:
		return "union"
	}
	return "?"
}

// SymbolRef is an opaque handle to a symbol, used only for diagnostics
// (a VLA's length symbol, or a struct/union/typedef tag). The type
// repository never inspects it beyond carrying it around and printing its
// name; the symtab package's Symbol implements it.
type SymbolRef interface {
	SymbolName() string
}

// Type is a small value type: a kind tag, qualifier bits, an optional
// "pointer-of" embedded layer, and a stable reference into a Repo for
// anything that isn't a bare scalar. Two handles that are bit-identical are
// equal; the converse (structural equality) is Repo.Equal.
type Type struct {
	Kind     Kind
	Unsigned bool

	Const    bool
	Volatile bool
	Restrict bool

	// IsPointer embeds one "pointer to the described base type" layer.
	// When set, PointerConst/PointerVolatile/PointerRestrict qualify the
	// pointer itself rather than its pointee.
	IsPointer       bool
	PointerConst    bool
	PointerVolatile bool
	PointerRestrict bool

	// Ref indexes into a Repo; 0 means "no aggregate entry" (a bare
	// scalar or an embedded single-layer pointer to one).
	Ref int
}

// Basic, unallocated scalar types.
var (
	VoidType       = Type{Kind: Void}
	BoolType       = Type{Kind: Bool}
	CharType       = Type{Kind: Char}
	ShortType      = Type{Kind: Short}
	IntType        = Type{Kind: Int}
	LongType       = Type{Kind: Long}
	UCharType      = Type{Kind: Char, Unsigned: true}
	UShortType     = Type{Kind: Short, Unsigned: true}
	UIntType       = Type{Kind: Int, Unsigned: true}
	ULongType      = Type{Kind: Long, Unsigned: true}
	FloatType      = Type{Kind: Float}
	DoubleType     = Type{Kind: Double}
	LongDoubleType = Type{Kind: LongDouble}
)

// Member is a struct/union member or function parameter.
type Member struct {
	Name        string
	Type        Type
	Offset      uint64
	FieldOffset int // bit offset within the host int; 0 if not a bit-field
	FieldWidth  int // bit width; 0 means "not a bit-field"
	Sym         SymbolRef
}

func (m *Member) isField() bool { return m.FieldWidth != 0 }

// entry is the hidden full representation of a non-scalar type. Type
// values reference one of these by Ref for aggregate/array/function/inner-
// pointer types.
type entry struct {
	kind     Kind
	unsigned bool

	isVararg   bool
	isFlexible bool
	isVLA      bool

	// size is total storage size in bytes for struct/union/basic types
	// (what sizeof returns), or element count for arrays.
	size uint64

	vlen SymbolRef

	members []Member

	// next is the function return type, pointer target, array element,
	// or (for a kind==Pointer entry) the doubly-indirected base type.
	next Type

	// const/volatile/restrict qualify this entry's own pointer layer,
	// only meaningful when kind == Pointer.
	constQ, volatileQ, restrictQ bool

	tag          SymbolRef
	tagIsTypedef bool
}

// Repo is the append-only type repository for one translation unit.
// References never invalidate; entries are never reused or freed until the
// whole Repo is discarded at translation-unit teardown.
type Repo struct {
	entries []entry
}

// NewRepo returns an empty type repository.
func NewRepo() *Repo {
	return &Repo{}
}

func (r *Repo) get(ref int) *entry {
	if ref <= 0 || ref > len(r.entries) {
		panic(fmt.Sprintf("types: invalid type reference %d", ref))
	}
	return &r.entries[ref-1]
}

func (r *Repo) alloc(kind Kind) Type {
	r.entries = append(r.entries, entry{kind: kind})
	return Type{Kind: kind, Ref: len(r.entries)}
}

func removeQualifiers(t Type) Type {
	if t.IsPointer {
		t.PointerConst = false
		t.PointerVolatile = false
		t.PointerRestrict = false
	} else {
		t.Const = false
		t.Volatile = false
		t.Restrict = false
	}
	return t
}

func isConst(t Type) bool {
	if t.IsPointer {
		return t.PointerConst
	}
	return t.Const
}

func isVolatile(t Type) bool {
	if t.IsPointer {
		return t.PointerVolatile
	}
	return t.Volatile
}

func isRestrict(t Type) bool {
	if t.IsPointer {
		return t.PointerRestrict
	}
	return t.Restrict
}

// IsPointer reports whether t denotes a pointer, whether by the embedded
// bit or by kind (a repo entry one allocation deeper than a single layer).
func IsPointer(t Type) bool { return t.Kind == Pointer || t.IsPointer }

func IsArray(t Type) bool        { return t.Kind == Array }
func IsFunction(t Type) bool     { return t.Kind == Function }
func IsStruct(t Type) bool       { return t.Kind == Struct }
func IsUnion(t Type) bool        { return t.Kind == Union }
func IsStructOrUnion(t Type) bool { return t.Kind == Struct || t.Kind == Union }
func IsVoid(t Type) bool         { return t.Kind == Void && !t.IsPointer }
func IsBool(t Type) bool         { return t.Kind == Bool && !t.IsPointer }
func IsUnsigned(t Type) bool     { return t.Unsigned }
func IsFloat(t Type) bool        { return t.Kind == Float && !t.IsPointer }
func IsDouble(t Type) bool       { return t.Kind == Double && !t.IsPointer }
func IsLongDouble(t Type) bool   { return t.Kind == LongDouble && !t.IsPointer }
func IsReal(t Type) bool         { return IsFloat(t) || IsDouble(t) || IsLongDouble(t) }

func IsInteger(t Type) bool {
	if t.IsPointer {
		return false
	}
	switch t.Kind {
	case Bool, Char, Short, Int, Long:
		return true
	}
	return false
}

func IsArithmetic(t Type) bool { return IsInteger(t) || IsReal(t) }

func IsScalar(t Type) bool { return IsArithmetic(t) || IsPointer(t) }

// IsObject reports whether t can have a sizeof (everything but a bare
// function type or void).
func IsObject(t Type) bool { return !IsFunction(t) && !IsVoid(t) }

// Const/Volatile/Restrict report the qualifiers of t itself (its pointer
// layer's qualifiers, if t is a pointer).
func Const(t Type) bool    { return isConst(t) }
func Volatile(t Type) bool { return isVolatile(t) }
func Restrict(t Type) bool { return isRestrict(t) }

// MakePointer constructs "pointer to base". If base already embeds a
// pointer-of layer, a new repository entry is allocated one level deeper;
// otherwise the pointer-of bit is simply set on the value (no allocation).
func (r *Repo) MakePointer(base Type) Type {
	if base.IsPointer {
		t := r.alloc(Pointer)
		e := r.get(t.Ref)
		e.constQ = isConst(base)
		e.volatileQ = isVolatile(base)
		e.restrictQ = isRestrict(base)
		next := removeQualifiers(base)
		next.IsPointer = false
		e.next = next
		return t
	}
	base.IsPointer = true
	return base
}

// MakeArray constructs an array of count elements of elem. vlen, if
// non-nil, marks the array as variable-length with that length symbol;
// vla with a nil vlen marks it variable-length with an unspecified length
// (the '*' form in a function prototype).
func (r *Repo) MakeArray(elem Type, count uint64, vla bool, vlen SymbolRef) (Type, error) {
	if count != 0 && r.SizeOf(elem) != 0 && count > (^uint64(0)>>1)/r.SizeOf(elem) {
		return Type{}, fmt.Errorf("array is too large (%d elements)", count)
	}
	t := r.alloc(Array)
	e := r.get(t.Ref)
	e.size = count
	e.next = elem
	if vlen != nil || vla {
		e.vlen = vlen
		e.isVLA = true
	}
	return t, nil
}

// MakeFunction constructs a function type returning ret; parameters are
// added afterward with AddMember.
func (r *Repo) MakeFunction(ret Type) Type {
	t := r.alloc(Function)
	r.get(t.Ref).next = ret
	return t
}

// MakeStruct starts an empty struct; members are added with AddMember /
// AddField / AddAnonymousMember, then the type must be Sealed.
func (r *Repo) MakeStruct() Type { return r.alloc(Struct) }

// MakeUnion starts an empty union, analogous to MakeStruct.
func (r *Repo) MakeUnion() Type { return r.alloc(Union) }

// adjustMemberAlignment pads a struct's size up to align with a new
// member's alignment, and returns the resulting offset (always 0 for a
// union, which places every member at offset 0).
func (r *Repo) adjustMemberAlignment(parent, typ Type) uint64 {
	if !IsStruct(parent) {
		return 0
	}
	e := r.get(parent.Ref)
	align := r.AlignmentOf(typ)
	if align != 0 && e.size%align != 0 {
		e.size += align - (e.size % align)
	}
	return e.size
}

func (r *Repo) findMemberIndex(parent Type, name string) int {
	e := r.get(parent.Ref)
	for i := range e.members {
		if e.members[i].Name == name && name != "" {
			return i
		}
	}
	return -1
}

// addMember appends m to parent's member list, updating size/flexible/
// vararg bookkeeping. Returns a pointer into the repository's own member
// slice; callers must not retain it across another AddMember call on the
// same parent (the backing array may be reallocated).
func (r *Repo) addMember(parent Type, m Member) (*Member, error) {
	if !IsStructOrUnion(parent) && !IsFunction(parent) {
		panic("types: addMember on non-aggregate, non-function type")
	}
	if m.Name == "..." {
		e := r.get(parent.Ref)
		if e.isVararg || !IsFunction(parent) {
			panic("types: duplicate vararg marker")
		}
		e.isVararg = true
		return nil, nil
	}
	if m.Name != "" && r.findMemberIndex(parent, m.Name) >= 0 {
		return nil, fmt.Errorf("member '%s' already exists", m.Name)
	}

	e := r.get(parent.Ref)
	e.members = append(e.members, m)
	if IsStructOrUnion(parent) {
		sz := r.SizeOf(m.Type)
		if sz == 0 {
			if IsArray(m.Type) && IsStruct(parent) && !e.isFlexible {
				e.isFlexible = true
			} else {
				e.members = e.members[:len(e.members)-1]
				return nil, fmt.Errorf("member '%s' has incomplete type", m.Name)
			}
		}
		if r.IsFlexible(m.Type) {
			if IsStruct(parent) {
				e.members = e.members[:len(e.members)-1]
				return nil, fmt.Errorf("cannot add flexible struct member")
			}
			e.isFlexible = true
		}
		if m.Offset+sz < m.Offset {
			e.members = e.members[:len(e.members)-1]
			return nil, fmt.Errorf("object is too large")
		}
		if e.size < m.Offset+sz {
			e.size = m.Offset + sz
		}
	}
	return &e.members[len(e.members)-1], nil
}

// AddMember adds a named field (struct/union) or parameter (function) of
// type typ. A name of "..." marks a function variadic instead of adding a
// member.
func (r *Repo) AddMember(parent Type, name string, typ Type) (*Member, error) {
	m := Member{Name: name, Type: typ}
	if !IsFunction(parent) {
		m.Offset = r.adjustMemberAlignment(parent, typ)
	}
	return r.addMember(parent, m)
}

func (r *Repo) lastFieldMember(parent Type) *Member {
	e := r.get(parent.Ref)
	if len(e.members) == 0 {
		return nil
	}
	prev := &e.members[len(e.members)-1]
	if prev.isField() {
		return prev
	}
	return nil
}

func packField(prev *Member, m *Member) bool {
	bits := prev.FieldOffset + prev.FieldWidth
	if bits+m.FieldWidth <= 32 {
		m.Offset = prev.Offset
		m.FieldOffset = bits
		return true
	}
	return false
}

// resetFieldAlignment flushes bit-field packing to the next 32-bit
// boundary, used for an unnamed zero-width field.
func (r *Repo) resetFieldAlignment(parent Type) {
	e := r.get(parent.Ref)
	if len(e.members) == 0 {
		return
	}
	m := &e.members[len(e.members)-1]
	if m.FieldWidth != 0 {
		d := m.FieldOffset + m.FieldWidth
		if d < 32 {
			r.AddField(parent, "", IntType, uint64(32-d))
		}
	} else if e.size%4 != 0 {
		e.size += 4 - e.size%4
	}
}

// AddField adds a struct or union bit-field member of width bits. A zero-
// width unnamed field flushes alignment to the next 32-bit boundary
// instead of adding a member.
func (r *Repo) AddField(parent Type, name string, typ Type, width uint64) error {
	if width > r.SizeOf(typ)*8 || (IsBool(typ) && width > 1) {
		return fmt.Errorf("width of bit-field (%d bits) exceeds width of type %s", width, typ.Kind)
	}
	if name != "" && width == 0 {
		return fmt.Errorf("zero length field %s", name)
	}
	if IsUnion(parent) && name == "" {
		return nil
	}

	m := Member{Name: name, Type: typ, FieldWidth: int(width)}
	if IsStruct(parent) {
		if prev := r.lastFieldMember(parent); prev == nil || !packField(prev, &m) {
			m.FieldOffset = 0
			m.Offset = r.adjustMemberAlignment(parent, typ)
		}
	}

	if width == 0 {
		r.resetFieldAlignment(parent)
		return nil
	}
	_, err := r.addMember(parent, m)
	return err
}

// AddAnonymousMember merges a nested unnamed struct/union's members into
// parent, promoting them and adjusting offsets: a union nested in a struct
// adds the parent's pre-offset to every member; a struct nested in a union
// sits at offset 0, so its members keep their offsets within the struct.
func (r *Repo) AddAnonymousMember(parent, typ Type) {
	e := r.get(typ.Ref)
	if IsStruct(parent) && IsUnion(typ) {
		offset := r.adjustMemberAlignment(parent, typ)
		for _, m := range e.members {
			m.Offset += offset
			r.addMember(parent, m)
		}
	} else if IsUnion(parent) && IsStruct(typ) {
		for _, m := range e.members {
			r.addMember(parent, m)
		}
	} else {
		for _, m := range e.members {
			r.AddMember(parent, m.Name, m.Type)
		}
	}
}

// removeAnonymousFields drops padding-only unnamed bit-field members kept
// during construction, returning the largest remaining named member
// alignment.
func (r *Repo) removeAnonymousFields(parent Type) uint64 {
	e := r.get(parent.Ref)
	var maxAlign uint64
	kept := e.members[:0]
	for _, m := range e.members {
		if m.Name == "" {
			continue
		}
		kept = append(kept, m)
		if a := r.AlignmentOf(m.Type); a > maxAlign {
			maxAlign = a
		}
	}
	e.members = kept
	return maxAlign
}

// Seal removes remaining unnamed padding-only members, computes the
// maximal alignment of surviving named members, and rounds the struct or
// union's size up to that alignment. Must be called exactly once, after
// all members have been added.
func (r *Repo) Seal(parent Type) error {
	align := r.removeAnonymousFields(parent)
	if align == 0 {
		kind := "Struct"
		if IsUnion(parent) {
			kind = "Union"
		}
		return fmt.Errorf("%s has no named members", kind)
	}
	e := r.get(parent.Ref)
	if e.size%align != 0 {
		e.size += align - e.size%align
	}
	return nil
}

// SetConst, SetVolatile, and SetRestrict apply the named qualifier to t,
// respecting the pointer-of encoding (qualifying the pointer itself when
// t.IsPointer is set, or the base type otherwise).
func SetConst(t Type) Type {
	if t.IsPointer {
		t.PointerConst = true
	} else {
		t.Const = true
	}
	return t
}

func SetVolatile(t Type) Type {
	if t.IsPointer {
		t.PointerVolatile = true
	} else {
		t.Volatile = true
	}
	return t
}

// SetRestrict is a fatal construction error when t is not a pointer.
func SetRestrict(t Type) (Type, error) {
	if !IsPointer(t) {
		return t, fmt.Errorf("cannot apply 'restrict' qualifier to non-pointer type")
	}
	if t.IsPointer {
		t.PointerRestrict = true
	} else {
		t.Restrict = true
	}
	return t, nil
}

// ApplyQualifiers copies const/volatile/restrict from other onto t.
func ApplyQualifiers(t, other Type) Type {
	if isConst(other) {
		t = SetConst(t)
	}
	if isVolatile(other) {
		t = SetVolatile(t)
	}
	if r, err := SetRestrict(t); err == nil && isRestrict(other) {
		t = r
	}
	return t
}

// SetTag associates a tag or typedef symbol with a type, for diagnostics
// only. Attaching a tag is idempotent; a typedef only takes effect when no
// tag is already present.
func (r *Repo) SetTag(t Type, tag SymbolRef, isTypedef bool) {
	if t.Ref == 0 {
		return
	}
	e := r.get(t.Ref)
	if !isTypedef || e.tag == nil || e.tagIsTypedef {
		e.tag = tag
		e.tagIsTypedef = isTypedef
	}
}

func (r *Repo) Tag(t Type) SymbolRef {
	if t.Ref == 0 {
		return nil
	}
	return r.get(t.Ref).tag
}

// NMembers returns the number of members/parameters of an aggregate or
// function type.
func (r *Repo) NMembers(t Type) int { return len(r.get(t.Ref).members) }

// Member returns the n-th member/parameter of an aggregate or function
// type.
func (r *Repo) Member(t Type, n int) *Member { return &r.get(t.Ref).members[n] }

// FindMember looks up a named member by name, returning its index or -1.
func (r *Repo) FindMember(t Type, name string) (*Member, int) {
	e := r.get(t.Ref)
	for i := range e.members {
		if e.members[i].Name == name {
			return &e.members[i], i
		}
	}
	return nil, -1
}

// IsVararg reports whether a function type accepts a trailing "...".
func (r *Repo) IsVararg(t Type) bool { return r.get(t.Ref).isVararg }

// IsVLA reports whether t is, or contains as an array element, a
// variable-length array.
func (r *Repo) IsVLA(t Type) bool {
	if IsArray(t) {
		e := r.get(t.Ref)
		return e.isVLA || r.IsVLA(e.next)
	}
	return false
}

// IsFlexible reports whether t is a struct with a trailing flexible array
// member.
func (r *Repo) IsFlexible(t Type) bool {
	if IsStructOrUnion(t) {
		return r.get(t.Ref).isFlexible
	}
	return false
}

// IsVariablyModified reports whether t is a VLA, or a pointer to one.
func (r *Repo) IsVariablyModified(t Type) bool {
	switch {
	case IsPointer(t):
		return r.IsVariablyModified(r.Next(t))
	case IsArray(t):
		return r.IsVLA(t)
	default:
		return false
	}
}

func sameMembers(ma, mb []Member, r *Repo, function bool) bool {
	if len(ma) != len(mb) {
		return false
	}
	for i := range ma {
		if !r.Equal(ma[i].Type, mb[i].Type) {
			return false
		}
		if !function {
			if ma[i].Offset != mb[i].Offset || ma[i].Name != mb[i].Name {
				return false
			}
		}
	}
	return true
}

func (r *Repo) entryEqual(a, b *entry) bool {
	if a.kind != b.kind || a.size != b.size || a.unsigned != b.unsigned || a.isVararg != b.isVararg {
		return false
	}
	return sameMembers(a.members, b.members, r, a.kind == Function)
}

// Equal reports whether a and b denote the same type, disregarding
// qualifiers and function parameter names. Repository entries are compared
// by kind, size, signedness, variadic flag and member list; the return,
// element or pointee type an entry holds is not compared.
func (r *Repo) Equal(a, b Type) bool {
	bare := func(t Type) Type {
		t.Const, t.Volatile, t.Restrict = false, false, false
		t.PointerConst, t.PointerVolatile, t.PointerRestrict = false, false, false
		return t
	}
	if bare(a) == bare(b) {
		return true
	}
	if a.Kind != b.Kind || a.Unsigned != b.Unsigned || a.IsPointer != b.IsPointer {
		return false
	}
	if (a.Ref == 0) != (b.Ref == 0) {
		return false
	}
	if a.Ref != 0 && b.Ref != 0 {
		return r.entryEqual(r.get(a.Ref), r.get(b.Ref))
	}
	return true
}

// typeOf reports t's effective kind: Pointer for the value-encoded
// pointer layer as well as for a repository pointer entry, the base
// scalar/aggregate kind otherwise.
func typeOf(t Type) Kind {
	if t.IsPointer {
		return Pointer
	}
	return t.Kind
}

// Compatible reports whether a and b are compatible types, as defined by
// C's composite type rules: qualifiers must match exactly, pointees
// compare recursively, and arrays are compatible if either length is
// unspecified (0) or both lengths match.
func (r *Repo) Compatible(a, b Type) bool {
	if typeOf(a) != typeOf(b) || isConst(a) != isConst(b) || isVolatile(a) != isVolatile(b) || isRestrict(a) != isRestrict(b) {
		return false
	}
	switch {
	case IsPointer(a):
		return r.Compatible(r.Deref(a), r.Deref(b))
	case IsArray(a):
		la, lb := r.ArrayLen(a), r.ArrayLen(b)
		if la == 0 || lb == 0 || la == lb {
			return r.Compatible(r.Next(a), r.Next(b))
		}
		return false
	default:
		return r.Equal(a, b)
	}
}

// CompatibleUnqualified is Compatible after stripping top-level
// qualifiers from both sides.
func (r *Repo) CompatibleUnqualified(a, b Type) bool {
	return r.Compatible(removeQualifiers(a), removeQualifiers(b))
}

// SizeOf returns the size in bytes of t (element count for an array times
// element size; the sealed size field for a struct/union; 0 for a VLA or
// incomplete type).
func (r *Repo) SizeOf(t Type) uint64 {
	switch {
	case IsPointer(t):
		return 8
	case t.Kind == Bool, t.Kind == Char:
		return 1
	case t.Kind == Short:
		return 2
	case t.Kind == Int, t.Kind == Float:
		return 4
	case t.Kind == Long, t.Kind == Double:
		return 8
	case t.Kind == LongDouble:
		return 16
	case t.Kind == Struct, t.Kind == Union:
		return r.get(t.Ref).size
	case t.Kind == Array:
		e := r.get(t.Ref)
		return e.size * r.SizeOf(e.next)
	default:
		return 0
	}
}

// AlignmentOf returns t's alignment requirement: the element's alignment
// for an array, the maximal member alignment for an aggregate, or SizeOf
// otherwise.
func (r *Repo) AlignmentOf(t Type) uint64 {
	switch {
	case t.Kind == Array:
		return r.AlignmentOf(r.get(t.Ref).next)
	case IsStructOrUnion(t):
		var m uint64
		for _, mem := range r.get(t.Ref).members {
			if a := r.AlignmentOf(mem.Type); a > m {
				m = a
			}
		}
		return m
	default:
		return r.SizeOf(t)
	}
}

// ArrayLen returns the element count of an array type (0 for a VLA).
func (r *Repo) ArrayLen(t Type) uint64 { return r.get(t.Ref).size }

// VLALength returns the symbol holding a VLA's runtime length, or nil.
func (r *Repo) VLALength(t Type) SymbolRef { return r.get(t.Ref).vlen }

// Deref returns the pointee type of a pointer, dropping the pointer's own
// qualifiers (the pointee's own qualifiers, if any, are preserved).
func (r *Repo) Deref(t Type) Type {
	if !IsPointer(t) {
		panic("types: Deref of non-pointer type")
	}
	if t.IsPointer {
		t = removeQualifiers(t)
		t.IsPointer = false
		return t
	}
	e := r.get(t.Ref)
	next := e.next
	out := Type{
		Kind:            next.Kind,
		Unsigned:        next.Unsigned,
		Const:           next.Const,
		Volatile:        next.Volatile,
		Restrict:        next.Restrict,
		Ref:             next.Ref,
		IsPointer:       true,
		PointerConst:    e.constQ,
		PointerVolatile: e.volatileQ,
		PointerRestrict: e.restrictQ,
	}
	return out
}

// Next returns the function return type, array element type, or pointee
// of t.
func (r *Repo) Next(t Type) Type {
	switch {
	case IsPointer(t):
		return r.Deref(t)
	case IsArray(t), IsFunction(t):
		return r.get(t.Ref).next
	default:
		panic("types: Next of scalar, non-pointer type")
	}
}

// SetArrayLength fills in the element count of an array type originally
// constructed with an unspecified length (e.g. `int a[]` completed by an
// initializer).
func (r *Repo) SetArrayLength(t Type, length uint64) {
	e := r.get(t.Ref)
	if e.size != 0 {
		panic("types: array length already set")
	}
	e.size = length
}

// PatchDeclarator threads an array/function declarator's element/return
// type through a (possibly pointer-wrapping) partially built head type,
// used by the parser to attach a declared base type after parsing `* []`
// chains in a declarator.
func (r *Repo) PatchDeclarator(head, target Type) Type {
	if !IsArray(target) && !IsFunction(target) {
		panic("types: PatchDeclarator target must be array or function")
	}
	if IsVoid(head) {
		return target
	}
	if IsPointer(head) && head.IsPointer {
		next := r.Deref(head)
		next = r.PatchDeclarator(next, target)
		next = r.MakePointer(next)
		return ApplyQualifiers(next, head)
	}
	e := r.get(head.Ref)
	e.next = r.PatchDeclarator(e.next, target)
	return head
}

// PromoteInteger applies C's integer promotion: anything narrower than int
// promotes to int.
func (r *Repo) PromoteInteger(t Type) Type {
	if !IsInteger(t) {
		panic("types: PromoteInteger of non-integer type")
	}
	if r.SizeOf(t) < 4 {
		return IntType
	}
	return t
}

// UsualArithmeticConversion implements C's usual arithmetic conversions:
// long double dominates double dominates float; among promoted integers
// the wider type wins, ties broken toward unsigned.
func (r *Repo) UsualArithmeticConversion(a, b Type) Type {
	if !IsArithmetic(a) || !IsArithmetic(b) {
		panic("types: UsualArithmeticConversion of non-arithmetic type")
	}
	var res Type
	switch {
	case IsLongDouble(a) || IsLongDouble(b):
		res = LongDoubleType
	case IsDouble(a) || IsDouble(b):
		res = DoubleType
	case IsFloat(a) || IsFloat(b):
		res = FloatType
	default:
		a = r.PromoteInteger(a)
		b = r.PromoteInteger(b)
		switch {
		case r.SizeOf(a) > r.SizeOf(b):
			res = a
		case r.SizeOf(b) > r.SizeOf(a):
			res = b
		case IsUnsigned(a):
			res = a
		default:
			res = b
		}
	}
	return removeQualifiers(res)
}
