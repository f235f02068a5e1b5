package kernel

import (
	"fmt"
	"strings"

	"github.com/sunholo/queryc/internal/symbol"
)

// Type is the closed sum type of spec §3.1. Every constructor also
// implements fmt.Stringer through String(); nullability is tracked by
// a separate per-node flag rather than a wrapper type, set by the
// nullability pass (spec §4.2) after base inference succeeds.
type Type interface {
	fmt.Stringer
	typeNode()
	Nullable() bool
	SetNullable(bool) Type
}

// Primitive kinds.
type PrimKind int

const (
	TBool PrimKind = iota
	TInt
	TFloat
	TString
	TDateTime
	TInterval
	TRegex
)

func (k PrimKind) String() string {
	switch k {
	case TBool:
		return "bool"
	case TInt:
		return "int"
	case TFloat:
		return "float"
	case TString:
		return "string"
	case TDateTime:
		return "datetime"
	case TInterval:
		return "interval"
	case TRegex:
		return "regex"
	default:
		return "<unknown-prim>"
	}
}

// Primitive is a base scalar type.
type Primitive struct {
	Kind     PrimKind
	nullable bool
}

func NewPrimitive(k PrimKind) *Primitive { return &Primitive{Kind: k} }

func (t *Primitive) typeNode()         {}
func (t *Primitive) Nullable() bool    { return t.nullable }
func (t *Primitive) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *Primitive) String() string { return t.Kind.String() }

// Record wraps a RecordAttributes value (§3.1).
type Record struct {
	Atts     RecordAttributes
	nullable bool
}

func NewRecord(atts RecordAttributes) *Record { return &Record{Atts: atts} }

func (t *Record) typeNode()      {}
func (t *Record) Nullable() bool { return t.nullable }
func (t *Record) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *Record) String() string { return t.Atts.String() }

// Collection is a monoid-parameterized collection type.
type Collection struct {
	Monoid   Monoid
	Inner    Type
	nullable bool
}

func NewCollection(m Monoid, inner Type) *Collection { return &Collection{Monoid: m, Inner: inner} }

func (t *Collection) typeNode()      {}
func (t *Collection) Nullable() bool { return t.nullable }
func (t *Collection) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *Collection) String() string {
	return fmt.Sprintf("collection(%s, %s)", t.Monoid, t.Inner)
}

// Fun is a function type.
type Fun struct {
	Param    Type
	Result   Type
	nullable bool
}

func NewFun(param, result Type) *Fun { return &Fun{Param: param, Result: result} }

func (t *Fun) typeNode()      {}
func (t *Fun) Nullable() bool { return t.nullable }
func (t *Fun) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *Fun) String() string { return fmt.Sprintf("(%s) -> %s", t.Param, t.Result) }

// UserType refers into the catalog's named-type map (World.Tipes).
type UserType struct {
	Sym      symbol.Symbol
	nullable bool
}

func NewUserType(s symbol.Symbol) *UserType { return &UserType{Sym: s} }

func (t *UserType) typeNode()      {}
func (t *UserType) Nullable() bool { return t.nullable }
func (t *UserType) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *UserType) String() string { return t.Sym.String() }

// PatternType is the unlabeled product type of a destructuring function parameter.
type PatternType struct {
	Elems    []Type
	nullable bool
}

func NewPatternType(elems []Type) *PatternType { return &PatternType{Elems: elems} }

func (t *PatternType) typeNode()      {}
func (t *PatternType) Nullable() bool { return t.nullable }
func (t *PatternType) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *PatternType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TypeVariable is an unconstrained type unification variable.
type TypeVariable struct {
	Sym      symbol.Symbol
	nullable bool
}

func NewTypeVariable(s symbol.Symbol) *TypeVariable { return &TypeVariable{Sym: s} }

func (t *TypeVariable) typeNode()      {}
func (t *TypeVariable) Nullable() bool { return t.nullable }
func (t *TypeVariable) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *TypeVariable) String() string { return t.Sym.String() }

// NumberType is a variable constrained to {Int, Float}.
type NumberType struct {
	Sym      symbol.Symbol
	nullable bool
}

func NewNumberType(s symbol.Symbol) *NumberType { return &NumberType{Sym: s} }

func (t *NumberType) typeNode()      {}
func (t *NumberType) Nullable() bool { return t.nullable }
func (t *NumberType) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *NumberType) String() string { return t.Sym.String() }

// PrimitiveTypeVar is a variable constrained to {Bool, Int, Float, String}.
type PrimitiveTypeVar struct {
	Sym      symbol.Symbol
	nullable bool
}

func NewPrimitiveTypeVar(s symbol.Symbol) *PrimitiveTypeVar { return &PrimitiveTypeVar{Sym: s} }

func (t *PrimitiveTypeVar) typeNode()      {}
func (t *PrimitiveTypeVar) Nullable() bool { return t.nullable }
func (t *PrimitiveTypeVar) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *PrimitiveTypeVar) String() string { return t.Sym.String() }

// AnyType unifies with anything (§4.1), used as the best-effort
// substitution the analyzer installs after a failed unification so
// that downstream constraints can still be attempted (§7).
type AnyType struct {
	nullable bool
}

func NewAnyType() *AnyType { return &AnyType{} }

func (t *AnyType) typeNode()      {}
func (t *AnyType) Nullable() bool { return t.nullable }
func (t *AnyType) SetNullable(b bool) Type {
	n := *t
	n.nullable = b
	return &n
}
func (t *AnyType) String() string { return "any" }

// IsTypeVar reports whether t is one of the three variable forms
// (TypeVariable, NumberType, PrimitiveTypeVar).
func IsTypeVar(t Type) (symbol.Symbol, bool) {
	switch v := t.(type) {
	case *TypeVariable:
		return v.Sym, true
	case *NumberType:
		return v.Sym, true
	case *PrimitiveTypeVar:
		return v.Sym, true
	default:
		return symbol.Symbol{}, false
	}
}

// Equal performs the structural equality check of spec §3.1: two types
// are equal iff the union-find roots and structural children match.
// This version only compares raw structure: callers unify/walk first
// to resolve roots.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *Primitive:
		y, ok := b.(*Primitive)
		return ok && x.Kind == y.Kind
	case *Record:
		y, ok := b.(*Record)
		return ok && RecordAttributesEqual(x.Atts, y.Atts)
	case *Collection:
		y, ok := b.(*Collection)
		return ok && x.Monoid.Equals(y.Monoid) && Equal(x.Inner, y.Inner)
	case *Fun:
		y, ok := b.(*Fun)
		return ok && Equal(x.Param, y.Param) && Equal(x.Result, y.Result)
	case *UserType:
		y, ok := b.(*UserType)
		return ok && x.Sym.Equal(y.Sym)
	case *PatternType:
		y, ok := b.(*PatternType)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case *TypeVariable:
		y, ok := b.(*TypeVariable)
		return ok && x.Sym.Equal(y.Sym)
	case *NumberType:
		y, ok := b.(*NumberType)
		return ok && x.Sym.Equal(y.Sym)
	case *PrimitiveTypeVar:
		y, ok := b.(*PrimitiveTypeVar)
		return ok && x.Sym.Equal(y.Sym)
	case *AnyType:
		_, ok := b.(*AnyType)
		return ok
	default:
		return false
	}
}
