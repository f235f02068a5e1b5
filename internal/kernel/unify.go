package kernel

import (
	"fmt"

	"github.com/sunholo/queryc/internal/symbol"
)

// Pos is a minimal source-position shim so kernel errors can carry
// positions without importing the ast package (which does not depend
// on kernel, avoiding an import cycle). Callers pass ast.Pos values in
// through this interface boundary by stringifying them.
type Pos = string

// IncompatibleTypes is raised when two concrete types cannot be unified.
type IncompatibleTypes struct {
	T1, T2     Type
	Pos1, Pos2 Pos
}

func (e *IncompatibleTypes) Error() string {
	return fmt.Sprintf("incompatible types: %s (at %s) vs %s (at %s)", e.T1, e.Pos1, e.T2, e.Pos2)
}

// UnexpectedType is raised when a type doesn't match what a
// construct's position requires (e.g. the scrutinee of a pattern, or
// a desc-labeled expected type).
type UnexpectedType struct {
	Got, Expected Type
	Desc          string
	Pos           Pos
}

func (e *UnexpectedType) Error() string {
	return fmt.Sprintf("unexpected type at %s: got %s, expected %s (%s)", e.Pos, e.Got, e.Expected, e.Desc)
}

// Unify attempts to unify t1 and t2 in place, returning an error if
// they are incompatible. It implements the contract of spec §4.1.
func (s *State) Unify(t1, t2 Type, pos1, pos2 Pos) error {
	t1 = s.findType(t1)
	t2 = s.findType(t2)

	if _, ok := t1.(*AnyType); ok {
		return nil
	}
	if _, ok := t2.(*AnyType); ok {
		return nil
	}

	if sym1, ok1 := IsTypeVar(t1); ok1 {
		if sym2, ok2 := IsTypeVar(t2); ok2 && sym1.Equal(sym2) {
			return nil
		}
		return s.unifyVar(t1, sym1, t2, pos1, pos2)
	}
	if sym2, ok2 := IsTypeVar(t2); ok2 {
		return s.unifyVar(t2, sym2, t1, pos2, pos1)
	}

	switch a := t1.(type) {
	case *Primitive:
		b, ok := t2.(*Primitive)
		if !ok || a.Kind != b.Kind {
			return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
		}
		return nil

	case *UserType:
		b, ok := t2.(*UserType)
		if !ok || !a.Sym.Equal(b.Sym) {
			return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
		}
		return nil

	case *Fun:
		b, ok := t2.(*Fun)
		if !ok {
			return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
		}
		if err := s.Unify(a.Param, b.Param, pos1, pos2); err != nil {
			return err
		}
		return s.Unify(a.Result, b.Result, pos1, pos2)

	case *PatternType:
		b, ok := t2.(*PatternType)
		if !ok || len(a.Elems) != len(b.Elems) {
			return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
		}
		for i := range a.Elems {
			if err := s.Unify(a.Elems[i], b.Elems[i], pos1, pos2); err != nil {
				return err
			}
		}
		return nil

	case *Collection:
		b, ok := t2.(*Collection)
		if !ok {
			return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
		}
		if err := s.UnifyMonoids(a.Monoid, b.Monoid); err != nil {
			return err
		}
		return s.Unify(a.Inner, b.Inner, pos1, pos2)

	case *Record:
		b, ok := t2.(*Record)
		if !ok {
			return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
		}
		return s.UnifyAttributes(a.Atts, b.Atts, pos1, pos2)

	default:
		return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
	}
}

func (s *State) unifyVar(varType Type, sym symbol.Symbol, other Type, pos1, pos2 Pos) error {
	if s.occurs(sym, other) {
		return &IncompatibleTypes{T1: varType, T2: other, Pos1: pos1, Pos2: pos2}
	}
	if otherSym, ok := IsTypeVar(other); ok {
		// Two variables: bind one to the other, keeping a constrained
		// variable (NumberType/PrimitiveTypeVar) as the representative
		// over a bare TypeVariable so Walk never loses the constraint.
		if !s.compatibleVarKinds(varType, other) {
			return &IncompatibleTypes{T1: varType, T2: other, Pos1: pos1, Pos2: pos2}
		}
		_, varBare := varType.(*TypeVariable)
		if _, otherBare := other.(*TypeVariable); otherBare && !varBare {
			s.bindType(otherSym, varType)
			return nil
		}
		s.bindType(sym, other)
		return nil
	}
	if !s.varAccepts(varType, other) {
		return &IncompatibleTypes{T1: varType, T2: other, Pos1: pos1, Pos2: pos2}
	}
	s.bindType(sym, other)
	return nil
}

// varAccepts implements the constrained-variable rules of §4.1:
// NumberType unifies with itself, Int, or Float; PrimitiveTypeVar with
// itself, Bool, Int, Float, or String; a bare TypeVariable accepts anything.
func (s *State) varAccepts(varType, concrete Type) bool {
	switch varType.(type) {
	case *TypeVariable:
		return true
	case *NumberType:
		p, ok := concrete.(*Primitive)
		return ok && (p.Kind == TInt || p.Kind == TFloat)
	case *PrimitiveTypeVar:
		p, ok := concrete.(*Primitive)
		return ok && (p.Kind == TBool || p.Kind == TInt || p.Kind == TFloat || p.Kind == TString)
	default:
		return false
	}
}

func (s *State) compatibleVarKinds(a, b Type) bool {
	rank := func(t Type) int {
		switch t.(type) {
		case *TypeVariable:
			return 0
		case *NumberType:
			return 1
		case *PrimitiveTypeVar:
			return 1
		default:
			return 2
		}
	}
	// A bare TypeVariable is compatible with any other variable kind;
	// two constrained variables of different specific kinds are not
	// (NumberType and PrimitiveTypeVar denote different bounds).
	ra, rb := rank(a), rank(b)
	if ra == 0 || rb == 0 {
		return true
	}
	return sameVarKind(a, b)
}

func sameVarKind(a, b Type) bool {
	switch a.(type) {
	case *NumberType:
		_, ok := b.(*NumberType)
		return ok
	case *PrimitiveTypeVar:
		_, ok := b.(*PrimitiveTypeVar)
		return ok
	default:
		return false
	}
}

// occurs performs the occurs check of spec §4.1, using a visited set
// to terminate on recursive UserType expansions rather than recursing
// through the catalog (cyclic UserType references are handled
// separately by the catalog-aware occurs check in the analyzer).
func (s *State) occurs(sym symbol.Symbol, t Type) bool {
	t = s.findType(t)
	if vs, ok := IsTypeVar(t); ok {
		return vs.Equal(sym)
	}
	switch v := t.(type) {
	case *Collection:
		return s.occurs(sym, v.Inner)
	case *Fun:
		return s.occurs(sym, v.Param) || s.occurs(sym, v.Result)
	case *PatternType:
		for _, e := range v.Elems {
			if s.occurs(sym, e) {
				return true
			}
		}
		return false
	case *Record:
		return s.occursAtts(sym, v.Atts)
	default:
		return false
	}
}

func (s *State) occursAtts(sym symbol.Symbol, a RecordAttributes) bool {
	a = s.findAtts(a)
	switch v := a.(type) {
	case *Attributes:
		for _, at := range v.Atts {
			if s.occurs(sym, at.Type) {
				return true
			}
		}
		return false
	case *AttributesVariable:
		for _, at := range v.Atts {
			if s.occurs(sym, at.Type) {
				return true
			}
		}
		return false
	case *ConcatAttributes:
		for _, sl := range v.Slots {
			if s.occurs(sym, sl.Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
