package kernel

import (
	"github.com/sunholo/queryc/internal/symbol"
)

// State is the union-find-backed kernel state of a single compilation
// (spec §3.5, §9): TypesVarMap, RecAttsVarMap, and the monoid graph.
// It must be constructed fresh per compile and never shared.
type State struct {
	Symbols *symbol.Table
	types   map[uint64]Type           // TypesVarMap: var ID -> bound Type (absent = free root)
	atts    map[uint64]RecordAttributes // RecAttsVarMap: var ID -> bound RecordAttributes
	Monoids *MonoidGraph
}

// NewState creates a fresh, empty kernel state.
func NewState(symbols *symbol.Table) *State {
	return &State{
		Symbols: symbols,
		types:   map[uint64]Type{},
		atts:    map[uint64]RecordAttributes{},
		Monoids: NewMonoidGraph(),
	}
}

// FreshTypeVar allocates a new, unbound TypeVariable.
func (s *State) FreshTypeVar() *TypeVariable {
	return NewTypeVariable(s.Symbols.Fresh("t"))
}

// FreshNumberVar allocates a new, unbound NumberType variable.
func (s *State) FreshNumberVar() *NumberType {
	return NewNumberType(s.Symbols.Fresh("n"))
}

// FreshPrimitiveVar allocates a new, unbound PrimitiveTypeVar variable.
func (s *State) FreshPrimitiveVar() *PrimitiveTypeVar {
	return NewPrimitiveTypeVar(s.Symbols.Fresh("p"))
}

// FreshMonoidVar allocates a new, unbound monoid variable.
func (s *State) FreshMonoidVar() Monoid {
	return Variable(s.Symbols.Fresh("m"))
}

// FreshAttVar allocates a new, unbound AttributesVariable with no
// known fields yet.
func (s *State) FreshAttVar() *AttributesVariable {
	return &AttributesVariable{Sym: s.Symbols.Fresh("r")}
}

// bindType records t1's variable as bound to t2 in the TypesVarMap.
func (s *State) bindType(sym symbol.Symbol, t Type) {
	s.types[sym.ID] = t
}

// findType resolves a type variable to its current binding, following
// the chain and compressing the path, per the union-find "find" of
// spec §4.1.
func (s *State) findType(t Type) Type {
	sym, isVar := IsTypeVar(t)
	if !isVar {
		return t
	}
	bound, ok := s.types[sym.ID]
	if !ok {
		return t
	}
	root := s.findType(bound)
	s.types[sym.ID] = root
	return root
}

// bindAtts / findAtts are the RecAttsVarMap analogues for
// AttributesVariable/ConcatAttributes symbols.
func (s *State) bindAtts(sym symbol.Symbol, a RecordAttributes) {
	s.atts[sym.ID] = a
}

func attsVarSym(a RecordAttributes) (symbol.Symbol, bool) {
	switch v := a.(type) {
	case *AttributesVariable:
		return v.Sym, true
	case *ConcatAttributes:
		return v.Sym, true
	default:
		return symbol.Symbol{}, false
	}
}

func (s *State) findAtts(a RecordAttributes) RecordAttributes {
	sym, isVar := attsVarSym(a)
	if !isVar {
		return a
	}
	bound, ok := s.atts[sym.ID]
	if !ok {
		return a
	}
	root := s.findAtts(bound)
	s.atts[sym.ID] = root
	return root
}

// Walk reconstructs the best concrete representative of t, per spec
// §4.1: prefer a user type, then any non-variable type, then a
// non-TypeVariable variable (NumberType/PrimitiveTypeVar carry more
// information than a bare TypeVariable), else the union-find root.
// Walk recurses into structural children so the whole tree is resolved.
func (s *State) Walk(t Type) Type {
	t = s.findType(t)
	switch v := t.(type) {
	case *Record:
		return NewRecord(s.walkAtts(v.Atts)).SetNullable(v.Nullable())
	case *Collection:
		return NewCollection(s.walkMonoid(v.Monoid), s.Walk(v.Inner)).SetNullable(v.Nullable())
	case *Fun:
		return NewFun(s.Walk(v.Param), s.Walk(v.Result)).SetNullable(v.Nullable())
	case *PatternType:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = s.Walk(e)
		}
		return NewPatternType(elems).SetNullable(v.Nullable())
	default:
		return t
	}
}

func (s *State) walkAtts(a RecordAttributes) RecordAttributes {
	a = s.findAtts(a)
	switch v := a.(type) {
	case *Attributes:
		atts := make([]Att, len(v.Atts))
		for i, at := range v.Atts {
			atts[i] = Att{Idn: at.Idn, Type: s.Walk(at.Type)}
		}
		return &Attributes{Atts: atts}
	case *AttributesVariable:
		atts := make([]Att, len(v.Atts))
		for i, at := range v.Atts {
			atts[i] = Att{Idn: at.Idn, Type: s.Walk(at.Type)}
		}
		return &AttributesVariable{Atts: atts, Sym: v.Sym}
	case *ConcatAttributes:
		slots := make([]ConcatSlot, len(v.Slots))
		for i, sl := range v.Slots {
			slots[i] = ConcatSlot{Prefix: sl.Prefix, Type: s.Walk(sl.Type)}
		}
		concat := &ConcatAttributes{Slots: slots, Sym: v.Sym}
		if resolved, ok := concat.Resolve(); ok {
			return resolved
		}
		return concat
	default:
		return a
	}
}

func (s *State) walkMonoid(m Monoid) Monoid {
	if !m.IsVar {
		return m
	}
	if tag, ok := s.Monoids.ResolvedTag(m.Var); ok {
		return Concrete(tag)
	}
	return m
}

// WalkIdempotent is a convenience wrapper documenting/testing spec §8
// invariant 6: Walk(Walk(t)) == Walk(t).
func (s *State) WalkIdempotent(t Type) bool {
	return Equal(s.Walk(s.Walk(t)), s.Walk(t))
}
