package kernel

import "github.com/sunholo/queryc/internal/symbol"

// Snapshot is a let-polymorphism generalization watermark: the fresh-
// symbol counter value taken before a let-bound expression is
// inferred. Any variable symbol allocated after the snapshot, and
// still free in the bound expression's walked type, is eligible for
// generalization (spec §4.2, §8 invariant 5).
type Snapshot uint64

// TakeSnapshot records the current symbol counter.
func (s *State) TakeSnapshot() Snapshot {
	return Snapshot(s.Symbols.Counter())
}

// Scheme is a generalized type: a type together with the set of its
// own type/monoid/attribute variables that are free to be
// re-instantiated independently at each use site.
type Scheme struct {
	Type       Type
	TypeVars   []Type // TypeVariable/NumberType/PrimitiveTypeVar nodes, kind preserved
	MonoidVars []symbol.Symbol
	AttVars    []symbol.Symbol
}

// Generalize walks t to its current representative form and closes
// over every variable introduced since snap, producing a Scheme. Only
// variables newer than the snapshot are generalized: variables that
// escaped from an outer scope (older than the snapshot) stay
// monomorphic, since generalizing them would be unsound.
func (s *State) Generalize(snap Snapshot, t Type) *Scheme {
	walked := s.Walk(t)
	c := &varCollector{state: s, watermark: uint64(snap), seen: map[uint64]bool{}}
	c.collectType(walked)
	return &Scheme{Type: walked, TypeVars: c.typeVars, MonoidVars: c.monoidVars, AttVars: c.attVars}
}

type varCollector struct {
	state      *State
	watermark  uint64
	seen       map[uint64]bool
	typeVars   []Type
	monoidVars []symbol.Symbol
	attVars    []symbol.Symbol
}

func (c *varCollector) fresh(sym symbol.Symbol) bool {
	if sym.ID <= c.watermark || c.seen[sym.ID] {
		return false
	}
	c.seen[sym.ID] = true
	return true
}

func (c *varCollector) collectType(t Type) {
	if sym, ok := IsTypeVar(t); ok {
		if c.fresh(sym) {
			c.typeVars = append(c.typeVars, t)
		}
		return
	}
	switch v := t.(type) {
	case *Record:
		c.collectAtts(v.Atts)
	case *Collection:
		c.collectMonoid(v.Monoid)
		c.collectType(v.Inner)
	case *Fun:
		c.collectType(v.Param)
		c.collectType(v.Result)
	case *PatternType:
		for _, e := range v.Elems {
			c.collectType(e)
		}
	}
}

func (c *varCollector) collectAtts(a RecordAttributes) {
	switch v := a.(type) {
	case *Attributes:
		for _, at := range v.Atts {
			c.collectType(at.Type)
		}
	case *AttributesVariable:
		if c.fresh(v.Sym) {
			c.attVars = append(c.attVars, v.Sym)
		}
		for _, at := range v.Atts {
			c.collectType(at.Type)
		}
	case *ConcatAttributes:
		if c.fresh(v.Sym) {
			c.attVars = append(c.attVars, v.Sym)
		}
		for _, slot := range v.Slots {
			c.collectType(slot.Type)
		}
	}
}

func (c *varCollector) collectMonoid(m Monoid) {
	if m.IsVar && c.fresh(m.Var) {
		c.monoidVars = append(c.monoidVars, m.Var)
	}
}

// Instantiate produces a fresh copy of a Scheme's type with every
// generalized variable replaced by a brand-new, unbound variable of
// the same kind (spec §4.2): distinct use sites of a let-bound name
// never share unification state.
func (s *State) Instantiate(sc *Scheme) Type {
	typeSub := map[uint64]Type{}
	for _, v := range sc.TypeVars {
		sym, _ := IsTypeVar(v)
		typeSub[sym.ID] = s.freshLike(v)
	}
	monoidSub := map[uint64]Monoid{}
	for _, sym := range sc.MonoidVars {
		monoidSub[sym.ID] = s.FreshMonoidVar()
	}
	attSub := map[uint64]symbol.Symbol{}
	for _, sym := range sc.AttVars {
		attSub[sym.ID] = s.Symbols.Fresh("r")
	}
	return instType(sc.Type, typeSub, monoidSub, attSub)
}

// freshLike allocates a new variable of the same kind as v, so a
// NumberType or PrimitiveTypeVar instantiated from a scheme keeps its
// constraint rather than widening to a bare TypeVariable.
func (s *State) freshLike(v Type) Type {
	switch v.(type) {
	case *NumberType:
		return s.FreshNumberVar()
	case *PrimitiveTypeVar:
		return s.FreshPrimitiveVar()
	default:
		return s.FreshTypeVar()
	}
}

func instType(t Type, typeSub map[uint64]Type, monoidSub map[uint64]Monoid, attSub map[uint64]symbol.Symbol) Type {
	if sym, ok := IsTypeVar(t); ok {
		if fresh, ok := typeSub[sym.ID]; ok {
			return fresh.SetNullable(t.Nullable())
		}
		return t
	}
	switch v := t.(type) {
	case *Record:
		return NewRecord(instAtts(v.Atts, typeSub, monoidSub, attSub)).SetNullable(v.nullable)
	case *Collection:
		return NewCollection(instMonoid(v.Monoid, monoidSub), instType(v.Inner, typeSub, monoidSub, attSub)).SetNullable(v.nullable)
	case *Fun:
		return NewFun(instType(v.Param, typeSub, monoidSub, attSub), instType(v.Result, typeSub, monoidSub, attSub)).SetNullable(v.nullable)
	case *PatternType:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = instType(e, typeSub, monoidSub, attSub)
		}
		return NewPatternType(elems).SetNullable(v.nullable)
	default:
		return t
	}
}

func instAtts(a RecordAttributes, typeSub map[uint64]Type, monoidSub map[uint64]Monoid, attSub map[uint64]symbol.Symbol) RecordAttributes {
	switch v := a.(type) {
	case *Attributes:
		atts := make([]Att, len(v.Atts))
		for i, at := range v.Atts {
			atts[i] = Att{Idn: at.Idn, Type: instType(at.Type, typeSub, monoidSub, attSub)}
		}
		return &Attributes{Atts: atts}
	case *AttributesVariable:
		atts := make([]Att, len(v.Atts))
		for i, at := range v.Atts {
			atts[i] = Att{Idn: at.Idn, Type: instType(at.Type, typeSub, monoidSub, attSub)}
		}
		sym := v.Sym
		if fresh, ok := attSub[v.Sym.ID]; ok {
			sym = fresh
		}
		return &AttributesVariable{Atts: atts, Sym: sym}
	case *ConcatAttributes:
		slots := make([]ConcatSlot, len(v.Slots))
		for i, sl := range v.Slots {
			slots[i] = ConcatSlot{Prefix: sl.Prefix, Type: instType(sl.Type, typeSub, monoidSub, attSub)}
		}
		sym := v.Sym
		if fresh, ok := attSub[v.Sym.ID]; ok {
			sym = fresh
		}
		return &ConcatAttributes{Slots: slots, Sym: sym}
	default:
		return a
	}
}

func instMonoid(m Monoid, monoidSub map[uint64]Monoid) Monoid {
	if m.IsVar {
		if fresh, ok := monoidSub[m.Var.ID]; ok {
			return fresh
		}
	}
	return m
}
