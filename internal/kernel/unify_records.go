package kernel

import "fmt"

// UnifyAttributes unifies two RecordAttributes values per spec §4.1's
// five record-unification cases: Attributes/Attributes,
// AttributesVariable/AttributesVariable, AttributesVariable/Attributes
// (and its mirror), and the ConcatAttributes cases, which resolve to
// one of the first three once every slot is concrete.
func (s *State) UnifyAttributes(a, b RecordAttributes, pos1, pos2 Pos) error {
	a = s.findAtts(a)
	b = s.findAtts(b)

	if ca, ok := a.(*ConcatAttributes); ok {
		if resolved, ok := ca.Resolve(); ok {
			a = resolved
		}
	}
	if cb, ok := b.(*ConcatAttributes); ok {
		if resolved, ok := cb.Resolve(); ok {
			b = resolved
		}
	}

	switch av := a.(type) {
	case *Attributes:
		switch bv := b.(type) {
		case *Attributes:
			return s.unifyAttsAtts(av, bv, pos1, pos2)
		case *AttributesVariable:
			return s.unifyVarAgainstAtts(bv, av, pos1, pos2)
		case *ConcatAttributes:
			s.bindAtts(bv.Sym, av)
			return nil
		}

	case *AttributesVariable:
		switch bv := b.(type) {
		case *Attributes:
			return s.unifyVarAgainstAtts(av, bv, pos1, pos2)
		case *AttributesVariable:
			return s.unifyVarVar(av, bv, pos1, pos2)
		case *ConcatAttributes:
			s.bindAtts(bv.Sym, av)
			return nil
		}

	case *ConcatAttributes:
		switch b.(type) {
		case *Attributes, *AttributesVariable, *ConcatAttributes:
			// Still open on both sides (or one side is an unresolved
			// concat): bind av's symbol to b so later resolution of
			// either side re-unifies the now-shared representative.
			s.bindAtts(av.Sym, b)
			return nil
		}
	}

	return &IncompatibleTypes{T1: NewRecord(a), T2: NewRecord(b), Pos1: pos1, Pos2: pos2}
}

func (s *State) unifyAttsAtts(a, b *Attributes, pos1, pos2 Pos) error {
	if len(a.Atts) != len(b.Atts) {
		return fmt.Errorf("record arity mismatch: %s vs %s", a, b)
	}
	for i := range a.Atts {
		if a.Atts[i].Idn != b.Atts[i].Idn {
			return fmt.Errorf("record attribute name mismatch at position %d: %s vs %s", i, a.Atts[i].Idn, b.Atts[i].Idn)
		}
		if err := s.Unify(a.Atts[i].Type, b.Atts[i].Type, pos1, pos2); err != nil {
			return err
		}
	}
	return nil
}

// unifyVarAgainstAtts requires every field the variable already knows
// about to exist (with a unifiable type) in the closed record, then
// binds the variable to the closed record.
func (s *State) unifyVarAgainstAtts(v *AttributesVariable, closed *Attributes, pos1, pos2 Pos) error {
	for _, vatt := range v.Atts {
		ctype, ok := closed.Lookup(vatt.Idn)
		if !ok {
			return fmt.Errorf("record %s is missing required field %q", closed, vatt.Idn)
		}
		if err := s.Unify(vatt.Type, ctype, pos1, pos2); err != nil {
			return err
		}
	}
	s.bindAtts(v.Sym, closed)
	return nil
}

// unifyVarVar merges two open attribute variables: every field known
// to either must unify, and the result variable knows the union.
func (s *State) unifyVarVar(a, b *AttributesVariable, pos1, pos2 Pos) error {
	if a.Sym.Equal(b.Sym) {
		return nil
	}
	index := map[string]int{}
	atts := make([]Att, 0, len(a.Atts)+len(b.Atts))
	for _, at := range a.Atts {
		index[at.Idn] = len(atts)
		atts = append(atts, at)
	}
	for _, at := range b.Atts {
		if i, ok := index[at.Idn]; ok {
			if err := s.Unify(atts[i].Type, at.Type, pos1, pos2); err != nil {
				return err
			}
			continue
		}
		index[at.Idn] = len(atts)
		atts = append(atts, at)
	}
	result := &AttributesVariable{Atts: atts, Sym: a.Sym}
	s.bindAtts(a.Sym, result)
	s.bindAtts(b.Sym, result)
	return nil
}
