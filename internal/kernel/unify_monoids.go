package kernel

// resolveMonoid replaces a variable already pinned to a concrete tag
// (via MonoidGraph.Resolve) with that concrete Monoid, so a later
// unification/LE check against it compares concretely rather than
// merely recording another bound on an already-decided variable.
func (s *State) resolveMonoid(m Monoid) Monoid {
	if !m.IsVar {
		return m
	}
	if tag, ok := s.Monoids.ResolvedTag(m.Var); ok {
		return Concrete(tag)
	}
	return m
}

// UnifyMonoids unifies two monoid values per spec §4.1: two concrete
// tags must be identical; a variable unified with a concrete tag
// resolves to it (subject to the variable's current bounds); two
// variables merge their equivalence classes.
func (s *State) UnifyMonoids(a, b Monoid) error {
	a, b = s.resolveMonoid(a), s.resolveMonoid(b)
	if !a.IsVar && !b.IsVar {
		if a.Tag != b.Tag {
			return &MonoidError{Monoid: a.Tag, Got: b, Reason: "concrete monoids differ"}
		}
		return nil
	}
	if a.IsVar && b.IsVar {
		if a.Var.Equal(b.Var) {
			return nil
		}
		return s.Monoids.Merge(a.Var, b.Var)
	}
	if a.IsVar {
		return s.Monoids.Resolve(a.Var, b.Tag)
	}
	return s.Monoids.Resolve(b.Var, a.Tag)
}

// UnifyMonoidLE records that m1 must be no greater than m2 in the
// monoid partial order (spec §4.2's MaxOfMonoids constraint): a
// generator's collection monoid bounds the comprehension's monoid from
// below.
func (s *State) UnifyMonoidLE(m1, m2 Monoid) error {
	m1, m2 = s.resolveMonoid(m1), s.resolveMonoid(m2)
	switch {
	case !m1.IsVar && !m2.IsVar:
		if !leConcrete(m1.Tag, m2.Tag) {
			return &MonoidError{Monoid: m1.Tag, Got: m2, Reason: "violates monoid partial order"}
		}
		return nil
	case !m1.IsVar && m2.IsVar:
		return s.Monoids.AddLowerBound(m2.Var, m1)
	case m1.IsVar && !m2.IsVar:
		return s.Monoids.AddUpperBound(m1.Var, m2)
	default:
		if err := s.Monoids.AddUpperBound(m1.Var, m2); err != nil {
			return err
		}
		return s.Monoids.AddLowerBound(m2.Var, m1)
	}
}

// MaxOfMonoids resolves the least-upper-bound monoid of a set of
// generator monoids for a comprehension's result collection, per spec
// §4.2: the result monoid must be >= every generator's monoid, and is
// returned as a fresh variable with that set as lower bounds so later
// unification can still pin it to a concrete tag.
func (s *State) MaxOfMonoids(monoids []Monoid) (Monoid, error) {
	result := s.FreshMonoidVar()
	for _, m := range monoids {
		if err := s.UnifyMonoidLE(m, result); err != nil {
			return Monoid{}, err
		}
	}
	return result, nil
}
