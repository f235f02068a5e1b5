// Package kernel implements the Types & Monoids kernel shared by every
// later compiler pass: the Type and Monoid algebraic data types, the
// disjoint-set forests that back unification, and the unify/walk
// operations of spec §4.1.
package kernel

import (
	"fmt"

	"github.com/sunholo/queryc/internal/symbol"
)

// MonoidTag names a concrete (non-variable) monoid.
type MonoidTag int

const (
	SumMonoid MonoidTag = iota
	MultiplyMonoid
	MaxMonoid
	MinMonoid
	AndMonoid
	OrMonoid
	SetMonoid
	BagMonoid
	ListMonoid
)

func (t MonoidTag) String() string {
	switch t {
	case SumMonoid:
		return "sum"
	case MultiplyMonoid:
		return "multiply"
	case MaxMonoid:
		return "max"
	case MinMonoid:
		return "min"
	case AndMonoid:
		return "and"
	case OrMonoid:
		return "or"
	case SetMonoid:
		return "set"
	case BagMonoid:
		return "bag"
	case ListMonoid:
		return "list"
	default:
		return "<unknown-monoid-tag>"
	}
}

// IsCollection reports whether the tag is one of the three collection
// monoids (as opposed to a primitive numeric/boolean monoid).
func (t MonoidTag) IsCollection() bool {
	return t == SetMonoid || t == BagMonoid || t == ListMonoid
}

// properties holds the (commutative, idempotent) pair of a concrete
// monoid, per spec §3.2.
type properties struct {
	commutative bool
	idempotent  bool
}

var monoidProperties = map[MonoidTag]properties{
	SumMonoid:      {commutative: true, idempotent: false},
	MultiplyMonoid: {commutative: true, idempotent: false},
	MaxMonoid:      {commutative: true, idempotent: true},
	MinMonoid:      {commutative: true, idempotent: true},
	AndMonoid:      {commutative: true, idempotent: true},
	OrMonoid:       {commutative: true, idempotent: true},
	SetMonoid:      {commutative: true, idempotent: true},
	BagMonoid:      {commutative: true, idempotent: false},
	ListMonoid:     {commutative: false, idempotent: false},
}

// Properties returns the (commutative, idempotent) pair for a concrete tag.
func Properties(t MonoidTag) (commutative, idempotent bool) {
	p := monoidProperties[t]
	return p.commutative, p.idempotent
}

// Monoid is either a concrete tag or a monoid variable whose bounds
// live in the owning State's MonoidGraph.
type Monoid struct {
	Tag   MonoidTag
	IsVar bool
	Var   symbol.Symbol
}

// Concrete constructs a concrete monoid value.
func Concrete(t MonoidTag) Monoid { return Monoid{Tag: t} }

// Variable constructs a monoid variable.
func Variable(s symbol.Symbol) Monoid { return Monoid{IsVar: true, Var: s} }

func (m Monoid) String() string {
	if m.IsVar {
		return m.Var.String()
	}
	return m.Tag.String()
}

func (m Monoid) Equals(o Monoid) bool {
	if m.IsVar != o.IsVar {
		return false
	}
	if m.IsVar {
		return m.Var.Equal(o.Var)
	}
	return m.Tag == o.Tag
}

// leConcrete is the partial order of spec §3.2/§4.1: m1 <= m2 iff m1 is no
// more commutative/idempotent than m2 on both axes (List <= Bag <= Set,
// independently for every primitive monoid, which is only ever <= itself).
func leConcrete(a, b MonoidTag) bool {
	if a == b {
		return true
	}
	pa := monoidProperties[a]
	pb := monoidProperties[b]
	if !pa.commutative && b != ListMonoid {
		// List is the unique bottom for the collection monoids; a
		// non-commutative primitive monoid only compares to itself.
		if a.IsCollection() != b.IsCollection() {
			return false
		}
	}
	if !a.IsCollection() || !b.IsCollection() {
		return false
	}
	return boolLE(pa.commutative, pb.commutative) && boolLE(pa.idempotent, pb.idempotent)
}

func boolLE(a, b bool) bool { return !a || b }

// MonoidError reports an incompatible monoid composition (§4.1 errors,
// §7 "Monoid errors").
type MonoidError struct {
	Monoid MonoidTag
	Got    Monoid
	Reason string
}

func (e *MonoidError) Error() string {
	return fmt.Sprintf("incompatible monoid: %s cannot compose with %s: %s", e.Monoid, e.Got, e.Reason)
}
