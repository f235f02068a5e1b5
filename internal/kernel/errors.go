package kernel

import "fmt"

// IncompatibleMonoids reports that a monoid used in a MergeMonoid,
// ZeroCollectionMonoid, or ConsCollectionMonoid expression is
// incompatible with the collection type it targets (spec §4.1, §6).
type IncompatibleMonoids struct {
	Monoid         MonoidTag
	CollectionType Type
	Pos            Pos
}

func (e *IncompatibleMonoids) Error() string {
	return fmt.Sprintf("monoid %s at %s is incompatible with collection type %s", e.Monoid, e.Pos, e.CollectionType)
}

// NewIncompatibleMonoids constructs an IncompatibleMonoids error.
func NewIncompatibleMonoids(m MonoidTag, collType Type, pos Pos) error {
	return &IncompatibleMonoids{Monoid: m, CollectionType: collType, Pos: pos}
}

// NewIncompatibleTypes constructs an IncompatibleTypes error.
func NewIncompatibleTypes(t1, t2 Type, pos1, pos2 Pos) error {
	return &IncompatibleTypes{T1: t1, T2: t2, Pos1: pos1, Pos2: pos2}
}

// NewUnexpectedType constructs an UnexpectedType error.
func NewUnexpectedType(got, expected Type, desc string, pos Pos) error {
	return &UnexpectedType{Got: got, Expected: expected, Desc: desc, Pos: pos}
}
