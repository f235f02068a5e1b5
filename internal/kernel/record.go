package kernel

import (
	"fmt"
	"strings"

	"github.com/sunholo/queryc/internal/symbol"
)

// Att is one (identifier, type) pair of an ordered attribute sequence.
type Att struct {
	Idn  string
	Type Type
}

// RecordAttributes is the closed sum of spec §3.1: Attributes,
// AttributesVariable, or ConcatAttributes.
type RecordAttributes interface {
	fmt.Stringer
	recordAttributesNode()
}

// Attributes is a closed, ordered, fixed-arity attribute sequence.
type Attributes struct {
	Atts []Att
}

func (a *Attributes) recordAttributesNode() {}
func (a *Attributes) String() string {
	parts := make([]string, len(a.Atts))
	for i, at := range a.Atts {
		parts[i] = fmt.Sprintf("%s: %s", at.Idn, at.Type)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Lookup returns the type of a named attribute.
func (a *Attributes) Lookup(idn string) (Type, bool) {
	for _, at := range a.Atts {
		if at.Idn == idn {
			return at.Type, true
		}
	}
	return nil, false
}

// AttributesVariable is an open set of known (idn, type) constraints:
// "e is any record containing at least these fields".
type AttributesVariable struct {
	Atts []Att
	Sym  symbol.Symbol
}

func (a *AttributesVariable) recordAttributesNode() {}
func (a *AttributesVariable) String() string {
	parts := make([]string, len(a.Atts))
	for i, at := range a.Atts {
		parts[i] = fmt.Sprintf("%s: %s", at.Idn, at.Type)
	}
	return fmt.Sprintf("{%s | %s}", strings.Join(parts, ", "), a.Sym)
}

func (a *AttributesVariable) Lookup(idn string) (Type, bool) {
	for _, at := range a.Atts {
		if at.Idn == idn {
			return at.Type, true
		}
	}
	return nil, false
}

// ConcatSlot is one slot of a ConcatAttributes: if Prefix is non-empty
// the slot becomes a single attribute named Prefix with type Type; if
// Prefix is empty and Type resolves to a record, the slot splices that
// record's own attributes in place (spec §3.1, §4.2 selectStarType).
type ConcatSlot struct {
	Prefix string
	Type   Type
}

// ConcatAttributes is a record whose attribute sequence is the
// concatenation of several slots, resolving to Attributes once every
// slot's type is a concrete record.
type ConcatAttributes struct {
	Slots []ConcatSlot
	Sym   symbol.Symbol
}

func (a *ConcatAttributes) recordAttributesNode() {}
func (a *ConcatAttributes) String() string {
	parts := make([]string, len(a.Slots))
	for i, s := range a.Slots {
		if s.Prefix != "" {
			parts[i] = fmt.Sprintf("%s: %s", s.Prefix, s.Type)
		} else {
			parts[i] = fmt.Sprintf("...%s", s.Type)
		}
	}
	return fmt.Sprintf("concat(%s | %s)", strings.Join(parts, ", "), a.Sym)
}

// Resolve attempts to turn a ConcatAttributes into a flat Attributes
// value once every slot is concrete, suffixing colliding names with
// _k per spec §4.2.
func (a *ConcatAttributes) Resolve() (*Attributes, bool) {
	var out []Att
	seen := map[string]int{}
	addAtt := func(name string, t Type) {
		if n, ok := seen[name]; ok {
			n++
			seen[name] = n
			name = fmt.Sprintf("%s_%d", name, n)
		} else {
			seen[name] = 0
		}
		out = append(out, Att{Idn: name, Type: t})
	}
	for _, slot := range a.Slots {
		if slot.Prefix != "" {
			addAtt(slot.Prefix, slot.Type)
			continue
		}
		rec, ok := slot.Type.(*Record)
		if !ok {
			return nil, false
		}
		atts, ok := rec.Atts.(*Attributes)
		if !ok {
			return nil, false
		}
		for _, at := range atts.Atts {
			addAtt(at.Idn, at.Type)
		}
	}
	return &Attributes{Atts: out}, true
}

// RecordAttributesEqual compares two resolved RecordAttributes values
// structurally (ConcatAttributes compare equal only once resolved).
func RecordAttributesEqual(a, b RecordAttributes) bool {
	ra, aok := asAttributes(a)
	rb, bok := asAttributes(b)
	if aok && bok {
		if len(ra.Atts) != len(rb.Atts) {
			return false
		}
		for i := range ra.Atts {
			if ra.Atts[i].Idn != rb.Atts[i].Idn || !Equal(ra.Atts[i].Type, rb.Atts[i].Type) {
				return false
			}
		}
		return true
	}
	av, aIsVar := a.(*AttributesVariable)
	bv, bIsVar := b.(*AttributesVariable)
	if aIsVar && bIsVar {
		return av.Sym.Equal(bv.Sym)
	}
	ac, aIsConcat := a.(*ConcatAttributes)
	bc, bIsConcat := b.(*ConcatAttributes)
	if aIsConcat && bIsConcat {
		return ac.Sym.Equal(bc.Sym)
	}
	return false
}

func asAttributes(r RecordAttributes) (*Attributes, bool) {
	switch v := r.(type) {
	case *Attributes:
		return v, true
	case *ConcatAttributes:
		return v.Resolve()
	default:
		return nil, false
	}
}
