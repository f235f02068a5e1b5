package catalog

import (
	"fmt"
	"hash/fnv"

	"github.com/sunholo/queryc/internal/kernel"
	"github.com/sunholo/queryc/internal/symbol"
)

// userTypeSymbol derives a stable symbol for a catalog-declared user
// type name: two World loads of the same catalog file must resolve
// the same UserType identity, which a compile-scoped fresh-symbol
// Table cannot guarantee (a fresh Table restarts its counter every
// compile), so catalog symbols are keyed off a hash of the name
// instead of drawn from any Table.
func userTypeSymbol(name string) symbol.Symbol {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return symbol.Symbol{ID: h.Sum64(), Name: name}
}

// typeSpec is the YAML-friendly mirror of kernel.Type: catalog files
// describe types by tag rather than by Go struct, since kernel.Type is
// a closed interface with no exported fields to unmarshal into
// directly.
type typeSpec struct {
	Kind     string              `yaml:"kind"`               // bool|int|float|string|datetime|interval|regex|record|collection|user
	Monoid   string              `yaml:"monoid,omitempty"`   // for kind: collection
	Inner    *typeSpec           `yaml:"inner,omitempty"`    // for kind: collection
	Atts     map[string]typeSpec `yaml:"attributes,omitempty"` // for kind: record
	AttOrder []string            `yaml:"attributeOrder,omitempty"`
	Name     string              `yaml:"name,omitempty"` // for kind: user
	Nullable bool                `yaml:"nullable,omitempty"`
}

var primKinds = map[string]kernel.PrimKind{
	"bool":     kernel.TBool,
	"int":      kernel.TInt,
	"float":    kernel.TFloat,
	"string":   kernel.TString,
	"datetime": kernel.TDateTime,
	"interval": kernel.TInterval,
	"regex":    kernel.TRegex,
}

var monoidTags = map[string]kernel.MonoidTag{
	"sum":      kernel.SumMonoid,
	"multiply": kernel.MultiplyMonoid,
	"max":      kernel.MaxMonoid,
	"min":      kernel.MinMonoid,
	"and":      kernel.AndMonoid,
	"or":       kernel.OrMonoid,
	"set":      kernel.SetMonoid,
	"bag":      kernel.BagMonoid,
	"list":     kernel.ListMonoid,
}

func (spec typeSpec) toType() (kernel.Type, error) {
	if pk, ok := primKinds[spec.Kind]; ok {
		return kernel.NewPrimitive(pk).SetNullable(spec.Nullable), nil
	}
	switch spec.Kind {
	case "record":
		atts, err := spec.toAttributes()
		if err != nil {
			return nil, err
		}
		return kernel.NewRecord(atts).SetNullable(spec.Nullable), nil
	case "collection":
		tag, ok := monoidTags[spec.Monoid]
		if !ok {
			return nil, fmt.Errorf("unknown monoid %q", spec.Monoid)
		}
		if spec.Inner == nil {
			return nil, fmt.Errorf("collection type missing inner type")
		}
		inner, err := spec.Inner.toType()
		if err != nil {
			return nil, err
		}
		return kernel.NewCollection(kernel.Concrete(tag), inner).SetNullable(spec.Nullable), nil
	case "user":
		if spec.Name == "" {
			return nil, fmt.Errorf("user type missing name")
		}
		// A catalog-declared user type symbol carries the name as both
		// ID tiebreaker and display form; catalog symbols are stable
		// across compiles, unlike the compiler's own fresh variables.
		return kernel.NewUserType(userTypeSymbol(spec.Name)).SetNullable(spec.Nullable), nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", spec.Kind)
	}
}

func (spec typeSpec) toAttributes() (*kernel.Attributes, error) {
	order := spec.AttOrder
	if len(order) == 0 {
		for name := range spec.Atts {
			order = append(order, name)
		}
	}
	atts := make([]kernel.Att, 0, len(order))
	for _, name := range order {
		fieldSpec, ok := spec.Atts[name]
		if !ok {
			return nil, fmt.Errorf("attributeOrder names unknown field %q", name)
		}
		t, err := fieldSpec.toType()
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		atts = append(atts, kernel.Att{Idn: name, Type: t})
	}
	return &kernel.Attributes{Atts: atts}, nil
}
