// Package symbol provides the single, monotonic fresh-identifier
// source shared by the whole compiler (spec §9 "Fresh symbols"): type
// variables, monoid variables, record-attribute variables, and
// desugaring-introduced identifiers all draw from the same counter, so
// no two live symbols can collide.
package symbol

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Symbol is an interned, compile-scoped name. Two Symbols are the same
// binding iff their ID fields are equal; Name is for display only.
type Symbol struct {
	ID   uint64
	Name string
}

func (s Symbol) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("$%d", s.ID)
}

// Equal reports whether two symbols name the same binding.
func (s Symbol) Equal(o Symbol) bool { return s.ID == o.ID }

// Table is the per-compilation monotonic symbol counter. It must be
// constructed fresh for every compile (§5 "Shared resource policy");
// reusing one across compiles would let let-polymorphism snapshots
// from one compile leak into another.
type Table struct {
	counter uint64
}

// NewTable creates a fresh, empty symbol table.
func NewTable() *Table {
	return &Table{}
}

// Fresh allocates a new symbol with the given display prefix, e.g.
// Fresh("t") -> t1, Fresh("t") -> t2, ...
func (t *Table) Fresh(prefix string) Symbol {
	t.counter++
	return Symbol{ID: t.counter, Name: fmt.Sprintf("%s%d", prefix, t.counter)}
}

// Intern creates a symbol for a user-written identifier whose display
// Name is the spelling normalized to Unicode NFC. Every call allocates
// a fresh ID: two calls with the same or an equivalent spelling return
// distinct symbols, and no earlier symbol is looked up.
func (t *Table) Intern(name string) Symbol {
	t.counter++
	return Symbol{ID: t.counter, Name: Normalize(name)}
}

// Counter returns the current value of the fresh-symbol counter, for
// use as a let-polymorphism generalization watermark (any symbol ID
// allocated after a given Counter() reading was introduced since).
func (t *Table) Counter() uint64 {
	return t.counter
}

// Normalize returns the NFC-normalized form of a source identifier.
func Normalize(name string) string {
	return norm.NFC.String(name)
}
