// Package entity implements the binding layer between identifiers and
// the constructs that declare them (spec §3.4): the closed Entity sum
// type and the four environment chains the semantic analyzer threads
// through the tree while resolving every IdnDef/IdnUse.
package entity

import (
	"fmt"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

// Entity is the closed sum of spec §3.4: every identifier resolves to
// exactly one of these kinds.
type Entity interface {
	fmt.Stringer
	entityNode()
}

// VariableEntity is an ordinary let/pattern/function-parameter binding.
// Scheme is non-nil only for a Bind-introduced name that was
// generalized (spec §4.2 let-polymorphism): each use site then
// instantiates a fresh copy instead of sharing Type's unification
// state directly.
type VariableEntity struct {
	Idn    *ast.IdnDef
	Type   kernel.Type
	Scheme *kernel.Scheme
}

func (e *VariableEntity) entityNode() {}
func (e *VariableEntity) String() string {
	return fmt.Sprintf("variable(%s: %s)", e.Idn, e.Type)
}

// DataSourceEntity names a catalog-level data source.
type DataSourceEntity struct {
	Sym  string
	Type kernel.Type
}

func (e *DataSourceEntity) entityNode() {}
func (e *DataSourceEntity) String() string {
	return fmt.Sprintf("source(%s: %s)", e.Sym, e.Type)
}

// PartitionEntity is the `partition` identifier available on a
// Select.proj when the query has a GROUP BY.
type PartitionEntity struct {
	Select *ast.Select
	Type   kernel.Type
}

func (e *PartitionEntity) entityNode() {}
func (e *PartitionEntity) String() string {
	return fmt.Sprintf("partition(%s)", e.Type)
}

// StarEntity is the `*` identifier available on every Select.proj.
type StarEntity struct {
	Select *ast.Select
	Type   kernel.Type
}

func (e *StarEntity) entityNode() {}
func (e *StarEntity) String() string {
	return fmt.Sprintf("star(%s)", e.Type)
}

// GenAttributeEntity is an implicit identifier injected into the alias
// environment by an anonymous generator (`Gen(None, e)`) whose source
// is record-valued: the attribute named Attr at positional Index of
// whichever anonymous binder sourced it — a Comp qualifier (Gen) or a
// Select FROM item (From), exactly one of which is non-nil.
type GenAttributeEntity struct {
	Attr  string
	Gen   *ast.Gen
	From  *ast.FromItem
	Index int
	Type  kernel.Type
}

func (e *GenAttributeEntity) entityNode() {}
func (e *GenAttributeEntity) String() string {
	return fmt.Sprintf("gen-attribute(%s#%d: %s)", e.Attr, e.Index, e.Type)
}

// IntoAttributeEntity is the analogous implicit identifier injected by
// `Into(e1, e2)`: a field of e1's record type visible inside e2.
type IntoAttributeEntity struct {
	Attr  string
	Into  *ast.Into
	Index int
	Type  kernel.Type
}

func (e *IntoAttributeEntity) entityNode() {}
func (e *IntoAttributeEntity) String() string {
	return fmt.Sprintf("into-attribute(%s#%d: %s)", e.Attr, e.Index, e.Type)
}

// MultipleEntity marks an identifier declared more than once in a
// scope that does not permit shadowing; the duplicate is reported
// exactly once (spec §4.2 "shadowing rule").
type MultipleEntity struct {
	Name string
}

func (e *MultipleEntity) entityNode()    {}
func (e *MultipleEntity) String() string { return fmt.Sprintf("multiple(%s)", e.Name) }

// UnknownEntity is installed for an identifier that resolves to
// nothing: neither a declaration nor a catalog entry.
type UnknownEntity struct {
	Name string
}

func (e *UnknownEntity) entityNode()    {}
func (e *UnknownEntity) String() string { return fmt.Sprintf("unknown(%s)", e.Name) }
