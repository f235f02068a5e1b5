// Package ast defines the monoid-calculus intermediate representation:
// the node set the semantic analyzer, desugarers, normalizer, and
// unnester all consume and produce.
package ast

import "fmt"

// Pos is a source position attached to every node.
type Pos struct {
	Line   int
	Column int
	Offset int
	File   string
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a range between two positions.
type Span struct {
	Start Pos
	End   Pos
}

// Node is the base interface implemented by every calculus node.
type Node interface {
	String() string
	Position() Pos
}

// Expr is any calculus expression.
type Expr interface {
	Node
	exprNode()
}

// Pattern destructures a value bound by a Gen or Bind qualifier.
type Pattern interface {
	Node
	patternNode()
}

// PatternIdn binds the whole value to a single identifier.
type PatternIdn struct {
	Idn *IdnDef
	Pos Pos
}

func (p *PatternIdn) patternNode()  {}
func (p *PatternIdn) Position() Pos { return p.Pos }
func (p *PatternIdn) String() string {
	return p.Idn.String()
}

// PatternProd destructures a tuple-shaped value positionally.
type PatternProd struct {
	Patterns []Pattern
	Pos      Pos
}

func (p *PatternProd) patternNode()  {}
func (p *PatternProd) Position() Pos { return p.Pos }
func (p *PatternProd) String() string {
	s := "("
	for i, sub := range p.Patterns {
		if i > 0 {
			s += ", "
		}
		s += sub.String()
	}
	return s + ")"
}

// IdnDef introduces a new identifier binding.
type IdnDef struct {
	Name string
	Pos  Pos
}

func (i *IdnDef) Position() Pos  { return i.Pos }
func (i *IdnDef) String() string { return i.Name }

// IdnUse references a previously-bound identifier.
type IdnUse struct {
	Name string
	Pos  Pos
}

func (i *IdnUse) Position() Pos  { return i.Pos }
func (i *IdnUse) String() string { return i.Name }
func (i *IdnUse) exprNode()      {}

// Qualifier is one element of a comprehension's qualifier list.
type Qualifier interface {
	Node
	qualifierNode()
}

// Gen draws a fresh binding from a collection-valued expression.
// Pattern is nil for an anonymous generator (`Gen(None, e)` in spec §3.3).
type Gen struct {
	Pattern Pattern
	Src     Expr
	Pos     Pos
}

func (g *Gen) qualifierNode()  {}
func (g *Gen) Position() Pos   { return g.Pos }
func (g *Gen) String() string {
	if g.Pattern == nil {
		return fmt.Sprintf("_ <- %s", g.Src)
	}
	return fmt.Sprintf("%s <- %s", g.Pattern, g.Src)
}

// Bind names the value of an expression within the remaining qualifiers.
type Bind struct {
	Pattern Pattern
	Src     Expr
	Pos     Pos
}

func (b *Bind) qualifierNode()  {}
func (b *Bind) Position() Pos   { return b.Pos }
func (b *Bind) String() string {
	return fmt.Sprintf("%s := %s", b.Pattern, b.Src)
}

// BoolQualifier is a boolean-valued predicate qualifier.
type BoolQualifier struct {
	Exp Expr
	Pos Pos
}

func (q *BoolQualifier) qualifierNode()  {}
func (q *BoolQualifier) Position() Pos   { return q.Pos }
func (q *BoolQualifier) String() string  { return q.Exp.String() }
