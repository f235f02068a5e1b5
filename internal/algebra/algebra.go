// Package algebra defines the target IR of the unnesting pass (spec
// §4.5): the flat relational operators Scan/Select/Join/OuterJoin/
// Unnest/OuterUnnest/Nest/Reduce over a small algebra-level expression
// language whose only variable reference is the positional Argument —
// a de Bruijn-like index into the enclosing operator's tuple shape,
// since the algebra has no named binders left.
package algebra

import (
	"fmt"

	"github.com/sunholo/queryc/internal/kernel"
)

// Expr is an algebra-level expression: a constant, an Argument
// reference, or a structural combinator over other Exprs: Argument,
// Const, BinaryOp, UnaryOp, RecordCons, RecordProj and IfThenElse.
// IdnExp is always replaced with Argument; the calculus's other value
// constructors (monoid merges/conses, MultiCons, functions) have no
// counterpart here.
type Expr interface {
	fmt.Stringer
	exprNode()
	Type() kernel.Type
}

// Argument is the positional reference spec §4.5 calls "de Bruijn-like":
// index into the pattern of the operator whose child this expression
// belongs to (patternVariables order, computed by the unnester).
type Argument struct {
	T     kernel.Type
	Index int
}

func (*Argument) exprNode()        {}
func (a *Argument) Type() kernel.Type { return a.T }
func (a *Argument) String() string  { return fmt.Sprintf("#%d", a.Index) }

// Const is a literal value carried through from the calculus AST.
type Const struct {
	T     kernel.Type
	Value interface{}
}

func (*Const) exprNode()        {}
func (c *Const) Type() kernel.Type { return c.T }
func (c *Const) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// BinaryOp is a binary operator application; Op is the printed
// spelling (String()) of the calculus AST's operator.
type BinaryOp struct {
	Op          string
	Left, Right Expr
	T           kernel.Type
}

func (*BinaryOp) exprNode()        {}
func (o *BinaryOp) Type() kernel.Type { return o.T }
func (o *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", o.Left, o.Op, o.Right)
}

// UnaryOp is a unary operator application.
type UnaryOp struct {
	Op  string
	Exp Expr
	T   kernel.Type
}

func (*UnaryOp) exprNode()        {}
func (o *UnaryOp) Type() kernel.Type { return o.T }
func (o *UnaryOp) String() string  { return fmt.Sprintf("%s %s", o.Op, o.Exp) }

// Att is one (name, value) pair of a RecordCons.
type Att struct {
	Name string
	Exp  Expr
}

// RecordCons constructs a record value out of algebra expressions.
type RecordCons struct {
	Atts []Att
	T    kernel.Type
}

func (*RecordCons) exprNode()        {}
func (r *RecordCons) Type() kernel.Type { return r.T }
func (r *RecordCons) String() string {
	s := "("
	for i, a := range r.Atts {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %s", a.Name, a.Exp)
	}
	return s + ")"
}

// RecordProj projects a single field out of a record-typed Expr.
type RecordProj struct {
	Exp  Expr
	Name string
	T    kernel.Type
}

func (*RecordProj) exprNode()        {}
func (p *RecordProj) Type() kernel.Type { return p.T }
func (p *RecordProj) String() string  { return fmt.Sprintf("%s.%s", p.Exp, p.Name) }

// IfThenElse is the conditional expression.
type IfThenElse struct {
	Cond, Then, Else Expr
	T                kernel.Type
}

func (*IfThenElse) exprNode()        {}
func (e *IfThenElse) Type() kernel.Type { return e.T }
func (e *IfThenElse) String() string {
	return fmt.Sprintf("if %s then %s else %s", e.Cond, e.Then, e.Else)
}

// Node is an algebra plan node — the output of the unnesting driver.
type Node interface {
	fmt.Stringer
	algebraNode()
	Type() kernel.Type
}

// Empty is the nullary algebra term: the base case before any
// generator has been translated, holding no rows.
type Empty struct{ T kernel.Type }

func (*Empty) algebraNode()        {}
func (e *Empty) Type() kernel.Type { return e.T }
func (e *Empty) String() string    { return "Empty" }

// Scan reads every row of a named catalog source.
type Scan struct {
	Name string
	T    kernel.Type
}

func (*Scan) algebraNode()        {}
func (s *Scan) Type() kernel.Type { return s.T }
func (s *Scan) String() string    { return fmt.Sprintf("Scan(%s)", s.Name) }

// Select filters Child's rows by Pred.
type Select struct {
	Pred  Expr
	Child Node
	T     kernel.Type
}

func (*Select) algebraNode()        {}
func (s *Select) Type() kernel.Type { return s.T }
func (s *Select) String() string    { return fmt.Sprintf("Select(%s, %s)", s.Pred, s.Child) }

// Join is an equi/theta inner join of Left and Right filtered by Pred.
type Join struct {
	Pred        Expr
	Left, Right Node
	T           kernel.Type
}

func (*Join) algebraNode()        {}
func (j *Join) Type() kernel.Type { return j.T }
func (j *Join) String() string {
	return fmt.Sprintf("Join(%s, %s, %s)", j.Pred, j.Left, j.Right)
}

// OuterJoin is Join's left-outer counterpart: unmatched Left rows
// survive with Right-side fields nulled.
type OuterJoin struct {
	Pred        Expr
	Left, Right Node
	T           kernel.Type
}

func (*OuterJoin) algebraNode()        {}
func (j *OuterJoin) Type() kernel.Type { return j.T }
func (j *OuterJoin) String() string {
	return fmt.Sprintf("OuterJoin(%s, %s, %s)", j.Pred, j.Left, j.Right)
}

// Unnest flattens Path (a collection-typed expression over Child's
// tuple) into one row per element, joined back against the predicate.
type Unnest struct {
	Path  Expr
	Pred  Expr
	Child Node
	T     kernel.Type
}

func (*Unnest) algebraNode()        {}
func (u *Unnest) Type() kernel.Type { return u.T }
func (u *Unnest) String() string {
	return fmt.Sprintf("Unnest(%s, %s, %s)", u.Path, u.Pred, u.Child)
}

// OuterUnnest is Unnest's left-outer counterpart: a Child row whose
// Path is empty still survives, with the unnested field nulled.
type OuterUnnest struct {
	Path  Expr
	Pred  Expr
	Child Node
	T     kernel.Type
}

func (*OuterUnnest) algebraNode()        {}
func (u *OuterUnnest) Type() kernel.Type { return u.T }
func (u *OuterUnnest) String() string {
	return fmt.Sprintf("OuterUnnest(%s, %s, %s)", u.Path, u.Pred, u.Child)
}

// Nest is a grouping aggregation: Child's rows are partitioned by Key,
// each group reduced over Monoid applied to Elem, with Group selecting
// the residual per-group row (spec §4.5's reducePattern(w, u)).
type Nest struct {
	Monoid kernel.Monoid
	Elem   Expr
	Key    Expr
	Pred   Expr
	Group  Expr
	Child  Node
	T      kernel.Type
}

func (*Nest) algebraNode()        {}
func (n *Nest) Type() kernel.Type { return n.T }
func (n *Nest) String() string {
	return fmt.Sprintf("Nest(%s, %s, key=%s, %s, g=%s, %s)", n.Monoid, n.Elem, n.Key, n.Pred, n.Group, n.Child)
}

// Reduce folds every row of Child matching Pred over Monoid applied to
// Elem — the unnester's ultimate base case (spec §4.5 rule C5).
type Reduce struct {
	Monoid kernel.Monoid
	Elem   Expr
	Pred   Expr
	Child  Node
	T      kernel.Type
}

func (*Reduce) algebraNode()        {}
func (r *Reduce) Type() kernel.Type { return r.T }
func (r *Reduce) String() string {
	return fmt.Sprintf("Reduce(%s, %s, %s, %s)", r.Monoid, r.Elem, r.Pred, r.Child)
}
