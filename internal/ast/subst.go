package ast

// Substitute replaces every free use of name with val inside e,
// returning a new tree (e itself is left untouched, per spec §3.5
// "immutable after construction"). Every freshly allocated node is
// reported to onCopy(newNode, oldNode) before being returned, so a
// caller threading side tables keyed by node identity (types,
// entities) can copy the old node's entries forward onto the new one
// — substitution changes an expression's shape, never what it denotes
// or its type, so copying is always sound. onCopy may be nil.
//
// This is hygienic with respect to the *substituted* name (a
// construct that rebinds name shadows it for its own subtree) but
// does not rename binders to avoid capturing val's free variables,
// which is sufficient here: every desugaring/canonicalization-
// introduced identifier is drawn from the single fresh-symbol
// counter, so it can never collide with a name already live in the
// tree being rewritten.
func Substitute(e Expr, name string, val Expr, onCopy func(newE, oldE Expr)) Expr {
	cp := func(n Expr) Expr {
		if onCopy != nil {
			onCopy(n, e)
		}
		return n
	}

	switch n := e.(type) {
	case *BoolConst, *IntConst, *FloatConst, *StringConst, *Partition, *Star:
		return e

	case *IdnExp:
		if n.Idn.Name == name {
			return val
		}
		return e

	case *RecordCons:
		atts := make([]RecordAtt, len(n.Atts))
		for i, a := range n.Atts {
			atts[i] = RecordAtt{Idn: a.Idn, Exp: Substitute(a.Exp, name, val, onCopy)}
		}
		return cp(&RecordCons{Atts: atts, Pos: n.Pos})

	case *RecordProj:
		return cp(&RecordProj{Exp: Substitute(n.Exp, name, val, onCopy), Idn: n.Idn, Pos: n.Pos})

	case *IfThenElse:
		return cp(&IfThenElse{
			Cond: Substitute(n.Cond, name, val, onCopy),
			Then: Substitute(n.Then, name, val, onCopy),
			Else: Substitute(n.Else, name, val, onCopy),
			Pos:  n.Pos,
		})

	case *BinaryExp:
		return cp(&BinaryExp{Op: n.Op, Left: Substitute(n.Left, name, val, onCopy), Right: Substitute(n.Right, name, val, onCopy), Pos: n.Pos})

	case *UnaryExp:
		return cp(&UnaryExp{Op: n.Op, Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos})

	case *MergeMonoid:
		return cp(&MergeMonoid{Monoid: n.Monoid, Left: Substitute(n.Left, name, val, onCopy), Right: Substitute(n.Right, name, val, onCopy), Pos: n.Pos})

	case *ZeroCollectionMonoid:
		return e

	case *ConsCollectionMonoid:
		return cp(&ConsCollectionMonoid{Monoid: n.Monoid, Head: Substitute(n.Head, name, val, onCopy), Tail: Substitute(n.Tail, name, val, onCopy), Pos: n.Pos})

	case *MultiCons:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = Substitute(el, name, val, onCopy)
		}
		return cp(&MultiCons{Monoid: n.Monoid, Elems: elems, Pos: n.Pos})

	case *Comp:
		quals, shadowed := substQuals(n.Quals, name, val, onCopy)
		yield := n.Yield
		if !shadowed {
			yield = Substitute(n.Yield, name, val, onCopy)
		}
		return cp(&Comp{Monoid: n.Monoid, Quals: quals, Yield: yield, Pos: n.Pos})

	case *Select:
		return substSelect(n, name, val, onCopy, cp)

	case *FunAbs:
		if PatternBindsName(n.Pattern, name) {
			return e
		}
		return cp(&FunAbs{Pattern: n.Pattern, Body: Substitute(n.Body, name, val, onCopy), Pos: n.Pos})

	case *FunApp:
		return cp(&FunApp{Fun: Substitute(n.Fun, name, val, onCopy), Arg: Substitute(n.Arg, name, val, onCopy), Pos: n.Pos})

	case *ExpBlock:
		binds, shadowed := substQuals(n.Binds, name, val, onCopy)
		body := n.Exp
		if !shadowed {
			body = Substitute(n.Exp, name, val, onCopy)
		}
		return cp(&ExpBlock{Binds: binds, Exp: body, Pos: n.Pos})

	case *Into:
		return cp(&Into{E1: Substitute(n.E1, name, val, onCopy), E2: Substitute(n.E2, name, val, onCopy), Pos: n.Pos})

	case *Sum:
		return cp(&Sum{Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos})
	case *Max:
		return cp(&Max{Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos})
	case *Min:
		return cp(&Min{Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos})
	case *Avg:
		return cp(&Avg{Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos})
	case *Count:
		return cp(&Count{Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos})
	case *Exists:
		return cp(&Exists{Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos})
	case *InExp:
		return cp(&InExp{E1: Substitute(n.E1, name, val, onCopy), E2: Substitute(n.E2, name, val, onCopy), Pos: n.Pos})

	default:
		return e
	}
}

// SubstituteQualifier applies Substitute to a single qualifier's own
// sub-expression(s), for callers rewriting one qualifier of a list in
// isolation (e.g. bind-inlining's trailing qualifiers).
func SubstituteQualifier(q Qualifier, name string, val Expr, onCopy func(newE, oldE Expr)) Qualifier {
	out, _ := substQuals([]Qualifier{q}, name, val, onCopy)
	return out[0]
}

// substQuals rewrites a qualifier list left to right, stopping the
// substitution (for both the remaining qualifiers and the caller's
// trailing body) as soon as one qualifier rebinds name.
func substQuals(quals []Qualifier, name string, val Expr, onCopy func(newE, oldE Expr)) ([]Qualifier, bool) {
	out := make([]Qualifier, len(quals))
	shadowed := false
	for i, q := range quals {
		if shadowed {
			out[i] = q
			continue
		}
		switch n := q.(type) {
		case *Gen:
			out[i] = &Gen{Pattern: n.Pattern, Src: Substitute(n.Src, name, val, onCopy), Pos: n.Pos}
			if n.Pattern != nil && PatternBindsName(n.Pattern, name) {
				shadowed = true
			}
		case *Bind:
			out[i] = &Bind{Pattern: n.Pattern, Src: Substitute(n.Src, name, val, onCopy), Pos: n.Pos}
			if PatternBindsName(n.Pattern, name) {
				shadowed = true
			}
		case *BoolQualifier:
			out[i] = &BoolQualifier{Exp: Substitute(n.Exp, name, val, onCopy), Pos: n.Pos}
		default:
			out[i] = q
		}
	}
	return out, shadowed
}

func substSelect(n *Select, name string, val Expr, onCopy func(newE, oldE Expr), cp func(Expr) Expr) Expr {
	from := make([]FromItem, len(n.From))
	shadowed := false
	for i, item := range n.From {
		from[i] = FromItem{Alias: item.Alias, Src: Substitute(item.Src, name, val, onCopy)}
		if item.Alias != nil && item.Alias.Name == name {
			shadowed = true
		}
	}
	if shadowed {
		return cp(&Select{From: from, Distinct: n.Distinct, GroupBy: n.GroupBy, Proj: n.Proj, Where: n.Where, OrderBy: n.OrderBy, Having: n.Having, Pos: n.Pos})
	}
	var groupBy Expr
	if n.GroupBy != nil {
		groupBy = Substitute(n.GroupBy, name, val, onCopy)
	}
	var where Expr
	if n.Where != nil {
		where = Substitute(n.Where, name, val, onCopy)
	}
	var having Expr
	if n.Having != nil {
		having = Substitute(n.Having, name, val, onCopy)
	}
	orderBy := make([]OrderItem, len(n.OrderBy))
	for i, ob := range n.OrderBy {
		orderBy[i] = OrderItem{Exp: Substitute(ob.Exp, name, val, onCopy), Desc: ob.Desc}
	}
	return cp(&Select{
		From: from, Distinct: n.Distinct, GroupBy: groupBy, Proj: Substitute(n.Proj, name, val, onCopy),
		Where: where, OrderBy: orderBy, Having: having, Pos: n.Pos,
	})
}

// PatternBindsName reports whether p declares name anywhere in its
// (possibly nested) shape.
func PatternBindsName(p Pattern, name string) bool {
	switch pt := p.(type) {
	case *PatternIdn:
		return pt.Idn.Name == name
	case *PatternProd:
		for _, sub := range pt.Patterns {
			if PatternBindsName(sub, name) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// PatternNames returns every identifier name p declares, in left-to-right order.
func PatternNames(p Pattern) []string {
	switch pt := p.(type) {
	case *PatternIdn:
		return []string{pt.Idn.Name}
	case *PatternProd:
		var out []string
		for _, sub := range pt.Patterns {
			out = append(out, PatternNames(sub)...)
		}
		return out
	default:
		return nil
	}
}
