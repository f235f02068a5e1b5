package canon

import (
	"github.com/sunholo/queryc/internal/ast"
)

// betaReduce implements spec §4.4 "beta-normalization":
// `FunApp(FunAbs(p, body), arg)` reduces by introducing a `Bind(p,
// arg)` scoping body. A PatternIdn parameter substitutes directly; any
// other pattern shape is destructured the same way desugar's pattern
// binds are (one `_k` projection per element).
func (c *Canonicalizer) betaReduce(e ast.Expr) (ast.Expr, bool) {
	app, ok := e.(*ast.FunApp)
	if !ok {
		return e, false
	}
	abs, ok := app.Fun.(*ast.FunAbs)
	if !ok {
		return e, false
	}

	if idnPat, ok := abs.Pattern.(*ast.PatternIdn); ok {
		cp := c.copyFn()
		out := ast.Substitute(abs.Body, idnPat.Idn.Name, app.Arg, cp)
		return c.setSameType(out, e), true
	}

	binds := c.destructure(abs.Pattern, app.Arg, app.Pos)
	body := abs.Body
	for i := len(binds) - 1; i >= 0; i-- {
		body = inlineOneBind(c, binds[i], body)
	}
	return c.setSameType(body, e), true
}

// destructure expands a non-trivial function parameter pattern into
// the sequence of (name, projection) binds its elements name,
// mirroring desugar's `expandPatternBind`.
func (c *Canonicalizer) destructure(p ast.Pattern, src ast.Expr, pos ast.Pos) []bind {
	pp, ok := p.(*ast.PatternProd)
	if !ok {
		idnPat, ok := p.(*ast.PatternIdn)
		if !ok {
			return nil
		}
		return []bind{{name: idnPat.Idn.Name, src: src}}
	}
	srcT := c.typeOf(src)
	var out []bind
	for i, sub := range pp.Patterns {
		field := indexField(i)
		proj := &ast.RecordProj{Exp: src, Idn: field, Pos: pos}
		c.types[proj] = projFieldType(srcT, field)
		out = append(out, c.destructure(sub, proj, pos)...)
	}
	return out
}

type bind struct {
	name string
	src  ast.Expr
}

func inlineOneBind(c *Canonicalizer, b bind, body ast.Expr) ast.Expr {
	return ast.Substitute(body, b.name, b.src, c.copyFn())
}

func indexField(i int) string {
	return "_" + itoa(i+1)
}

// inlineBind implements the other half of spec §4.4 "bind inlining":
// a `Bind(PatternIdn(x), u)` qualifier inside a comprehension's own
// qualifier list is removed, substituting `x` with `u` in every
// qualifier and the yield that follows it.
func (c *Canonicalizer) inlineBind(e ast.Expr) (ast.Expr, bool) {
	n, ok := e.(*ast.Comp)
	if !ok {
		return e, false
	}
	idx := -1
	var target *ast.Bind
	for i, q := range n.Quals {
		if b, ok := q.(*ast.Bind); ok {
			if _, ok := b.Pattern.(*ast.PatternIdn); ok {
				idx, target = i, b
				break
			}
		}
	}
	if target == nil {
		return e, false
	}
	idnPat := target.Pattern.(*ast.PatternIdn)
	cp := c.copyFn()

	rest := append([]ast.Qualifier{}, n.Quals[:idx]...)
	rest = append(rest, n.Quals[idx+1:]...)

	newQuals := make([]ast.Qualifier, len(rest))
	for i, q := range rest {
		if i < idx {
			newQuals[i] = q
			continue
		}
		newQuals[i] = ast.SubstituteQualifier(q, idnPat.Idn.Name, target.Src, cp)
	}
	newYield := ast.Substitute(n.Yield, idnPat.Idn.Name, target.Src, cp)

	return c.setSameType(&ast.Comp{Monoid: n.Monoid, Quals: newQuals, Yield: newYield, Pos: n.Pos}, e), true
}
