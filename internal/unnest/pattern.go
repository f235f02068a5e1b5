package unnest

import "github.com/sunholo/queryc/internal/kernel"

// Pattern is the unnesting driver's bookkeeping of the tuple shape
// built so far (spec §4.5 "State"): EmptyPattern before anything is
// bound, VariablePattern once a generator introduces a name, and
// PairPattern extending a pattern with one more.
type Pattern interface {
	patternNode()
}

// EmptyPattern is the pattern with no bound variables.
type EmptyPattern struct{}

func (EmptyPattern) patternNode() {}

// Variable is one named, typed slot of a Pattern.
type Variable struct {
	Name string
	T    kernel.Type
}

// VariablePattern binds a single variable.
type VariablePattern struct {
	Var Variable
}

func (VariablePattern) patternNode() {}

// PairPattern extends Left with one more binding, Right.
type PairPattern struct {
	Left, Right Pattern
}

func (PairPattern) patternNode() {}

func isEmptyPattern(p Pattern) bool {
	_, ok := p.(EmptyPattern)
	return ok
}

// patternVariables yields a de-duplicated, left-to-right ordered
// sequence of p's bindings — the order Argument indices are computed
// against.
func patternVariables(p Pattern) []Variable {
	switch n := p.(type) {
	case EmptyPattern:
		return nil
	case VariablePattern:
		return []Variable{n.Var}
	case PairPattern:
		out := append([]Variable{}, patternVariables(n.Left)...)
		seen := make(map[string]bool, len(out))
		for _, v := range out {
			seen[v.Name] = true
		}
		for _, v := range patternVariables(n.Right) {
			if !seen[v.Name] {
				out = append(out, v)
				seen[v.Name] = true
			}
		}
		return out
	default:
		return nil
	}
}

func indexOfVar(vars []Variable, name string) (int, bool) {
	for i, v := range vars {
		if v.Name == name {
			return i, true
		}
	}
	return -1, false
}

// reducePattern strips from l the variables that already appear in r
// (spec §4.5 rule C8), used to compute a Nest's residual group row.
func reducePattern(l, r Pattern) Pattern {
	rNames := make(map[string]bool)
	for _, v := range patternVariables(r) {
		rNames[v.Name] = true
	}
	var keep []Variable
	for _, v := range patternVariables(l) {
		if !rNames[v.Name] {
			keep = append(keep, v)
		}
	}
	return buildPattern(keep)
}

func buildPattern(vars []Variable) Pattern {
	if len(vars) == 0 {
		return EmptyPattern{}
	}
	p := Pattern(VariablePattern{Var: vars[0]})
	for _, v := range vars[1:] {
		p = PairPattern{Left: p, Right: VariablePattern{Var: v}}
	}
	return p
}
