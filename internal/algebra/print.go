package algebra

// Print renders an algebra tree deterministically, for golden-file
// comparison and diagnostics. Mirrors internal/ast.Print: every node's
// String() already produces canonical text, so Print is just a named
// entry point independent of that Stringer detail.
func Print(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
