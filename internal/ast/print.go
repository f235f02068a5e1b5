package ast

// Print renders a calculus tree deterministically. Since every node's
// String() method already produces canonical, side-table-free text
// (no pointer identity, no map iteration without sorting), Print is a
// thin named entry point kept separate from String() so call sites can
// depend on "the pretty-printer" rather than on Stringer incidentally
// being implemented.
func Print(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
