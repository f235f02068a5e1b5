// Package errors defines the compiler's stable wire-format error
// taxonomy (spec §7, §8 scenarios 5–6): a finite set of error codes
// plus a JSON-serializable Report envelope every pass can emit into.
package errors

// Code is a stable, machine-readable error identifier. Codes never
// change meaning once shipped; new error kinds get new codes.
type Code string

const (
	// Declaration errors (entity resolution, spec §4.2 shadowing rule).
	CodeUnknownDecl  Code = "ENT001" // identifier resolves to neither a declaration nor the catalog
	CodeMultipleDecl Code = "ENT002" // identifier declared more than once in a non-shadowing scope

	// Type errors (kernel unification, spec §4.1).
	CodeIncompatibleTypes Code = "TC001"
	CodeUnexpectedType    Code = "TC002"
	CodeArityMismatch     Code = "TC003"

	// Monoid errors (spec §3.2/§4.1).
	CodeIncompatibleMonoids Code = "MON001"

	// Shape errors (spec §4.2/§4.5).
	CodeUnknownPartition   Code = "SHP001" // `partition` used outside a grouped Select.proj
	CodeStarWithoutContext Code = "SHP002" // `*` used outside a Select.proj
	CodePatternShape       Code = "SHP003" // pattern arity does not match its source's PatternType
	CodeIllegalStar        Code = "SHP004" // `*` combined with other projections without a GROUP BY

	// Syntax-of-literals errors.
	CodeBadRegexLiteral    Code = "SYN001"
	CodeBadDatetimeLiteral Code = "SYN002"

	// Internal invariants: bugs, not user errors (spec §7).
	CodeInternalError Code = "INT001"
)

// Phase names the pipeline stage a Report originated from, mirroring
// spec §2's component list.
type Phase string

const (
	PhaseAnalyzer Phase = "analyzer"
	PhaseDesugar  Phase = "desugar"
	PhaseCanon    Phase = "canon"
	PhaseUnnest   Phase = "unnest"
)
