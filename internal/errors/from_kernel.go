package errors

import (
	"fmt"

	"github.com/sunholo/queryc/internal/ast"
	"github.com/sunholo/queryc/internal/kernel"
)

// FromUnifyError converts a kernel unification error (returned by
// State.Unify/UnifyAttributes/UnifyMonoids) into a wire Report, the
// seam between the kernel's plain Go errors and the analyzer's
// accumulated error list (spec §7 "propagation policy").
func FromUnifyError(err error, phase Phase, pos ast.Pos) *Report {
	switch e := err.(type) {
	case *kernel.IncompatibleTypes:
		return New(CodeIncompatibleTypes, phase, pos, e.Error()).
			WithData("t1", e.T1.String()).
			WithData("t2", e.T2.String())
	case *kernel.UnexpectedType:
		return New(CodeUnexpectedType, phase, pos, e.Error()).
			WithData("got", e.Got.String()).
			WithData("expected", e.Expected.String())
	case *kernel.IncompatibleMonoids:
		return New(CodeIncompatibleMonoids, phase, pos, e.Error()).
			WithData("monoid", e.Monoid.String()).
			WithData("collectionType", e.CollectionType.String())
	case *kernel.MonoidError:
		return New(CodeIncompatibleMonoids, phase, pos, e.Error())
	default:
		return New(CodeInternalError, phase, pos, fmt.Sprintf("unrecognized kernel error: %v", err))
	}
}
