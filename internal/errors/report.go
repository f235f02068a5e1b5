package errors

import (
	"encoding/json"
	"fmt"

	"github.com/sunholo/queryc/internal/ast"
)

// Report is the JSON-serializable error envelope returned by Compile
// (spec §6 "External interfaces", §7 "user-facing failure"). Data
// carries code-specific structured detail (e.g. the two conflicting
// types of a TC001); Fix is an optional human-readable suggestion.
type Report struct {
	Code    Code           `json:"code"`
	Phase   Phase          `json:"phase"`
	Message string         `json:"message"`
	Pos     ast.Pos        `json:"pos"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     string         `json:"fix,omitempty"`
}

// Error implements the error interface so a Report can be returned
// anywhere Go code expects one, and wrapped/unwrapped normally.
func (r *Report) Error() string {
	if r.Pos.Line != 0 || r.Pos.File != "" {
		return fmt.Sprintf("%s: %s (at %s)", r.Code, r.Message, r.Pos)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// New constructs a Report.
func New(code Code, phase Phase, pos ast.Pos, message string) *Report {
	return &Report{Code: code, Phase: phase, Pos: pos, Message: message}
}

// WithData attaches structured detail and returns the same Report for chaining.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// WithFix attaches a human-readable suggestion and returns the same Report.
func (r *Report) WithFix(fix string) *Report {
	r.Fix = fix
	return r
}

// ToJSON serializes the report deterministically.
func (r *Report) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// Internal constructs an INT001 report for a canonical-form violation
// or other compiler bug (spec §7: "these are bugs, not user errors").
func Internal(phase Phase, pos ast.Pos, message string) *Report {
	return New(CodeInternalError, phase, pos, message)
}
