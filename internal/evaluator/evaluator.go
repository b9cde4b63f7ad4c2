// Package evaluator defines the interpreter capability a session owns and
// the subprocess-backed implementation used for real live-coding
// environments. The engine treats evaluation as opaque: text goes in, a
// result value and any side-channel output come back, and failures are
// captured rather than propagated.
package evaluator

import (
	"context"
)

// Result is what one evaluation produced.
type Result struct {
	// Value is the evaluator's returned value rendered as text, empty if
	// the evaluation returned nothing.
	Value string
	// Output is side-channel text the evaluator printed during the call,
	// distinct from the returned value.
	Output string
}

// Empty reports whether the evaluation produced neither value nor output.
func (r Result) Empty() bool {
	return r.Value == "" && r.Output == ""
}

// Evaluator is the interpreter capability. A session owns exactly one
// Evaluator from start to teardown.
type Evaluator interface {
	// Evaluate runs one block of code. An error return carries any
	// side-channel output produced before the failure via errors.EvalError.
	Evaluate(ctx context.Context, code string) (Result, error)

	// Close releases the interpreter. Evaluate returns
	// errors.ErrEvaluatorClosed afterwards.
	Close() error
}

// Func adapts a plain function into an Evaluator. Used in tests and for
// in-process interpreters.
type Func func(ctx context.Context, code string) (Result, error)

// Evaluate calls the function.
func (f Func) Evaluate(ctx context.Context, code string) (Result, error) {
	return f(ctx, code)
}

// Close is a no-op.
func (f Func) Close() error { return nil }
