// Package engine defines the evaluation engine capability and its native
// implementation.
//
// The facade talks to an Engine rather than to the parser and machine
// directly, so the concrete engine is swappable: the default is the native
// compiler and stack machine in this module, and
// [github.com/corentel/stackval/pkg/engine/wasmengine] runs an external
// interpreter compiled to WebAssembly instead.
package engine

import (
	"context"

	"github.com/corentel/stackval/pkg/types"
)

// Engine is the capability needed to evaluate one program: seed scalar
// operands, run source text, and retrieve a result value.
//
// An Engine instance serves a single evaluation and is not safe for
// concurrent use; construct one per call.
type Engine interface {
	// Push seeds a scalar operand before Run.
	Push(f float64)

	// Run compiles and executes source against the engine's stack.
	// Any *types.Error class may be returned: S (syntax), D (runtime),
	// P (permission).
	Run(ctx context.Context, source string) error

	// Pop retrieves and removes a result. An empty name selects the top of
	// the stack; otherwise the most recent binding under that name.
	Pop(name string) (types.Value, error)

	// Close releases engine resources. Safe to call more than once.
	Close() error
}
