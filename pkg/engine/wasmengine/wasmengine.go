// Package wasmengine runs an external interpreter compiled to WASI as a
// stackval [engine.Engine].
//
// The interpreter module is treated as a black box honoring a small contract:
// program text arrives on stdin, pushed operands arrive as argv in push
// order, the flattened numeric result is written whitespace-separated to
// stdout, and diagnostics go to stderr. A nonzero exit status is a runtime
// failure.
//
// Sandboxing is enforced by the host, not trusted to the guest: the module
// is instantiated with no preopened directories, so every WASI filesystem
// call fails inside the guest regardless of what the interpreter attempts.
//
// # Example
//
//	eng, err := wasmengine.New(ctx, "interp.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//	eng.Push(3)
//	err = eng.Run(ctx, source)
package wasmengine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/corentel/stackval/pkg/engine"
	"github.com/corentel/stackval/pkg/types"
)

// Engine runs programs through an external WASI interpreter module.
type Engine struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	pushes   []float64
	result   *types.Value
	closed   bool
}

// New loads and compiles the interpreter module at wasmPath.
// The caller must Close the engine to release the compiled module.
func New(ctx context.Context, wasmPath string) (*Engine, error) {
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, types.NewError(types.ErrIO,
			"Cannot read interpreter module \""+wasmPath+"\"", -1).WithCause(err)
	}
	return NewFromBytes(ctx, wasm)
}

// NewFromBytes compiles an interpreter module from raw wasm bytes.
func NewFromBytes(ctx context.Context, wasm []byte) (*Engine, error) {
	r := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		_ = r.Close(ctx)
		return nil, types.NewError(types.ErrIO,
			"Cannot compile interpreter module", -1).WithCause(err)
	}

	return &Engine{
		runtime:  r,
		compiled: compiled,
	}, nil
}

// Push seeds a scalar operand. Operands are handed to the interpreter as
// argv in push order on the next Run.
func (e *Engine) Push(f float64) {
	e.pushes = append(e.pushes, f)
}

// Run executes source in the guest interpreter. The guest's stdout becomes
// the result retrievable via Pop.
func (e *Engine) Run(ctx context.Context, source string) error {
	args := make([]string, 0, len(e.pushes)+1)
	args = append(args, "interp")
	for _, f := range e.pushes {
		args = append(args, strconv.FormatFloat(f, 'g', -1, 64))
	}

	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStdin(strings.NewReader(source)).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithArgs(args...)
	// No WithFS / preopened dirs: the guest has no filesystem.

	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, cfg)
	if mod != nil {
		_ = mod.Close(ctx)
	}
	if err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == 0 {
				err = nil
			} else {
				return types.NewError(types.ErrTypeMismatch,
					"Interpreter exited with status "+strconv.Itoa(int(exitErr.ExitCode()))+
						": "+strings.TrimSpace(stderr.String()), -1).WithCause(err)
			}
		}
		if err != nil {
			return types.NewError(types.ErrIO,
				"Interpreter trap: "+strings.TrimSpace(stderr.String()), -1).WithCause(err)
		}
	}

	v := parseOutput(stdout.String())
	e.result = &v
	return nil
}

// Pop returns the value produced by the last Run. The name selector is
// resolved inside the guest (it prints whichever binding its convention
// names), so it is ignored here.
func (e *Engine) Pop(_ string) (types.Value, error) {
	if e.result == nil {
		return types.Value{}, types.NewError(types.ErrEmptyStack,
			"No result: Run has not succeeded", -1)
	}
	v := *e.result
	e.result = nil
	return v, nil
}

// Close releases the compiled module and runtime.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.runtime.Close(context.Background())
}

// parseOutput converts the guest's stdout into a Value: a Num vector when
// every field parses as a float, an empty-stack-like empty Num for no
// output, and an opaque Str otherwise (which the flattener reports as
// unsupported).
func parseOutput(out string) types.Value {
	fields := strings.Fields(out)
	nums := make([]float64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return types.NewStr(strings.TrimSpace(out))
		}
		nums[i] = n
	}
	return types.NewNum(nums, nil)
}

var _ engine.Engine = (*Engine)(nil)
