// Package stackval is an embeddable stack machine for numeric array
// expressions.
//
// A stackval program is a whitespace-separated postfix word language: number
// and array literals push values, builtin words execute against the operand
// stack, and "=name" binds a result. Programs run sandboxed by default: no
// filesystem, network or process access.
//
// # Quick Start
//
//	// Legacy contract: empty slice on any failure
//	nums := stackval.Run("3 4 add =result")
//
//	// Structured errors
//	nums, err := stackval.Evaluate(ctx, "10 range sum", nil)
//
//	// Compile once, execute many times
//	prog, err := stackval.Compile("mul sum sqrt")
//
// # Calling convention
//
// Positional arguments are pushed in reverse order so that args[0] ends up
// on top of the stack: a program reading its operands top-down sees them in
// call order. The result is retrieved from the "result" binding when the
// program bound one, otherwise from the top of the stack.
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/corentel/stackval/pkg/parser
//   - Machine: github.com/corentel/stackval/pkg/machine
//   - Words: github.com/corentel/stackval/pkg/words
//   - Types: github.com/corentel/stackval/pkg/types
package stackval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corentel/stackval/pkg/cache"
	"github.com/corentel/stackval/pkg/engine"
	"github.com/corentel/stackval/pkg/flatten"
	"github.com/corentel/stackval/pkg/machine"
	"github.com/corentel/stackval/pkg/parser"
	"github.com/corentel/stackval/pkg/types"
)

// ResultName is the binding the facade prefers when retrieving a result.
const ResultName = "result"

// Version returns the current version of stackval.
func Version() string {
	return "v0.1.0-dev"
}

// Compile compiles a program for repeated execution.
//
// The compiled program can be executed multiple times, each against a fresh
// machine. It is safe for concurrent use.
func Compile(source string) (*types.Program, error) {
	return parser.Compile(source)
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(source string) *types.Program {
	prog, err := Compile(source)
	if err != nil {
		panic(fmt.Sprintf("stackval: Compile(%q): %v", source, err))
	}
	return prog
}

// Options configures facade evaluation.
type Options struct {
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Timeout bounds a single evaluation. Defaults to 30s.
	Timeout time.Duration
	// MaxSteps is the machine instruction budget. Zero keeps the machine
	// default.
	MaxSteps int
	// MaxElems is the machine allocation budget. Zero keeps the machine
	// default.
	MaxElems int
	// Caching enables program compilation caching on the native engine.
	Caching bool
	// CacheSize sets the cache capacity when Caching is true.
	CacheSize int
	// Cache attaches a shared program cache; implies caching.
	Cache *cache.Cache
	// NewEngine overrides engine construction. The default builds a fresh
	// sandboxed native engine per call.
	NewEngine func() (engine.Engine, error)
}

// Option configures evaluation behavior.
type Option func(*Options)

// WithLogger sets a custom diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithTimeout sets the evaluation timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithMaxSteps sets the instruction budget.
func WithMaxSteps(n int) Option {
	return func(opts *Options) {
		opts.MaxSteps = n
	}
}

// WithMaxElems sets the allocation budget, in array elements.
func WithMaxElems(n int) Option {
	return func(opts *Options) {
		opts.MaxElems = n
	}
}

// WithCaching enables program compilation caching.
func WithCaching(enabled bool) Option {
	return func(opts *Options) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the cache capacity.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) Option {
	return func(opts *Options) {
		opts.CacheSize = size
	}
}

// WithCache attaches a shared program cache.
func WithCache(c *cache.Cache) Option {
	return func(opts *Options) {
		opts.Cache = c
	}
}

// WithEngine overrides engine construction, e.g. to evaluate through
// [github.com/corentel/stackval/pkg/engine/wasmengine] instead of the native
// machine. newEngine is invoked once per evaluation.
func WithEngine(newEngine func() (engine.Engine, error)) Option {
	return func(opts *Options) {
		opts.NewEngine = newEngine
	}
}

// Evaluate compiles and runs source against a fresh sandboxed engine and
// returns the flattened numeric result.
//
// args are pushed in reverse order so args[0] is on top of the stack. The
// result is the "result" binding when bound, else the top of the stack,
// flattened to a flat float64 sequence in storage order.
//
// Failures are returned as *types.Error values; unlike Run, nothing is
// collapsed.
func Evaluate(ctx context.Context, source string, args []float64, opts ...Option) ([]float64, error) {
	options := Options{
		Timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	eng, err := newEngine(&options)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := eng.Close(); cerr != nil {
			options.Logger.Warn("engine close failed", "err", cerr)
		}
	}()

	// args[0] ends up on top of the stack.
	for i := len(args) - 1; i >= 0; i-- {
		eng.Push(args[i])
	}

	if err := eng.Run(ctx, source); err != nil {
		return nil, err
	}

	v, err := popResult(eng)
	if err != nil {
		return nil, err
	}

	return flatten.Flatten(v, options.Logger), nil
}

// Run is the legacy entry point: it evaluates source with the given
// positional arguments and collapses every failure to an empty slice.
//
// Syntax errors, runtime errors, sandbox violations, a missing result and a
// non-numeric result are all indistinguishable from a computation that
// legitimately produced zero elements. Diagnostics are emitted to
// slog.Default() only; callers must not depend on them.
func Run(source string, args ...float64) []float64 {
	out, err := Evaluate(context.Background(), source, args)
	if err != nil {
		slog.Default().Warn("evaluation failed", "err", err)
		return []float64{}
	}
	return out
}

// newEngine builds the engine for one evaluation.
func newEngine(options *Options) (engine.Engine, error) {
	if options.NewEngine != nil {
		return options.NewEngine()
	}

	var mopts []machine.Option
	mopts = append(mopts, machine.WithLogger(options.Logger))
	if options.Timeout > 0 {
		mopts = append(mopts, machine.WithTimeout(options.Timeout))
	}
	if options.MaxSteps > 0 {
		mopts = append(mopts, machine.WithMaxSteps(options.MaxSteps))
	}
	if options.MaxElems > 0 {
		mopts = append(mopts, machine.WithMaxElems(options.MaxElems))
	}

	nopts := []engine.NativeOption{engine.WithMachineOptions(mopts...)}
	if options.Cache != nil {
		nopts = append(nopts, engine.WithCache(options.Cache))
	} else if options.Caching {
		nopts = append(nopts, engine.WithCaching(true), engine.WithCacheSize(options.CacheSize))
	}

	return engine.NewNative(nopts...), nil
}

// popResult prefers the "result" binding and falls back to the top of the
// stack when the program bound nothing under that name.
func popResult(eng engine.Engine) (types.Value, error) {
	v, err := eng.Pop(ResultName)
	if err == nil {
		return v, nil
	}
	var se *types.Error
	if errors.As(err, &se) && se.Code == types.ErrUnboundName {
		return eng.Pop("")
	}
	return types.Value{}, err
}
