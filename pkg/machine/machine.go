// Package machine implements the stackval execution engine.
//
// A Machine executes a compiled [types.Program] against its own operand
// stack, one instruction at a time, left to right, synchronously. It
// supports:
//   - Sandboxed execution (capability-gated words, off by default)
//   - Instruction and allocation budgets
//   - Timeout and cancellation via context.Context
//   - Structured logging via log/slog
//
// # Example
//
//	m := machine.New()
//	if err := m.Exec(ctx, prog); err != nil {
//	    log.Fatal(err)
//	}
//	v, err := m.Pop("result")
package machine

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/corentel/stackval/pkg/types"
	"github.com/corentel/stackval/pkg/words"
)

// Machine executes compiled programs against an operand stack.
//
// Each Machine owns a fresh stack; no state is shared between machines, so
// concurrent callers each construct their own.
type Machine struct {
	opts    Options
	logger  *slog.Logger
	stack   *Stack
	steps   int
	charged int
}

// Options configures machine behavior.
type Options struct {
	// Filesystem grants capability-gated words access to the filesystem.
	// It is false by default: machines are sandboxed and such words fail
	// with PermissionDenied.
	Filesystem bool
	// MaxSteps limits the number of executed instructions. <= 0 disables
	// the budget. Defaults to 1_000_000.
	MaxSteps int
	// MaxElems limits the total number of array elements materialized by
	// allocating words (range, cat, read). <= 0 disables the budget.
	// Defaults to 10_000_000.
	MaxElems int
	// Timeout bounds a single Exec call. Zero means no machine-level
	// timeout beyond the caller's context.
	Timeout time.Duration
	// Debug enables per-instruction debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// New creates a sandboxed Machine with a fresh, empty stack.
func New(opts ...Option) *Machine {
	options := Options{
		Filesystem: false, // sandboxed by default
		MaxSteps:   1_000_000,
		MaxElems:   10_000_000,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Machine{
		opts:   options,
		logger: options.Logger,
		stack:  NewStack(),
	}
}

// Option configures a Machine.
type Option func(*Options)

// WithFilesystem grants or revokes the filesystem capability.
// Machines are sandboxed (no filesystem) unless this is enabled.
func WithFilesystem(enabled bool) Option {
	return func(opts *Options) {
		opts.Filesystem = enabled
	}
}

// WithMaxSteps sets the instruction budget for a single Exec call.
func WithMaxSteps(n int) Option {
	return func(opts *Options) {
		opts.MaxSteps = n
	}
}

// WithMaxElems sets the allocation budget, in array elements, for a single
// Exec call.
func WithMaxElems(n int) Option {
	return func(opts *Options) {
		opts.MaxElems = n
	}
}

// WithTimeout sets the execution timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables per-instruction debug logging.
func WithDebug(enabled bool) Option {
	return func(opts *Options) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Stack returns the machine's operand stack.
func (m *Machine) Stack() *Stack {
	return m.stack
}

// Push pushes a scalar operand, used to seed positional arguments.
func (m *Machine) Push(f float64) {
	m.stack.PushScalar(f)
}

// Pop retrieves and removes a result. With an empty name it pops the top of
// the stack; otherwise it removes the most recent binding under that name.
func (m *Machine) Pop(name string) (types.Value, error) {
	if name == "" {
		return m.stack.Pop()
	}
	return m.stack.PopNamed(name)
}

// Exec runs a compiled program against the machine's stack, left to right,
// to completion or to the first error. The stack is mutated in place: values
// are consumed and pushed as dictated by the program.
//
// All failures are *types.Error values: S-class errors never occur here
// (compilation already succeeded), D-class errors report runtime failures,
// P-class errors report sandbox violations and U-class errors report unbound
// name loads.
func (m *Machine) Exec(ctx context.Context, prog *types.Program) error {
	if prog == nil {
		return types.NewError(types.ErrSyntaxError, "nil program", -1)
	}

	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	for _, in := range prog.Instrs() {
		if err := ctx.Err(); err != nil {
			return types.NewError(types.ErrCancelled,
				"Evaluation cancelled", in.Pos).WithCause(err)
		}

		m.steps++
		if m.opts.MaxSteps > 0 && m.steps > m.opts.MaxSteps {
			return types.NewError(types.ErrStepBudget,
				"Instruction budget exceeded", in.Pos)
		}

		if m.opts.Debug {
			m.logger.Debug("exec", "op", in.Op, "pos", in.Pos, "depth", m.stack.Len())
		}

		if err := m.step(in); err != nil {
			return err
		}
	}

	return nil
}

// step executes a single instruction.
func (m *Machine) step(in types.Instr) error {
	switch in.Op {
	case types.OpPush:
		m.stack.Push(in.Lit)
		return nil

	case types.OpStore:
		v, err := m.stack.Pop()
		if err != nil {
			return types.NewError(types.ErrStackUnderflow,
				"Nothing to bind to \""+in.Name+"\"", in.Pos)
		}
		m.stack.Bind(in.Name, v)
		return nil

	case types.OpLoad:
		v, err := m.stack.Load(in.Name)
		if err != nil {
			return positioned(err, in.Pos)
		}
		m.stack.Push(v)
		return nil

	case types.OpWord:
		def, ok := words.Describe(in.Word)
		if !ok {
			return types.NewError(types.ErrSyntaxError,
				"Unknown word id", in.Pos)
		}
		if def.NeedsFS && !m.opts.Filesystem {
			return types.NewError(types.ErrPermissionDenied,
				"Word \""+def.Name+"\" requires filesystem access", in.Pos).WithToken(def.Name)
		}
		args, err := m.popOperands(def, in.Pos)
		if err != nil {
			return err
		}
		return m.applyWord(def, args, in.Pos)

	default:
		return types.NewError(types.ErrSyntaxError, "Invalid opcode", in.Pos)
	}
}

// popOperands pops def.In operands, returned in push order (args[0] was
// pushed first, args[len-1] was the top of stack).
func (m *Machine) popOperands(def words.Def, pos int) ([]types.Value, error) {
	if m.stack.Len() < def.In {
		return nil, types.NewError(types.ErrStackUnderflow,
			"Word \""+def.Name+"\" needs "+strconv.Itoa(def.In)+" operands", pos).WithToken(def.Name)
	}
	args := make([]types.Value, def.In)
	for i := def.In - 1; i >= 0; i-- {
		v, _ := m.stack.Pop()
		args[i] = v
	}
	return args, nil
}

// charge draws n elements from the allocation budget.
func (m *Machine) charge(n int, pos int) error {
	if m.opts.MaxElems <= 0 {
		return nil
	}
	m.charged += n
	if n < 0 || m.charged > m.opts.MaxElems {
		return types.NewError(types.ErrElemBudget,
			"Allocation budget exceeded", pos)
	}
	return nil
}

// positioned stamps a source position onto an error that was raised without
// one (stack and binding errors carry position -1).
func positioned(err error, pos int) error {
	if se, ok := err.(*types.Error); ok && se.Position < 0 {
		se.Position = pos
	}
	return err
}
