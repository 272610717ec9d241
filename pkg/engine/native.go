package engine

import (
	"context"

	"github.com/corentel/stackval/pkg/cache"
	"github.com/corentel/stackval/pkg/machine"
	"github.com/corentel/stackval/pkg/parser"
	"github.com/corentel/stackval/pkg/types"
)

// Native is the default Engine: the in-process compiler and stack machine.
type Native struct {
	machine *machine.Machine
	cache   *cache.Cache // nil when caching is disabled
}

// NativeOption configures a native engine.
type NativeOption func(*nativeOptions)

type nativeOptions struct {
	cache       *cache.Cache
	caching     bool
	cacheSize   int
	machineOpts []machine.Option
}

// WithCaching enables program compilation caching with a default LRU cache.
func WithCaching(enabled bool) NativeOption {
	return func(o *nativeOptions) {
		o.caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached programs.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) NativeOption {
	return func(o *nativeOptions) {
		o.cacheSize = size
	}
}

// WithCache attaches an external program cache. The engine uses this cache
// regardless of the caching flag, which allows several engines to share one.
func WithCache(c *cache.Cache) NativeOption {
	return func(o *nativeOptions) {
		o.cache = c
	}
}

// WithMachineOptions forwards options to the underlying machine.
func WithMachineOptions(opts ...machine.Option) NativeOption {
	return func(o *nativeOptions) {
		o.machineOpts = append(o.machineOpts, opts...)
	}
}

// NewNative creates a native engine with a fresh sandboxed machine.
func NewNative(opts ...NativeOption) *Native {
	var options nativeOptions
	for _, opt := range opts {
		opt(&options)
	}

	c := options.cache
	if c == nil && options.caching {
		c = cache.New(options.cacheSize)
	}

	return &Native{
		machine: machine.New(options.machineOpts...),
		cache:   c,
	}
}

// Machine exposes the underlying machine, mainly for tests.
func (n *Native) Machine() *machine.Machine {
	return n.machine
}

// Push seeds a scalar operand.
func (n *Native) Push(f float64) {
	n.machine.Push(f)
}

// Run compiles source (through the cache when enabled) and executes it
// against the engine's stack.
func (n *Native) Run(ctx context.Context, source string) error {
	var prog *types.Program
	var err error
	if n.cache != nil {
		prog, err = n.cache.GetOrCompile(source, func() (*types.Program, error) {
			return parser.Compile(source)
		})
	} else {
		prog, err = parser.Compile(source)
	}
	if err != nil {
		return err
	}
	return n.machine.Exec(ctx, prog)
}

// Pop retrieves and removes a result value.
func (n *Native) Pop(name string) (types.Value, error) {
	return n.machine.Pop(name)
}

// Close is a no-op for the native engine.
func (n *Native) Close() error {
	return nil
}

var _ Engine = (*Native)(nil)
