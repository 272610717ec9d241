package engine

import (
	"context"
	"reflect"
	"testing"

	"github.com/corentel/stackval/pkg/cache"
	"github.com/corentel/stackval/pkg/machine"
	"github.com/corentel/stackval/pkg/types"
)

func TestNativeRoundtrip(t *testing.T) {
	eng := NewNative()
	defer eng.Close()

	eng.Push(4)
	eng.Push(3)

	if err := eng.Run(context.Background(), "add =result"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	v, err := eng.Pop("result")
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !v.IsScalar() || v.Scalar() != 7 {
		t.Fatalf("got %v, want 7", v)
	}
}

func TestNativePopTop(t *testing.T) {
	eng := NewNative()
	defer eng.Close()

	if err := eng.Run(context.Background(), "[1 2 3]"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	v, err := eng.Pop("")
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !reflect.DeepEqual(v.Nums(), []float64{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", v)
	}
}

func TestNativeSandboxedByDefault(t *testing.T) {
	eng := NewNative()
	defer eng.Close()

	err := eng.Run(context.Background(), `"/etc/hosts" read`)
	se, ok := err.(*types.Error)
	if !ok || se.Code != types.ErrPermissionDenied {
		t.Fatalf("got %v, want %s", err, types.ErrPermissionDenied)
	}
}

func TestNativeCompileErrorPropagates(t *testing.T) {
	eng := NewNative()
	defer eng.Close()

	err := eng.Run(context.Background(), "syntax!!error")
	se, ok := err.(*types.Error)
	if !ok || se.Class() != 'S' {
		t.Fatalf("got %v, want an S-class error", err)
	}
}

func TestNativeSharedCache(t *testing.T) {
	c := cache.New(16)

	for i := 0; i < 2; i++ {
		eng := NewNative(WithCache(c))
		if err := eng.Run(context.Background(), "3 4 add"); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		eng.Close()
	}

	if c.Len() != 1 {
		t.Fatalf("got %d cached programs, want 1", c.Len())
	}
}

func TestNativeMachineOptions(t *testing.T) {
	eng := NewNative(WithMachineOptions(machine.WithMaxSteps(2)))
	defer eng.Close()

	err := eng.Run(context.Background(), "1 2 3")
	se, ok := err.(*types.Error)
	if !ok || se.Code != types.ErrStepBudget {
		t.Fatalf("got %v, want %s", err, types.ErrStepBudget)
	}
}
