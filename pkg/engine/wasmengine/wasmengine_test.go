package wasmengine

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/corentel/stackval/pkg/types"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		kind types.Kind
		nums []float64
	}{
		{"floats", "1 2.5 -3\n", types.KindNum, []float64{1, 2.5, -3}},
		{"single", "7", types.KindNum, []float64{7}},
		{"empty", "", types.KindNum, []float64{}},
		{"text", "not a number\n", types.KindStr, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := parseOutput(tt.out)
			if v.Kind() != tt.kind {
				t.Fatalf("got kind %v, want %v", v.Kind(), tt.kind)
			}
			if tt.kind == types.KindNum && !reflect.DeepEqual(v.Nums(), tt.nums) {
				t.Fatalf("got %v, want %v", v.Nums(), tt.nums)
			}
		})
	}
}

func TestPopBeforeRun(t *testing.T) {
	e := &Engine{}
	_, err := e.Pop("")
	se, ok := err.(*types.Error)
	if !ok || se.Code != types.ErrEmptyStack {
		t.Fatalf("got %v, want %s", err, types.ErrEmptyStack)
	}
}

func TestNewMissingModule(t *testing.T) {
	_, err := New(context.Background(), "does-not-exist.wasm")
	se, ok := err.(*types.Error)
	if !ok || se.Code != types.ErrIO {
		t.Fatalf("got %v, want %s", err, types.ErrIO)
	}
}

// interpPath returns the external interpreter module configured for
// integration testing, or skips. Build one and point STACKVAL_INTERP_WASM
// at it to exercise the guest path.
func interpPath(t *testing.T) string {
	t.Helper()
	path := os.Getenv("STACKVAL_INTERP_WASM")
	if path == "" {
		t.Skip("STACKVAL_INTERP_WASM not set")
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("interpreter module not found: %v", err)
	}
	return path
}

func TestGuestRoundtrip(t *testing.T) {
	ctx := context.Background()
	eng, err := New(ctx, interpPath(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	eng.Push(3)
	eng.Push(4)
	if err := eng.Run(ctx, "add"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	v, err := eng.Pop("")
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v.Kind() != types.KindNum {
		t.Fatalf("got %v, want a numeric result", v)
	}
}
