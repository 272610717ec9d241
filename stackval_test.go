package stackval_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/corentel/stackval"
	"github.com/corentel/stackval/pkg/cache"
	"github.com/corentel/stackval/pkg/types"
)

func TestRunScenarioAdd(t *testing.T) {
	got := stackval.Run("add =result", 3, 4)
	if !reflect.DeepEqual(got, []float64{7}) {
		t.Fatalf("got %v, want [7]", got)
	}
}

func TestRunLiteralProgram(t *testing.T) {
	got := stackval.Run("3 4 add =result")
	if !reflect.DeepEqual(got, []float64{7}) {
		t.Fatalf("got %v, want [7]", got)
	}
}

func TestRunTopOfStackFallback(t *testing.T) {
	// No "result" binding: the top of stack is returned.
	got := stackval.Run("[1 2 3] 2 mul")
	if !reflect.DeepEqual(got, []float64{2, 4, 6}) {
		t.Fatalf("got %v, want [2 4 6]", got)
	}
}

func TestRunPrefersResultBinding(t *testing.T) {
	// 1 stays on the stack; 2 is bound. The binding wins.
	got := stackval.Run("1 2 =result")
	if !reflect.DeepEqual(got, []float64{2}) {
		t.Fatalf("got %v, want [2]", got)
	}
}

func TestRunArgumentOrder(t *testing.T) {
	// args[0] ends up on top of the stack: an empty program's top-of-stack
	// result is the first argument, unchanged.
	got := stackval.Run("", 2, 3)
	if !reflect.DeepEqual(got, []float64{2}) {
		t.Fatalf("got %v, want [2]", got)
	}

	// sub pops the top as its right operand: args[1] - args[0].
	got = stackval.Run("sub", 2, 3)
	if !reflect.DeepEqual(got, []float64{1}) {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestRunCollapsesFailures(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"syntax error", "syntax!!error"},
		{"runtime underflow", "add"},
		{"unbound name", "bogus"},
		{"permission denied", `"/etc/passwd" read`},
		{"missing result", ""},
		{"non-numeric result", `"just text" =result`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stackval.Run(tt.source)
			if len(got) != 0 {
				t.Fatalf("got %v, want empty", got)
			}
		})
	}
}

func TestRunByteWidening(t *testing.T) {
	got := stackval.Run("5 range bytes =result")
	if !reflect.DeepEqual(got, []float64{0, 1, 2, 3, 4}) {
		t.Fatalf("got %v, want [0 1 2 3 4]", got)
	}
}

func TestRunIdempotent(t *testing.T) {
	first := stackval.Run("10 range dup mul sum =result", 1, 2)
	second := stackval.Run("10 range dup mul sum =result", 1, 2)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ across identical calls: %v vs %v", first, second)
	}
}

func TestEvaluateStructuredErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		source string
		code   types.ErrorCode
	}{
		{"syntax", "syntax!!error", types.ErrIllegalCharacter},
		{"runtime", "add", types.ErrStackUnderflow},
		{"permission", `"/etc/passwd" read`, types.ErrPermissionDenied},
		{"missing result", "", types.ErrEmptyStack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stackval.Evaluate(ctx, tt.source, nil)
			if err == nil {
				t.Fatalf("Evaluate(%q) succeeded, want %s", tt.source, tt.code)
			}
			var se *types.Error
			if !errors.As(err, &se) {
				t.Fatalf("got %T, want *types.Error", err)
			}
			if se.Code != tt.code {
				t.Fatalf("got code %s (%v), want %s", se.Code, err, tt.code)
			}
		})
	}
}

func TestEvaluateSuccess(t *testing.T) {
	got, err := stackval.Evaluate(context.Background(), "mul sum", []float64{2, 0},
		stackval.WithMaxSteps(100))
	// stack: 0 (bottom), 2 (top); mul → 0; sum over scalar → 0.
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{0}) {
		t.Fatalf("got %v, want [0]", got)
	}
}

func TestEvaluateDiagnosticOnUnsupportedResult(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got, err := stackval.Evaluate(context.Background(), `"text" =result`, nil,
		stackval.WithLogger(logger))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
	if !strings.Contains(buf.String(), "unsupported value type for numeric extraction") {
		t.Errorf("missing diagnostic, log: %s", buf.String())
	}
}

func TestEvaluateWithCaching(t *testing.T) {
	c := cache.New(8)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := stackval.Evaluate(ctx, "3 4 add", nil, stackval.WithCache(c))
		if err != nil {
			t.Fatalf("Evaluate %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, []float64{7}) {
			t.Fatalf("Evaluate %d: got %v, want [7]", i, got)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("got %d cached programs, want 1", c.Len())
	}
}

func TestEvaluateBudget(t *testing.T) {
	_, err := stackval.Evaluate(context.Background(), "1000 range", nil,
		stackval.WithMaxElems(10))
	var se *types.Error
	if !errors.As(err, &se) || se.Code != types.ErrElemBudget {
		t.Fatalf("got %v, want %s", err, types.ErrElemBudget)
	}
}

func TestConcurrentRuns(t *testing.T) {
	// Each call builds its own engine and stack; parallel callers must not
	// contaminate each other.
	done := make(chan []float64, 8)
	for i := 0; i < 8; i++ {
		go func(n float64) {
			done <- stackval.Run("dup add =result", n)
		}(float64(i))
	}
	seen := map[float64]bool{}
	for i := 0; i < 8; i++ {
		out := <-done
		if len(out) != 1 {
			t.Fatalf("got %v, want one element", out)
		}
		seen[out[0]] = true
	}
	for i := 0; i < 8; i++ {
		if !seen[float64(2*i)] {
			t.Errorf("missing result %d", 2*i)
		}
	}
}

func TestMustCompile(t *testing.T) {
	prog := stackval.MustCompile("3 4 add")
	if prog.Source() != "3 4 add" {
		t.Fatalf("got %q, want source back", prog.Source())
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile on invalid source did not panic")
		}
	}()
	stackval.MustCompile("syntax!!error")
}
