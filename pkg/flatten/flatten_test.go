package flatten

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/corentel/stackval/pkg/types"
)

// capture returns a logger writing to the returned buffer.
func capture() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestFlattenNum(t *testing.T) {
	logger, buf := capture()

	v := types.NewNum([]float64{3.5, -1, 0, 2e10}, nil)
	got := Flatten(v, logger)
	want := []float64{3.5, -1, 0, 2e10}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected diagnostic: %s", buf.String())
	}

	// The result is a copy, not an alias.
	got[0] = 99
	if v.Nums()[0] != 3.5 {
		t.Error("Flatten must not alias the value's storage")
	}
}

func TestFlattenPreservesStorageOrder(t *testing.T) {
	v := types.NewNum([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3})
	got := Flatten(v, nil)
	want := []float64{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v (row-major order)", got, want)
	}
}

func TestFlattenBytesWidenExactly(t *testing.T) {
	logger, buf := capture()

	v := types.NewBytes([]byte{0, 1, 127, 255})
	got := Flatten(v, logger)
	want := []float64{0, 1, 127, 255}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected diagnostic: %s", buf.String())
	}
}

func TestFlattenUnsupported(t *testing.T) {
	logger, buf := capture()

	got := Flatten(types.NewStr("not numbers"), logger)
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
	if !strings.Contains(buf.String(), "unsupported value type for numeric extraction") {
		t.Errorf("missing diagnostic, log: %s", buf.String())
	}
}

func TestFlattenEmptyArray(t *testing.T) {
	got := Flatten(types.NewNum(nil, nil), nil)
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}
