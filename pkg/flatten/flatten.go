// Package flatten converts array values into flat float64 sequences.
//
// Flattening preserves element count and storage order: it never reorders,
// deduplicates or rounds. Num elements pass through unchanged and Byte
// elements widen exactly, since every byte is representable as a float64.
// Values that carry no numeric data produce an empty sequence and a
// diagnostic on the supplied logger; the caller cannot distinguish that
// case from a computation that legitimately produced zero elements.
package flatten

import (
	"log/slog"

	"github.com/corentel/stackval/pkg/types"
)

// Flatten converts v into a flat ordered sequence of float64 elements.
// The returned slice is freshly allocated and owned by the caller.
//
// logger receives a diagnostic when v is not a numeric value; pass nil to
// use slog.Default().
func Flatten(v types.Value, logger *slog.Logger) []float64 {
	if logger == nil {
		logger = slog.Default()
	}

	switch v.Kind() {
	case types.KindNum:
		out := make([]float64, len(v.Nums()))
		copy(out, v.Nums())
		return out

	case types.KindByte:
		bs := v.Bytes()
		out := make([]float64, len(bs))
		for i, b := range bs {
			out[i] = float64(b)
		}
		return out

	default:
		logger.Warn("unsupported value type for numeric extraction", "kind", v.Kind().String())
		return []float64{}
	}
}
