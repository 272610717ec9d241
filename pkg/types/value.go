// Package types defines the core type system for stackval.
//
// This package contains type definitions for:
//   - Value: tagged array-shaped runtime values (Num, Byte, Str)
//   - Program: compiled instruction sequences
//   - Instr: single stack-machine instructions
//   - Error types: structured errors with codes
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the Value union.
type Kind uint8

const (
	// KindNum is a dense float64 array of arbitrary shape.
	KindNum Kind = iota
	// KindByte is an array of small unsigned integers, losslessly
	// convertible to float64.
	KindByte
	// KindStr is an opaque text value. It is not flattenable to numbers.
	KindStr
)

// String returns the kind name as it appears in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNum:
		return "num"
	case KindByte:
		return "byte"
	case KindStr:
		return "str"
	default:
		return "(unknown)"
	}
}

// Value is a tagged union over array-shaped runtime data.
//
// Num and Byte values carry their elements in row-major storage order
// together with a shape. A scalar is a Num with an empty shape and exactly
// one element. Str values are opaque text.
type Value struct {
	kind  Kind
	nums  []float64
	bytes []byte
	str   string
	shape []int
}

// NewNum creates a Num value. shape nil means a flat vector of len(elems);
// a scalar is created by NewScalar.
func NewNum(elems []float64, shape []int) Value {
	if shape == nil {
		shape = []int{len(elems)}
	}
	return Value{kind: KindNum, nums: elems, shape: shape}
}

// NewScalar creates a rank-0 Num value holding a single element.
func NewScalar(f float64) Value {
	return Value{kind: KindNum, nums: []float64{f}, shape: []int{}}
}

// NewBytes creates a Byte vector.
func NewBytes(b []byte) Value {
	return Value{kind: KindByte, bytes: b, shape: []int{len(b)}}
}

// NewStr creates an opaque text value.
func NewStr(s string) Value {
	return Value{kind: KindStr, str: s}
}

// Kind returns the value's variant tag.
func (v Value) Kind() Kind { return v.kind }

// Shape returns the value's shape. Scalars have an empty shape.
// Str values have no shape and return nil.
func (v Value) Shape() []int { return v.shape }

// Len returns the element count: the product of the shape for arrays,
// 1 for scalars, 0 for Str.
func (v Value) Len() int {
	switch v.kind {
	case KindNum:
		return len(v.nums)
	case KindByte:
		return len(v.bytes)
	default:
		return 0
	}
}

// IsScalar reports whether v is a rank-0 Num.
func (v Value) IsScalar() bool {
	return v.kind == KindNum && len(v.shape) == 0
}

// Scalar returns the single element of a scalar value.
// It panics if v is not a scalar; callers check IsScalar first.
func (v Value) Scalar() float64 {
	if !v.IsScalar() {
		panic(fmt.Sprintf("types: Scalar on non-scalar %s value", v.kind))
	}
	return v.nums[0]
}

// Nums returns the underlying float64 elements of a Num value in storage
// order. The slice is shared, not copied; callers must not mutate it.
func (v Value) Nums() []float64 { return v.nums }

// Bytes returns the underlying elements of a Byte value.
// The slice is shared, not copied.
func (v Value) Bytes() []byte { return v.bytes }

// Str returns the text of a Str value.
func (v Value) Str() string { return v.str }

// WithShape returns a copy of v carrying the given shape.
// The caller guarantees the shape's product equals v.Len().
func (v Value) WithShape(shape []int) Value {
	v.shape = shape
	return v
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNum:
		if v.IsScalar() {
			return strconv.FormatFloat(v.nums[0], 'g', -1, 64)
		}
		parts := make([]string, len(v.nums))
		for i, n := range v.nums {
			parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindByte:
		parts := make([]string, len(v.bytes))
		for i, b := range v.bytes {
			parts[i] = strconv.Itoa(int(b))
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindStr:
		return strconv.Quote(v.str)
	default:
		return "(invalid)"
	}
}
