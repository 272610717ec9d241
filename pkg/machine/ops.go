package machine

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/corentel/stackval/pkg/types"
	"github.com/corentel/stackval/pkg/words"
)

// applyWord executes a builtin word. args are the popped operands in push
// order: args[len-1] was the top of stack. Capability and arity checks have
// already happened in step.
func (m *Machine) applyWord(def words.Def, args []types.Value, pos int) error {
	switch def.ID {
	case words.Dup:
		m.stack.Push(args[0])
		m.stack.Push(args[0])
	case words.Swap:
		m.stack.Push(args[1])
		m.stack.Push(args[0])
	case words.Over:
		m.stack.Push(args[0])
		m.stack.Push(args[1])
		m.stack.Push(args[0])
	case words.Zap:
		// value discarded

	case words.Add:
		return m.pervasive2(args[0], args[1], pos, func(a, b float64) float64 { return a + b })
	case words.Sub:
		return m.pervasive2(args[0], args[1], pos, func(a, b float64) float64 { return a - b })
	case words.Mul:
		return m.pervasive2(args[0], args[1], pos, func(a, b float64) float64 { return a * b })
	case words.Div:
		return m.pervasive2(args[0], args[1], pos, func(a, b float64) float64 { return a / b })
	case words.Mod:
		return m.pervasive2(args[0], args[1], pos, math.Mod)
	case words.Neg:
		return m.pervasive1(args[0], pos, func(a float64) float64 { return -a })
	case words.Abs:
		return m.pervasive1(args[0], pos, math.Abs)
	case words.Sqrt:
		return m.pervasive1(args[0], pos, math.Sqrt)
	case words.Floor:
		return m.pervasive1(args[0], pos, math.Floor)

	case words.Range:
		return m.opRange(args[0], pos)
	case words.Rev:
		return m.opRev(args[0], pos)
	case words.Len:
		if args[0].Kind() == types.KindStr {
			return typeErr("len", args[0], pos)
		}
		m.stack.Push(types.NewScalar(float64(args[0].Len())))
	case words.First:
		return m.opPick(args[0], pos, "first", 0)
	case words.Last:
		return m.opPick(args[0], pos, "last", -1)
	case words.Sum:
		return m.opFold(args[0], pos, 0, func(acc, x float64) float64 { return acc + x })
	case words.Prod:
		return m.opFold(args[0], pos, 1, func(acc, x float64) float64 { return acc * x })
	case words.Min:
		return m.opExtremum(args[0], pos, "min", math.Min)
	case words.Max:
		return m.opExtremum(args[0], pos, "max", math.Max)
	case words.Cat:
		return m.opCat(args[0], args[1], pos)
	case words.Shape:
		return m.opShape(args[0], pos)
	case words.Reshape:
		return m.opReshape(args[0], args[1], pos)
	case words.Bytes:
		return m.opBytes(args[0], pos)

	case words.Read:
		return m.opRead(args[0], pos)

	default:
		return types.NewError(types.ErrSyntaxError, "Unknown word id", pos)
	}
	return nil
}

// asNums returns a numeric operand's elements, widening Byte values to
// float64. The returned slice must not be mutated; operations allocate
// fresh storage for results.
func asNums(v types.Value) ([]float64, bool) {
	switch v.Kind() {
	case types.KindNum:
		return v.Nums(), true
	case types.KindByte:
		bs := v.Bytes()
		out := make([]float64, len(bs))
		for i, b := range bs {
			out[i] = float64(b)
		}
		return out, true
	default:
		return nil, false
	}
}

func typeErr(word string, v types.Value, pos int) error {
	return types.NewError(types.ErrTypeMismatch,
		"Word \""+word+"\" cannot operate on a "+v.Kind().String()+" value", pos).WithToken(word)
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// pervasive1 applies fn to every element, preserving shape.
// Byte operands widen to Num.
func (m *Machine) pervasive1(v types.Value, pos int, fn func(float64) float64) error {
	ns, ok := asNums(v)
	if !ok {
		return typeErr("arith", v, pos)
	}
	out := make([]float64, len(ns))
	for i, n := range ns {
		out[i] = fn(n)
	}
	m.stack.Push(types.NewNum(out, nil).WithShape(v.Shape()))
	return nil
}

// pervasive2 applies fn elementwise. A single-element operand broadcasts
// against the other; otherwise the shapes must match exactly.
func (m *Machine) pervasive2(a, b types.Value, pos int, fn func(a, b float64) float64) error {
	as, ok := asNums(a)
	if !ok {
		return typeErr("arith", a, pos)
	}
	bs, ok := asNums(b)
	if !ok {
		return typeErr("arith", b, pos)
	}

	switch {
	case len(as) == 1 && len(bs) == 1:
		if a.IsScalar() && b.IsScalar() {
			m.stack.Push(types.NewScalar(fn(as[0], bs[0])))
			return nil
		}
		shape := a.Shape()
		if a.IsScalar() {
			shape = b.Shape()
		}
		m.stack.Push(types.NewNum([]float64{fn(as[0], bs[0])}, nil).WithShape(shape))
		return nil

	case len(as) == 1:
		out := make([]float64, len(bs))
		for i, n := range bs {
			out[i] = fn(as[0], n)
		}
		m.stack.Push(types.NewNum(out, nil).WithShape(b.Shape()))
		return nil

	case len(bs) == 1:
		out := make([]float64, len(as))
		for i, n := range as {
			out[i] = fn(n, bs[0])
		}
		m.stack.Push(types.NewNum(out, nil).WithShape(a.Shape()))
		return nil

	default:
		if !shapesEqual(a.Shape(), b.Shape()) {
			return types.NewError(types.ErrShapeMismatch,
				"Operand shapes do not match", pos)
		}
		out := make([]float64, len(as))
		for i := range as {
			out[i] = fn(as[i], bs[i])
		}
		m.stack.Push(types.NewNum(out, nil).WithShape(a.Shape()))
		return nil
	}
}

// intScalar extracts a non-negative integral scalar operand.
func intScalar(word string, v types.Value, pos int) (int, error) {
	ns, ok := asNums(v)
	if !ok || len(ns) != 1 {
		return 0, typeErr(word, v, pos)
	}
	f := ns[0]
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || f < 0 {
		return 0, types.NewError(types.ErrNotInteger,
			"Word \""+word+"\" needs a non-negative integer", pos).WithToken(word)
	}
	return int(f), nil
}

func (m *Machine) opRange(v types.Value, pos int) error {
	n, err := intScalar("range", v, pos)
	if err != nil {
		return err
	}
	if err := m.charge(n, pos); err != nil {
		return err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	m.stack.Push(types.NewNum(out, nil))
	return nil
}

// opRev reverses elements in storage order. The result is a flat vector.
func (m *Machine) opRev(v types.Value, pos int) error {
	switch v.Kind() {
	case types.KindNum:
		ns := v.Nums()
		out := make([]float64, len(ns))
		for i, n := range ns {
			out[len(ns)-1-i] = n
		}
		m.stack.Push(types.NewNum(out, nil))
		return nil
	case types.KindByte:
		bs := v.Bytes()
		out := make([]byte, len(bs))
		for i, b := range bs {
			out[len(bs)-1-i] = b
		}
		m.stack.Push(types.NewBytes(out))
		return nil
	default:
		return typeErr("rev", v, pos)
	}
}

// opPick pushes the first (idx 0) or last (idx -1) element as a scalar.
func (m *Machine) opPick(v types.Value, pos int, word string, idx int) error {
	ns, ok := asNums(v)
	if !ok {
		return typeErr(word, v, pos)
	}
	if len(ns) == 0 {
		return types.NewError(types.ErrEmptyArray,
			"Word \""+word+"\" on an empty array", pos).WithToken(word)
	}
	if idx < 0 {
		idx = len(ns) - 1
	}
	m.stack.Push(types.NewScalar(ns[idx]))
	return nil
}

func (m *Machine) opFold(v types.Value, pos int, init float64, fn func(acc, x float64) float64) error {
	ns, ok := asNums(v)
	if !ok {
		return typeErr("fold", v, pos)
	}
	acc := init
	for _, n := range ns {
		acc = fn(acc, n)
	}
	m.stack.Push(types.NewScalar(acc))
	return nil
}

func (m *Machine) opExtremum(v types.Value, pos int, word string, fn func(a, b float64) float64) error {
	ns, ok := asNums(v)
	if !ok {
		return typeErr(word, v, pos)
	}
	if len(ns) == 0 {
		return types.NewError(types.ErrEmptyArray,
			"Word \""+word+"\" on an empty array", pos).WithToken(word)
	}
	acc := ns[0]
	for _, n := range ns[1:] {
		acc = fn(acc, n)
	}
	m.stack.Push(types.NewScalar(acc))
	return nil
}

// opCat concatenates two arrays into a flat vector. Byte operands stay Byte
// when both sides are Byte, otherwise both widen to Num.
func (m *Machine) opCat(a, b types.Value, pos int) error {
	if a.Kind() == types.KindByte && b.Kind() == types.KindByte {
		if err := m.charge(a.Len()+b.Len(), pos); err != nil {
			return err
		}
		out := make([]byte, 0, a.Len()+b.Len())
		out = append(out, a.Bytes()...)
		out = append(out, b.Bytes()...)
		m.stack.Push(types.NewBytes(out))
		return nil
	}

	as, ok := asNums(a)
	if !ok {
		return typeErr("cat", a, pos)
	}
	bs, ok := asNums(b)
	if !ok {
		return typeErr("cat", b, pos)
	}
	if err := m.charge(len(as)+len(bs), pos); err != nil {
		return err
	}
	out := make([]float64, 0, len(as)+len(bs))
	out = append(out, as...)
	out = append(out, bs...)
	m.stack.Push(types.NewNum(out, nil))
	return nil
}

func (m *Machine) opShape(v types.Value, pos int) error {
	if v.Kind() == types.KindStr {
		return typeErr("shape", v, pos)
	}
	sh := v.Shape()
	out := make([]float64, len(sh))
	for i, d := range sh {
		out[i] = float64(d)
	}
	m.stack.Push(types.NewNum(out, nil))
	return nil
}

// opReshape reapplies a shape to data. shapeV was on top of the stack.
func (m *Machine) opReshape(data, shapeV types.Value, pos int) error {
	sns, ok := asNums(shapeV)
	if !ok {
		return typeErr("reshape", shapeV, pos)
	}
	if data.Kind() == types.KindStr {
		return typeErr("reshape", data, pos)
	}

	shape := make([]int, len(sns))
	product := 1
	for i, f := range sns {
		if f != math.Trunc(f) || f < 0 {
			return types.NewError(types.ErrNotInteger,
				"Shape dimensions must be non-negative integers", pos)
		}
		shape[i] = int(f)
		product *= shape[i]
	}
	if product != data.Len() {
		return types.NewError(types.ErrShapeMismatch,
			"Shape product does not match element count", pos)
	}

	m.stack.Push(data.WithShape(shape))
	return nil
}

// opBytes narrows a numeric array to a Byte array. Every element must be an
// integer in [0, 255].
func (m *Machine) opBytes(v types.Value, pos int) error {
	switch v.Kind() {
	case types.KindByte:
		m.stack.Push(v)
		return nil
	case types.KindNum:
		ns := v.Nums()
		out := make([]byte, len(ns))
		for i, f := range ns {
			if f != math.Trunc(f) || f < 0 || f > 255 {
				return types.NewError(types.ErrByteRange,
					"Element "+strconv.FormatFloat(f, 'g', -1, 64)+" is not a byte", pos)
			}
			out[i] = byte(f)
		}
		m.stack.Push(types.NewBytes(out))
		return nil
	default:
		return typeErr("bytes", v, pos)
	}
}

// opRead loads whitespace-separated floats from a file. The filesystem
// capability has already been checked in step.
func (m *Machine) opRead(v types.Value, pos int) error {
	if v.Kind() != types.KindStr {
		return typeErr("read", v, pos)
	}
	data, err := os.ReadFile(v.Str())
	if err != nil {
		return types.NewError(types.ErrIO,
			"Cannot read \""+v.Str()+"\"", pos).WithCause(err)
	}
	fields := strings.Fields(string(data))
	if err := m.charge(len(fields), pos); err != nil {
		return err
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return types.NewError(types.ErrIO,
				"Non-numeric data in \""+v.Str()+"\"", pos).WithCause(err)
		}
		out[i] = n
	}
	m.stack.Push(types.NewNum(out, nil))
	return nil
}
