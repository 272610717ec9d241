// Package words holds the builtin word registry for the stackval language.
//
// The parser consults the registry to resolve bare identifiers into word
// instructions, and the machine dispatches on the word ID at execution time.
// Words that touch resources outside the machine (the filesystem) carry a
// capability flag; sandboxed machines refuse them.
package words

// ID identifies a builtin word.
type ID uint8

const (
	// Stack manipulation
	Dup ID = iota
	Swap
	Over
	Zap

	// Pervasive arithmetic (elementwise with scalar broadcast)
	Add
	Sub
	Mul
	Div
	Mod
	Neg
	Abs
	Sqrt
	Floor

	// Array words
	Range
	Rev
	Len
	First
	Last
	Sum
	Prod
	Min
	Max
	Cat
	Shape
	Reshape
	Bytes

	// Capability-gated words
	Read
)

// Def describes a builtin word.
type Def struct {
	// Name is the word as written in source text.
	Name string
	// ID is the dispatch identifier.
	ID ID
	// In is the number of operands the word pops.
	In int
	// NeedsFS marks words that require filesystem access.
	NeedsFS bool
}

var defs = []Def{
	{Name: "dup", ID: Dup, In: 1},
	{Name: "swap", ID: Swap, In: 2},
	{Name: "over", ID: Over, In: 2},
	{Name: "zap", ID: Zap, In: 1},

	{Name: "add", ID: Add, In: 2},
	{Name: "sub", ID: Sub, In: 2},
	{Name: "mul", ID: Mul, In: 2},
	{Name: "div", ID: Div, In: 2},
	{Name: "mod", ID: Mod, In: 2},
	{Name: "neg", ID: Neg, In: 1},
	{Name: "abs", ID: Abs, In: 1},
	{Name: "sqrt", ID: Sqrt, In: 1},
	{Name: "floor", ID: Floor, In: 1},

	{Name: "range", ID: Range, In: 1},
	{Name: "rev", ID: Rev, In: 1},
	{Name: "len", ID: Len, In: 1},
	{Name: "first", ID: First, In: 1},
	{Name: "last", ID: Last, In: 1},
	{Name: "sum", ID: Sum, In: 1},
	{Name: "prod", ID: Prod, In: 1},
	{Name: "min", ID: Min, In: 1},
	{Name: "max", ID: Max, In: 1},
	{Name: "cat", ID: Cat, In: 2},
	{Name: "shape", ID: Shape, In: 1},
	{Name: "reshape", ID: Reshape, In: 2},
	{Name: "bytes", ID: Bytes, In: 1},

	{Name: "read", ID: Read, In: 1, NeedsFS: true},
}

var byName = func() map[string]Def {
	m := make(map[string]Def, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}()

var byID = func() map[ID]Def {
	m := make(map[ID]Def, len(defs))
	for _, d := range defs {
		m[d.ID] = d
	}
	return m
}()

// Lookup returns the definition for a word name.
func Lookup(name string) (Def, bool) {
	d, ok := byName[name]
	return d, ok
}

// Describe returns the definition for a word ID.
func Describe(id ID) (Def, bool) {
	d, ok := byID[id]
	return d, ok
}

// All returns every registered word definition.
func All() []Def {
	out := make([]Def, len(defs))
	copy(out, defs)
	return out
}
