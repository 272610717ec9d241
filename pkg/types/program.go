package types

import "github.com/corentel/stackval/pkg/words"

// Opcode discriminates compiled instructions.
type Opcode uint8

const (
	// OpPush pushes a literal Value (number, array or string literal).
	OpPush Opcode = iota
	// OpWord executes a builtin word.
	OpWord
	// OpStore pops the top of stack and binds it to a name.
	OpStore
	// OpLoad pushes a copy of the most recent binding for a name.
	OpLoad
)

// Instr is a single compiled instruction.
type Instr struct {
	Op   Opcode
	Lit  Value    // OpPush literal
	Word words.ID // OpWord dispatch id
	Name string   // OpStore/OpLoad binding name
	Pos  int      // byte offset of the source token, for runtime diagnostics
}

// Program is a compiled stackval program.
//
// A Program can be executed multiple times by passing it to
// [machine.Machine.Exec]. It is immutable after compilation and safe for
// concurrent use by multiple goroutines.
type Program struct {
	instrs []Instr
	source string
}

// NewProgram creates a Program from compiled instructions.
func NewProgram(instrs []Instr, source string) *Program {
	return &Program{
		instrs: instrs,
		source: source,
	}
}

// Instrs returns the instruction sequence.
func (p *Program) Instrs() []Instr {
	return p.instrs
}

// Source returns the original source text of the program.
func (p *Program) Source() string {
	return p.source
}

// String returns the source text.
func (p *Program) String() string {
	return p.source
}
