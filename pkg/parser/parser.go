// Package parser compiles stackval programs.
//
// The stackval language is a whitespace-separated postfix word language:
// literals push values, builtin words execute against the operand stack,
// "=name" binds the top of stack and a bare non-builtin identifier loads
// the most recent binding.
//
// The parser consists of two components:
//   - Lexer: tokenizes the program text
//   - Compiler: turns the token stream into a flat instruction list
//
// There is no grammar beyond token juxtaposition, so compilation is a single
// left-to-right pass. Malformed literals, stray brackets and any identifier
// that is neither a builtin word nor a plausible binding name fail with a
// positioned syntax error.
//
// # Example
//
//	prog, err := parser.Compile("3 4 add =result")
//	if err != nil {
//		log.Fatal(err)
//	}
package parser

import (
	"strconv"

	"github.com/corentel/stackval/pkg/types"
	"github.com/corentel/stackval/pkg/words"
)

// Parse compiles a stackval program and returns it.
//
// If compilation fails, the returned error is a *types.Error carrying an
// S0xxx code and the byte offset of the offending token.
func Parse(source string) (*types.Program, error) {
	return Compile(source)
}

// Compile is an alias for Parse, provided for API consistency.
func Compile(source string) (*types.Program, error) {
	c := &compiler{lexer: NewLexer(source)}
	instrs, err := c.compile()
	if err != nil {
		return nil, err
	}
	return types.NewProgram(instrs, source), nil
}

// compiler turns a token stream into an instruction list.
type compiler struct {
	lexer  *Lexer
	instrs []types.Instr
}

func (c *compiler) compile() ([]types.Instr, error) {
	for {
		tok := c.lexer.Next()
		switch tok.Type {
		case TokenEOF:
			return c.instrs, nil

		case TokenError:
			return nil, c.lexer.Error()

		case TokenNumber:
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return nil, types.NewError(types.ErrNumberMalformed,
					"Malformed number literal", tok.Position).WithToken(tok.Value)
			}
			c.emit(types.Instr{Op: types.OpPush, Lit: types.NewScalar(f), Pos: tok.Position})

		case TokenString:
			c.emit(types.Instr{Op: types.OpPush, Lit: types.NewStr(tok.Value), Pos: tok.Position})

		case TokenBracketOpen:
			if err := c.compileArray(tok); err != nil {
				return nil, err
			}

		case TokenBracketClose:
			return nil, types.NewError(types.ErrUnmatchedBracket,
				"Unmatched ']'", tok.Position)

		case TokenStore:
			c.emit(types.Instr{Op: types.OpStore, Name: tok.Value, Pos: tok.Position})

		case TokenName:
			if def, ok := words.Lookup(tok.Value); ok {
				c.emit(types.Instr{Op: types.OpWord, Word: def.ID, Pos: tok.Position})
			} else {
				// Not a builtin: a load of a user binding. Unbound names
				// surface at execution time, like any Forth-family language.
				c.emit(types.Instr{Op: types.OpLoad, Name: tok.Value, Pos: tok.Position})
			}

		default:
			return nil, types.NewError(types.ErrSyntaxError,
				"Unexpected token "+tok.Type.String(), tok.Position).WithToken(tok.Value)
		}
	}
}

// compileArray reads a flat numeric array literal. The opening bracket has
// already been consumed; open is its token.
func (c *compiler) compileArray(open Token) error {
	var elems []float64
	for {
		tok := c.lexer.Next()
		switch tok.Type {
		case TokenNumber:
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return types.NewError(types.ErrNumberMalformed,
					"Malformed number literal", tok.Position).WithToken(tok.Value)
			}
			elems = append(elems, f)

		case TokenBracketClose:
			c.emit(types.Instr{Op: types.OpPush, Lit: types.NewNum(elems, nil), Pos: open.Position})
			return nil

		case TokenEOF:
			return types.NewError(types.ErrUnexpectedEnd,
				"Unterminated array literal", open.Position)

		case TokenError:
			return c.lexer.Error()

		default:
			return types.NewError(types.ErrSyntaxError,
				"Array literals may only contain numbers", tok.Position).WithToken(tok.Value)
		}
	}
}

func (c *compiler) emit(in types.Instr) {
	c.instrs = append(c.instrs, in)
}
