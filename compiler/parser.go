package compiler

import (
	"errors"
	"fmt"
	"math"

	"github.com/tliron/commonlog"

	"github.com/chazu/luar/pkg/bytecode"
	"github.com/chazu/luar/pkg/fault"
	"github.com/chazu/luar/pkg/value"
)

// ---------------------------------------------------------------------------
// Parser: single-pass compiler from tokens to bytecode
// ---------------------------------------------------------------------------

// Registers used by the call statement. The callee goes in funcReg and its
// single argument in argReg, which is where natives expect to find it.
const (
	funcReg uint8 = 0
	argReg  uint8 = 1
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("luar.compiler")
}

// SyntaxError reports a token sequence outside the supported grammar.
// Compilation stops at the first one.
type SyntaxError struct {
	Pos   Position
	Msg   string
	Token Token // offending token
	Err   error // optional cause
}

func (e *SyntaxError) Error() string {
	return (&fault.Error{Kind: fault.Syntax, Pos: e.Pos, Msg: e.Msg, Err: e.Err}).Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// FaultKind implements fault.Classified.
func (e *SyntaxError) FaultKind() fault.Kind {
	return fault.Syntax
}

// parser holds the state of one compilation.
type parser struct {
	lexer *Lexer
	chunk *bytecode.Chunk
}

// Load compiles the tokens produced by l into a chunk. Bytecode is emitted
// as each statement is recognized; there is no syntax tree. On error no
// chunk is returned.
//
// The only statement form is a call of a global with one argument:
//
//	name(literal)
//	name "string"
//
// where literal is nil, true, false, a number or a string.
func Load(l *Lexer) (*bytecode.Chunk, error) {
	p := &parser{lexer: l, chunk: bytecode.NewChunk()}

	statements := 0
	for {
		tok := l.Next()
		if tok.Type == TokenEOS {
			break
		}
		if err := p.statement(tok); err != nil {
			return nil, err
		}
		statements++
	}

	log := logger()
	for _, w := range l.Warnings() {
		log.Warning(w.Error())
	}
	log.Debugf("compiled %d statements: %d constants, %d bytes of code",
		statements, p.chunk.ConstantCount(), p.chunk.CodeLen())

	return p.chunk, nil
}

// Compile compiles source text into a chunk.
func Compile(src string) (*bytecode.Chunk, error) {
	return Load(NewLexer(src))
}

// statement compiles one call statement starting at name.
func (p *parser) statement(name Token) error {
	if name.Type != TokenName {
		return p.errorf(name, "unexpected %s, expected a function name", name)
	}

	k, err := p.constant(name, value.String(name.Literal))
	if err != nil {
		return err
	}
	offset := p.chunk.EmitGetGlobal(funcReg, k)
	p.chunk.AddSourceLocation(uint32(offset), uint32(name.Pos.Line), uint16(min(name.Pos.Column, math.MaxUint16)))

	switch tok := p.lexer.Next(); tok.Type {
	case TokenParLeft:
		if err := p.literalArgument(); err != nil {
			return err
		}
		if closing := p.lexer.Next(); closing.Type != TokenParRight {
			return p.errorf(closing, "expected ')' to close the argument of %s, got %s", name.Literal, closing)
		}

	case TokenString:
		k, err := p.constant(tok, value.String(tok.Literal))
		if err != nil {
			return err
		}
		p.chunk.EmitLoadConst(argReg, k)

	default:
		return p.errorf(tok, "expected '(' or a string after %s, got %s", name.Literal, tok)
	}

	p.chunk.EmitCall(funcReg, 1)
	return nil
}

// literalArgument compiles the single literal inside a parenthesized
// argument list into argReg. Integers that fit in an i16 are encoded inline;
// other numbers and strings go through the constant pool.
func (p *parser) literalArgument() error {
	tok := p.lexer.Next()

	var v value.Value
	switch tok.Type {
	case TokenNil:
		p.chunk.EmitLoadNil(argReg)
		return nil
	case TokenTrue, TokenFalse:
		p.chunk.EmitLoadBool(argReg, tok.Type == TokenTrue)
		return nil
	case TokenInteger:
		if tok.Int >= math.MinInt16 && tok.Int <= math.MaxInt16 {
			p.chunk.EmitLoadInt(argReg, int16(tok.Int))
			return nil
		}
		v = value.Int(tok.Int)
	case TokenFloat:
		v = value.Float(tok.Float)
	case TokenString:
		v = value.String(tok.Literal)
	default:
		return p.errorf(tok, "expected a literal argument, got %s", tok)
	}

	k, err := p.constant(tok, v)
	if err != nil {
		return err
	}
	p.chunk.EmitLoadConst(argReg, k)
	return nil
}

// constant interns v in the chunk's constant pool.
func (p *parser) constant(at Token, v value.Value) (uint16, error) {
	k, err := p.chunk.AddConstant(v)
	if err != nil {
		if errors.Is(err, bytecode.ErrTooManyConstants) {
			return 0, &SyntaxError{Pos: at.Pos, Msg: "too many constants", Token: at, Err: err}
		}
		return 0, err
	}
	return k, nil
}

// errorf builds a syntax error at tok.
func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...), Token: tok}
}
