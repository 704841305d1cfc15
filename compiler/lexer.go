package compiler

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chazu/luar/pkg/fault"
)

// ---------------------------------------------------------------------------
// Lexer: on-demand tokenizer for luar source
// ---------------------------------------------------------------------------

const eof rune = -1

// Lexer turns source text into tokens one call to Next at a time. The cursor
// only moves forward; Reset starts over from the beginning.
//
// The lexer never fails. Unknown characters are skipped, an unterminated
// string yields the text collected so far, and a numeric literal that does
// not parse produces no token at all. The last two cases are recorded in
// Warnings so callers can surface them.
type Lexer struct {
	input    string
	pos      int  // offset of ch
	readPos  int  // offset after ch
	ch       rune // current character, eof at end of input
	line     int  // line of ch (1-based)
	col      int  // column of ch (1-based)
	warnings []*fault.Error
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of its input and clears warnings.
func (l *Lexer) Reset() {
	l.pos = 0
	l.readPos = 0
	l.ch = 0
	l.line = 1
	l.col = 0
	l.warnings = nil
	l.readChar()
}

// Warnings returns the lexical problems seen so far.
func (l *Lexer) Warnings() []*fault.Error {
	return l.warnings
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	if l.readPos >= len(l.input) {
		l.ch = eof
		l.pos = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// position returns the position of the current character.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func (l *Lexer) warn(pos Position, format string, args ...any) {
	l.warnings = append(l.warnings, fault.New(fault.Lexical, pos, format, args...))
}

// Next returns the next token. Once the input is exhausted every call
// returns TokenEOS.
func (l *Lexer) Next() Token {
	for {
		l.skipWhitespace()
		pos := l.position()

		switch {
		case l.ch == eof:
			return Token{Type: TokenEOS, Pos: pos}

		case isNameStart(l.ch):
			return l.readName(pos)

		case isDigit(l.ch):
			if tok, ok := l.readNumber(pos); ok {
				return tok
			}
			continue

		case l.ch == '"' || l.ch == '\'':
			return l.readString(pos)
		}

		if tok, ok := l.readSymbol(pos); ok {
			return tok
		}
		// A comment or an unknown character was consumed; keep scanning.
	}
}

// skipWhitespace skips Unicode whitespace.
func (l *Lexer) skipWhitespace() {
	for l.ch != eof && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

// skipLine discards everything up to and including the next newline.
func (l *Lexer) skipLine() {
	for l.ch != eof {
		ch := l.ch
		l.readChar()
		if ch == '\n' {
			return
		}
	}
}

// nextIf consumes the current character if it equals ch.
func (l *Lexer) nextIf(ch rune) bool {
	if l.ch == ch {
		l.readChar()
		return true
	}
	return false
}

// readSymbol reads an operator or punctuation token. It returns false when
// the consumed input produced no token (a comment or an unknown character).
func (l *Lexer) readSymbol(pos Position) (Token, bool) {
	start := l.pos
	ch := l.ch
	l.readChar()

	var typ TokenType
	switch ch {
	case '+':
		typ = TokenAdd
	case '-':
		if l.nextIf('-') {
			l.skipLine()
			return Token{}, false
		}
		typ = TokenSub
	case '*':
		typ = TokenMul
	case '/':
		typ = TokenDiv
		if l.nextIf('/') {
			typ = TokenIdiv
		}
	case '%':
		typ = TokenMod
	case '^':
		typ = TokenPow
	case '#':
		typ = TokenLen
	case '&':
		typ = TokenBitAnd
	case '~':
		typ = TokenBitXor
		if l.nextIf('=') {
			typ = TokenNotEq
		}
	case '|':
		typ = TokenBitOr
	case '<':
		switch {
		case l.nextIf('<'):
			typ = TokenShiftLeft
		case l.nextIf('='):
			typ = TokenLessEq
		default:
			typ = TokenLess
		}
	case '>':
		switch {
		case l.nextIf('>'):
			typ = TokenShiftRight
		case l.nextIf('='):
			typ = TokenGreaterEq
		default:
			typ = TokenGreater
		}
	case '=':
		typ = TokenAssign
		if l.nextIf('=') {
			typ = TokenEq
		}
	case '(':
		typ = TokenParLeft
	case ')':
		typ = TokenParRight
	case '{':
		typ = TokenCurlyLeft
	case '}':
		typ = TokenCurlyRight
	case '[':
		typ = TokenSqurLeft
	case ']':
		typ = TokenSqurRight
	case ':':
		typ = TokenColon
		if l.nextIf(':') {
			typ = TokenDoubColon
		}
	case ';':
		typ = TokenSemiColon
	case ',':
		typ = TokenComma
	case '.':
		typ = TokenDot
		if l.nextIf('.') {
			typ = TokenConcat
			if l.nextIf('.') {
				typ = TokenDots
			}
		}
	default:
		return Token{}, false
	}

	return Token{Type: typ, Literal: l.input[start:l.pos], Pos: pos}, true
}

// readName reads an identifier or reserved word.
func (l *Lexer) readName(pos Position) Token {
	start := l.pos
	for isNameChar(l.ch) {
		l.readChar()
	}

	literal := l.input[start:l.pos]
	if typ, ok := reservedWords[literal]; ok {
		return Token{Type: typ, Literal: literal, Pos: pos}
	}
	return Token{Type: TokenName, Literal: literal, Pos: pos}
}

// readNumber reads an integer or float literal. Digits accumulate; the first
// '.' switches to float mode and a second one ends the literal without being
// consumed. A literal that fails to parse is dropped and reported through
// Warnings.
func (l *Lexer) readNumber(pos Position) (Token, bool) {
	start := l.pos
	isFloat := false

	for {
		if isDigit(l.ch) {
			l.readChar()
		} else if l.ch == '.' && !isFloat {
			isFloat = true
			l.readChar()
		} else {
			break
		}
	}

	literal := l.input[start:l.pos]
	if isFloat {
		f, err := strconv.ParseFloat(literal, 64)
		// Out-of-range floats saturate to infinity instead of being dropped.
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			l.warn(pos, "malformed number %q", literal)
			return Token{}, false
		}
		return Token{Type: TokenFloat, Literal: literal, Float: f, Pos: pos}, true
	}

	n, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		l.warn(pos, "malformed number %q", literal)
		return Token{}, false
	}
	return Token{Type: TokenInteger, Literal: literal, Int: n, Pos: pos}, true
}

// readString reads a quoted string. There are no escape sequences: the
// content between the quotes is taken verbatim.
func (l *Lexer) readString(pos Position) Token {
	quote := l.ch
	l.readChar() // consume opening quote

	var sb strings.Builder
	for l.ch != eof && l.ch != quote {
		sb.WriteRune(l.ch)
		l.readChar()
	}

	if l.ch == quote {
		l.readChar() // consume closing quote
	} else {
		l.warn(pos, "unterminated string")
	}

	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

// Helper functions

func isNameStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens from the input, ending with TokenEOS.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOS {
			break
		}
	}
	return tokens
}
