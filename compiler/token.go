package compiler

import (
	"fmt"

	"github.com/chazu/luar/pkg/fault"
)

// ---------------------------------------------------------------------------
// Token types for the luar lexer
// ---------------------------------------------------------------------------

// Position is a location in source text.
type Position = fault.Position

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOS TokenType = iota

	// Reserved words
	TokenAnd
	TokenBreak
	TokenDo
	TokenElse
	TokenElseif
	TokenEnd
	TokenFalse
	TokenFor
	TokenFunction
	TokenGoto
	TokenIf
	TokenIn
	TokenLocal
	TokenNil
	TokenNot
	TokenOr
	TokenRepeat
	TokenReturn
	TokenThen
	TokenTrue
	TokenUntil
	TokenWhile

	// Arithmetic and length
	TokenAdd // +
	TokenSub // -
	TokenMul // *
	TokenDiv // /
	TokenMod // %
	TokenPow // ^
	TokenLen // #

	// Bitwise
	TokenBitAnd     // &
	TokenBitXor     // ~
	TokenBitOr      // |
	TokenShiftLeft  // <<
	TokenShiftRight // >>
	TokenIdiv       // //

	// Comparison and assignment
	TokenEq        // ==
	TokenNotEq     // ~=
	TokenLessEq    // <=
	TokenGreaterEq // >=
	TokenLess      // <
	TokenGreater   // >
	TokenAssign    // =

	// Delimiters
	TokenParLeft    // (
	TokenParRight   // )
	TokenCurlyLeft  // {
	TokenCurlyRight // }
	TokenSqurLeft   // [
	TokenSqurRight  // ]
	TokenDoubColon  // ::
	TokenSemiColon  // ;
	TokenColon      // :
	TokenComma      // ,
	TokenDot        // .
	TokenConcat     // ..
	TokenDots       // ...

	// Literals
	TokenInteger // 42
	TokenFloat   // 3.14
	TokenString  // "hello", 'hello'
	TokenName    // print, _x1
)

var tokenNames = map[TokenType]string{
	TokenEOS:        "<eos>",
	TokenAnd:        "and",
	TokenBreak:      "break",
	TokenDo:         "do",
	TokenElse:       "else",
	TokenElseif:     "elseif",
	TokenEnd:        "end",
	TokenFalse:      "false",
	TokenFor:        "for",
	TokenFunction:   "function",
	TokenGoto:       "goto",
	TokenIf:         "if",
	TokenIn:         "in",
	TokenLocal:      "local",
	TokenNil:        "nil",
	TokenNot:        "not",
	TokenOr:         "or",
	TokenRepeat:     "repeat",
	TokenReturn:     "return",
	TokenThen:       "then",
	TokenTrue:       "true",
	TokenUntil:      "until",
	TokenWhile:      "while",
	TokenAdd:        "+",
	TokenSub:        "-",
	TokenMul:        "*",
	TokenDiv:        "/",
	TokenMod:        "%",
	TokenPow:        "^",
	TokenLen:        "#",
	TokenBitAnd:     "&",
	TokenBitXor:     "~",
	TokenBitOr:      "|",
	TokenShiftLeft:  "<<",
	TokenShiftRight: ">>",
	TokenIdiv:       "//",
	TokenEq:         "==",
	TokenNotEq:      "~=",
	TokenLessEq:     "<=",
	TokenGreaterEq:  ">=",
	TokenLess:       "<",
	TokenGreater:    ">",
	TokenAssign:     "=",
	TokenParLeft:    "(",
	TokenParRight:   ")",
	TokenCurlyLeft:  "{",
	TokenCurlyRight: "}",
	TokenSqurLeft:   "[",
	TokenSqurRight:  "]",
	TokenDoubColon:  "::",
	TokenSemiColon:  ";",
	TokenColon:      ":",
	TokenComma:      ",",
	TokenDot:        ".",
	TokenConcat:     "..",
	TokenDots:       "...",
	TokenInteger:    "INTEGER",
	TokenFloat:      "FLOAT",
	TokenString:     "STRING",
	TokenName:       "NAME",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// IsReserved reports whether t is a reserved word.
func (t TokenType) IsReserved() bool {
	return t >= TokenAnd && t <= TokenWhile
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text; content for strings, text for names
	Int     int64    // value of TokenInteger
	Float   float64  // value of TokenFloat
	Pos     Position // start position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOS:
		return "<eos>"
	case TokenInteger, TokenFloat, TokenString, TokenName:
		if len(t.Literal) > 20 {
			return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
		}
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	default:
		return fmt.Sprintf("'%s'", t.Type)
	}
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"and":      TokenAnd,
	"break":    TokenBreak,
	"do":       TokenDo,
	"else":     TokenElse,
	"elseif":   TokenElseif,
	"end":      TokenEnd,
	"false":    TokenFalse,
	"for":      TokenFor,
	"function": TokenFunction,
	"goto":     TokenGoto,
	"if":       TokenIf,
	"in":       TokenIn,
	"local":    TokenLocal,
	"nil":      TokenNil,
	"not":      TokenNot,
	"or":       TokenOr,
	"repeat":   TokenRepeat,
	"return":   TokenReturn,
	"then":     TokenThen,
	"true":     TokenTrue,
	"until":    TokenUntil,
	"while":    TokenWhile,
}

// ReservedWords returns the reserved words of the language.
func ReservedWords() []string {
	words := make([]string, 0, len(reservedWords))
	for w := range reservedWords {
		words = append(words, w)
	}
	return words
}
