// Package compiler turns luar source text into bytecode chunks.
//
// The lexer produces tokens on demand and never fails; problems it can
// recover from are kept as warnings. The parser consumes tokens one at a
// time and emits bytecode directly, without building a syntax tree, and
// stops at the first syntax error.
package compiler
