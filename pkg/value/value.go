// Package value defines the runtime value domain shared by the compiler and
// the virtual machine.
package value

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Kind is the dynamic type tag of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindFunction
)

var kindNames = [...]string{
	KindNil:      "nil",
	KindBoolean:  "boolean",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindString:   "string",
	KindFunction: "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// State is the view of the VM a native function receives.
type State interface {
	// Register returns the value in register i, or Nil if the register has
	// never been written.
	Register(i int) Value

	// Stdout is where natives write program output.
	Stdout() io.Writer
}

// NativeFunc is a host-provided callable. The returned status code is zero on
// success.
type NativeFunc func(State) int

// Value is a tagged runtime value. The zero Value is nil.
type Value struct {
	kind Kind
	i    int64 // Integer payload, Boolean as 0/1
	f    float64
	s    string
	fn   NativeFunc
}

// Nil is the nil value.
var Nil = Value{}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func Bool(b bool) Value {
	if b {
		return Value{kind: KindBoolean, i: 1}
	}
	return Value{kind: KindBoolean}
}

func Int(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Function wraps a native callable.
func Function(fn NativeFunc) Value {
	return Value{kind: KindFunction, fn: fn}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

// AsBool returns the boolean payload and whether v is a Boolean.
func (v Value) AsBool() (bool, bool) {
	return v.i != 0, v.kind == KindBoolean
}

// AsInt returns the integer payload and whether v is an Integer.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// AsFloat returns the float payload and whether v is a Float.
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsString returns the string payload and whether v is a String.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsFunction returns the native callable and whether v is a Function.
func (v Value) AsFunction() (NativeFunc, bool) {
	if v.kind != KindFunction || v.fn == nil {
		return nil, false
	}
	return v.fn, true
}

// Equal compares two values by kind and content. Floats compare by bit
// pattern, so Integer 1 and Float 1.0 are distinct and NaN equals itself.
// Functions are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBoolean, KindInteger:
		return v.i == o.i
	case KindFloat:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case KindString:
		return v.s == o.s
	default:
		return false
	}
}

// String returns the debug textual representation. Strings print verbatim,
// without quotes or escaping.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		return strconv.FormatBool(v.i != 0)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// formatFloat renders floats the way Lua does: 14 significant digits, and a
// trailing ".0" when the result would otherwise read as an integer.
func formatFloat(f float64) string {
	s := fmt.Sprintf("%.14g", f)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
