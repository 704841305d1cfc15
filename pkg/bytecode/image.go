package bytecode

import (
	"bytes"
	"fmt"
	"math"

	"github.com/chazu/luar/pkg/value"
	"github.com/fxamacker/cbor/v2"
)

// Signature prefixes every binary chunk image. A source file starting with
// these bytes is loaded as a precompiled chunk instead of being compiled.
var Signature = []byte("\x1bLuaR")

// cborEncMode uses canonical encoding so equal chunks produce equal images.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireChunk struct {
	Version   uint16           `cbor:"1,keyasint"`
	Constants []wireConstant   `cbor:"2,keyasint"`
	Code      []byte           `cbor:"3,keyasint"`
	SourceMap []SourceLocation `cbor:"4,keyasint,omitempty"`
}

type wireConstant struct {
	Kind  uint8  `cbor:"1,keyasint"`
	Int   int64  `cbor:"2,keyasint,omitempty"`
	Float uint64 `cbor:"3,keyasint,omitempty"` // IEEE 754 bits
	Str   string `cbor:"4,keyasint,omitempty"`
}

// IsImage reports whether data starts with the binary chunk signature.
func IsImage(data []byte) bool {
	return bytes.HasPrefix(data, Signature)
}

// MarshalChunk serializes a Chunk to a signed CBOR image.
func MarshalChunk(c *Chunk) ([]byte, error) {
	w := wireChunk{
		Version:   c.Version,
		Code:      c.Code,
		SourceMap: c.SourceMap,
		Constants: make([]wireConstant, len(c.Constants)),
	}
	for i, k := range c.Constants {
		wc, err := encodeConstant(k)
		if err != nil {
			return nil, fmt.Errorf("bytecode: marshal constant %d: %w", i, err)
		}
		w.Constants[i] = wc
	}

	payload, err := cborEncMode.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal chunk: %w", err)
	}
	out := make([]byte, 0, len(Signature)+len(payload))
	out = append(out, Signature...)
	return append(out, payload...), nil
}

// UnmarshalChunk deserializes and validates a chunk image.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	if !IsImage(data) {
		return nil, fmt.Errorf("bytecode: missing chunk signature")
	}

	var w wireChunk
	if err := cbor.Unmarshal(data[len(Signature):], &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}

	c := &Chunk{
		Version:   w.Version,
		Code:      w.Code,
		SourceMap: w.SourceMap,
		Constants: make([]value.Value, len(w.Constants)),
	}
	if c.Code == nil {
		c.Code = []byte{}
	}
	for i, wc := range w.Constants {
		k, err := decodeConstant(wc)
		if err != nil {
			return nil, fmt.Errorf("bytecode: constant %d: %w", i, err)
		}
		c.Constants[i] = k
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: invalid chunk: %w", err)
	}
	return c, nil
}

func encodeConstant(v value.Value) (wireConstant, error) {
	wc := wireConstant{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case value.KindNil:
	case value.KindBoolean:
		if b, _ := v.AsBool(); b {
			wc.Int = 1
		}
	case value.KindInteger:
		wc.Int, _ = v.AsInt()
	case value.KindFloat:
		f, _ := v.AsFloat()
		wc.Float = math.Float64bits(f)
	case value.KindString:
		wc.Str, _ = v.AsString()
	default:
		return wc, fmt.Errorf("%s values cannot be serialized", v.Kind())
	}
	return wc, nil
}

func decodeConstant(wc wireConstant) (value.Value, error) {
	switch value.Kind(wc.Kind) {
	case value.KindNil:
		return value.Nil, nil
	case value.KindBoolean:
		return value.Bool(wc.Int != 0), nil
	case value.KindInteger:
		return value.Int(wc.Int), nil
	case value.KindFloat:
		return value.Float(math.Float64frombits(wc.Float)), nil
	case value.KindString:
		return value.String(wc.Str), nil
	default:
		return value.Nil, fmt.Errorf("unsupported constant kind %s", value.Kind(wc.Kind))
	}
}
