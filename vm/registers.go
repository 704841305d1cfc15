package vm

import (
	"fmt"

	"github.com/chazu/luar/pkg/value"
)

// Registers is the register arena of one execution. Writing past the end
// grows it to index+1, filling the gap with nil. It never shrinks while a
// chunk runs.
type Registers struct {
	slots []value.Value
}

// Set stores v in register i, growing the arena if needed.
func (r *Registers) Set(i int, v value.Value) {
	if i >= len(r.slots) {
		r.slots = append(r.slots, make([]value.Value, i+1-len(r.slots))...)
	}
	r.slots[i] = v
}

// Get returns register i. Reading past the end is a runtime fault.
func (r *Registers) Get(i int) (value.Value, error) {
	if i < 0 || i >= len(r.slots) {
		return value.Nil, &RuntimeError{
			Offset: -1,
			Msg:    fmt.Sprintf("register %d read before it was written (arena holds %d)", i, len(r.slots)),
			Err:    ErrRegisterRange,
		}
	}
	return r.slots[i], nil
}

// Peek returns register i, or nil if it has never been written.
func (r *Registers) Peek(i int) value.Value {
	if i < 0 || i >= len(r.slots) {
		return value.Nil
	}
	return r.slots[i]
}

// Len returns the current size of the arena.
func (r *Registers) Len() int {
	return len(r.slots)
}

// Reset empties the arena.
func (r *Registers) Reset() {
	r.slots = nil
}
