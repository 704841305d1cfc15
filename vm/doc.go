// Package vm implements the luar virtual machine.
//
// This package contains:
//   - ExeState, the globals table and register arena of one run
//   - The instruction dispatch loop
//   - The native function registry and the print native
//   - Runtime faults
package vm
