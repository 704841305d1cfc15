package vm

import (
	"fmt"
	"sort"

	"github.com/chazu/luar/pkg/value"
)

// ---------------------------------------------------------------------------
// Native functions
// ---------------------------------------------------------------------------

// Registry maps global names to native functions. An ExeState starts with
// one global per entry.
type Registry map[string]value.NativeFunc

// DefaultRegistry returns the standard natives: just print.
func DefaultRegistry() Registry {
	return Registry{
		"print": Print,
	}
}

// Names returns the registered names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Print writes the textual form of register 1 and a newline to the state's
// output.
func Print(s value.State) int {
	if _, err := fmt.Fprintln(s.Stdout(), s.Register(1).String()); err != nil {
		return 1
	}
	return 0
}
