package vm

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/luar/pkg/value"
)

// ExeState is the execution state of one run: the globals table, the
// register arena and the output natives write to. It is not safe for
// concurrent use.
type ExeState struct {
	globals   map[string]value.Value
	registers Registers
	stdout    io.Writer
	trace     bool
	log       commonlog.Logger
	runID     uuid.UUID
}

// Option configures an ExeState.
type Option func(*ExeState)

// WithStdout sets the writer natives print to. The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(s *ExeState) { s.stdout = w }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(on bool) Option {
	return func(s *ExeState) { s.trace = on }
}

// WithLogger replaces the "luar.vm" logger.
func WithLogger(log commonlog.Logger) Option {
	return func(s *ExeState) { s.log = log }
}

// New creates an execution state whose globals are the given natives.
func New(natives Registry, opts ...Option) *ExeState {
	s := &ExeState{
		globals: make(map[string]value.Value, len(natives)),
		stdout:  os.Stdout,
		runID:   uuid.New(),
	}
	for name, fn := range natives {
		s.globals[name] = value.Function(fn)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = commonlog.GetLogger("luar.vm")
	}
	return s
}

// RunID identifies this state in log output.
func (s *ExeState) RunID() uuid.UUID {
	return s.runID
}

// Global returns the value bound to name, or nil.
func (s *ExeState) Global(name string) value.Value {
	return s.globals[name]
}

// SetGlobal binds name to v.
func (s *ExeState) SetGlobal(name string, v value.Value) {
	s.globals[name] = v
}

// Registers returns the register arena.
func (s *ExeState) Registers() *Registers {
	return &s.registers
}

// Register implements value.State.
func (s *ExeState) Register(i int) value.Value {
	return s.registers.Peek(i)
}

// Stdout implements value.State.
func (s *ExeState) Stdout() io.Writer {
	return s.stdout
}
