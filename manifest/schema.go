package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ErrInvalid is wrapped by every schema violation.
var ErrInvalid = errors.New("invalid configuration")

//go:embed schema.cue
var schemaSource string

// A cue.Context is not safe for concurrent use.
var schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	err  error
	done bool
}

func loadSchema() error {
	if schema.done {
		return schema.err
	}
	schema.done = true
	schema.ctx = cuecontext.New()
	v := schema.ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		schema.err = fmt.Errorf("manifest schema: %w", err)
		return schema.err
	}
	schema.def = v.LookupPath(cue.ParsePath("#Manifest"))
	if err := schema.def.Err(); err != nil {
		schema.err = fmt.Errorf("manifest schema: %w", err)
	}
	return schema.err
}

// Validate checks decoded luar.toml content against the manifest schema.
// Unknown sections and keys are rejected.
func Validate(raw map[string]any) error {
	schema.mu.Lock()
	defer schema.mu.Unlock()

	if err := loadSchema(); err != nil {
		return err
	}
	if raw == nil {
		raw = map[string]any{}
	}

	v := schema.ctx.Encode(raw)
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}
