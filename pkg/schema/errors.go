package schema

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/chazu/hbcore/internal/cueutil"
)

// ErrSchema is matched by every decode failure.
var ErrSchema = errors.New("schema error")

// DecodeError reports a document that cannot be turned into objects.
type DecodeError struct {
	Type string   // object type being decoded
	Path []string // field path from the document root
	Err  error
}

func (e *DecodeError) Error() string {
	p := cueutil.FormatPath(e.Path)
	if p == "" {
		p = "<root>"
	}
	if e.Type == "" {
		return fmt.Sprintf("%s: %s: %v", ErrSchema, p, e.Err)
	}
	return fmt.Sprintf("%s: %s at %s: %v", ErrSchema, e.Type, p, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes every DecodeError match ErrSchema.
func (e *DecodeError) Is(target error) bool {
	return target == ErrSchema
}

// PathString returns the path in rooms[0].faces form.
func (e *DecodeError) PathString() string {
	return cueutil.FormatPath(e.Path)
}
