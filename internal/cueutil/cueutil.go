// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates JSON or CUE input against an embedded CUE
// schema definition and turns CUE errors into path-qualified messages.
package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize bounds the size of validated input.
const DefaultMaxFileSize = 16 << 20

// Schema is a compiled CUE schema.
type Schema struct {
	ctx   *cue.Context
	value cue.Value
}

// Compile compiles schema source. Errors here are programming errors in
// the embedded schema.
func Compile(src string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if v.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", v.Err())
	}
	return &Schema{ctx: ctx, value: v}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Schema {
	s, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return s
}

// Options control Validate.
type Options struct {
	// Filename is used in error messages.
	Filename string
	// MaxFileSize rejects larger input; zero means DefaultMaxFileSize.
	MaxFileSize int64
	// Concrete requires every field to have a concrete value.
	Concrete bool
}

// Validate compiles data, unifies it with the definition at path (for
// example "#Model"), and validates the result.
func (s *Schema) Validate(data []byte, path string, opts Options) (cue.Value, error) {
	filename := opts.Filename
	if filename == "" {
		filename = "<input>"
	}
	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := CheckFileSize(data, maxSize, filename); err != nil {
		return cue.Value{}, err
	}

	def := s.value.LookupPath(cue.ParsePath(path))
	if def.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", path, def.Err())
	}

	user := s.ctx.CompileBytes(data, cue.Filename(filename))
	if user.Err() != nil {
		return cue.Value{}, FormatError(user.Err(), filename)
	}

	unified := def.Unify(user)
	if err := unified.Validate(cue.Concrete(opts.Concrete)); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	return unified, nil
}

// FormatError flattens CUE errors into "file: path: message" lines.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}
	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	var lines []string
	for _, e := range cueErrors {
		pathStr := FormatPath(errors.Path(e))
		msg := e.Error()
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}
		if pathStr != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", pathStr, msg))
		} else {
			lines = append(lines, msg)
		}
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// FormatPath renders ["rooms", "0", "faces"] as "rooms[0].faces".
func FormatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize rejects data larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
