// Package ident validates, cleans, and generates object identifiers and
// tracks which identifiers are already taken within a model.
//
// Identifiers may contain only ASCII letters, digits, underscores, dots, and
// dashes, and may be at most MaxLength characters long. They are assigned
// once at construction and never change.
package ident

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxLength is the longest identifier accepted.
const MaxLength = 100

var (
	// ErrInvalidIdentifier is returned for identifiers with illegal
	// characters or bad length.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrDuplicateIdentifier is returned when an identifier is already in use
	// within the same model.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
)

var (
	validPattern   = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	illegalPattern = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)
)

// Validate reports whether id is a legal identifier. The returned error
// wraps ErrInvalidIdentifier.
func Validate(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: identifier is empty", ErrInvalidIdentifier)
	case len(id) > MaxLength:
		return fmt.Errorf("%w: %q is %d characters long, max is %d", ErrInvalidIdentifier, id, len(id), MaxLength)
	case !validPattern.MatchString(id):
		bad := illegalPattern.FindString(id)
		return fmt.Errorf("%w: %q contains illegal character %q", ErrInvalidIdentifier, id, bad)
	}
	return nil
}

// Clean replaces illegal characters in s with underscores and trims the
// result to MaxLength. An empty result becomes "unnamed".
func Clean(s string) string {
	s = illegalPattern.ReplaceAllString(strings.TrimSpace(s), "_")
	if len(s) > MaxLength {
		s = s[:MaxLength]
	}
	if s == "" {
		return "unnamed"
	}
	return s
}

// CleanAndID cleans s and appends a random 8 character hex suffix, leaving
// room for the suffix within MaxLength.
func CleanAndID(s string) string {
	c := Clean(s)
	if len(c) > MaxLength-9 {
		c = c[:MaxLength-9]
	}
	return c + "_" + shortID()
}

// New returns a fresh identifier made of prefix and a random suffix.
func New(prefix string) string {
	if prefix == "" {
		return shortID()
	}
	return CleanAndID(prefix)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
