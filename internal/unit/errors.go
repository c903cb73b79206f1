package unit

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports malformed option tokens: an unknown flag, a flag missing
// its value, or a missing required option.
type ParseError struct {
	// Args are the tokens that failed to parse.
	Args []string

	// Err is the underlying flag parsing or validation error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse options [%s]: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ErrForeignOptions is returned by SetOptions when the options were produced
// by a different unit type.
var ErrForeignOptions = errors.New("options were not produced by this unit type")
