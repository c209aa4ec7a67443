package filtering

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a scope cannot classify a key of the
	// literal. Argument validation normally rules this out, so seeing it means
	// the scope and the schema disagree.
	ErrUnknownField = errors.New("unknown filter field")

	// ErrFilterTooDeep is returned when a literal nests deeper than allowed.
	ErrFilterTooDeep = errors.New("filter nesting too deep")

	// ErrInvalidLiteral is returned when an input value cannot be converted.
	ErrInvalidLiteral = errors.New("invalid filter literal")
)

// UnknownFieldError reports the scope and key that failed classification.
type UnknownFieldError struct {
	Scope string
	Key   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: %q is not defined on %s", ErrUnknownField, e.Key, e.Scope)
}

func (e *UnknownFieldError) Unwrap() error {
	return ErrUnknownField
}

// DepthError reports a literal exceeding the configured depth limit.
type DepthError struct {
	Depth    int
	MaxDepth int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("%s: depth %d exceeds maximum allowed depth %d", ErrFilterTooDeep, e.Depth, e.MaxDepth)
}

func (e *DepthError) Unwrap() error {
	return ErrFilterTooDeep
}
