package filtering

import "fmt"

// Kind classifies a key of a filter literal.
type Kind uint8

const (
	// KindOperator is a leaf comparison such as eq or in.
	KindOperator Kind = iota
	// KindObjectField wraps further structure and has a child scope.
	KindObjectField
	// KindCombinator is a logical and/or over a list of sub-filters.
	KindCombinator
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "operator"
	case KindObjectField:
		return "field"
	case KindCombinator:
		return "combinator"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field identifies a key within a scope.
type Field struct {
	Name        string
	TypeName    string
	Description string
}

// Classification is what a Scope knows about one key.
type Classification struct {
	Kind  Kind
	Field Field
	// Scope is the nested scope for KindObjectField, nil otherwise.
	Scope Scope
}

// Scope describes the keys that are legal at one nesting level of a
// filter, typically one filter input type. Implementations must be
// immutable and safe to share between builds.
type Scope interface {
	// Name identifies the scope in errors and logs.
	Name() string
	// Classify resolves a key; ok is false for keys the scope does not know.
	Classify(key string) (c Classification, ok bool)
}
