package graphql

import (
	"fmt"

	"github.com/dd0wney/cluso-filtering/pkg/validation"
)

// Operation names understood by the generated operation inputs and the
// predicate compiler.
const (
	OpEq          = "eq"
	OpNeq         = "neq"
	OpIn          = "in"
	OpNin         = "nin"
	OpGt          = "gt"
	OpGte         = "gte"
	OpLt          = "lt"
	OpLte         = "lte"
	OpNgt         = "ngt"
	OpNgte        = "ngte"
	OpNlt         = "nlt"
	OpNlte        = "nlte"
	OpContains    = "contains"
	OpNcontains   = "ncontains"
	OpStartsWith  = "startsWith"
	OpNstartsWith = "nstartsWith"
	OpEndsWith    = "endsWith"
	OpNendsWith   = "nendsWith"
)

// List quantifiers of List<Type>FilterInput.
const (
	ListSome = "some"
	ListAll  = "all"
	ListNone = "none"
	ListAny  = "any"
)

// MaxFilterDepth bounds FilterConfig.MaxDepth.
const MaxFilterDepth = 1024

// FilterConfig names the pieces of the generated filter schema.
type FilterConfig struct {
	ArgumentName string // Argument added to filtered fields
	AndKeyword   string
	OrKeyword    string
	TypeSuffix   string // Appended to the object type name
	MaxDepth     int    // Maximum literal nesting, 0 for unlimited
}

// DefaultFilterConfig returns the conventional names: where, and, or and
// the FilterInput suffix.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		ArgumentName: "where",
		AndKeyword:   "and",
		OrKeyword:    "or",
		TypeSuffix:   "FilterInput",
		MaxDepth:     32,
	}
}

// ValidateFilterConfig validates the filter configuration
func ValidateFilterConfig(config *FilterConfig) error {
	v := validation.NewConfigValidator("filtering").
		Required("argument_name", config.ArgumentName).
		Required("and_keyword", config.AndKeyword).
		Required("or_keyword", config.OrKeyword).
		Required("type_suffix", config.TypeSuffix).
		RangeInt("max_depth", config.MaxDepth, 0, MaxFilterDepth).
		Name("argument_name", config.ArgumentName).
		Name("and_keyword", config.AndKeyword).
		Name("or_keyword", config.OrKeyword).
		Name("type_suffix", config.TypeSuffix).
		Custom("or_keyword", func() error {
			if config.AndKeyword != "" && config.AndKeyword == config.OrKeyword {
				return fmt.Errorf("must differ from and_keyword, both are %q", config.OrKeyword)
			}
			return nil
		})
	return v.Validate()
}
