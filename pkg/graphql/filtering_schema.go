package graphql

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/metrics"
	"github.com/graphql-go/graphql"
)

// Convention generates filter input types for object types and wires the
// filter argument into fields. One Convention should serve a whole schema
// so that generated types are shared by name.
type Convention struct {
	config   FilterConfig
	builder  *filtering.Builder
	logger   logging.Logger
	metrics  *metrics.Registry
	observer FilterObserver

	objectInputs    map[string]*graphql.InputObject
	operationInputs map[string]*graphql.InputObject
	listInputs      map[string]*graphql.InputObject
}

// ConventionOption configures a Convention
type ConventionOption func(*Convention)

// WithConventionLogger logs filter builds and decisions to logger.
func WithConventionLogger(logger logging.Logger) ConventionOption {
	return func(c *Convention) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConventionMetrics records filter activity on r.
func WithConventionMetrics(r *metrics.Registry) ConventionOption {
	return func(c *Convention) {
		c.metrics = r
	}
}

// FilterEvent describes one filtered field invocation after the resolver
// has run.
type FilterEvent struct {
	Field   string
	Path    []any
	Context *filtering.Context
	Skipped bool
}

// FilterObserver is called once per filtered field invocation.
type FilterObserver func(FilterEvent)

// WithFilterObserver reports every filtered field to fn. The event's
// Context is read after the skip decision, so inspecting it does not change
// whether the filter runs.
func WithFilterObserver(fn FilterObserver) ConventionOption {
	return func(c *Convention) {
		c.observer = fn
	}
}

// NewConvention creates a convention. It fails if config is invalid.
func NewConvention(config FilterConfig, opts ...ConventionOption) (*Convention, error) {
	if err := ValidateFilterConfig(&config); err != nil {
		return nil, err
	}

	c := &Convention{
		config:          config,
		logger:          logging.NewNopLogger(),
		objectInputs:    make(map[string]*graphql.InputObject),
		operationInputs: make(map[string]*graphql.InputObject),
		listInputs:      make(map[string]*graphql.InputObject),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.builder = filtering.NewBuilder(
		filtering.WithLogger(c.logger.With(logging.Component("filter-builder"))),
		filtering.WithMetrics(c.metrics),
	)
	return c, nil
}

// Config returns the convention's configuration.
func (c *Convention) Config() FilterConfig {
	return c.config
}

// FilterInputNames returns the names of the object filter inputs generated
// so far, sorted.
func (c *Convention) FilterInputNames() []string {
	names := make([]string, 0, len(c.objectInputs))
	for name := range c.objectInputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterInput returns the <Type>FilterInput type for obj, creating it on
// first use. Fields are resolved lazily so mutually recursive object types
// are fine.
func (c *Convention) FilterInput(obj *graphql.Object) *graphql.InputObject {
	name := obj.Name() + c.config.TypeSuffix
	if input, ok := c.objectInputs[name]; ok {
		return input
	}

	var input *graphql.InputObject
	input = graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        name,
		Description: fmt.Sprintf("Filter over %s", obj.Name()),
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := c.combinatorFields(input)
			for _, fieldName := range sortedFieldNames(obj.Fields()) {
				def := obj.Fields()[fieldName]
				if filterType := c.fieldFilterType(def.Type); filterType != nil {
					fields[fieldName] = &graphql.InputObjectFieldConfig{
						Type:        filterType,
						Description: def.Description,
					}
				}
			}
			return fields
		}),
	})
	c.objectInputs[name] = input
	return input
}

// fieldFilterType picks the filter input for an output type, nil when the
// type cannot be filtered.
func (c *Convention) fieldFilterType(t graphql.Type) *graphql.InputObject {
	switch typ := graphql.GetNullable(t).(type) {
	case *graphql.List:
		element := c.fieldFilterType(typ.OfType)
		if element == nil {
			return nil
		}
		return c.listInput(element)
	case *graphql.Object:
		return c.FilterInput(typ)
	case *graphql.Scalar:
		return c.operationInput(typ)
	case *graphql.Enum:
		return c.operationInput(typ)
	default:
		return nil
	}
}

// operationInput returns <Scalar>OperationFilterInput. Strings get the
// text operators, Int and Float the ordering operators, everything else
// equality and membership.
func (c *Convention) operationInput(t graphql.Input) *graphql.InputObject {
	named, ok := t.(graphql.Named)
	if !ok {
		return nil
	}
	name := named.String() + "Operation" + c.config.TypeSuffix
	if input, ok := c.operationInputs[name]; ok {
		return input
	}

	ops := []string{OpEq, OpNeq, OpIn, OpNin}
	switch t {
	case graphql.String:
		ops = append(ops, OpContains, OpNcontains, OpStartsWith, OpNstartsWith, OpEndsWith, OpNendsWith)
	case graphql.Int, graphql.Float:
		ops = append(ops, OpGt, OpGte, OpLt, OpLte, OpNgt, OpNgte, OpNlt, OpNlte)
	case graphql.Boolean:
		ops = []string{OpEq, OpNeq}
	}

	var input *graphql.InputObject
	input = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields := c.combinatorFields(input)
			for _, op := range ops {
				var opType graphql.Input = t
				if op == OpIn || op == OpNin {
					opType = graphql.NewList(t)
				}
				fields[op] = &graphql.InputObjectFieldConfig{Type: opType}
			}
			return fields
		}),
	})
	c.operationInputs[name] = input
	return input
}

// listInput returns List<Element> with the some/all/none/any quantifiers.
func (c *Convention) listInput(element *graphql.InputObject) *graphql.InputObject {
	name := "List" + element.Name()
	if input, ok := c.listInputs[name]; ok {
		return input
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMap{
			ListSome: &graphql.InputObjectFieldConfig{Type: element, Description: "At least one element matches"},
			ListAll:  &graphql.InputObjectFieldConfig{Type: element, Description: "Every element matches"},
			ListNone: &graphql.InputObjectFieldConfig{Type: element, Description: "No element matches"},
			ListAny:  &graphql.InputObjectFieldConfig{Type: graphql.Boolean, Description: "The list is non-empty"},
		},
	})
	c.listInputs[name] = input
	return input
}

func (c *Convention) combinatorFields(self *graphql.InputObject) graphql.InputObjectConfigFieldMap {
	list := graphql.NewList(graphql.NewNonNull(self))
	return graphql.InputObjectConfigFieldMap{
		c.config.AndKeyword: {Type: list},
		c.config.OrKeyword:  {Type: list},
	}
}

// isListInput reports whether name is a generated list filter.
func (c *Convention) isListInput(name string) bool {
	_, ok := c.listInputs[name]
	return ok
}

// Scope returns the filter metadata for a generated input type.
func (c *Convention) Scope(input *graphql.InputObject) *InputScope {
	return &InputScope{input: input, and: c.config.AndKeyword, or: c.config.OrKeyword}
}

// InputScope classifies the keys of a filter input object: the and/or
// keywords are combinators, keys typed with another input object are
// fields, anything else is an operator.
type InputScope struct {
	input *graphql.InputObject
	and   string
	or    string
}

// Name returns the input type name.
func (s *InputScope) Name() string {
	return s.input.Name()
}

// Input returns the underlying input type.
func (s *InputScope) Input() *graphql.InputObject {
	return s.input
}

// Classify implements filtering.Scope.
func (s *InputScope) Classify(key string) (filtering.Classification, bool) {
	def, ok := s.input.Fields()[key]
	if !ok {
		return filtering.Classification{}, false
	}

	field := filtering.Field{
		Name:        key,
		TypeName:    graphql.GetNamed(def.Type).String(),
		Description: def.Description(),
	}

	if key == s.and || key == s.or {
		return filtering.Classification{Kind: filtering.KindCombinator, Field: field}, true
	}

	if child, ok := graphql.GetNamed(def.Type).(*graphql.InputObject); ok {
		return filtering.Classification{
			Kind:  filtering.KindObjectField,
			Field: field,
			Scope: &InputScope{input: child, and: s.and, or: s.or},
		}, true
	}

	return filtering.Classification{Kind: filtering.KindOperator, Field: field}, true
}

func sortedFieldNames(fields graphql.FieldDefinitionMap) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
