package filtering

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/metrics"
)

// Builder turns literals into Node trees. A Builder holds no per-build
// state and may be shared.
type Builder struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithLogger sets the builder's logger.
func WithLogger(logger logging.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics records builds on the given registry.
func WithMetrics(r *metrics.Registry) BuilderOption {
	return func(b *Builder) {
		b.metrics = r
	}
}

// NewBuilder creates a builder. Without options it logs nowhere and
// records no metrics.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var defaultBuilder = NewBuilder()

// Build builds literal against scope with a default builder.
func Build(literal Literal, scope Scope) (*Node, error) {
	return defaultBuilder.Build(literal, scope)
}

// Build walks the literal once, classifying every key through scope.
// Anything other than an object literal yields an empty node.
func (b *Builder) Build(literal Literal, scope Scope) (*Node, error) {
	scopeName := "<nil>"
	if scope != nil {
		scopeName = scope.Name()
	}
	timer := logging.StartTimer(b.logger, "filter built", logging.Scope(scopeName))

	node, err := b.build(literal, scope)
	if err != nil {
		timer.EndError(err)
		if b.metrics != nil {
			b.metrics.RecordFilterBuild(scopeName, "error", timer.Elapsed(), 0)
		}
		return nil, err
	}

	nodes := node.Count()
	if b.metrics != nil {
		b.metrics.RecordFilterBuild(scopeName, "ok", timer.Elapsed(), nodes)
	}
	timer.EndWithLevel(logging.DebugLevel, "filter built", logging.Count(nodes))
	return node, nil
}

func (b *Builder) build(literal Literal, scope Scope) (*Node, error) {
	obj, ok := literal.(*ObjectLiteral)
	if !ok || obj == nil || len(obj.Fields) == 0 {
		return &Node{}, nil
	}
	if scope == nil {
		return nil, errors.New("filtering: object literal without a scope")
	}

	node := &Node{}
	for _, lf := range obj.Fields {
		c, ok := scope.Classify(lf.Name)
		if !ok {
			return nil, &UnknownFieldError{Scope: scope.Name(), Key: lf.Name}
		}
		if c.Field.Name == "" {
			c.Field.Name = lf.Name
		}

		switch c.Kind {
		case KindObjectField:
			if c.Scope == nil {
				return nil, fmt.Errorf("filtering: field %q on %s has no nested scope", lf.Name, scope.Name())
			}
			child, err := b.build(lf.Value, c.Scope)
			if err != nil {
				return nil, err
			}
			node.fields = append(node.fields, FieldInfo{Field: c.Field, Value: child})

		case KindOperator:
			// null leaves stay in the tree with a nil value
			node.operations = append(node.operations, OperationInfo{
				Field: c.Field,
				Value: &Value{Value: Decode(lf.Value)},
			})

		case KindCombinator:
			branches := combinatorBranches(lf.Value)
			coll := &ValueCollection{items: make([]*Node, 0, len(branches))}
			for _, branch := range branches {
				// and/or do not narrow the attribute set
				child, err := b.build(branch, scope)
				if err != nil {
					return nil, err
				}
				coll.items = append(coll.items, child)
			}
			node.operations = append(node.operations, OperationInfo{Field: c.Field, Value: coll})

		default:
			return nil, fmt.Errorf("filtering: %s classified %q as %s", scope.Name(), lf.Name, c.Kind)
		}
	}
	return node, nil
}

// combinatorBranches returns the elements of a combinator's value. A single
// object counts as a one-element list, as GraphQL list input coercion does.
func combinatorBranches(lit Literal) []Literal {
	switch l := lit.(type) {
	case *ListLiteral:
		return l.Items
	case *ObjectLiteral:
		return []Literal{l}
	default:
		return nil
	}
}
