package graphql

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/dd0wney/cluso-filtering/pkg/api/middleware"
	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

type orderedVariablesKey struct{}

// WithOrderedVariables attaches request variables decoded with their key
// order intact. Filters supplied through variables then keep the order the
// client wrote them in; without this the coerced variables are used and
// object keys come out sorted.
func WithOrderedVariables(ctx context.Context, vars map[string]filtering.Literal) context.Context {
	return context.WithValue(ctx, orderedVariablesKey{}, vars)
}

// OrderedVariablesFromContext returns the variables set by WithOrderedVariables.
func OrderedVariablesFromContext(ctx context.Context) map[string]filtering.Literal {
	if ctx == nil {
		return nil
	}
	vars, _ := ctx.Value(orderedVariablesKey{}).(map[string]filtering.Literal)
	return vars
}

// UseFiltering adds the filter argument for itemType to field and wraps its
// resolver. The resolver may inspect the filter through GetFilterContext;
// doing so turns automatic filtering off for that invocation unless it calls
// EnableFilterExecution. Otherwise the resolver's list result is filtered
// after it returns.
func (c *Convention) UseFiltering(field *graphql.Field, itemType *graphql.Object) *graphql.Field {
	input := c.FilterInput(itemType)
	if field.Args == nil {
		field.Args = graphql.FieldConfigArgument{}
	}
	field.Args[c.config.ArgumentName] = &graphql.ArgumentConfig{
		Type:        input,
		Description: fmt.Sprintf("Filter the %s list", itemType.Name()),
	}

	next := field.Resolve
	if next == nil {
		next = graphql.DefaultResolveFn
	}
	field.Resolve = c.filterResolver(c.Scope(input), next)
	return field
}

// GetFilterContext returns the filter context of the field being resolved,
// or nil when the field was not set up with UseFiltering.
func GetFilterContext(p graphql.ResolveParams) *filtering.Context {
	return filtering.FromContext(p.Context)
}

// GetLocalState returns the local state of the field being resolved, or nil
// when the field was not set up with UseFiltering.
func GetLocalState(p graphql.ResolveParams) *filtering.LocalState {
	return filtering.LocalStateFromContext(p.Context)
}

func (c *Convention) filterResolver(scope *InputScope, next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		ctx := p.Context
		if ctx == nil {
			ctx = context.Background()
		}

		fieldName := p.Info.FieldName
		logger := c.logger.With(logging.FilterField(fieldName))
		if id := middleware.RequestIDFromContext(ctx); id != "" {
			logger = logger.With(logging.RequestID(id))
		}

		literal, err := c.argumentLiteral(ctx, p.Info)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, filtering.ErrFilterTooDeep) {
				reason = "too_deep"
			}
			if c.metrics != nil {
				c.metrics.RecordFilterRejected(fieldName, reason)
			}
			logger.Warn("filter argument rejected", logging.Error(err))
			return nil, err
		}

		coordinator := filtering.NewCoordinator(scope, literal, filtering.NewLocalState(),
			filtering.WithContextBuilder(c.builder),
			filtering.WithFieldName(fieldName),
			filtering.WithCoordinatorLogger(logger),
			filtering.WithCoordinatorMetrics(c.metrics),
		)
		p.Context = filtering.WithCoordinator(ctx, coordinator)
		middleware.CountFilter(ctx)

		result, err := next(p)
		skip := coordinator.Finalize()
		if c.observer != nil {
			var path []any
			if p.Info.Path != nil {
				path = p.Info.Path.AsArray()
			}
			c.observer(FilterEvent{
				Field:   fieldName,
				Path:    path,
				Context: coordinator.Context(),
				Skipped: skip,
			})
		}
		if err != nil || skip || result == nil {
			return result, err
		}

		root, err := coordinator.Context().Root()
		if err != nil {
			return nil, err
		}
		if root.IsEmpty() {
			return result, nil
		}

		logger.Debug("applying filter",
			logging.Fingerprint(root.Fingerprint()),
			logging.Count(root.Count()),
		)
		return filterList(result, c.Compile(root))
	}
}

// argumentLiteral converts the field's filter argument to a literal, nil
// when the argument is absent.
func (c *Convention) argumentLiteral(ctx context.Context, info graphql.ResolveInfo) (filtering.Literal, error) {
	if len(info.FieldASTs) == 0 {
		return nil, nil
	}

	var value ast.Value
	for _, arg := range info.FieldASTs[0].Arguments {
		if arg != nil && arg.Name != nil && arg.Name.Value == c.config.ArgumentName {
			value = arg.Value
			break
		}
	}
	if value == nil {
		return nil, nil
	}

	return filtering.LiteralFromAST(value, filtering.ASTOptions{
		Variables:        info.VariableValues,
		OrderedVariables: OrderedVariablesFromContext(ctx),
		MaxDepth:         c.config.MaxDepth,
	})
}

// filterList keeps the elements of a slice result that match.
func filterList(result any, match Predicate) (any, error) {
	v := reflect.ValueOf(result)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("filtering: cannot filter %T, resolver must return a list", result)
	}

	out := reflect.MakeSlice(v.Type(), 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if match(v.Index(i).Interface()) {
			out = reflect.Append(out, v.Index(i))
		}
	}
	return out.Interface(), nil
}
