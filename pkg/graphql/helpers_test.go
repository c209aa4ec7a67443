package graphql

import (
	"sort"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func newTestConvention(t *testing.T) *Convention {
	t.Helper()
	conv, err := NewConvention(DefaultFilterConfig())
	if err != nil {
		t.Fatalf("NewConvention() error = %v", err)
	}
	return conv
}

// newTestSchema builds Query.test returning demo books through resolve.
// The field takes a where argument only when filtered is set.
func newTestSchema(t *testing.T, conv *Convention, filtered bool, resolve graphql.FieldResolveFn) graphql.Schema {
	t.Helper()
	types := NewLibraryTypes(conv, DemoLibrary())

	field := &graphql.Field{
		Type:    graphql.NewList(types.Book),
		Resolve: resolve,
	}
	if filtered {
		field = conv.UseFiltering(field, types.Book)
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: graphql.Fields{"test": field},
		}),
	})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	return schema
}

func newLibrarySchema(t *testing.T, conv *Convention) graphql.Schema {
	t.Helper()
	schema, err := NewLibrarySchema(conv, DemoLibrary())
	if err != nil {
		t.Fatalf("NewLibrarySchema() error = %v", err)
	}
	return schema
}

// listField returns the string values of key in each element of the list
// at data[field], sorted.
func listField(t *testing.T, result *graphql.Result, field, key string) []string {
	t.Helper()
	if result.HasErrors() {
		t.Fatalf("GraphQL query failed: %v", result.Errors)
	}
	data, ok := result.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected data object, got %T", result.Data)
	}
	items, ok := data[field].([]any)
	if !ok {
		t.Fatalf("Expected %s to be a list, got %T", field, data[field])
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			t.Fatalf("Expected %s item to be an object, got %T", field, item)
		}
		s, _ := obj[key].(string)
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}
