package graphql

import (
	"sort"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/google/go-cmp/cmp"
	"github.com/graphql-go/graphql"
)

func inputFieldNames(input *graphql.InputObject) []string {
	var names []string
	for name := range input.Fields() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TestNewConventionValidation tests that invalid configurations are refused
func TestNewConventionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FilterConfig)
		wantErr string
	}{
		{"default", func(*FilterConfig) {}, ""},
		{"empty argument", func(c *FilterConfig) { c.ArgumentName = "" }, "argument_name"},
		{"invalid name", func(c *FilterConfig) { c.AndKeyword = "1and" }, "and_keyword"},
		{"same keywords", func(c *FilterConfig) { c.OrKeyword = c.AndKeyword }, "must differ"},
		{"negative depth", func(c *FilterConfig) { c.MaxDepth = -1 }, "max_depth"},
		{"depth too large", func(c *FilterConfig) { c.MaxDepth = MaxFilterDepth + 1 }, "max_depth"},
		{"unlimited depth", func(c *FilterConfig) { c.MaxDepth = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultFilterConfig()
			tt.mutate(&config)
			_, err := NewConvention(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("NewConvention() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewConvention() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

// TestFilterInputTypes tests the generated input type names and fields
func TestFilterInputTypes(t *testing.T) {
	conv := newTestConvention(t)
	types := NewLibraryTypes(conv, DemoLibrary())

	book := conv.FilterInput(types.Book)
	if book.Name() != "BookFilterInput" {
		t.Errorf("Expected BookFilterInput, got %s", book.Name())
	}
	if again := conv.FilterInput(types.Book); again != book {
		t.Error("Expected FilterInput to return the same type on every call")
	}

	want := map[string]string{
		"and":       "BookFilterInput",
		"or":        "BookFilterInput",
		"isbn":      "IDOperationFilterInput",
		"title":     "StringOperationFilterInput",
		"pages":     "IntOperationFilterInput",
		"rating":    "FloatOperationFilterInput",
		"published": "BooleanOperationFilterInput",
		"genre":     "GenreOperationFilterInput",
		"author":    "AuthorFilterInput",
		"tags":      "ListStringOperationFilterInput",
		"reviews":   "ListReviewFilterInput",
	}
	got := make(map[string]string)
	for name, field := range book.Fields() {
		got[name] = graphql.GetNamed(field.Type).String()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BookFilterInput fields mismatch (-want +got):\n%s", diff)
	}

	if combinator := book.Fields()["or"].Type.String(); combinator != "[BookFilterInput!]" {
		t.Errorf("Expected or to be [BookFilterInput!], got %s", combinator)
	}
}

// TestOperationInputs tests the operators offered per scalar
func TestOperationInputs(t *testing.T) {
	conv := newTestConvention(t)
	types := NewLibraryTypes(conv, DemoLibrary())
	fields := conv.FilterInput(types.Book).Fields()

	operationInput := func(field string) *graphql.InputObject {
		t.Helper()
		input, ok := graphql.GetNamed(fields[field].Type).(*graphql.InputObject)
		if !ok {
			t.Fatalf("Expected %s to be an input object", field)
		}
		return input
	}

	tests := []struct {
		field string
		want  []string
	}{
		{"published", []string{"and", "eq", "neq", "or"}},
		{"genre", []string{"and", "eq", "in", "neq", "nin", "or"}},
		{"title", []string{"and", "contains", "endsWith", "eq", "in", "ncontains", "nendsWith", "neq", "nin", "nstartsWith", "or", "startsWith"}},
		{"pages", []string{"and", "eq", "gt", "gte", "in", "lt", "lte", "neq", "ngt", "ngte", "nin", "nlt", "nlte", "or"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, inputFieldNames(operationInput(tt.field))); diff != "" {
				t.Errorf("operators mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if in := operationInput("title").Fields()["in"].Type.String(); in != "[String]" {
		t.Errorf("Expected in to take [String], got %s", in)
	}

	list := graphql.GetNamed(fields["reviews"].Type).(*graphql.InputObject)
	if diff := cmp.Diff([]string{"all", "any", "none", "some"}, inputFieldNames(list)); diff != "" {
		t.Errorf("list quantifiers mismatch (-want +got):\n%s", diff)
	}
	if elem := graphql.GetNamed(list.Fields()["some"].Type).String(); elem != "ReviewFilterInput" {
		t.Errorf("Expected some to take ReviewFilterInput, got %s", elem)
	}
}

// TestInputScopeClassify tests how filter input keys are classified
func TestInputScopeClassify(t *testing.T) {
	conv := newTestConvention(t)
	types := NewLibraryTypes(conv, DemoLibrary())
	scope := conv.Scope(conv.FilterInput(types.Book))

	if scope.Name() != "BookFilterInput" {
		t.Errorf("Expected scope BookFilterInput, got %s", scope.Name())
	}

	tests := []struct {
		key       string
		wantKind  filtering.Kind
		wantType  string
		wantScope string
	}{
		{"and", filtering.KindCombinator, "BookFilterInput", ""},
		{"or", filtering.KindCombinator, "BookFilterInput", ""},
		{"title", filtering.KindObjectField, "StringOperationFilterInput", "StringOperationFilterInput"},
		{"author", filtering.KindObjectField, "AuthorFilterInput", "AuthorFilterInput"},
		{"reviews", filtering.KindObjectField, "ListReviewFilterInput", "ListReviewFilterInput"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c, ok := scope.Classify(tt.key)
			if !ok {
				t.Fatalf("Expected %s to be classified", tt.key)
			}
			if c.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, c.Kind)
			}
			if c.Field.Name != tt.key || c.Field.TypeName != tt.wantType {
				t.Errorf("Expected field %s of %s, got %+v", tt.key, tt.wantType, c.Field)
			}
			if tt.wantScope == "" {
				if c.Scope != nil {
					t.Errorf("Expected no nested scope, got %s", c.Scope.Name())
				}
				return
			}
			if c.Scope == nil || c.Scope.Name() != tt.wantScope {
				t.Errorf("Expected nested scope %s, got %v", tt.wantScope, c.Scope)
			}
		})
	}

	title, _ := scope.Classify("title")
	eq, ok := title.Scope.Classify("eq")
	if !ok || eq.Kind != filtering.KindOperator || eq.Field.TypeName != "String" {
		t.Errorf("Expected eq to be a String operator, got %+v", eq)
	}

	if _, ok := scope.Classify("missing"); ok {
		t.Error("Expected unknown key to be unclassified")
	}
}

// TestUseFilteringArgument tests the argument added to filtered fields
func TestUseFilteringArgument(t *testing.T) {
	schema := newLibrarySchema(t, newTestConvention(t))

	books := schema.QueryType().Fields()["books"]
	var found bool
	for _, arg := range books.Args {
		if arg.Name() == "where" {
			found = true
			if arg.Type.Name() != "BookFilterInput" {
				t.Errorf("Expected where to be BookFilterInput, got %s", arg.Type.Name())
			}
		}
	}
	if !found {
		t.Error("Expected books to take a where argument")
	}

	if schema.Type("AuthorFilterInput") == nil {
		t.Error("Expected AuthorFilterInput in the schema")
	}
}

// TestCustomConvention tests renamed argument, keywords and suffix
func TestCustomConvention(t *testing.T) {
	conv, err := NewConvention(FilterConfig{
		ArgumentName: "filter",
		AndKeyword:   "AND",
		OrKeyword:    "OR",
		TypeSuffix:   "Filter",
	})
	if err != nil {
		t.Fatalf("NewConvention() error = %v", err)
	}
	schema := newLibrarySchema(t, conv)

	if schema.Type("BookFilter") == nil || schema.Type("StringOperationFilter") == nil {
		t.Fatal("Expected types named with the Filter suffix")
	}

	result := ExecuteQuery(`{
		books(filter: { OR: [{ title: { eq: "Dune" } }, { title: { eq: "The Hobbit" } }] }) { title }
	}`, schema)
	if diff := cmp.Diff([]string{"Dune", "The Hobbit"}, listField(t, result, "books", "title")); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	result = ExecuteQuery(`{ books(where: { title: { eq: "Dune" } }) { title } }`, schema)
	if !result.HasErrors() {
		t.Error("Expected the default argument name to be unknown")
	}
}

// TestFilterInputNames tests listing the generated object filter inputs
func TestFilterInputNames(t *testing.T) {
	conv := newTestConvention(t)
	if names := conv.FilterInputNames(); len(names) != 0 {
		t.Errorf("Expected no inputs before schema construction, got %v", names)
	}

	newLibrarySchema(t, conv)

	want := []string{"AuthorFilterInput", "BookFilterInput", "ReviewFilterInput"}
	if diff := cmp.Diff(want, conv.FilterInputNames()); diff != "" {
		t.Errorf("FilterInputNames mismatch (-want +got):\n%s", diff)
	}
}
