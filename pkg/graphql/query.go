package graphql

import (
	"context"

	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/graphql-go/graphql"
)

// Request is one GraphQL operation to execute.
type Request struct {
	Query         string
	Variables     map[string]any
	OperationName string
	// OrderedVariables carry the same variables with object key order
	// preserved; see WithOrderedVariables.
	OrderedVariables map[string]filtering.Literal
}

// Execute runs req against schema.
func Execute(ctx context.Context, schema graphql.Schema, req Request) *graphql.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.OrderedVariables != nil {
		ctx = WithOrderedVariables(ctx, req.OrderedVariables)
	}

	params := graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	}
	return graphql.Do(params)
}

// ExecuteQuery executes a GraphQL query against a schema
func ExecuteQuery(query string, schema graphql.Schema) *graphql.Result {
	return Execute(context.Background(), schema, Request{Query: query})
}

// ExecuteQueryWithVariables executes a GraphQL query with variables
func ExecuteQueryWithVariables(query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	return Execute(context.Background(), schema, Request{Query: query, Variables: variables})
}
