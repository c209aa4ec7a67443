package graphql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dd0wney/cluso-filtering/pkg/api/middleware"
	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// GraphQLRequest represents a GraphQL HTTP request. Variables are kept raw
// so they can be decoded twice: once for graphql-go and once with their
// key order intact.
type GraphQLRequest struct {
	Query         string          `json:"query"`
	Variables     json.RawMessage `json:"variables,omitempty"`
	OperationName string          `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema        graphql.Schema
	logger        logging.Logger
	maxQueryDepth int
}

// HandlerOption configures a GraphQLHandler
type HandlerOption func(*GraphQLHandler)

// WithHandlerLogger sets the handler's logger.
func WithHandlerLogger(logger logging.Logger) HandlerOption {
	return func(h *GraphQLHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxQueryDepth rejects queries whose selections nest deeper than depth.
func WithMaxQueryDepth(depth int) HandlerOption {
	return func(h *GraphQLHandler) {
		h.maxQueryDepth = depth
	}
}

// NewGraphQLHandler creates a new GraphQL HTTP handler
func NewGraphQLHandler(schema graphql.Schema, opts ...HandlerOption) *GraphQLHandler {
	h := &GraphQLHandler{
		schema: schema,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles HTTP requests for GraphQL queries
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := h.logger
	if id := middleware.GetRequestID(r); id != "" {
		logger = logger.With(logging.RequestID(id))
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid graphql request body", logging.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	request, err := DecodeRequest(req)
	if err != nil {
		logger.Warn("invalid graphql variables", logging.Error(err))
		writeResponse(w, &graphql.Result{Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)}})
		return
	}

	if err := ValidateQueryDepth(req.Query, h.maxQueryDepth); err != nil {
		logger.Warn("query rejected", logging.Error(err))
		writeResponse(w, &graphql.Result{Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)}})
		return
	}

	result := Execute(r.Context(), h.schema, request)
	if result.HasErrors() {
		logger.Debug("graphql request returned errors",
			logging.Int("errors", len(result.Errors)),
			logging.String("first_error", result.Errors[0].Message),
		)
	}
	writeResponse(w, result)
}

// DecodeRequest converts a wire request into a Request, decoding the raw
// variables both as plain values for graphql-go and as ordered literals for
// filter arguments.
func DecodeRequest(req GraphQLRequest) (Request, error) {
	out := Request{Query: req.Query, OperationName: req.OperationName}

	raw := bytes.TrimSpace(req.Variables)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out.Variables); err != nil {
		return out, fmt.Errorf("variables must be a JSON object: %w", err)
	}

	lit, err := filtering.DecodeLiteralJSON(raw)
	if err != nil {
		return out, fmt.Errorf("variables: %w", err)
	}
	obj, ok := lit.(*filtering.ObjectLiteral)
	if !ok {
		return out, fmt.Errorf("variables must be a JSON object")
	}
	out.OrderedVariables = make(map[string]filtering.Literal, len(obj.Fields))
	for _, f := range obj.Fields {
		out.OrderedVariables[f.Name] = f.Value
	}
	return out, nil
}

func writeResponse(w http.ResponseWriter, result *graphql.Result) {
	response := GraphQLResponse{
		Data: result.Data,
	}

	if result.HasErrors() {
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{
				Message: err.Message,
				Path:    err.Path,
			}
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
