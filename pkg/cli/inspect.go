package cli

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-filtering/pkg/config"
	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/dd0wney/cluso-filtering/pkg/graphql"
	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// InspectOptions holds the flags of the inspect command.
type InspectOptions struct {
	Query         string
	QueryFile     string
	Variables     string
	OperationName string
	NoData        bool
}

// Report is the output of inspect.
type Report struct {
	Filters []FilterReport `json:"filters" yaml:"filters"`
	Data    any            `json:"data,omitempty" yaml:"data,omitempty"`
	Errors  []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// FilterReport describes the filter one field invocation received.
type FilterReport struct {
	Field       string         `json:"field" yaml:"field"`
	Path        string         `json:"path" yaml:"path"`
	Skipped     bool           `json:"skipped" yaml:"skipped"`
	Fingerprint string         `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Nodes       int            `json:"nodes" yaml:"nodes"`
	Filter      map[string]any `json:"filter" yaml:"filter"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`

	segments []any
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run a query and print the filter tree of every filtered field",
		Long: `Run a GraphQL query against the demo library schema and print, for each
field invocation that takes a where argument, the flattened filter tree,
its fingerprint and whether automatic filtering ran.

Variables are a JSON object given inline or as @path/to/file.json. Object
keys in variables keep the order they are written in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), rootOpts, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "GraphQL query text")
	cmd.Flags().StringVarP(&opts.QueryFile, "query-file", "f", "", "read the query from a file")
	cmd.Flags().StringVar(&opts.Variables, "variables", "", "variables as JSON or @file")
	cmd.Flags().StringVar(&opts.OperationName, "operation", "", "operation to run when the document has several")
	cmd.Flags().BoolVar(&opts.NoData, "no-data", false, "omit the query result from the report")
	cmd.MarkFlagsMutuallyExclusive("query", "query-file")

	return cmd
}

func runInspect(ctx context.Context, rootOpts *RootOptions, opts *InspectOptions, out, errOut io.Writer) error {
	query, err := readArgument(opts.Query, opts.QueryFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		return errors.New("a query is required: use --query or --query-file")
	}

	variables := opts.Variables
	if path, ok := strings.CutPrefix(variables, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read variables: %w", err)
		}
		variables = string(data)
	}

	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return err
	}

	var logger logging.Logger = logging.NewNopLogger()
	if rootOpts.Verbose {
		logger = logging.NewJSONLogger(errOut, logging.DebugLevel)
	}

	report := &Report{Filters: []FilterReport{}}
	conv, err := graphql.NewConvention(cfg.FilterConfig(),
		graphql.WithConventionLogger(logger),
		graphql.WithFilterObserver(func(e graphql.FilterEvent) {
			report.Filters = append(report.Filters, describe(e))
		}),
	)
	if err != nil {
		return err
	}
	schema, err := graphql.NewLibrarySchema(conv, graphql.DemoLibrary())
	if err != nil {
		return err
	}

	req, err := graphql.DecodeRequest(graphql.GraphQLRequest{
		Query:         query,
		Variables:     json.RawMessage(variables),
		OperationName: opts.OperationName,
	})
	if err != nil {
		return err
	}
	if err := graphql.ValidateQueryDepth(query, cfg.Server.MaxQueryDepth); err != nil {
		return err
	}

	result := graphql.Execute(ctx, schema, req)
	for _, e := range result.Errors {
		report.Errors = append(report.Errors, e.Message)
	}
	if !opts.NoData {
		report.Data = result.Data
	}
	sortFilters(report.Filters)

	return writeReport(out, rootOpts.Format, report)
}

func describe(e graphql.FilterEvent) FilterReport {
	fr := FilterReport{
		Field:    e.Field,
		Path:     formatPath(e.Path),
		Skipped:  e.Skipped,
		Filter:   map[string]any{},
		segments: e.Path,
	}

	root, err := e.Context.Root()
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Filter = filtering.Flatten(root)
	fr.Nodes = root.Count()
	fr.Fingerprint = fmt.Sprintf("%016x", root.Fingerprint())
	return fr
}

// sortFilters orders reports by response path. Sibling fields resolve in no
// fixed order; list indexes compare numerically.
func sortFilters(filters []FilterReport) {
	slices.SortStableFunc(filters, func(a, b FilterReport) int {
		return comparePath(a.segments, b.segments)
	})
}

func comparePath(a, b []any) int {
	for i := range min(len(a), len(b)) {
		if c := compareSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareSegment(a, b any) int {
	ai, aIdx := a.(int)
	bi, bIdx := b.(int)
	switch {
	case aIdx && bIdx:
		return cmp.Compare(ai, bi)
	case aIdx:
		return -1
	case bIdx:
		return 1
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func formatPath(path []any) string {
	var b strings.Builder
	for i, seg := range path {
		switch v := seg.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

func readArgument(inline, path string) (string, error) {
	if path == "" {
		return inline, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read query: %w", err)
	}
	return string(data), nil
}

func writeReport(w io.Writer, format string, report *Report) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
}
