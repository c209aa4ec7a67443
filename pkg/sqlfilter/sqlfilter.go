// Package sqlfilter compiles built filters into PostgreSQL WHERE clauses.
//
// Every leaf comparison is wrapped in COALESCE(..., FALSE) so that NULL
// columns behave like missing values do in memory: eq null matches them,
// neq null rejects them, and negated operators such as nin or ngt accept
// them.
package sqlfilter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-filtering/pkg/filtering"
)

// ErrUnsupported is returned for filters that have no SQL translation.
var ErrUnsupported = errors.New("filter cannot be translated to SQL")

// Table maps the filter fields of one input type onto SQL.
type Table struct {
	Columns map[string]Column
}

// Column is the SQL side of one filter field.
type Column struct {
	// Expr is a column reference such as "b.title".
	Expr string
	// Array marks a PostgreSQL array column, filtered with some/all/none/any.
	Array bool
	// Nested maps an object field whose columns are joined into the query.
	Nested *Table
}

// Clause is a WHERE condition with its positional arguments.
type Clause struct {
	SQL  string
	Args []any
}

// Translator compiles nodes built with the given combinator keywords.
type Translator struct {
	and string
	or  string
}

// NewTranslator creates a translator for filters whose combinators are
// named and and or.
func NewTranslator(and, or string) *Translator {
	return &Translator{and: and, or: or}
}

// Where compiles node over table. Placeholders start at $1; callers that
// add their own arguments append them after Clause.Args.
func (t *Translator) Where(node *filtering.Node, table *Table) (Clause, error) {
	w := &writer{t: t}
	sql, err := w.node(node, table, "")
	if err != nil {
		return Clause{}, err
	}
	return Clause{SQL: sql, Args: w.args}, nil
}

type writer struct {
	t      *Translator
	args   []any
	unnest int
}

func (w *writer) bind(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// node translates one level. table resolves fields; self is the expression
// leaf operators compare against.
func (w *writer) node(n *filtering.Node, table *Table, self string) (string, error) {
	parts := make([]string, 0, len(n.Fields())+len(n.Operations()))

	for _, f := range n.Fields() {
		if table == nil {
			return "", fmt.Errorf("%w: field %q on a scalar", ErrUnsupported, f.Field.Name)
		}
		col, ok := table.Columns[f.Field.Name]
		if !ok {
			return "", fmt.Errorf("%w: no column for field %q", ErrUnsupported, f.Field.Name)
		}
		sql, err := w.field(f.Value, col)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	for _, op := range n.Operations() {
		sql, err := w.operation(op, table, self)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	return join(parts, " AND ", "TRUE"), nil
}

func (w *writer) field(n *filtering.Node, col Column) (string, error) {
	switch {
	case col.Nested != nil && col.Array:
		return "", fmt.Errorf("%w: list of objects at %s", ErrUnsupported, col.Expr)
	case col.Nested != nil:
		return w.node(n, col.Nested, "")
	case col.Array:
		return w.list(n, col.Expr)
	default:
		return w.node(n, nil, col.Expr)
	}
}

func (w *writer) operation(op filtering.OperationInfo, table *Table, self string) (string, error) {
	switch v := op.Value.(type) {
	case *filtering.ValueCollection:
		branches := make([]string, 0, v.Len())
		for _, item := range v.Items() {
			sql, err := w.node(item, table, self)
			if err != nil {
				return "", err
			}
			branches = append(branches, sql)
		}
		if op.Field.Name == w.t.or {
			// an empty or constrains nothing
			return join(branches, " OR ", "TRUE"), nil
		}
		return join(branches, " AND ", "TRUE"), nil

	case *filtering.Value:
		if self == "" {
			return "", fmt.Errorf("%w: operator %q outside a field", ErrUnsupported, op.Field.Name)
		}
		return w.leaf(op.Field.Name, self, v.Value)

	default:
		return "", fmt.Errorf("%w: operation %q", ErrUnsupported, op.Field.Name)
	}
}

func (w *writer) leaf(op, expr string, operand any) (string, error) {
	if operand == nil {
		switch op {
		case "eq":
			return expr + " IS NULL", nil
		case "neq":
			return expr + " IS NOT NULL", nil
		default:
			return "TRUE", nil
		}
	}

	cond, negated, err := w.comparison(op, expr, operand)
	if err != nil {
		return "", err
	}
	if negated {
		return "NOT COALESCE(" + cond + ", FALSE)", nil
	}
	return "COALESCE(" + cond + ", FALSE)", nil
}

// comparison returns the positive form of op and whether op negates it.
func (w *writer) comparison(op, expr string, operand any) (string, bool, error) {
	switch op {
	case "eq", "neq":
		return expr + " = " + w.bind(operand), op == "neq", nil
	case "in", "nin":
		items, ok := operand.([]any)
		if !ok {
			return "", false, fmt.Errorf("%w: %s expects a list, got %T", ErrUnsupported, op, operand)
		}
		if len(items) == 0 {
			return "FALSE", op == "nin", nil
		}
		placeholders := make([]string, len(items))
		for i, item := range items {
			placeholders[i] = w.bind(item)
		}
		return expr + " IN (" + strings.Join(placeholders, ", ") + ")", op == "nin", nil
	case "gt", "ngt":
		return expr + " > " + w.bind(operand), op == "ngt", nil
	case "gte", "ngte":
		return expr + " >= " + w.bind(operand), op == "ngte", nil
	case "lt", "nlt":
		return expr + " < " + w.bind(operand), op == "nlt", nil
	case "lte", "nlte":
		return expr + " <= " + w.bind(operand), op == "nlte", nil
	case "contains", "ncontains":
		return w.like(expr, operand, "%", "%"), op == "ncontains", nil
	case "startsWith", "nstartsWith":
		return w.like(expr, operand, "", "%"), op == "nstartsWith", nil
	case "endsWith", "nendsWith":
		return w.like(expr, operand, "%", ""), op == "nendsWith", nil
	default:
		return "", false, fmt.Errorf("%w: operator %q", ErrUnsupported, op)
	}
}

func (w *writer) like(expr string, operand any, prefix, suffix string) string {
	s, ok := operand.(string)
	if !ok {
		return "FALSE"
	}
	return expr + " LIKE " + w.bind(prefix+escapeLike(s)+suffix) + ` ESCAPE '\'`
}

// list translates the some/all/none quantifiers and any over an array
// column by unnesting it.
func (w *writer) list(n *filtering.Node, expr string) (string, error) {
	parts := make([]string, 0, len(n.Fields())+len(n.Operations()))

	for _, f := range n.Fields() {
		w.unnest++
		elem := "u" + strconv.Itoa(w.unnest) + ".v"
		from := "unnest(" + expr + ") AS u" + strconv.Itoa(w.unnest) + "(v)"

		cond, err := w.node(f.Value, nil, elem)
		if err != nil {
			return "", err
		}
		switch f.Field.Name {
		case "some":
			parts = append(parts, "EXISTS (SELECT 1 FROM "+from+" WHERE "+cond+")")
		case "all":
			parts = append(parts, "NOT EXISTS (SELECT 1 FROM "+from+" WHERE NOT ("+cond+"))")
		case "none":
			parts = append(parts, "NOT EXISTS (SELECT 1 FROM "+from+" WHERE "+cond+")")
		default:
			return "", fmt.Errorf("%w: list quantifier %q", ErrUnsupported, f.Field.Name)
		}
	}

	for _, op := range n.Operations() {
		v, ok := op.Value.(*filtering.Value)
		if !ok || op.Field.Name != "any" {
			return "", fmt.Errorf("%w: list operation %q", ErrUnsupported, op.Field.Name)
		}
		want, ok := v.Value.(bool)
		if !ok {
			continue
		}
		if want {
			parts = append(parts, "COALESCE(cardinality("+expr+"), 0) > 0")
		} else {
			parts = append(parts, "COALESCE(cardinality("+expr+"), 0) = 0")
		}
	}

	return join(parts, " AND ", "TRUE"), nil
}

func join(parts []string, sep, empty string) string {
	switch len(parts) {
	case 0:
		return empty
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, sep) + ")"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
