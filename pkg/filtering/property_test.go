package filtering

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var operatorNames = []string{"eq", "neq", "in", "nin", "contains", "startsWith", "gt", "lt"}

// TestFilterInvariants checks ordering and idempotence over generated literals.
func TestFilterInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("list operator values keep their order", prop.ForAll(
		func(values []string) bool {
			items := make([]any, len(values))
			for i, v := range values {
				items[i] = v
			}
			root, err := Build(Object("title", Object("in", List(items...))), newBookScopes().book)
			if err != nil {
				return false
			}
			title, _ := root.Field("title")
			in, _ := title.Value.Operation("in")
			got, ok := in.Value.(*Value).Value.([]any)
			return ok && cmp.Equal(items, got)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("operations follow literal order", prop.ForAll(
		func(picks []int) bool {
			ops := make([]string, len(picks))
			for i, p := range picks {
				ops[i] = operatorNames[p]
			}
			kv := make([]any, 0, 2*len(ops))
			for i, op := range ops {
				kv = append(kv, op, i)
			}
			root, err := Build(Object("pages", Object(kv...)), newBookScopes().book)
			if err != nil {
				return false
			}
			pages, ok := root.Field("pages")
			if !ok && len(ops) > 0 {
				return false
			}
			got := pages.Value.Operations()
			if len(got) != len(ops) {
				return false
			}
			for i, op := range got {
				if op.Field.Name != ops[i] || op.Value.(*Value).Value != i {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(operatorNames)-1)),
	))

	properties.Property("combinator branches keep their order", prop.ForAll(
		func(titles []string) bool {
			branches := make([]any, len(titles))
			for i, title := range titles {
				branches[i] = Object("title", Object("eq", title))
			}
			root, err := Build(Object("or", List(branches...)), newBookScopes().book)
			if err != nil {
				return false
			}
			or, ok := root.Operation("or")
			if !ok {
				return false
			}
			coll := or.Value.(*ValueCollection)
			if coll.Len() != len(titles) {
				return false
			}
			for i, title := range titles {
				f, ok := coll.At(i).Field("title")
				if !ok {
					return false
				}
				eq, ok := f.Value.Operation("eq")
				if !ok || eq.Value.(*Value).Value != title {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("accessors are idempotent", prop.ForAll(
		func(title string, pages int, negate bool) bool {
			op := "eq"
			if negate {
				op = "neq"
			}
			scopes := newBookScopes()
			ctx := NewContext(scopes.book, Object(
				"title", Object(op, title),
				"and", List(Object("pages", Object("gt", pages))),
			))

			first := ctx.ToMap()
			calls := scopes.totalCalls()
			fp := ctx.Fingerprint()

			return cmp.Equal(first, ctx.ToMap()) &&
				cmp.Equal(ctx.Fields(), ctx.Fields(), cmp.AllowUnexported(Node{}, ValueCollection{})) &&
				scopes.totalCalls() == calls &&
				ctx.Fingerprint() == fp
		},
		gen.AlphaString(),
		gen.Int(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
