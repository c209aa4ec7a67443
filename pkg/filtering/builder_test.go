package filtering

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/metrics"
)

func leafValue(t *testing.T, op OperationInfo) any {
	t.Helper()
	v, ok := op.Value.(*Value)
	if !ok {
		t.Fatalf("operation %q holds %T, want *Value", op.Field.Name, op.Value)
	}
	return v.Value
}

func collection(t *testing.T, op OperationInfo) *ValueCollection {
	t.Helper()
	c, ok := op.Value.(*ValueCollection)
	if !ok {
		t.Fatalf("operation %q holds %T, want *ValueCollection", op.Field.Name, op.Value)
	}
	return c
}

func TestBuild_ScalarField(t *testing.T) {
	scopes := newBookScopes()
	root, err := Build(Object("title", Object("eq", "test")), scopes.book)
	require.NoError(t, err)

	require.Len(t, root.Fields(), 1)
	assert.Empty(t, root.Operations())

	title := root.Fields()[0]
	assert.Equal(t, "title", title.Field.Name)
	assert.Equal(t, "String", title.Field.TypeName)
	assert.Empty(t, title.Value.Fields())
	require.Len(t, title.Value.Operations(), 1)

	eq := title.Value.Operations()[0]
	assert.Equal(t, "eq", eq.Field.Name)
	assert.Equal(t, "test", leafValue(t, eq))
}

func TestBuild_ListOperation(t *testing.T) {
	scopes := newBookScopes()
	root, err := Build(Object("title", Object("in", List("a", "b"))), scopes.book)
	require.NoError(t, err)

	title, ok := root.Field("title")
	require.True(t, ok)
	in, ok := title.Value.Operation("in")
	require.True(t, ok)

	values, ok := leafValue(t, in).([]any)
	require.True(t, ok, "in should decode to []any")
	require.Len(t, values, 2)
	assert.Equal(t, "a", values[0])
	assert.Equal(t, "b", values[len(values)-1])
}

func TestBuild_OrCollection(t *testing.T) {
	scopes := newBookScopes()
	literal := Object("or", List(
		Object("title", Object("eq", "a")),
		Object("title", Object("eq", "b")),
	))

	root, err := Build(literal, scopes.book)
	require.NoError(t, err)

	assert.Empty(t, root.Fields())
	require.Len(t, root.Operations(), 1)

	or := root.Operations()[0]
	assert.Equal(t, "or", or.Field.Name)
	branches := collection(t, or)
	require.Equal(t, 2, branches.Len())

	for i, want := range []string{"a", "b"} {
		title, ok := branches.At(i).Field("title")
		require.True(t, ok, "branch %d has no title", i)
		eq, ok := title.Value.Operation("eq")
		require.True(t, ok, "branch %d has no eq", i)
		assert.Equal(t, want, leafValue(t, eq), "branch %d", i)
	}
}

func TestBuild_DeepObject(t *testing.T) {
	scopes := newBookScopes()
	root, err := Build(Object("author", Object("name", Object("eq", "test"))), scopes.book)
	require.NoError(t, err)

	assert.Empty(t, root.Operations())
	author, ok := root.Field("author")
	require.True(t, ok)

	assert.Empty(t, author.Value.Operations())
	name, ok := author.Value.Field("name")
	require.True(t, ok)

	assert.Empty(t, name.Value.Fields())
	eq, ok := name.Value.Operation("eq")
	require.True(t, ok)
	assert.Equal(t, "test", leafValue(t, eq))
}

func TestBuild_AndOrAtRoot(t *testing.T) {
	scopes := newBookScopes()
	literal := Object(
		"and", List(Object("title", Object("eq", "a")), Object("pages", Object("gt", 100))),
		"or", List(Object("title", Object("contains", "b"))),
	)

	root, err := Build(literal, scopes.book)
	require.NoError(t, err)
	require.Len(t, root.Operations(), 2)

	and, or := root.Operations()[0], root.Operations()[1]
	assert.Equal(t, "and", and.Field.Name)
	assert.Equal(t, "or", or.Field.Name)
	assert.Equal(t, 2, collection(t, and).Len())
	assert.Equal(t, 1, collection(t, or).Len())
	assert.NotSame(t, collection(t, and), collection(t, or))
}

func TestBuild_PreservesInputOrder(t *testing.T) {
	scopes := newBookScopes()
	literal := Object(
		"title", Object("startsWith", "x", "neq", "y", "eq", "z"),
		"or", List(),
		"author", Object("name", Object("eq", "n")),
		"pages", Object("lt", 3),
	)

	root, err := Build(literal, scopes.book)
	require.NoError(t, err)

	var fields []string
	for _, f := range root.Fields() {
		fields = append(fields, f.Field.Name)
	}
	if diff := cmp.Diff([]string{"title", "author", "pages"}, fields); diff != "" {
		t.Errorf("field order mismatch (-want +got):\n%s", diff)
	}

	title, _ := root.Field("title")
	var ops []string
	for _, op := range title.Value.Operations() {
		ops = append(ops, op.Field.Name)
	}
	if diff := cmp.Diff([]string{"startsWith", "neq", "eq"}, ops); diff != "" {
		t.Errorf("operation order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_EmptyInputs(t *testing.T) {
	scopes := newBookScopes()
	tests := []struct {
		name    string
		literal Literal
	}{
		{"nil literal", nil},
		{"null", Null},
		{"empty object", Object()},
		{"scalar", Scalar("oops")},
		{"list", List(Object("title", Object("eq", "a")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Build(tt.literal, scopes.book)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if root == nil {
				t.Fatal("Build() returned nil node")
			}
			if !root.IsEmpty() {
				t.Errorf("expected empty node, got %v", Flatten(root))
			}
		})
	}
}

func TestBuild_NullLeafIsRetained(t *testing.T) {
	scopes := newBookScopes()
	root, err := Build(Object("title", Object("eq", Null)), scopes.book)
	require.NoError(t, err)

	title, ok := root.Field("title")
	require.True(t, ok)
	eq, ok := title.Value.Operation("eq")
	require.True(t, ok, "null operator should stay in the tree")
	assert.Nil(t, leafValue(t, eq))
}

func TestBuild_CombinatorCoercion(t *testing.T) {
	scopes := newBookScopes()

	root, err := Build(Object("or", Object("title", Object("eq", "a"))), scopes.book)
	require.NoError(t, err)
	or, ok := root.Operation("or")
	require.True(t, ok)
	assert.Equal(t, 1, collection(t, or).Len(), "single object becomes a one-element list")

	root, err = Build(Object("and", Null), scopes.book)
	require.NoError(t, err)
	and, ok := root.Operation("and")
	require.True(t, ok)
	assert.Equal(t, 0, collection(t, and).Len(), "null becomes an empty collection")
}

func TestBuild_UnknownField(t *testing.T) {
	scopes := newBookScopes()
	_, err := Build(Object("author", Object("age", Object("eq", 3))), scopes.book)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrUnknownField))
	var unknown *UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "AuthorFilterInput", unknown.Scope)
	assert.Equal(t, "age", unknown.Key)
}

func TestBuild_ObjectFieldWithoutScope(t *testing.T) {
	broken := &testScope{name: "Broken", keys: map[string]Classification{
		"title": {Kind: KindObjectField},
	}}
	_, err := Build(Object("title", Object("eq", "a")), broken)
	if err == nil {
		t.Fatal("expected error for object field without scope")
	}
}

func TestBuild_NilScope(t *testing.T) {
	if _, err := Build(Object("title", Object("eq", "a")), nil); err == nil {
		t.Fatal("expected error for object literal without scope")
	}
	root, err := Build(nil, nil)
	if err != nil || !root.IsEmpty() {
		t.Fatalf("Build(nil, nil) = %v, %v; want empty node", root, err)
	}
}

func TestBuild_ClassifiesEachKeyOnce(t *testing.T) {
	scopes := newBookScopes()
	literal := Object(
		"title", Object("eq", "a", "neq", "b"),
		"or", List(Object("author", Object("name", Object("eq", "c")))),
	)

	if _, err := Build(literal, scopes.book); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// title, eq, neq, or, author, name, eq
	if got := scopes.totalCalls(); got != 7 {
		t.Errorf("Classify called %d times, want 7", got)
	}
}

func TestBuilder_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	b := NewBuilder(WithMetrics(reg), WithLogger(logging.NewNopLogger()))
	scopes := newBookScopes()

	_, err := b.Build(Object("title", Object("eq", "a")), scopes.book)
	require.NoError(t, err)
	_, err = b.Build(Object("nope", Null), scopes.book)
	require.Error(t, err)

	ok, err := reg.FilterBuildsTotal.GetMetricWithLabelValues("BookFilterInput", "ok")
	require.NoError(t, err)
	failed, err := reg.FilterBuildsTotal.GetMetricWithLabelValues("BookFilterInput", "error")
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, ok))
	assert.Equal(t, 1.0, counterValue(t, failed))
}

func TestNode_Count(t *testing.T) {
	scopes := newBookScopes()
	root, err := Build(Object(
		"title", Object("eq", "a"),
		"or", List(Object("pages", Object("gt", 1)), Object()),
	), scopes.book)
	require.NoError(t, err)

	// root, title, two branches, pages under the first branch
	assert.Equal(t, 5, root.Count())
	assert.Equal(t, 0, (*Node)(nil).Count())
	assert.True(t, EmptyNode().IsEmpty())
}
