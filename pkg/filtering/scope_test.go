package filtering

// testScope is a hand-built Scope for the Book/Author filter inputs used
// throughout the package tests. calls counts Classify invocations.
type testScope struct {
	name  string
	keys  map[string]Classification
	calls int
}

func (s *testScope) Name() string { return s.name }

func (s *testScope) Classify(key string) (Classification, bool) {
	s.calls++
	c, ok := s.keys[key]
	return c, ok
}

func newOperationScope(name, typeName string) *testScope {
	s := &testScope{name: name, keys: map[string]Classification{}}
	for _, op := range []string{"eq", "neq", "in", "nin", "contains", "startsWith", "gt", "lt"} {
		s.keys[op] = Classification{Kind: KindOperator, Field: Field{Name: op, TypeName: typeName}}
	}
	return s
}

type bookScopes struct {
	book    *testScope
	author  *testScope
	strings *testScope
	ints    *testScope
}

func newBookScopes() *bookScopes {
	s := &bookScopes{
		strings: newOperationScope("StringOperationFilterInput", "String"),
		ints:    newOperationScope("IntOperationFilterInput", "Int"),
	}
	s.author = &testScope{name: "AuthorFilterInput", keys: map[string]Classification{
		"name": {Kind: KindObjectField, Field: Field{Name: "name", TypeName: "String"}, Scope: s.strings},
		"and":  {Kind: KindCombinator, Field: Field{Name: "and"}},
		"or":   {Kind: KindCombinator, Field: Field{Name: "or"}},
	}}
	s.book = &testScope{name: "BookFilterInput", keys: map[string]Classification{
		"title":  {Kind: KindObjectField, Field: Field{Name: "title", TypeName: "String"}, Scope: s.strings},
		"pages":  {Kind: KindObjectField, Field: Field{Name: "pages", TypeName: "Int"}, Scope: s.ints},
		"author": {Kind: KindObjectField, Field: Field{Name: "author", TypeName: "Author"}, Scope: s.author},
		"and":    {Kind: KindCombinator, Field: Field{Name: "and"}},
		"or":     {Kind: KindCombinator, Field: Field{Name: "or"}},
	}}
	return s
}

func (s *bookScopes) totalCalls() int {
	return s.book.calls + s.author.calls + s.strings.calls + s.ints.calls
}
