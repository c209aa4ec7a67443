package filtering

// Context is the filter handle a resolver sees for one field invocation.
// The literal is built into a Node on first access and kept for the rest
// of the invocation. A Context is not safe for concurrent use; it belongs
// to a single field resolution.
type Context struct {
	scope   Scope
	literal Literal
	builder *Builder

	built bool
	root  *Node
	err   error

	executionEnabled bool
	onEnable         func()
}

// ContextOption configures a Context
type ContextOption func(*Context)

// WithBuilder makes the context build with b instead of the default builder.
func WithBuilder(b *Builder) ContextOption {
	return func(c *Context) {
		if b != nil {
			c.builder = b
		}
	}
}

func withEnableHook(fn func()) ContextOption {
	return func(c *Context) {
		c.onEnable = fn
	}
}

// NewContext creates a context for literal under scope. A nil literal means
// the argument was omitted and yields an empty root.
func NewContext(scope Scope, literal Literal, opts ...ContextOption) *Context {
	c := &Context{
		scope:   scope,
		literal: literal,
		builder: defaultBuilder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root builds the filter if needed and returns its root node.
func (c *Context) Root() (*Node, error) {
	if !c.built {
		c.root, c.err = c.builder.Build(c.literal, c.scope)
		c.built = true
	}
	return c.root, c.err
}

// mustRoot panics on build errors. Those only happen when the scope does not
// match the validated argument, which is a schema bug.
func (c *Context) mustRoot() *Node {
	root, err := c.Root()
	if err != nil {
		panic(err)
	}
	return root
}

// Fields returns the root's fields. It panics if the filter cannot be built;
// use Root to get the error instead.
func (c *Context) Fields() []FieldInfo {
	return c.mustRoot().Fields()
}

// Operations returns the root's operations. It panics if the filter cannot
// be built; use Root to get the error instead.
func (c *Context) Operations() []OperationInfo {
	return c.mustRoot().Operations()
}

// EnableFilterExecution asks for the filter to be applied automatically even
// though the resolver inspected it.
func (c *Context) EnableFilterExecution() {
	if c.executionEnabled {
		return
	}
	c.executionEnabled = true
	if c.onEnable != nil {
		c.onEnable()
	}
}

// ExecutionEnabled reports whether EnableFilterExecution was called.
func (c *Context) ExecutionEnabled() bool {
	return c.executionEnabled
}

// IsBuilt reports whether the literal has been built yet.
func (c *Context) IsBuilt() bool {
	return c.built
}

// Scope returns the root scope.
func (c *Context) Scope() Scope {
	return c.scope
}

// Literal returns the unbuilt argument value, nil if it was omitted.
func (c *Context) Literal() Literal {
	return c.literal
}

// ToMap flattens the filter into plain maps and slices for debugging and
// snapshots.
func (c *Context) ToMap() map[string]any {
	return Flatten(c.mustRoot())
}

// Fingerprint hashes the built filter; see Node.Fingerprint.
func (c *Context) Fingerprint() uint64 {
	return c.mustRoot().Fingerprint()
}
