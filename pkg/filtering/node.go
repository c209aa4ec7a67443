package filtering

// Node is one nesting level of a built filter. It is not modified after
// the builder returns; the slices it hands out must be treated as read-only.
type Node struct {
	fields     []FieldInfo
	operations []OperationInfo
}

// FieldInfo is an object-valued key such as "title" or "author".
type FieldInfo struct {
	Field Field
	Value *Node
}

// OperationInfo is a leaf operator or a combinator.
type OperationInfo struct {
	Field Field
	Value OperationValue
}

// OperationValue is either a Value (leaf operator) or a ValueCollection
// (combinator). Consumers switch on the concrete type.
type OperationValue interface {
	operationValue()
}

// Value holds the decoded argument of a leaf operator. A nil Value is an
// explicit null in the input.
type Value struct {
	Value any
}

func (*Value) operationValue() {}

// ValueCollection holds one node per element of a combinator's list, in
// list order.
type ValueCollection struct {
	items []*Node
}

func (*ValueCollection) operationValue() {}

// NewValueCollection wraps nodes in order.
func NewValueCollection(items ...*Node) *ValueCollection {
	return &ValueCollection{items: items}
}

// Len returns the number of branches.
func (c *ValueCollection) Len() int {
	return len(c.items)
}

// At returns branch i. It panics if i is out of range, like a slice index.
func (c *ValueCollection) At(i int) *Node {
	return c.items[i]
}

// Items returns all branches in order.
func (c *ValueCollection) Items() []*Node {
	return c.items
}

var emptyNode = &Node{}

// EmptyNode returns a node without fields or operations.
func EmptyNode() *Node {
	return emptyNode
}

// Fields returns the object-valued keys of this level in input order.
func (n *Node) Fields() []FieldInfo {
	if n == nil {
		return nil
	}
	return n.fields
}

// Operations returns the operators and combinators of this level in input order.
func (n *Node) Operations() []OperationInfo {
	if n == nil {
		return nil
	}
	return n.operations
}

// IsEmpty reports whether the node carries no filter at all.
func (n *Node) IsEmpty() bool {
	return n == nil || (len(n.fields) == 0 && len(n.operations) == 0)
}

// Field returns the first field with the given name.
func (n *Node) Field(name string) (FieldInfo, bool) {
	for _, f := range n.Fields() {
		if f.Field.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// Operation returns the first operation with the given name.
func (n *Node) Operation(name string) (OperationInfo, bool) {
	for _, op := range n.Operations() {
		if op.Field.Name == name {
			return op, true
		}
	}
	return OperationInfo{}, false
}

// Count returns the number of nodes in the tree rooted at n, n included.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, f := range n.fields {
		count += f.Value.Count()
	}
	for _, op := range n.operations {
		if c, ok := op.Value.(*ValueCollection); ok {
			for _, item := range c.items {
				count += item.Count()
			}
		}
	}
	return count
}
