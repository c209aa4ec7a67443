package filtering

import (
	"fmt"
	"sort"
)

// Literal is a parsed input value: an object, a list or a scalar.
// Only ObjectLiteral, ListLiteral and ScalarLiteral implement it.
type Literal interface {
	literal()
}

// LiteralField is one key/value pair of an object literal.
type LiteralField struct {
	Name  string
	Value Literal
}

// ObjectLiteral keeps its fields in declaration order.
type ObjectLiteral struct {
	Fields []LiteralField
}

func (*ObjectLiteral) literal() {}

// Get returns the value of the first field with the given name.
func (o *ObjectLiteral) Get(name string) (Literal, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Len returns the number of fields
func (o *ObjectLiteral) Len() int {
	return len(o.Fields)
}

// ListLiteral is an ordered sequence of literals.
type ListLiteral struct {
	Items []Literal
}

func (*ListLiteral) literal() {}

// ScalarLiteral wraps a leaf value (string, int, float64, bool, enum name).
// A nil Value is the null literal.
type ScalarLiteral struct {
	Value any
}

func (*ScalarLiteral) literal() {}

// IsNull reports whether the scalar is the null literal.
func (s *ScalarLiteral) IsNull() bool {
	return s.Value == nil
}

// Null is the shared null literal.
var Null = &ScalarLiteral{}

// Object builds an object literal from alternating pairs, mostly for tests:
// Object("title", Object("eq", Scalar("a"))).
func Object(kv ...any) *ObjectLiteral {
	if len(kv)%2 != 0 {
		panic("filtering.Object: odd number of arguments")
	}
	obj := &ObjectLiteral{Fields: make([]LiteralField, 0, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("filtering.Object: key at %d is %T, not string", i, kv[i]))
		}
		obj.Fields = append(obj.Fields, LiteralField{Name: name, Value: toLiteral(kv[i+1])})
	}
	return obj
}

// List builds a list literal.
func List(items ...any) *ListLiteral {
	list := &ListLiteral{Items: make([]Literal, len(items))}
	for i, item := range items {
		list.Items[i] = toLiteral(item)
	}
	return list
}

// Scalar wraps a leaf value.
func Scalar(v any) *ScalarLiteral {
	if v == nil {
		return Null
	}
	return &ScalarLiteral{Value: v}
}

func toLiteral(v any) Literal {
	if lit, ok := v.(Literal); ok {
		return lit
	}
	return LiteralFromValue(v)
}

// LiteralFromValue converts a decoded Go value (as produced by encoding/json
// or graphql-go argument coercion) into a Literal. Go maps carry no order,
// so object keys are sorted to keep the result deterministic.
func LiteralFromValue(v any) Literal {
	switch val := v.(type) {
	case nil:
		return Null
	case Literal:
		return val
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &ObjectLiteral{Fields: make([]LiteralField, 0, len(keys))}
		for _, k := range keys {
			obj.Fields = append(obj.Fields, LiteralField{Name: k, Value: LiteralFromValue(val[k])})
		}
		return obj
	case []any:
		list := &ListLiteral{Items: make([]Literal, len(val))}
		for i, item := range val {
			list.Items[i] = LiteralFromValue(item)
		}
		return list
	case []string:
		list := &ListLiteral{Items: make([]Literal, len(val))}
		for i, item := range val {
			list.Items[i] = &ScalarLiteral{Value: item}
		}
		return list
	case []int:
		list := &ListLiteral{Items: make([]Literal, len(val))}
		for i, item := range val {
			list.Items[i] = &ScalarLiteral{Value: item}
		}
		return list
	default:
		return &ScalarLiteral{Value: val}
	}
}

// Decode converts a literal into plain Go values: objects become
// map[string]any, lists become []any (order preserved) and scalars
// their wrapped value.
func Decode(lit Literal) any {
	switch l := lit.(type) {
	case nil:
		return nil
	case *ScalarLiteral:
		return l.Value
	case *ListLiteral:
		out := make([]any, len(l.Items))
		for i, item := range l.Items {
			out[i] = Decode(item)
		}
		return out
	case *ObjectLiteral:
		out := make(map[string]any, len(l.Fields))
		for _, f := range l.Fields {
			out[f.Name] = Decode(f.Value)
		}
		return out
	default:
		panic(fmt.Sprintf("filtering: unknown literal type %T", lit))
	}
}

// Depth returns the nesting depth of a literal. Scalars have depth 0, an
// object or list adds one level to its deepest child.
func Depth(lit Literal) int {
	switch l := lit.(type) {
	case *ObjectLiteral:
		max := 0
		for _, f := range l.Fields {
			if d := Depth(f.Value); d > max {
				max = d
			}
		}
		return max + 1
	case *ListLiteral:
		max := 0
		for _, item := range l.Items {
			if d := Depth(item); d > max {
				max = d
			}
		}
		return max + 1
	default:
		return 0
	}
}
