package graphql

import (
	"reflect"
	"strings"

	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"golang.org/x/exp/constraints"
)

// Predicate reports whether an item passes a filter.
type Predicate func(item any) bool

// Properties is implemented by items that expose their fields by name.
// Items may also be map[string]any.
type Properties interface {
	Property(name string) (any, bool)
}

// Compile turns a built filter into a predicate. Fields and operations on
// one level must all match; a null operand matches a missing or null value
// for eq, a present value for neq, and is ignored by every other operator.
func (c *Convention) Compile(node *filtering.Node) Predicate {
	return Predicate(c.compileNode(node))
}

func (c *Convention) compileNode(node *filtering.Node) func(any) bool {
	checks := make([]func(any) bool, 0, len(node.Fields())+len(node.Operations()))
	for _, f := range node.Fields() {
		checks = append(checks, c.compileField(f))
	}
	for _, op := range node.Operations() {
		checks = append(checks, c.compileOperation(op))
	}

	return func(value any) bool {
		for _, check := range checks {
			if !check(value) {
				return false
			}
		}
		return true
	}
}

func (c *Convention) compileField(f filtering.FieldInfo) func(any) bool {
	name := f.Field.Name
	var match func(any) bool
	if c.isListInput(f.Field.TypeName) {
		match = c.compileList(f.Value)
	} else {
		match = c.compileNode(f.Value)
	}

	return func(item any) bool {
		value, _ := property(item, name)
		return match(value)
	}
}

func (c *Convention) compileOperation(op filtering.OperationInfo) func(any) bool {
	switch v := op.Value.(type) {
	case *filtering.ValueCollection:
		branches := make([]func(any) bool, v.Len())
		for i, item := range v.Items() {
			branches[i] = c.compileNode(item)
		}
		if op.Field.Name == c.config.OrKeyword {
			return func(value any) bool {
				// an empty or constrains nothing
				if len(branches) == 0 {
					return true
				}
				for _, branch := range branches {
					if branch(value) {
						return true
					}
				}
				return false
			}
		}
		return func(value any) bool {
			for _, branch := range branches {
				if !branch(value) {
					return false
				}
			}
			return true
		}

	case *filtering.Value:
		return leafPredicate(op.Field.Name, v.Value)

	default:
		return func(any) bool { return false }
	}
}

// compileList evaluates the some/all/none/any quantifiers of a list filter.
func (c *Convention) compileList(node *filtering.Node) func(any) bool {
	var checks []func([]any) bool

	for _, f := range node.Fields() {
		match := c.compileNode(f.Value)
		switch f.Field.Name {
		case ListSome:
			checks = append(checks, func(items []any) bool {
				for _, item := range items {
					if match(item) {
						return true
					}
				}
				return false
			})
		case ListAll:
			checks = append(checks, func(items []any) bool {
				for _, item := range items {
					if !match(item) {
						return false
					}
				}
				return true
			})
		case ListNone:
			checks = append(checks, func(items []any) bool {
				for _, item := range items {
					if match(item) {
						return false
					}
				}
				return true
			})
		default:
			checks = append(checks, func([]any) bool { return false })
		}
	}

	for _, op := range node.Operations() {
		v, ok := op.Value.(*filtering.Value)
		if !ok || op.Field.Name != ListAny {
			checks = append(checks, func([]any) bool { return false })
			continue
		}
		want, ok := v.Value.(bool)
		if !ok {
			continue
		}
		checks = append(checks, func(items []any) bool {
			return (len(items) > 0) == want
		})
	}

	return func(value any) bool {
		items := toSlice(value)
		for _, check := range checks {
			if !check(items) {
				return false
			}
		}
		return true
	}
}

func leafPredicate(op string, operand any) func(any) bool {
	if operand == nil {
		switch op {
		case OpEq:
			return func(value any) bool { return value == nil }
		case OpNeq:
			return func(value any) bool { return value != nil }
		default:
			return func(any) bool { return true }
		}
	}

	switch op {
	case OpEq:
		return func(value any) bool { return evaluateEquals(value, operand) }
	case OpNeq:
		return func(value any) bool { return !evaluateEquals(value, operand) }
	case OpIn:
		return func(value any) bool { return evaluateIn(value, operand) }
	case OpNin:
		return func(value any) bool { return !evaluateIn(value, operand) }
	case OpGt:
		return ordered(operand, func(c int) bool { return c > 0 })
	case OpGte:
		return ordered(operand, func(c int) bool { return c >= 0 })
	case OpLt:
		return ordered(operand, func(c int) bool { return c < 0 })
	case OpLte:
		return ordered(operand, func(c int) bool { return c <= 0 })
	case OpNgt:
		return negate(ordered(operand, func(c int) bool { return c > 0 }))
	case OpNgte:
		return negate(ordered(operand, func(c int) bool { return c >= 0 }))
	case OpNlt:
		return negate(ordered(operand, func(c int) bool { return c < 0 }))
	case OpNlte:
		return negate(ordered(operand, func(c int) bool { return c <= 0 }))
	case OpContains:
		return text(operand, strings.Contains)
	case OpNcontains:
		return negate(text(operand, strings.Contains))
	case OpStartsWith:
		return text(operand, strings.HasPrefix)
	case OpNstartsWith:
		return negate(text(operand, strings.HasPrefix))
	case OpEndsWith:
		return text(operand, strings.HasSuffix)
	case OpNendsWith:
		return negate(text(operand, strings.HasSuffix))
	default:
		return func(any) bool { return false }
	}
}

func negate(fn func(any) bool) func(any) bool {
	return func(value any) bool { return !fn(value) }
}

func ordered(operand any, accept func(int) bool) func(any) bool {
	return func(value any) bool {
		c, ok := compareValues(value, operand)
		return ok && accept(c)
	}
}

func text(operand any, fn func(s, substr string) bool) func(any) bool {
	want, ok := operand.(string)
	return func(value any) bool {
		s, isString := value.(string)
		return ok && isString && fn(s, want)
	}
}

// evaluateEquals compares numbers by value and everything else strictly
func evaluateEquals(value, operand any) bool {
	if c, ok := compareNumbers(value, operand); ok {
		return c == 0
	}
	if value == nil || operand == nil {
		return value == operand
	}
	if reflect.TypeOf(value).Comparable() && reflect.TypeOf(operand).Comparable() {
		return value == operand
	}
	return reflect.DeepEqual(value, operand)
}

// evaluateIn checks if value is in the operand list
func evaluateIn(value, operand any) bool {
	for _, item := range toSlice(operand) {
		if evaluateEquals(value, item) {
			return true
		}
	}
	return false
}

// compareValues orders numbers numerically and strings lexically.
func compareValues(a, b any) (int, bool) {
	if c, ok := compareNumbers(a, b); ok {
		return c, true
	}
	as, ok1 := a.(string)
	bs, ok2 := b.(string)
	if ok1 && ok2 {
		return compareOrdered(as, bs), true
	}
	return 0, false
}

func compareNumbers(a, b any) (int, bool) {
	af, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	bf, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	return compareOrdered(af, bf), true
}

// compareOrdered returns -1 if a < b, 0 if a == b, 1 if a > b
func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func widen[T constraints.Integer | constraints.Float](v T) (float64, bool) {
	return float64(v), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return widen(n)
	case int8:
		return widen(n)
	case int16:
		return widen(n)
	case int32:
		return widen(n)
	case int64:
		return widen(n)
	case uint:
		return widen(n)
	case uint8:
		return widen(n)
	case uint16:
		return widen(n)
	case uint32:
		return widen(n)
	case uint64:
		return widen(n)
	case float32:
		return widen(n)
	case float64:
		return widen(n)
	default:
		return 0, false
	}
}

func property(item any, name string) (any, bool) {
	switch v := item.(type) {
	case nil:
		return nil, false
	case Properties:
		return v.Property(name)
	case map[string]any:
		value, ok := v[name]
		return value, ok
	default:
		return nil, false
	}
}

func toSlice(v any) []any {
	switch s := v.(type) {
	case nil:
		return nil
	case []any:
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
