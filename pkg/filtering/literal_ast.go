package filtering

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/graphql-go/graphql/language/ast"
)

// ASTOptions controls LiteralFromAST.
type ASTOptions struct {
	// Variables are the coerced request variables.
	Variables map[string]any
	// OrderedVariables, when present, take precedence over Variables and
	// keep the key order the client sent.
	OrderedVariables map[string]Literal
	// MaxDepth limits literal nesting; zero disables the check.
	MaxDepth int
}

// LiteralFromAST converts a graphql-go argument value into a Literal,
// substituting variables. Object fields keep their order in the query
// text, which the coerced argument map does not.
func LiteralFromAST(value ast.Value, opts ASTOptions) (Literal, error) {
	if value == nil {
		return nil, nil
	}
	return literalFromAST(value, opts, 0)
}

func literalFromAST(value ast.Value, opts ASTOptions, depth int) (Literal, error) {
	switch v := value.(type) {
	case *ast.Variable:
		if v.Name == nil {
			return Null, nil
		}
		lit := variableLiteral(v.Name.Value, opts)
		if err := checkDepth(depth+Depth(lit), opts.MaxDepth); err != nil {
			return nil, err
		}
		return lit, nil

	case *ast.ObjectValue:
		if err := checkDepth(depth+1, opts.MaxDepth); err != nil {
			return nil, err
		}
		obj := &ObjectLiteral{Fields: make([]LiteralField, 0, len(v.Fields))}
		for _, f := range v.Fields {
			if f == nil || f.Name == nil {
				continue
			}
			child, err := literalFromAST(f.Value, opts, depth+1)
			if err != nil {
				return nil, err
			}
			obj.Fields = append(obj.Fields, LiteralField{Name: f.Name.Value, Value: child})
		}
		return obj, nil

	case *ast.ListValue:
		if err := checkDepth(depth+1, opts.MaxDepth); err != nil {
			return nil, err
		}
		list := &ListLiteral{Items: make([]Literal, 0, len(v.Values))}
		for _, item := range v.Values {
			child, err := literalFromAST(item, opts, depth+1)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, child)
		}
		return list, nil

	case *ast.IntValue:
		n, err := strconv.Atoi(v.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: int %q: %v", ErrInvalidLiteral, v.Value, err)
		}
		return &ScalarLiteral{Value: n}, nil

	case *ast.FloatValue:
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: float %q: %v", ErrInvalidLiteral, v.Value, err)
		}
		return &ScalarLiteral{Value: f}, nil

	case *ast.StringValue:
		return &ScalarLiteral{Value: v.Value}, nil

	case *ast.BooleanValue:
		return &ScalarLiteral{Value: v.Value}, nil

	case *ast.EnumValue:
		return &ScalarLiteral{Value: v.Value}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported value kind %s", ErrInvalidLiteral, value.GetKind())
	}
}

func variableLiteral(name string, opts ASTOptions) Literal {
	if lit, ok := opts.OrderedVariables[name]; ok {
		return lit
	}
	v, ok := opts.Variables[name]
	if !ok {
		return Null
	}
	return LiteralFromValue(v)
}

func checkDepth(depth, max int) error {
	if max > 0 && depth > max {
		return &DepthError{Depth: depth, MaxDepth: max}
	}
	return nil
}

// DecodeLiteralJSON decodes a JSON document into a Literal, keeping object
// keys in document order. Integral numbers become int, others float64.
func DecodeLiteralJSON(data []byte) (Literal, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	lit, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidLiteral)
	}
	return lit, nil
}

func decodeJSONValue(dec *json.Decoder) (Literal, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLiteral, err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &ObjectLiteral{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidLiteral, err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("%w: object key %v is not a string", ErrInvalidLiteral, keyTok)
				}
				value, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Fields = append(obj.Fields, LiteralField{Name: key, Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidLiteral, err)
			}
			return obj, nil
		case '[':
			list := &ListLiteral{Items: []Literal{}}
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				list.Items = append(list.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidLiteral, err)
			}
			return list, nil
		default:
			return nil, fmt.Errorf("%w: unexpected delimiter %v", ErrInvalidLiteral, t)
		}
	case json.Number:
		return &ScalarLiteral{Value: jsonNumber(t)}, nil
	case nil:
		return Null, nil
	default:
		// string, bool
		return &ScalarLiteral{Value: t}, nil
	}
}

func jsonNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
