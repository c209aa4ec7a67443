package filtering

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/zeebo/xxh3"
)

// Flatten mirrors the node as plain data: fields map to their flattened
// node, leaf operators to their value and combinators to a slice of
// flattened branches. A key repeated at one level keeps only its last
// entry; the node itself keeps all of them.
func Flatten(n *Node) map[string]any {
	out := make(map[string]any, len(n.Fields())+len(n.Operations()))
	for _, f := range n.Fields() {
		out[f.Field.Name] = Flatten(f.Value)
	}
	for _, op := range n.Operations() {
		switch v := op.Value.(type) {
		case *Value:
			out[op.Field.Name] = v.Value
		case *ValueCollection:
			branches := make([]any, 0, v.Len())
			for _, item := range v.Items() {
				branches = append(branches, Flatten(item))
			}
			out[op.Field.Name] = branches
		}
	}
	return out
}

// Fingerprint hashes the tree's shape, names, order and values with xxh3.
// Structurally identical trees share a fingerprint.
func (n *Node) Fingerprint() uint64 {
	h := xxh3.New()
	writeNode(h, n)
	return h.Sum64()
}

func writeNode(w io.Writer, n *Node) {
	io.WriteString(w, "{")
	for _, f := range n.Fields() {
		fmt.Fprintf(w, "f%d:%s", len(f.Field.Name), f.Field.Name)
		writeNode(w, f.Value)
	}
	for _, op := range n.Operations() {
		fmt.Fprintf(w, "o%d:%s", len(op.Field.Name), op.Field.Name)
		switch v := op.Value.(type) {
		case *Value:
			io.WriteString(w, "=")
			writeValue(w, v.Value)
		case *ValueCollection:
			fmt.Fprintf(w, "[%d", v.Len())
			for _, item := range v.Items() {
				writeNode(w, item)
			}
			io.WriteString(w, "]")
		}
	}
	io.WriteString(w, "}")
}

// writeValue encodes a decoded literal value so that distinct values never
// share an encoding. Strings, lists and maps are length-prefixed.
func writeValue(w io.Writer, v any) {
	switch v := v.(type) {
	case nil:
		io.WriteString(w, "n;")
	case string:
		fmt.Fprintf(w, "s%d:%s", len(v), v)
	case []any:
		fmt.Fprintf(w, "[%d", len(v))
		for _, item := range v {
			writeValue(w, item)
		}
		io.WriteString(w, "]")
	case map[string]any:
		keys := slices.Sorted(maps.Keys(v))
		fmt.Fprintf(w, "m%d", len(keys))
		for _, k := range keys {
			fmt.Fprintf(w, "k%d:%s", len(k), k)
			writeValue(w, v[k])
		}
		io.WriteString(w, ";")
	default:
		s := fmt.Sprint(v)
		fmt.Fprintf(w, "%T%d:%s", v, len(s), s)
	}
}
