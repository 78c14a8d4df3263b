package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the value variants of the DSL.
type Kind uint8

const (
	KindString Kind = iota
	KindNum
	KindBool
	KindObject
	KindArray
	KindTree
)

// String returns the kind name as it appears in DSL parameter lists.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNum:
		return "num"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindTree:
		return "tree"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindFromName maps a DSL type name to a Kind.
func KindFromName(name string) (Kind, bool) {
	switch name {
	case "string":
		return KindString, true
	case "num":
		return KindNum, true
	case "bool":
		return KindBool, true
	case "object":
		return KindObject, true
	case "array":
		return KindArray, true
	case "tree":
		return KindTree, true
	}
	return 0, false
}

// TreeRef is an opaque reference to a first-class tree value. The
// runtime supplies the concrete implementation; natives treat it as a
// token they can hand back but never invoke directly.
type TreeRef interface {
	TreeName() string
}

// Value is a tagged DSL value. The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	obj  map[string]Value
	arr  []Value
	tree TreeRef
}

// Str builds a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Num builds a numeric value.
func Num(n float64) Value { return Value{kind: KindNum, num: n} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Object builds an object value. The map is used as-is; callers must
// not mutate it afterwards.
func Object(entries map[string]Value) Value { return Value{kind: KindObject, obj: entries} }

// Array builds an array value. The slice is used as-is.
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// Tree wraps a runtime tree reference as a value.
func Tree(ref TreeRef) Value { return Value{kind: KindTree, tree: ref} }

// Kind returns the value's variant tag.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload, or false for other kinds.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNum returns the numeric payload, or false for other kinds.
func (v Value) AsNum() (float64, bool) { return v.num, v.kind == KindNum }

// AsBool returns the boolean payload, or false for other kinds.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsObject returns the object payload, or false for other kinds.
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// AsArray returns the array payload, or false for other kinds.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsTree returns the tree reference, or false for other kinds.
func (v Value) AsTree() (TreeRef, bool) { return v.tree, v.kind == KindTree }

// Equal compares two values structurally. Tree references compare by
// identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNum:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, ve := range v.obj {
			oe, ok := o.obj[k]
			if !ok || !ve.Equal(oe) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindTree:
		return v.tree == o.tree
	}
	return false
}

// Clone deep-copies the value. Tree references are shared, everything
// else (objects, arrays) is copied; checkpoint snapshots rely on this.
func (v Value) Clone() Value {
	switch v.kind {
	case KindObject:
		obj := make(map[string]Value, len(v.obj))
		for k, e := range v.obj {
			obj[k] = e.Clone()
		}
		return Value{kind: KindObject, obj: obj}
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	default:
		return v
	}
}

// Interface converts the value into plain Go data (string, float64,
// bool, map[string]any, []any). Tree references pass through unchanged.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNum:
		return v.num
	case KindBool:
		return v.b
	case KindObject:
		m := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			m[k] = e.Interface()
		}
		return m
	case KindArray:
		s := make([]any, len(v.arr))
		for i, e := range v.arr {
			s[i] = e.Interface()
		}
		return s
	case KindTree:
		return v.tree
	}
	return nil
}

// FromInterface converts plain Go data (as produced by YAML or JSON
// decoding) into a Value. Integers widen to float64.
func FromInterface(raw any) (Value, error) {
	switch t := raw.(type) {
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Num(t), nil
	case float32:
		return Num(float64(t)), nil
	case int:
		return Num(float64(t)), nil
	case int64:
		return Num(float64(t)), nil
	case uint64:
		return Num(float64(t)), nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			v, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = v
		}
		return Object(obj), nil
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			v, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = v
		}
		return Array(arr...), nil
	case TreeRef:
		return Tree(t), nil
	case nil:
		return Value{}, fmt.Errorf("nil is not a valid value")
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// String renders the value in DSL literal syntax, primarily for logs
// and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNum:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", strconv.Quote(k), v.obj[k].String())
		}
		sb.WriteString("}")
		return sb.String()
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindTree:
		if v.tree != nil {
			return "tree(" + v.tree.TreeName() + ")"
		}
		return "tree(<nil>)"
	}
	return "<invalid>"
}
