package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindMapping
	KindSequence
)

// Value is a dynamically typed tree node mirroring the JSON produced by
// document analysis. Extraction shapes vary between documents, so the
// merge and check stages navigate these trees with best-effort accessors
// instead of fixed structs.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	m    map[string]Value
	seq  []Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Mapping wraps a key-value map. A nil map yields an empty mapping.
func Mapping(m map[string]Value) Value {
	if m == nil {
		m = make(map[string]Value)
	}
	return Value{kind: KindMapping, m: m}
}

// Sequence wraps an ordered list.
func Sequence(s []Value) Value { return Value{kind: KindSequence, seq: s} }

// Kind reports the variant held.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsEmpty reports whether the value carries no information: null, an
// empty string, an empty mapping or an empty sequence.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindMapping:
		return len(v.m) == 0
	case KindSequence:
		return len(v.seq) == 0
	default:
		return false
	}
}

// AsBool returns the boolean payload and whether the value is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsNumber returns the numeric payload and whether the value is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsString returns the string payload and whether the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsMap returns the mapping payload and whether the value is a mapping.
// The returned map is the live backing store; callers must not mutate it
// unless they own the value.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.m, true
}

// AsSeq returns the sequence payload and whether the value is a sequence.
func (v Value) AsSeq() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.seq, true
}

// Get returns the child under key when the value is a mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Null(), false
	}
	child, ok := v.m[key]
	return child, ok
}

// Set stores a child under key. It is a no-op unless the value is a
// mapping.
func (v Value) Set(key string, child Value) {
	if v.kind == KindMapping {
		v.m[key] = child
	}
}

// At walks a dot-separated path of mapping keys, returning null when any
// segment is absent.
func (v Value) At(path string) Value {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		child, ok := cur.Get(seg)
		if !ok {
			return Null()
		}
		cur = child
	}
	return cur
}

// StringAt returns the string at a dotted path, or "" when absent or not
// a string.
func (v Value) StringAt(path string) string {
	s, _ := v.At(path).AsString()
	return s
}

// BoolAt returns the bool at a dotted path, or false when absent.
func (v Value) BoolAt(path string) bool {
	b, _ := v.At(path).AsBool()
	return b
}

// NumberAt returns the number at a dotted path. Numeric strings are
// coerced, since analysis output is not strict about amount types.
func (v Value) NumberAt(path string) (float64, bool) {
	node := v.At(path)
	if f, ok := node.AsNumber(); ok {
		return f, true
	}
	if s, ok := node.AsString(); ok {
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// SeqAt returns the sequence at a dotted path, or nil when absent.
func (v Value) SeqAt(path string) []Value {
	seq, _ := v.At(path).AsSeq()
	return seq
}

// Walk visits every node in the tree depth-first, parents before
// children. Mapping children are visited in sorted key order so walks
// are deterministic.
func (v Value) Walk(fn func(Value)) {
	fn(v)
	switch v.kind {
	case KindMapping:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v.m[k].Walk(fn)
		}
	case KindSequence:
		for _, child := range v.seq {
			child.Walk(fn)
		}
	}
}

// CollectText joins every string leaf in the tree, lowercased, into one
// space-separated blob. Used for keyword scanning over whole documents.
func (v Value) CollectText() string {
	var parts []string
	v.Walk(func(node Value) {
		if s, ok := node.AsString(); ok && s != "" {
			parts = append(parts, strings.ToLower(s))
		}
	})
	return strings.Join(parts, " ")
}

// FindSequences returns every sequence stored under the given key
// anywhere in the tree, in deterministic walk order.
func (v Value) FindSequences(key string) [][]Value {
	var found [][]Value
	v.Walk(func(node Value) {
		m, ok := node.AsMap()
		if !ok {
			return
		}
		if child, ok := m[key]; ok {
			if seq, ok := child.AsSeq(); ok {
				found = append(found, seq)
			}
		}
	})
	return found
}

// Canonical renders a stable textual encoding of the tree (mapping keys
// sorted). Two structurally equal values produce identical encodings, so
// it doubles as an identity key for deduplication.
func (v Value) Canonical() string {
	var sb strings.Builder
	v.writeCanonical(&sb)
	return sb.String()
}

func (v Value) writeCanonical(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(v.num, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.str))
	case KindMapping:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			v.m[k].writeCanonical(sb)
		}
		sb.WriteByte('}')
	case KindSequence:
		sb.WriteByte('[')
		for i, child := range v.seq {
			if i > 0 {
				sb.WriteByte(',')
			}
			child.writeCanonical(sb)
		}
		sb.WriteByte(']')
	}
}

// Equal reports structural equality.
func (v Value) Equal(other Value) bool {
	return v.Canonical() == other.Canonical()
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindMapping:
		m := make(map[string]Value, len(v.m))
		for k, child := range v.m {
			m[k] = child.Clone()
		}
		return Mapping(m)
	case KindSequence:
		seq := make([]Value, len(v.seq))
		for i, child := range v.seq {
			seq[i] = child.Clone()
		}
		return Sequence(seq)
	default:
		return v
	}
}

// FromJSON decodes a JSON document into a Value tree.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Null(), fmt.Errorf("decode value: %w", err)
	}
	return fromInterface(raw)
}

func fromInterface(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("parse number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, child := range t {
			cv, err := fromInterface(child)
			if err != nil {
				return Null(), err
			}
			m[k] = cv
		}
		return Mapping(m), nil
	case []interface{}:
		seq := make([]Value, len(t))
		for i, child := range t {
			cv, err := fromInterface(child)
			if err != nil {
				return Null(), err
			}
			seq[i] = cv
		}
		return Sequence(seq), nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", raw)
	}
}

// MarshalJSON renders the tree as JSON with sorted mapping keys.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindMapping:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			cb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(cb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindSequence:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, child := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			cb, err := child.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(cb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// UnmarshalJSON decodes JSON into the value in place.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
