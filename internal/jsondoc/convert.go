package jsondoc

import (
	stdjson "encoding/json"
)

// ToAny converts a document into the plain map/slice form expected by
// generic consumers such as schema validators. Numbers become
// encoding/json.Number so no precision is lost.
func ToAny(v any) any {
	switch x := v.(type) {
	case *Object:
		m := make(map[string]any, x.Len())
		for _, member := range x.members {
			m[member.Key] = ToAny(member.Value)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToAny(item)
		}
		return out
	case Number:
		return stdjson.Number(string(x))
	default:
		return v
	}
}

// Clone returns a deep copy of a document value.
func Clone(v any) any {
	switch x := v.(type) {
	case *Object:
		o := NewObject()
		for _, member := range x.members {
			o.Set(member.Key, Clone(member.Value))
		}
		return o
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}
