// Package jsondoc is an order-preserving JSON document model.
//
// Values are nil, bool, string, Number, []any and *Object. Objects keep their
// members in document order so that a parse/marshal round trip of canonical
// output is byte-identical.
package jsondoc

import (
	json "github.com/goccy/go-json"
)

// Number is a JSON number literal kept verbatim.
type Number = json.Number

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that remembers member order.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// ObjectOf builds an object from alternating key, value arguments. It panics
// on a non-string key and is meant for tests and literals.
func ObjectOf(kv ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1])
	}
	return o
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position and takes
// the new value.
func (o *Object) Set(key string, value any) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = value
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Keys returns the member keys in order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}
	return keys
}

// Members returns a copy of the members in order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	out := make([]Member, len(o.members))
	copy(out, o.members)
	return out
}

// SetMembers replaces the object's contents with members, in the given order.
// Later duplicates of a key overwrite earlier ones in place.
func (o *Object) SetMembers(members []Member) {
	o.members = o.members[:0]
	o.index = make(map[string]int, len(members))
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
}

// TypeName returns the JSON type name of v, used in error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case Number:
		return "number"
	case []any:
		return "array"
	case *Object:
		return "object"
	default:
		return "unsupported"
	}
}
