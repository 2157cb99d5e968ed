package jsondoc

import (
	"strconv"
	"strings"
)

// SplitPointer splits an RFC 6901 JSON pointer into unescaped reference
// tokens. The empty pointer refers to the whole document and yields no tokens.
func SplitPointer(pointer string) []string {
	if pointer == "" {
		return nil
	}
	pointer = strings.TrimPrefix(pointer, "/")
	parts := strings.Split(pointer, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

// Lookup walks root by pointer. Any missing member, out of range index or
// non-container along the way yields (nil, false).
func Lookup(root any, pointer string) (any, bool) {
	cur := root
	for _, tok := range SplitPointer(pointer) {
		switch c := cur.(type) {
		case *Object:
			v, ok := c.Get(tok)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(c) || tok != strconv.Itoa(i) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// JSONPath renders pointer as a "$.a[0].b" style path. Array indices are
// recognised by walking root; where the walk fails, all-digit tokens are
// treated as indices.
func JSONPath(root any, pointer string) string {
	var b strings.Builder
	b.WriteString("$")

	cur, walking := root, true
	for _, tok := range SplitPointer(pointer) {
		isIndex := false
		if walking {
			switch c := cur.(type) {
			case []any:
				isIndex = true
				if i, err := strconv.Atoi(tok); err == nil && i >= 0 && i < len(c) {
					cur = c[i]
				} else {
					walking = false
				}
			case *Object:
				if v, ok := c.Get(tok); ok {
					cur = v
				} else {
					walking = false
				}
			default:
				walking = false
			}
		}
		if !walking && !isIndex {
			isIndex = isDigits(tok)
		}

		if isIndex {
			b.WriteString("[")
			b.WriteString(tok)
			b.WriteString("]")
		} else {
			b.WriteString(".")
			b.WriteString(tok)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
