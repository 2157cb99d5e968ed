package jsondoc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxDepth bounds nesting so that self-referencing containers fail instead of
// recursing forever.
const maxDepth = 10000

// ErrTooDeep is returned when a value nests deeper than maxDepth.
var ErrTooDeep = errors.New("value nested too deeply (possible cycle)")

// UnsupportedValueError reports a Go value with no JSON representation.
type UnsupportedValueError struct {
	Value any
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("value of type %T is not JSON serializable", e.Value)
}

// Marshal renders v as indented JSON: one member or element per line, indent
// spaces per nesting level, ": " between key and value, empty containers as
// {} and [], non-ASCII text left unescaped and no trailing newline.
func Marshal(v any, indent int) (string, error) {
	if indent < 0 {
		indent = 0
	}
	w := &writer{indent: strings.Repeat(" ", indent)}
	if err := w.value(v, 0); err != nil {
		return "", err
	}
	return w.buf.String(), nil
}

type writer struct {
	buf    strings.Builder
	indent string
}

func (w *writer) newline(depth int) {
	w.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		w.buf.WriteString(w.indent)
	}
}

func (w *writer) value(v any, depth int) error {
	if depth > maxDepth {
		return ErrTooDeep
	}

	switch x := v.(type) {
	case nil:
		w.buf.WriteString("null")
	case bool:
		if x {
			w.buf.WriteString("true")
		} else {
			w.buf.WriteString("false")
		}
	case string:
		if !utf8.ValidString(x) {
			return fmt.Errorf("string is not valid UTF-8: %q", x)
		}
		writeString(&w.buf, x)
	case Number:
		if x == "" {
			return &UnsupportedValueError{Value: v}
		}
		w.buf.WriteString(string(x))
	case []any:
		if len(x) == 0 {
			w.buf.WriteString("[]")
			return nil
		}
		w.buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			if err := w.value(item, depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte(']')
	case *Object:
		if x.Len() == 0 {
			w.buf.WriteString("{}")
			return nil
		}
		w.buf.WriteByte('{')
		for i, m := range x.members {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			writeString(&w.buf, m.Key)
			w.buf.WriteString(": ")
			if err := w.value(m.Value, depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte('}')
	default:
		return &UnsupportedValueError{Value: v}
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// writeString quotes s, escaping only the quote, the backslash and control
// characters.
func writeString(buf *strings.Builder, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[r>>4])
			buf.WriteByte(hexDigits[r&0xF])
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
