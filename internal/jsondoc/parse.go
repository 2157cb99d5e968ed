package jsondoc

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// SyntaxError describes malformed JSON input.
type SyntaxError struct {
	Msg    string
	Offset int64
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
	}
	return e.Msg
}

type parser struct {
	dec *json.Decoder
}

// Parse decodes one JSON document, preserving object member order and number
// literals. Trailing non-whitespace input is an error.
func Parse(data []byte) (any, error) {
	if err := checkSyntax(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &parser{dec: dec}

	v, err := p.value()
	if err != nil {
		return nil, newSyntaxError(data, err, dec.InputOffset())
	}

	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("extra data after document: %v", tok)
		}
		return nil, newSyntaxError(data, err, dec.InputOffset())
	}

	return v, nil
}

func (p *parser) value() (any, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return p.fromToken(tok)
}

func (p *parser) fromToken(tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object()
		case '[':
			return p.array()
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		return t, nil
	case bool:
		return t, nil
	case nil:
		return nil, nil
	case json.Number:
		return t, nil
	case float64:
		return Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func (p *parser) object() (*Object, error) {
	obj := NewObject()
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expecting property name, got %v", tok)
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
	if err := p.closing('}'); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *parser) array() ([]any, error) {
	arr := make([]any, 0)
	for p.dec.More() {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if err := p.closing(']'); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *parser) closing(want json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expecting %q, got %v", rune(want), tok)
	}
	return nil
}

// checkSyntax rejects input that is not a single RFC 8259 document. The token
// stream does not check separators, number lexemes or control characters in
// strings, so the whole document is scanned first.
func checkSyntax(data []byte) error {
	if stdjson.Valid(data) {
		return nil
	}

	var raw stdjson.RawMessage
	err := stdjson.Unmarshal(data, &raw)
	if err == nil {
		err = errors.New("invalid JSON")
	}
	return newSyntaxError(data, err, int64(len(data)))
}

func newSyntaxError(data []byte, err error, fallback int64) *SyntaxError {
	offset := fallback
	msg := err.Error()

	var se *json.SyntaxError
	var stdse *stdjson.SyntaxError
	switch {
	case errors.As(err, &se):
		offset = se.Offset
	case errors.As(err, &stdse):
		offset = stdse.Offset
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		msg = "unexpected end of JSON input"
		offset = int64(len(data))
	}

	line, col := position(data, offset)
	return &SyntaxError{Msg: msg, Offset: offset, Line: line, Column: col}
}

// position converts a byte offset into a 1-based line and rune column.
func position(data []byte, offset int64) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	lineStart := bytes.LastIndexByte(head, '\n') + 1
	col := utf8.RuneCount(head[lineStart:]) + 1
	return line, col
}
