// Package svg provides a minimal element tree for building SVG documents
// and a deterministic serializer.
//
// Elements keep their attributes in insertion order and serialize with
// stable two-space indentation, so a document built from the same inputs
// always encodes to the same bytes. This is a hard requirement for the
// generator: golden-output tests compare documents byte for byte.
package svg

import (
	"bytes"
	"io"
	"strconv"
	"strings"
)

// Attr is a single element attribute. Order of attributes is preserved.
type Attr struct {
	Key   string
	Value string
}

// Element is a node in the document tree: a tag, ordered attributes,
// optional text content, and child elements.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// NewElement creates an element with the given tag.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Set adds or replaces an attribute and returns the element for chaining.
// Replacing keeps the attribute's original position.
func (e *Element) Set(key, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Key == key {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Key: key, Value: value})
	return e
}

// Get returns the value of an attribute and whether it is present.
func (e *Element) Get(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Append adds child elements.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Child creates a new element with the given tag, appends it, and returns it.
func (e *Element) Child(tag string) *Element {
	c := NewElement(tag)
	e.Children = append(e.Children, c)
	return c
}

// Walk visits e and every descendant in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Marshal serializes the tree to indented markup with a trailing newline.
func Marshal(e *Element) []byte {
	var buf bytes.Buffer
	e.encode(&buf, 0)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Encode writes the serialized tree to w.
func (e *Element) Encode(w io.Writer) error {
	_, err := w.Write(Marshal(e))
	return err
}

func (e *Element) encode(buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(e.Tag)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(a.Value))
		buf.WriteByte('"')
	}

	if e.Text == "" && len(e.Children) == 0 {
		buf.WriteString(" />")
		return
	}

	buf.WriteByte('>')
	if e.Text != "" {
		buf.WriteString(escapeText(e.Text))
	}
	if len(e.Children) > 0 {
		for _, c := range e.Children {
			buf.WriteByte('\n')
			c.encode(buf, depth+1)
		}
		buf.WriteByte('\n')
		buf.WriteString(indent)
	}
	buf.WriteString("</")
	buf.WriteString(e.Tag)
	buf.WriteByte('>')
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
func escapeText(s string) string { return textEscaper.Replace(s) }

// Num formats a float for attribute values: at most two decimals, with
// trailing zeros and the decimal point stripped.
func Num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}
