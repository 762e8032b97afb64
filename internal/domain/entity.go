// Package domain holds the whiteboard document and its elements.
// It has no dependencies on other packages.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrNotObject is returned when a payload is valid JSON but not a JSON object.
var ErrNotObject = errors.New("document must be a JSON object")

// ErrInvalidUTF8 is returned when a payload contains bytes that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("document must be valid UTF-8")

// ErrInvalidElement is returned by Validate when the payload breaks the element contract.
var ErrInvalidElement = errors.New("invalid element")

// ShapeKind is the kind of a drawable element.
type ShapeKind string

const (
	KindLine      ShapeKind = "line"
	KindRectangle ShapeKind = "rectangle"
	KindCircle    ShapeKind = "circle"
	KindText      ShapeKind = "text"
)

// Valid reports whether k is one of the known shape kinds.
func (k ShapeKind) Valid() bool {
	switch k {
	case KindLine, KindRectangle, KindCircle, KindText:
		return true
	}
	return false
}

// Element is one drawable primitive on the board.
// Which optional fields are populated depends on Type; nothing enforces that.
type Element struct {
	ID          string    `json:"id"`
	Type        ShapeKind `json:"type"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       *float64  `json:"width,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	Radius      *float64  `json:"radius,omitempty"`
	Text        *string   `json:"text,omitempty"`
	Color       string    `json:"color"`
	StrokeWidth float64   `json:"strokeWidth"`
}

// Board is the typed view of a document: elements in z-order.
type Board struct {
	Elements []Element `json:"elements"`
}

// Document is the shared whiteboard state as the client sent it.
// The raw JSON object is kept so fields outside the element contract survive
// a round trip. The zero value is the empty document.
type Document struct {
	raw json.RawMessage // compacted
}

var emptyDocument = []byte(`{"elements":[]}`)

// EmptyDocument returns a document with no elements.
func EmptyDocument() Document {
	return Document{}
}

// ParseDocument checks that data is a JSON object and returns it as a Document.
// No element shape checks are made; see Validate.
func ParseDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if !utf8.Valid(trimmed) {
		return Document{}, ErrInvalidUTF8
	}
	if !json.Valid(trimmed) {
		return Document{}, fmt.Errorf("parse document: invalid JSON")
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, ErrNotObject
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return Document{}, fmt.Errorf("parse document: %w", err)
	}
	return Document{raw: buf.Bytes()}, nil
}

// NewDocument encodes a typed board as a Document.
func NewDocument(b Board) (Document, error) {
	if b.Elements == nil {
		b.Elements = []Element{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return Document{}, fmt.Errorf("encode board: %w", err)
	}
	return Document{raw: data}, nil
}

// Bytes returns the compact JSON encoding of the document.
func (d Document) Bytes() []byte {
	if len(d.raw) == 0 {
		return append([]byte(nil), emptyDocument...)
	}
	return append([]byte(nil), d.raw...)
}

// Indent returns the document pretty-printed with two-space indentation.
func (d Document) Indent() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	return buf.Bytes(), nil
}

// Equal reports whether both documents encode to the same compact JSON.
func (d Document) Equal(other Document) bool {
	return bytes.Equal(d.Bytes(), other.Bytes())
}

// Board decodes the typed view of the document. A missing or null
// "elements" key yields an empty board.
func (d Document) Board() (Board, error) {
	var b Board
	if err := json.Unmarshal(d.Bytes(), &b); err != nil {
		return Board{}, fmt.Errorf("decode board: %w", err)
	}
	if b.Elements == nil {
		b.Elements = []Element{}
	}
	return b, nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	return d.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the document against the element contract: an "elements"
// array whose entries each carry an id and a known shape kind.
func (d Document) Validate() error {
	var probe struct {
		Elements json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(d.Bytes(), &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	if len(probe.Elements) == 0 || probe.Elements[0] != '[' {
		return fmt.Errorf("%w: \"elements\" must be an array", ErrInvalidElement)
	}
	var elements []Element
	if err := json.Unmarshal(probe.Elements, &elements); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	seen := make(map[string]bool, len(elements))
	for i, el := range elements {
		if el.ID == "" {
			return fmt.Errorf("%w: elements[%d]: id is required", ErrInvalidElement, i)
		}
		if seen[el.ID] {
			return fmt.Errorf("%w: elements[%d]: duplicate id %q", ErrInvalidElement, i, el.ID)
		}
		seen[el.ID] = true
		if !el.Type.Valid() {
			return fmt.Errorf("%w: elements[%d]: unknown type %q", ErrInvalidElement, i, el.Type)
		}
	}
	return nil
}
