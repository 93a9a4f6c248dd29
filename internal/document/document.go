package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single key/value pair of a JSON object. The value is kept as raw
// JSON so nested documents pass through byte-for-byte, whatever shape the
// upstream API gives them.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Document is a JSON object whose field order is preserved across decode,
// mutation and encode. The upstream API owns the shape of these documents;
// we only ever read or inject a handful of named fields.
type Document struct {
	fields []Field
}

// Null is the raw JSON null value, used when injecting a field whose source
// value is absent.
var Null = json.RawMessage("null")

// Len returns the number of fields.
func (d *Document) Len() int {
	return len(d.fields)
}

// Fields returns the fields in document order.
func (d *Document) Fields() []Field {
	return d.fields
}

// Get returns the raw value of the named field.
func (d *Document) Get(name string) (json.RawMessage, bool) {
	for _, f := range d.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// StringValue returns the named field decoded as a JSON string.
func (d *Document) StringValue(name string) (string, bool) {
	raw, ok := d.Get(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// DocumentValue returns the named field decoded as a nested document.
func (d *Document) DocumentValue(name string) (*Document, bool) {
	raw, ok := d.Get(name)
	if !ok {
		return nil, false
	}
	var nested Document
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, false
	}
	return &nested, true
}

// Key returns the named field rendered as a plain lookup key: strings are
// unquoted, any other value (the API sometimes sends numeric ids) is used as
// its literal JSON text.
func (d *Document) Key(name string) (string, bool) {
	raw, ok := d.Get(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(bytes.TrimSpace(raw)), true
}

// Set overwrites the named field in place, or appends it if absent.
func (d *Document) Set(name string, value json.RawMessage) {
	for i, f := range d.fields {
		if f.Name == name {
			d.fields[i].Value = value
			return
		}
	}
	d.fields = append(d.fields, Field{Name: name, Value: value})
}

// InsertAfter places fields immediately after the anchor field, or appends
// them when the anchor is absent. Fields that already exist are overwritten
// in place instead of duplicated.
func (d *Document) InsertAfter(anchor string, fields ...Field) {
	var pending []Field
	for _, f := range fields {
		if _, ok := d.Get(f.Name); ok {
			d.Set(f.Name, f.Value)
			continue
		}
		pending = append(pending, f)
	}
	if len(pending) == 0 {
		return
	}

	pos := len(d.fields)
	for i, f := range d.fields {
		if f.Name == anchor {
			pos = i + 1
			break
		}
	}

	out := make([]Field, 0, len(d.fields)+len(pending))
	out = append(out, d.fields[:pos]...)
	out = append(out, pending...)
	out = append(out, d.fields[pos:]...)
	d.fields = out
}

// UnmarshalJSON decodes a JSON object keeping its field order. Duplicate keys
// collapse to the last occurrence.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document: expected JSON object, got %v", tok)
	}

	d.fields = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("document: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("document: expected object key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("document: field %q: %w", key, err)
		}
		d.Set(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	return nil
}

// MarshalJSON encodes the object with fields in document order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("document: field %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseList decodes a JSON array of objects.
func ParseList(data []byte) ([]*Document, error) {
	docs := []*Document{}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("document: parse list: %w", err)
	}
	return docs, nil
}

// EncodeList serializes documents as a 4-space indented JSON array without
// HTML escaping, matching the format already committed to the data repo.
func EncodeList(docs []*Document) ([]byte, error) {
	if docs == nil {
		docs = []*Document{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(docs); err != nil {
		return nil, fmt.Errorf("document: encode list: %w", err)
	}
	return buf.Bytes(), nil
}
