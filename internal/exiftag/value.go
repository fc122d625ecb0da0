package exiftag

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the JSON shape a Value serializes to.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Value is a JSON-safe tag value. Composite values (byte strings, tuples,
// nested blocks) are carried as strings; numeric composites additionally keep
// their components so coordinate conversion can work on them.
type Value struct {
	kind  Kind
	i     int64
	f     float64
	s     string
	parts []float64
}

// Int wraps an integer tag value.
func Int(v int64) Value {
	return Value{kind: KindInt, i: v, parts: []float64{float64(v)}}
}

// Float wraps a floating point tag value. Non-finite numbers cannot be
// represented in JSON and are stored as their string form.
func Float(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{kind: KindString, s: formatFloat(v), parts: []float64{v}}
	}
	return Value{kind: KindFloat, f: v, parts: []float64{v}}
}

// String wraps a textual tag value.
func String(v string) Value {
	return Value{kind: KindString, s: v}
}

// Composite stores a multi-component value as its string form. Numeric parts
// are optional.
func Composite(text string, parts ...float64) Value {
	return Value{kind: KindString, s: text, parts: parts}
}

// Tuple renders numeric components as "(a, b, c)".
func Tuple(parts []float64) Value {
	items := make([]string, len(parts))
	for i, p := range parts {
		items[i] = formatFloat(p)
	}
	return Composite("("+strings.Join(items, ", ")+")", parts...)
}

// Kind reports the serialized shape.
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer form of a single numeric value.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	}
	if len(v.parts) == 1 && !math.IsNaN(v.parts[0]) && !math.IsInf(v.parts[0], 0) {
		return int64(v.parts[0]), true
	}
	return 0, false
}

// Float returns the float form of a single numeric value.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	if len(v.parts) == 1 {
		return v.parts[0], true
	}
	return 0, false
}

// Parts returns the numeric components, or nil for purely textual values.
func (v Value) Parts() []float64 {
	return v.parts
}

// String returns the human-readable form used in summaries and raw dumps.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	default:
		return v.s
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.s)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers become Int or Float,
// strings stay strings, and anything else is kept as its raw JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = String("")
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text := string(data)
		if !strings.ContainsAny(text, ".eE") {
			if i, err := strconv.ParseInt(text, 10, 64); err == nil {
				*v = Int(i)
				return nil
			}
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}
		*v = Float(f)
		return nil
	default:
		*v = String(string(data))
		return nil
	}
}

// TagMap maps resolved tag names to values.
type TagMap map[string]Value

// Section is the exif_data sub-record. A section with Error and no Tags is a
// failed extraction; Error alongside Tags marks a partial one.
type Section struct {
	Tags  TagMap
	Error string
}

// Failed reports whether nothing could be extracted.
func (s Section) Failed() bool {
	return s.Error != "" && len(s.Tags) == 0
}

// MarshalJSON writes the tag map with the error marker under "error".
func (s Section) MarshalJSON() ([]byte, error) {
	if s.Failed() {
		return json.Marshal(map[string]string{"error": s.Error})
	}
	if s.Tags == nil {
		return []byte("{}"), nil
	}
	if s.Error == "" {
		return json.Marshal(s.Tags)
	}
	merged := make(TagMap, len(s.Tags)+1)
	for name, v := range s.Tags {
		merged[name] = v
	}
	merged["error"] = String(s.Error)
	return json.Marshal(merged)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Section) UnmarshalJSON(data []byte) error {
	var tags TagMap
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	var section Section
	if msg, ok := tags["error"]; ok && msg.Kind() == KindString {
		section.Error = msg.String()
		delete(tags, "error")
	}
	if section.Error == "" || len(tags) > 0 {
		section.Tags = tags
	}
	*s = section
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
