package dispatch

import "strings"

// Field is a single name/value pair in a Header. Names keep the casing they
// were added with; matching is case-insensitive.
type Field struct {
	Name  string
	Value string
}

// Header is an insertion-ordered, multi-valued header collection. Unlike a
// map-backed collection it preserves the order fields were added in, across
// all names, and permits duplicate names. The zero value is ready to use.
//
// Add and Set are deliberately distinct: Add appends one more value for a
// name without disturbing existing values, Set replaces every value for that
// name. CORS and request logging both rely on this distinction.
type Header struct {
	fields []Field
}

// NewHeader builds a Header from the given fields, preserving their order.
func NewHeader(fields ...Field) Header {
	return Header{fields: fields}
}

// Get returns the FIRST value recorded for name, or "" when absent.
// Returning the first rather than the last value is a deliberate, documented
// choice; use Values when every value matters.
func (h *Header) Get(name string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns every value recorded for name, in insertion order.
func (h *Header) Values(name string) []string {
	var vals []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			vals = append(vals, f.Value)
		}
	}
	return vals
}

// Has reports whether at least one value is recorded for name.
func (h *Header) Has(name string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Add appends one more value for name, keeping any existing values.
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Set replaces all values for name with a single value. The new field takes
// the position of the first existing field for that name, or is appended
// when the name is new.
func (h *Header) Set(name, value string) {
	out := h.fields[:0]
	replaced := false
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			if !replaced {
				out = append(out, Field{Name: name, Value: value})
				replaced = true
			}
			continue
		}
		out = append(out, f)
	}
	if !replaced {
		out = append(out, Field{Name: name, Value: value})
	}
	h.fields = out
}

// Del removes every value recorded for name.
func (h *Header) Del(name string) {
	out := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	h.fields = out
}

// Fields returns a copy of all fields in insertion order. Mutating the
// returned slice does not affect the Header.
func (h *Header) Fields() []Field {
	out := make([]Field, len(h.fields))
	copy(out, h.fields)
	return out
}

// Len returns the total number of fields, counting duplicates.
func (h *Header) Len() int {
	return len(h.fields)
}

// Clone returns an independent copy of the Header.
func (h *Header) Clone() Header {
	return Header{fields: h.Fields()}
}
