// Package svs implements strings containing embedded numerical values which
// are re-scaled along with the recipe they appear in.
//
// The type is aimed at strings such as "divide into 8 burgers about 10cm in
// diameter": when the recipe is doubled the "8" must become "16" while the
// "10" stays put. Only the values captured as numbers scale; literal text is
// untouched.
package svs

import (
	"strings"

	"github.com/vk/recipegrid/internal/number"
)

// Part is one fragment of a String: either literal text or a scalable value.
type Part struct {
	text    string
	value   number.Number
	isValue bool
}

// Text returns a literal text Part.
func Text(s string) Part { return Part{text: s} }

// Value returns a scalable numeric Part.
func Value(n number.Number) Part { return Part{value: n, isValue: true} }

// IsValue reports whether the part is a scalable value.
func (p Part) IsValue() bool { return p.isValue }

// TextContent returns the literal text of a text part ("" for values).
func (p Part) TextContent() string { return p.text }

// ValueContent returns the numeric value of a value part (zero for text).
func (p Part) ValueContent() number.Number { return p.value }

// String is an immutable sequence of Parts. The zero value is the empty
// string.
type String struct {
	parts []Part
}

// New builds a String from parts, merging adjacent text fragments and
// dropping empty ones.
func New(parts ...Part) String {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		if !p.isValue && p.text == "" {
			continue
		}
		if !p.isValue && len(out) > 0 && !out[len(out)-1].isValue {
			out[len(out)-1].text += p.text
			continue
		}
		out = append(out, p)
	}
	return String{parts: out}
}

// FromText returns a String holding only literal text.
func FromText(s string) String { return New(Text(s)) }

// FromValue returns a String holding a single scalable value.
func FromValue(n number.Number) String { return New(Value(n)) }

// Parts returns the fragments of the string. The returned slice must not be
// modified.
func (s String) Parts() []Part { return s.parts }

// IsStatic reports whether the string contains no scalable values.
func (s String) IsStatic() bool {
	for _, p := range s.parts {
		if p.isValue {
			return false
		}
	}
	return true
}

// Render concatenates the string, formatting values with formatValue and
// text with formatText. Either may be nil to use defaults (number.ModeAuto
// and identity respectively).
func (s String) Render(formatValue func(number.Number) string, formatText func(string) string) string {
	if formatValue == nil {
		formatValue = func(n number.Number) string { return n.String() }
	}
	if formatText == nil {
		formatText = func(t string) string { return t }
	}
	var b strings.Builder
	for _, p := range s.parts {
		if p.isValue {
			b.WriteString(formatValue(p.value))
		} else {
			b.WriteString(formatText(p.text))
		}
	}
	return b.String()
}

// String renders with default formatting.
func (s String) String() string { return s.Render(nil, nil) }

// Key returns a canonical form suitable for use as a map key: values are
// rendered in exact num/den notation so distinct values never collide.
func (s String) Key() string {
	var b strings.Builder
	for _, p := range s.parts {
		if p.isValue {
			b.WriteString("{")
			b.WriteString(p.value.Key())
			b.WriteString("}")
		} else {
			b.WriteString(p.text)
		}
	}
	return b.String()
}

// Equal reports whether two strings have identical parts and values.
func (s String) Equal(o String) bool {
	if len(s.parts) != len(o.parts) {
		return false
	}
	for i, p := range s.parts {
		q := o.parts[i]
		if p.isValue != q.isValue {
			return false
		}
		if p.isValue {
			if !p.value.Equal(q.value) {
				return false
			}
		} else if p.text != q.text {
			return false
		}
	}
	return true
}

// Concat returns the concatenation of s and others.
func (s String) Concat(others ...String) String {
	parts := append([]Part{}, s.parts...)
	for _, o := range others {
		parts = append(parts, o.parts...)
	}
	return New(parts...)
}

// Scale returns a copy with every embedded value multiplied by m.
func (s String) Scale(m number.Number) String {
	parts := make([]Part, len(s.parts))
	for i, p := range s.parts {
		if p.isValue {
			parts[i] = Value(p.value.Mul(m))
		} else {
			parts[i] = p
		}
	}
	return New(parts...)
}

// Lower returns a copy with all text lower-cased.
func (s String) Lower() String { return s.mapText(strings.ToLower) }

// Upper returns a copy with all text upper-cased.
func (s String) Upper() String { return s.mapText(strings.ToUpper) }

func (s String) mapText(f func(string) string) String {
	parts := make([]Part, len(s.parts))
	for i, p := range s.parts {
		if p.isValue {
			parts[i] = p
		} else {
			parts[i] = Text(f(p.text))
		}
	}
	return New(parts...)
}

// TrimSpace returns a copy with leading and trailing whitespace removed from
// the first and last text fragments.
func (s String) TrimSpace() String {
	parts := append([]Part{}, s.parts...)
	if len(parts) > 0 && !parts[0].isValue {
		parts[0] = Text(strings.TrimLeft(parts[0].text, " \t"))
	}
	if len(parts) > 0 && !parts[len(parts)-1].isValue {
		parts[len(parts)-1] = Text(strings.TrimRight(parts[len(parts)-1].text, " \t"))
	}
	return New(parts...)
}
