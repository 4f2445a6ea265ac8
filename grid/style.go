package grid

import "fmt"

// Attribute names a presentation attribute of a cell.
type Attribute string

const (
	FontWeight Attribute = "fontWeight"
	FontStyle  Attribute = "fontStyle"
	FontSize   Attribute = "fontSize"
	Color      Attribute = "color"
)

// normal is what a toggled-off attribute reverts to.
const normal = "normal"

// Style is the set of presentation attributes of one cell. Empty fields are unset.
type Style struct {
	FontWeight string `json:"fontWeight,omitempty"`
	FontStyle  string `json:"fontStyle,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
	Color      string `json:"color,omitempty"`
}

// Get returns the value of attr.
func (s Style) Get(attr Attribute) string {
	switch attr {
	case FontWeight:
		return s.FontWeight
	case FontStyle:
		return s.FontStyle
	case FontSize:
		return s.FontSize
	case Color:
		return s.Color
	}
	return ""
}

func (s Style) with(attr Attribute, value string) Style {
	switch attr {
	case FontWeight:
		s.FontWeight = value
	case FontStyle:
		s.FontStyle = value
	case FontSize:
		s.FontSize = value
	case Color:
		s.Color = value
	}
	return s
}

// Bold reports whether the weight is bold.
func (s Style) Bold() bool { return s.FontWeight == "bold" }

// Italic reports whether the style is italic.
func (s Style) Italic() bool { return s.FontStyle == "italic" }

// ParseAttribute maps an attribute name to an Attribute.
func ParseAttribute(name string) (Attribute, error) {
	switch a := Attribute(name); a {
	case FontWeight, FontStyle, FontSize, Color:
		return a, nil
	}
	return "", fmt.Errorf("unknown style attribute %q", name)
}

// Styles maps cell coordinates to their style. Styles follow the cell, not
// its value: they survive value changes and move with the cell when rows or
// columns before it are deleted. Like Grid, Styles is treated as a value and
// every method returns a new map.
type Styles map[Address]Style

// Apply sets attr on the cell at a. Applying the value a cell already has
// toggles the attribute back to "normal".
func (s Styles) Apply(a Address, attr Attribute, value string) Styles {
	out := s.clone()
	cur := s[a]
	if cur.Get(attr) == value {
		value = normal
	}
	out[a] = cur.with(attr, value)
	return out
}

// DeleteRow drops styles on row index and moves styles below it up by one.
func (s Styles) DeleteRow(index int) Styles {
	out := make(Styles, len(s))
	for a, st := range s {
		switch {
		case a.Row == index:
			continue
		case a.Row > index:
			a.Row--
		}
		out[a] = st
	}
	return out
}

// DeleteColumn drops styles on column index and moves styles right of it
// left by one.
func (s Styles) DeleteColumn(index int) Styles {
	out := make(Styles, len(s))
	for a, st := range s {
		switch {
		case a.Col == index:
			continue
		case a.Col > index:
			a.Col--
		}
		out[a] = st
	}
	return out
}

func (s Styles) clone() Styles {
	out := make(Styles, len(s)+1)
	for a, st := range s {
		out[a] = st
	}
	return out
}
