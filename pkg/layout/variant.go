// Package layout maps a named poster layout to an immutable geometry and
// typography plan.
package layout

// Variant is one of the four poster layouts. The zero value is Modern.
type Variant int

const (
	Modern Variant = iota
	Classic
	Minimal
	Bold
)

var variantNames = [...]string{
	Modern:  "modern",
	Classic: "classic",
	Minimal: "minimal",
	Bold:    "bold",
}

// ParseVariant matches name exactly against the layout names. Anything else,
// including different casing and the empty string, is Modern.
func ParseVariant(name string) Variant {
	for v, n := range variantNames {
		if n == name {
			return Variant(v)
		}
	}
	return Modern
}

// Known reports whether name is one of the layout names.
func Known(name string) bool {
	for _, n := range variantNames {
		if n == name {
			return true
		}
	}
	return false
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return variantNames[Modern]
	}
	return variantNames[v]
}

// MarshalText encodes the variant as its layout name.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText never fails: unknown names decode as Modern.
func (v *Variant) UnmarshalText(b []byte) error {
	*v = ParseVariant(string(b))
	return nil
}

// Variants lists every layout in declaration order.
func Variants() []Variant {
	return []Variant{Modern, Classic, Minimal, Bold}
}
