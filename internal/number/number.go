package number

import (
	"fmt"
	"math/big"
	"strings"
)

// Number is an immutable exact rational value.
//
// The zero value is 0, formatted as an integer.
type Number struct {
	rat     big.Rat
	decimal bool
}

// FromInt returns the Number for an integer.
func FromInt(v int64) Number {
	var n Number
	n.rat.SetInt64(v)
	return n
}

// FromFraction returns the Number num/den. It panics if den is zero, which
// callers are expected to rule out during parsing.
func FromFraction(num, den int64) Number {
	if den == 0 {
		panic("number: zero denominator")
	}
	var n Number
	n.rat.SetFrac64(num, den)
	return n
}

// FromDecimal parses a decimal literal such as "1.25" or "123" into an exact
// rational. The result is flagged for decimal display.
func FromDecimal(s string) (Number, error) {
	var n Number
	if _, ok := n.rat.SetString(strings.TrimSuffix(s, ".")); !ok {
		return Number{}, fmt.Errorf("number: invalid decimal %q", s)
	}
	n.decimal = true
	return n, nil
}

// FromRat returns a Number with the given rational value.
func FromRat(r *big.Rat) Number {
	var n Number
	n.rat.Set(r)
	return n
}

// Rat returns a copy of the underlying rational value.
func (n Number) Rat() *big.Rat {
	r := new(big.Rat)
	r.Set(&n.rat)
	return r
}

// Decimal reports whether the value prefers decimal display.
func (n Number) Decimal() bool { return n.decimal }

// AsDecimal returns the same value flagged for decimal display.
func (n Number) AsDecimal() Number {
	n2 := FromRat(&n.rat)
	n2.decimal = true
	return n2
}

// Add returns n + m. The sum prefers decimal display if either operand does.
func (n Number) Add(m Number) Number {
	var out Number
	out.rat.Add(&n.rat, &m.rat)
	out.decimal = n.decimal || m.decimal
	return out
}

// Sub returns n - m.
func (n Number) Sub(m Number) Number {
	var out Number
	out.rat.Sub(&n.rat, &m.rat)
	out.decimal = n.decimal || m.decimal
	return out
}

// Mul returns n * m. Scaling a quantity is multiplication by the scale
// factor, so this is the workhorse of recipe rescaling.
func (n Number) Mul(m Number) Number {
	var out Number
	out.rat.Mul(&n.rat, &m.rat)
	out.decimal = n.decimal || m.decimal
	return out
}

// Div returns n / m. It panics if m is zero.
func (n Number) Div(m Number) Number {
	var out Number
	out.rat.Quo(&n.rat, &m.rat)
	out.decimal = n.decimal || m.decimal
	return out
}

// Cmp compares n and m, returning -1, 0 or +1.
func (n Number) Cmp(m Number) int { return n.rat.Cmp(&m.rat) }

// Equal reports whether n and m have the same value, regardless of display
// preference.
func (n Number) Equal(m Number) bool { return n.rat.Cmp(&m.rat) == 0 }

// Sign returns -1, 0 or +1 according to the sign of n.
func (n Number) Sign() int { return n.rat.Sign() }

// IsInt reports whether n is a whole number.
func (n Number) IsInt() bool { return n.rat.IsInt() }

// Float64 returns the nearest float64 approximation of n.
func (n Number) Float64() float64 {
	f, _ := n.rat.Float64()
	return f
}

// Key returns a canonical textual form ("num/den") usable as a map key.
func (n Number) Key() string { return n.rat.RatString() }
