package number

import (
	"fmt"
	"math/big"
	"strings"
)

// Mode selects how a Number is rendered.
type Mode int

const (
	// ModeAuto renders fractions as fractions and decimal-flagged values as
	// decimals.
	ModeAuto Mode = iota
	// ModeDecimal always renders in decimal form.
	ModeDecimal
	// ModeFraction renders as a (possibly mixed) fraction where the
	// denominator is sensible, falling back to decimal otherwise.
	ModeFraction
)

// sensibleDenominators lists the denominators considered human-friendly for
// fraction display. Anything else (e.g. 157/50 arising from a decimal scale
// factor) falls back to decimal form.
var sensibleDenominators = map[int64]bool{
	2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 12: true, 16: true,
}

// significantFigures is the number of significant digits shown for decimal
// display.
const significantFigures = 3

// Format renders n using the given Mode.
func (n Number) Format(mode Mode) string {
	switch mode {
	case ModeDecimal:
		return formatDecimal(&n.rat)
	case ModeFraction:
		return formatFraction(&n.rat)
	default:
		if n.decimal {
			return formatDecimal(&n.rat)
		}
		return formatFraction(&n.rat)
	}
}

// String renders n in ModeAuto.
func (n Number) String() string { return n.Format(ModeAuto) }

// formatDecimal renders a rational in concise decimal form: up to
// significantFigures digits after the decimal point, reduced by one for each
// digit in the integer part, with trailing zeros (and a trailing point)
// dropped. Large values are never shown in scientific notation.
func formatDecimal(r *big.Rat) string {
	intPart := new(big.Int).Quo(r.Num(), r.Denom())
	intDigits := len(strings.TrimLeft(intPart.String(), "-0"))

	fracDigits := significantFigures - intDigits
	if fracDigits < 0 {
		fracDigits = 0
	}

	s := r.FloatString(fracDigits)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// formatFraction renders a rational in the style "3/4" or, for improper
// fractions, "1 3/4". Whole numbers render as plain integers. Fractions with
// an unfriendly denominator render as decimals instead.
func formatFraction(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}

	den := r.Denom()
	if !den.IsInt64() || !sensibleDenominators[den.Int64()] {
		return formatDecimal(r)
	}

	num := new(big.Int).Abs(r.Num())
	d := den.Int64()
	n := num.Int64()

	sign := ""
	if r.Sign() < 0 {
		sign = "-"
	}

	if n > d {
		whole := n / d
		rem := n % d
		return fmt.Sprintf("%s%d %d/%d", sign, whole, rem, d)
	}
	return fmt.Sprintf("%s%d/%d", sign, n, d)
}
