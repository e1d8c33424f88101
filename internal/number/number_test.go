package number

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	t.Run("integer literal", func(t *testing.T) {
		n, err := FromDecimal("123")
		require.NoError(t, err)
		assert.True(t, n.Decimal())
		assert.True(t, n.Equal(FromInt(123)))
	})

	t.Run("fractional literal is exact", func(t *testing.T) {
		n, err := FromDecimal("1.25")
		require.NoError(t, err)
		assert.True(t, n.Equal(FromFraction(5, 4)))
	})

	t.Run("trailing point", func(t *testing.T) {
		n, err := FromDecimal("123.")
		require.NoError(t, err)
		assert.True(t, n.Equal(FromInt(123)))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := FromDecimal("1.2.3")
		assert.Error(t, err)
	})
}

func TestArithmeticIsExact(t *testing.T) {
	// 1/3 scaled by 3 must come back to exactly 1, not 0.9999....
	third := FromFraction(1, 3)
	assert.True(t, third.Mul(FromInt(3)).Equal(FromInt(1)))

	// Scaling by 1 is the identity.
	half := FromFraction(1, 2)
	assert.True(t, half.Mul(FromInt(1)).Equal(half))

	// 2/3 of a total leaves exactly 1/3.
	remainder := FromInt(1).Sub(FromFraction(2, 3))
	assert.True(t, remainder.Equal(FromFraction(1, 3)))
}

func TestDecimalPreferencePropagates(t *testing.T) {
	dec, err := FromDecimal("0.5")
	require.NoError(t, err)

	assert.True(t, dec.Mul(FromInt(2)).Decimal())
	assert.False(t, FromFraction(1, 2).Mul(FromInt(2)).Decimal())
}

func TestFormatFraction(t *testing.T) {
	cases := []struct {
		name string
		n    Number
		want string
	}{
		{"integer", FromInt(3), "3"},
		{"simple fraction", FromFraction(3, 4), "3/4"},
		{"improper fraction", FromFraction(5, 3), "1 2/3"},
		{"negative improper", FromFraction(-7, 4), "-1 3/4"},
		{"unfriendly denominator falls back to decimal", FromFraction(1, 13), "0.077"},
		{"reduces before checking denominator", FromFraction(8, 16), "1/2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.n.Format(ModeFraction))
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	cases := []struct {
		name string
		lit  string
		want string
	}{
		{"three significant figures", "0.12345", "0.123"},
		{"fewer figures for larger values", "1.2345", "1.23"},
		{"integer part only", "123.456", "123"},
		{"trailing zeros dropped", "0.5", "0.5"},
		{"whole number", "12", "12"},
		{"large value never scientific", "123456", "123456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := FromDecimal(tc.lit)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n.Format(ModeDecimal))
		})
	}
}

func TestFormatAuto(t *testing.T) {
	dec, err := FromDecimal("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1.5", dec.String())
	assert.Equal(t, "1 1/2", FromFraction(3, 2).String())
}
