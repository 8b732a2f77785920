package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"12.50", 1250, true},
		{"1.005", 101, true}, // half away from zero
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"1e30", 0, false},
		{"10000000000000", MaxCents, true},
		{"10000000000000.01", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			require.NoError(t, err, "input %q", tc.in)
			assert.Equal(t, tc.out, got, "input %q", tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
		}
	}
}

func TestParseAmountNamesField(t *testing.T) {
	_, err := ParseAmount("budget", "ten")
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "budget", verr.Field)
	assert.Contains(t, err.Error(), "budget")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseDecimalToCentsRejectsAmountsAboveMax(t *testing.T) {
	_, err := ParseDecimalToCents("92233720368547758.07")
	assert.ErrorIs(t, err, ErrAmountTooLarge)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount("amount", "10000000000000.01")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "amount", verr.Field)
	assert.Contains(t, err.Error(), "10000000000000.00")
}

func TestMoneyFromCell(t *testing.T) {
	m, err := MoneyFromCell(987.4999999)
	require.NoError(t, err)
	assert.Equal(t, int64(98750), m.Cents)

	m, err = MoneyFromCell(-12.5)
	require.NoError(t, err)
	assert.Equal(t, int64(-1250), m.Cents)

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e14, -1e14} {
		_, err := MoneyFromCell(f)
		assert.Error(t, err, "%v", f)
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "987.50", Money{Cents: 98750}.String())
	assert.Equal(t, "0.05", Money{Cents: 5}.String())
	assert.Equal(t, "-3.25", Money{Cents: -325}.String())
	assert.Equal(t, "0.00", Money{}.String())
}

func TestMoneyFromFloat(t *testing.T) {
	assert.Equal(t, int64(98750), MoneyFromFloat(987.4999999).Cents)
	assert.Equal(t, int64(-225), MoneyFromFloat(-2.25).Cents)
	assert.InDelta(t, 12.5, Money{Cents: 1250}.Float(), 1e-9)
}
