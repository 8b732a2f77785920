// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and their decimal representations.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCents bounds any amount, any budget and the total expense of a ledger.
// Within it every running balance fits in int64.
const MaxCents int64 = 1_000_000_000_000_000

var maxCents = decimal.NewFromInt(MaxCents)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Zero is accepted; signs,
// non-numeric input and values above MaxCents are not.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.IsNegative() {
		return 0, ErrInvalidAmount
	}
	if cents.GreaterThan(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return cents.IntPart(), nil
}

// ParseAmount parses user input for field into Money, reporting failures as
// a ValidationError naming the field.
func ParseAmount(field, s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, NewValidationError(field, strings.TrimSpace(s), err)
	}
	return Money{Cents: cents}, nil
}

// MoneyFromFloat converts a spreadsheet number to cents, absorbing binary
// floating point noise such as 987.4999999.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: int64(math.Round(f * 100))}
}

// MoneyFromCell converts a spreadsheet number like MoneyFromFloat but
// refuses NaN, infinities and magnitudes beyond MaxCents.
func MoneyFromCell(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, fmt.Errorf("%v is not a finite number", f)
	}
	if math.Abs(f)*100 > float64(MaxCents) {
		return Money{}, fmt.Errorf("%v is out of range", f)
	}
	return MoneyFromFloat(f), nil
}

// Float returns the value as a float64 for spreadsheet cells and display.
// Use cents for calculations.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals, e.g. "987.50" or "-3.25".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsNegative() bool { return m.Cents < 0 }
