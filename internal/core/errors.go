package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount   = errors.New("must be a non-negative number")
	ErrInvalidDate     = errors.New("must be a date in DD-MM-YYYY form")
	ErrInvalidHour     = errors.New("must be an hour between 00 and 23")
	ErrInvalidMinute   = errors.New("must be a minute between 00 and 59")
	ErrUnknownCategory = errors.New("is not a known category")
	ErrEmptyTitle      = errors.New("must not be empty")
	ErrInvalidTitle    = errors.New("must not contain path separators")
	ErrNotSpreadsheet  = errors.New("must be an existing .xlsx file")

	ErrAmountTooLarge = fmt.Errorf("%w up to %s", ErrInvalidAmount, Money{Cents: MaxCents})
	ErrTotalTooLarge  = fmt.Errorf("would push the total expense past %s", Money{Cents: MaxCents})
)

// ValidationError reports malformed user input. Field names the offending
// input (amount, budget, date, hour, minute, category, title, file).
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, value string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// NotFoundError is returned when an edit or delete names a serial that is
// not in the ledger.
type NotFoundError struct {
	Serial int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no expense with S.No %d", e.Serial)
}

// DuplicateNameError is returned when a new sheet would overwrite an
// existing file.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("file already existing with this name: %s", e.Name)
}

// StartupConfigError is fatal: the tracker refuses to build any state.
type StartupConfigError struct {
	Reason string
}

func (e *StartupConfigError) Error() string {
	return "cannot start tracker: " + e.Reason
}
