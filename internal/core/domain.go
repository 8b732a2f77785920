package core

import (
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampLayout is the Date/Time column format, e.g. "05 Mar, 2024 14:30".
	TimestampLayout = "02 Jan, 2006 15:04"
	// CustomDateLayout accepts user supplied dates such as 05-03-2024 or 5-3-2024.
	CustomDateLayout = "2-1-2006"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Health        Category = "Health"
	Miscellaneous Category = "Miscellaneous"
	Education     Category = "Education"
	Shopping      Category = "Shopping"
	Travel        Category = "Travel"
	Insurance     Category = "Insurance"
	Rent          Category = "Rent"
	Savings       Category = "Savings"
	Gifts         Category = "Gifts"
	Subscriptions Category = "Subscriptions"

	// Uncategorized is backfilled for rows loaded from sheets that predate
	// the Category column. It is never offered for new entries.
	Uncategorized Category = "Uncategorized"
)

type (
	Category string

	Money struct {
		Cents int64
	}

	// Record is one expense line of the ledger.
	Record struct {
		Serial      int
		Description string
		Amount      Money
		Timestamp   time.Time
		Remaining   Money // budget left once this record is applied
		Category    Category
	}

	// Sheet is the persisted form of a ledger.
	Sheet struct {
		Title   string
		Budget  Money
		Records []Record
		// HasBudget is false when the store carries no explicit budget and
		// it has to be derived from the last Remaining Budget value.
		HasBudget bool
	}
)

var categories = []Category{
	Food, Transport, Utilities, Entertainment, Health, Miscellaneous,
	Education, Shopping, Travel, Insurance, Rent, Savings, Gifts, Subscriptions,
}

// Categories returns the closed set of categories offered for entry and filtering.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Valid reports whether c belongs to the entry enumeration.
func (c Category) Valid() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory matches s case-insensitively against the enumeration.
// An empty string selects Miscellaneous.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Miscellaneous, nil
	}
	for _, k := range categories {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", NewValidationError("category", s, ErrUnknownCategory)
}

// FormatTimestamp renders t in the Date/Time column format.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a Date/Time column value. The wall clock is kept in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), time.UTC)
}

// EntryTime strips t to the minute-precision wall clock stored in sheets.
func EntryTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// CustomTimestamp validates a user supplied date, hour and minute and
// combines them. Each failure names its field.
func CustomTimestamp(date, hour, minute string) (time.Time, error) {
	date = strings.TrimSpace(date)
	d, err := time.ParseInLocation(CustomDateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, NewValidationError("date", date, ErrInvalidDate)
	}
	h, ok := parseClockField(hour, 23)
	if !ok {
		return time.Time{}, NewValidationError("hour", strings.TrimSpace(hour), ErrInvalidHour)
	}
	m, ok := parseClockField(minute, 59)
	if !ok {
		return time.Time{}, NewValidationError("minute", strings.TrimSpace(minute), ErrInvalidMinute)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, time.UTC), nil
}

func parseClockField(s string, max int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 2 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil || v > max {
		return 0, false
	}
	return v, true
}

// FormattedTime returns the record's Date/Time column value.
func (r Record) FormattedTime() string {
	return FormatTimestamp(r.Timestamp)
}
