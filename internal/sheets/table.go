package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"budgetbook/internal/core"
)

// Column headers of the persisted table, in order.
const (
	ColSerial      = "S.No"
	ColDescription = "Description"
	ColAmount      = "Amount"
	ColDateTime    = "Date/Time"
	ColRemaining   = "Remaining Budget"
	ColCategory    = "Category"
)

// Header is the header row written by every adapter.
var Header = []string{ColSerial, ColDescription, ColAmount, ColDateTime, ColRemaining, ColCategory}

// Codec converts between records and spreadsheet rows.
type Codec struct {
	// SerialTime converts a spreadsheet date serial number found in the
	// Date/Time column. When nil such cells are rejected.
	SerialTime func(float64) (time.Time, error)
}

// EncodeRows returns the header followed by one row per record. Numbers
// are written as numbers and the timestamp as text.
func EncodeRows(records []core.Record) [][]any {
	rows := make([][]any, 0, len(records)+1)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)
	for _, r := range records {
		rows = append(rows, []any{
			r.Serial,
			r.Description,
			r.Amount.Float(),
			r.FormattedTime(),
			r.Remaining.Float(),
			string(r.Category),
		})
	}
	return rows
}

// Decode parses a table whose first row is the header. Columns are found
// by name; a missing Category column is backfilled with Uncategorized.
// Blank rows are skipped.
func (c Codec) Decode(rows [][]string) ([]core.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, h := range Header {
		if _, ok := cols[h]; !ok && h != ColCategory {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected header: missing %s; got %v", strings.Join(missing, ","), rows[0])
	}

	var (
		out   []core.Record
		total int64
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		rec, err := c.decodeRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		total += rec.Amount.Cents
		if total > core.MaxCents {
			return nil, fmt.Errorf("row %d: total expense exceeds %s", i+1, core.Money{Cents: core.MaxCents})
		}
		rec.Serial = len(out) + 1
		out = append(out, rec)
	}
	return out, nil
}

func (c Codec) decodeRow(row []string, cols map[string]int) (core.Record, error) {
	amount, err := parseNumber(safeGet(row, cols[ColAmount]))
	if err != nil {
		return core.Record{}, fmt.Errorf("%s: %w", ColAmount, err)
	}
	if amount.IsNegative() {
		return core.Record{}, fmt.Errorf("%s: negative value %s", ColAmount, amount)
	}
	remaining, err := parseNumber(safeGet(row, cols[ColRemaining]))
	if err != nil {
		return core.Record{}, fmt.Errorf("%s: %w", ColRemaining, err)
	}
	ts, err := c.parseTime(safeGet(row, cols[ColDateTime]))
	if err != nil {
		return core.Record{}, fmt.Errorf("%s: %w", ColDateTime, err)
	}

	category := core.Uncategorized
	if idx, ok := cols[ColCategory]; ok {
		if v := strings.TrimSpace(safeGet(row, idx)); v != "" {
			category = core.Category(v)
		}
	}

	return core.Record{
		Description: safeGet(row, cols[ColDescription]),
		Amount:      amount,
		Timestamp:   ts,
		Remaining:   remaining,
		Category:    category,
	}, nil
}

func (c Codec) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	ts, err := core.ParseTimestamp(s)
	if err == nil {
		return ts, nil
	}
	if c.SerialTime != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			t, serr := c.SerialTime(f)
			if serr != nil {
				return time.Time{}, serr
			}
			// Serial numbers carry float noise; round to the nearest minute.
			return core.EntryTime(t.Add(30 * time.Second)), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid value %q", s)
}

func parseNumber(s string) (core.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Money{}, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid number %q", s)
	}
	return core.MoneyFromCell(f)
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
