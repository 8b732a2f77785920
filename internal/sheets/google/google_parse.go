package google

import (
	"fmt"
	"strconv"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"
)

// toRows converts a values matrix (as returned by Sheets API) into strings.
// Unformatted numbers arrive as float64 and are written without exponent.
func toRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch n := v.(type) {
			case float64:
				out[i][j] = strconv.FormatFloat(n, 'f', -1, 64)
			case nil:
				out[i][j] = ""
			default:
				out[i][j] = strings.TrimSpace(fmt.Sprint(v))
			}
		}
	}
	return out
}

// splitRanges returns the values of the table and settings ranges of a
// batch read, tolerating a response with fewer ranges than requested.
func splitRanges(ranges []*gsheet.ValueRange) (table, settings [][]interface{}) {
	if len(ranges) > 0 && ranges[0] != nil {
		table = ranges[0].Values
	}
	if len(ranges) > 1 && ranges[1] != nil {
		settings = ranges[1].Values
	}
	return table, settings
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
