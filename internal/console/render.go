package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"budgetbook/internal/core"
	"budgetbook/internal/sheets"
)

const barWidth = 30

// renderTable renders records under the six column headers. With hideTime
// the Date/Time column is left out.
func (s styles) renderTable(records []core.Record, hideTime bool) string {
	var headers []string
	for _, h := range sheets.Header {
		if hideTime && h == sheets.ColDateTime {
			continue
		}
		headers = append(headers, h)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		cells := map[string]string{
			sheets.ColSerial:      strconv.Itoa(r.Serial),
			sheets.ColDescription: r.Description,
			sheets.ColAmount:      r.Amount.String(),
			sheets.ColDateTime:    r.FormattedTime(),
			sheets.ColRemaining:   r.Remaining.String(),
			sheets.ColCategory:    string(r.Category),
		}
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = cells[h]
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			if row < 0 || row >= len(rows) {
				return s.cell
			}
			switch headers[col] {
			case sheets.ColRemaining:
				if strings.HasPrefix(rows[row][col], "-") {
					return s.number.Foreground(ErrorColor)
				}
				return s.number
			case sheets.ColSerial, sheets.ColAmount:
				return s.number
			default:
				return s.cell
			}
		})
	return t.String()
}

func (s styles) renderSummary(sum core.Summary) string {
	remaining := fmt.Sprintf("Remaining Budget: %s", sum.Remaining)
	if sum.Remaining.IsNegative() {
		remaining = s.negative.Render(remaining)
	}
	return fmt.Sprintf("Total Expense: %s   %s", sum.TotalExpense, remaining)
}

// renderCategories shows each category's share of the total expense as a
// percentage bar. Categories with a zero total are left out.
func (s styles) renderCategories(totals []core.CategoryAmount) string {
	var total int64
	var shown []core.CategoryAmount
	for _, c := range totals {
		if c.Amount.Cents > 0 {
			total += c.Amount.Cents
			shown = append(shown, c)
		}
	}
	if total == 0 {
		return s.subtle.Render("No expenses to visualize.")
	}

	var b strings.Builder
	b.WriteString(s.title.Render("Expenses by Category"))
	for _, c := range shown {
		share := float64(c.Amount.Cents) / float64(total)
		n := int(share*barWidth + 0.5)
		fmt.Fprintf(&b, "\n%-14s %s%s %5.1f%%  %s",
			c.Name,
			s.bar.Render(strings.Repeat("█", n)),
			strings.Repeat(" ", barWidth-n),
			share*100,
			c.Amount)
	}
	return b.String()
}

// renderHistogram shows one bar per day scaled to the largest day, with
// the mean marked on the scale.
func (s styles) renderHistogram(daily core.DailySpending) string {
	if len(daily.Days) == 0 {
		return s.subtle.Render("No expenses to visualize.")
	}
	var peak int64
	for _, d := range daily.Days {
		peak = max(peak, d.Amount.Cents)
	}
	meanAt := -1
	if peak > 0 {
		meanAt = int(float64(daily.Mean.Cents)/float64(peak)*barWidth + 0.5)
	}

	var b strings.Builder
	b.WriteString(s.title.Render("Daily Spending Histogram"))
	for _, d := range daily.Days {
		n := 0
		if peak > 0 {
			n = int(float64(d.Amount.Cents)/float64(peak)*barWidth + 0.5)
		}
		line := []rune(strings.Repeat("█", n) + strings.Repeat(" ", barWidth-n))
		var bar string
		if meanAt >= 0 && meanAt < barWidth && meanAt >= n {
			bar = s.bar.Render(string(line[:meanAt])) + s.mean.Render("┊") + string(line[meanAt+1:])
		} else {
			bar = s.bar.Render(string(line))
		}
		fmt.Fprintf(&b, "\n%s %s %s", d.Date.Format("02 Jan 2006"), bar, d.Amount)
	}
	b.WriteString("\n" + s.mean.Render(fmt.Sprintf("Mean: %s", daily.Mean)))
	return b.String()
}
