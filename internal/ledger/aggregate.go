package ledger

import (
	"sort"
	"time"

	"budgetbook/internal/core"
)

// ByCategory sums amounts per category.
func (l *Ledger) ByCategory() map[core.Category]core.Money {
	out := make(map[core.Category]core.Money)
	for _, r := range l.records {
		out[r.Category] = out[r.Category].Add(r.Amount)
	}
	return out
}

// CategoryTotals returns ByCategory as a slice, largest amount first and
// ties broken by name.
func (l *Ledger) CategoryTotals() []core.CategoryAmount {
	byCat := l.ByCategory()
	out := make([]core.CategoryAmount, 0, len(byCat))
	for name, amt := range byCat {
		out = append(out, core.CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ByDay sums amounts per calendar date in date order and returns the mean
// of those daily sums, rounded half up to the cent.
func (l *Ledger) ByDay() core.DailySpending {
	sums := make(map[time.Time]int64)
	for _, r := range l.records {
		d := time.Date(r.Timestamp.Year(), r.Timestamp.Month(), r.Timestamp.Day(), 0, 0, 0, 0, time.UTC)
		sums[d] += r.Amount.Cents
	}
	if len(sums) == 0 {
		return core.DailySpending{}
	}

	days := make([]core.DayAmount, 0, len(sums))
	var total int64
	for d, cents := range sums {
		days = append(days, core.DayAmount{Date: d, Amount: core.Money{Cents: cents}})
		total += cents
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	n := int64(len(days))
	return core.DailySpending{
		Days: days,
		Mean: core.Money{Cents: (2*total + n) / (2 * n)},
	}
}
