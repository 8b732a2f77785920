// Package ledger keeps the ordered expense records of one sheet together
// with its budget, and maintains the Remaining Budget running balance.
//
// The running balance follows
//
//	remaining[0] = budget - amount[0]
//	remaining[i] = remaining[i-1] - amount[i]
//
// and every operation that changes an amount or removes a record restores it
// for that record and every record after it.
package ledger

import (
	"time"

	"budgetbook/internal/core"
)

// BudgetMode selects what SetBudget does to the per-record history.
type BudgetMode string

// RecomputeMode selects how Edit restores the running balance.
type RecomputeMode string

const (
	// BudgetForward only moves the aggregate remaining budget; rows already
	// recorded keep the balance they were written with.
	BudgetForward BudgetMode = "forward"
	// BudgetRetroactive recomputes every row from the new budget.
	BudgetRetroactive BudgetMode = "retroactive"

	// RecomputeIncremental subtracts the amount difference from the edited
	// row and every later row. Delete always recomputes from the top.
	RecomputeIncremental RecomputeMode = "incremental"
	// RecomputeFull recomputes the whole sequence after an edit as well.
	RecomputeFull RecomputeMode = "full"
)

// Options tune ledger behavior. The zero value is the reference behavior
// with the wall clock.
type Options struct {
	BudgetMode BudgetMode
	Recompute  RecomputeMode
	Clock      func() time.Time
}

// Entry is the input of Add. A zero Timestamp means "now" and an empty
// Category means Miscellaneous.
type Entry struct {
	Description string
	Amount      core.Money
	Timestamp   time.Time
	Category    core.Category
}

// Ledger is not safe for concurrent use; callers serialize actions.
type Ledger struct {
	records   []core.Record
	budget    core.Money
	total     core.Money
	remaining core.Money
	opts      Options
}

// New returns an empty ledger with a zero budget.
func New(opts Options) *Ledger {
	return &Ledger{opts: opts.withDefaults()}
}

// FromSheet rebuilds a ledger from its persisted form. Serials are
// renumbered to match position and stored balances are kept as they are.
// Without an explicit budget it is derived as total expense plus the last
// Remaining Budget value.
func FromSheet(sheet core.Sheet, opts Options) *Ledger {
	l := New(opts)
	l.records = make([]core.Record, len(sheet.Records))
	copy(l.records, sheet.Records)
	for i := range l.records {
		l.records[i].Serial = i + 1
		l.total = l.total.Add(l.records[i].Amount)
	}

	switch {
	case sheet.HasBudget:
		l.budget = sheet.Budget
	case len(l.records) > 0:
		l.budget = l.total.Add(l.records[len(l.records)-1].Remaining)
	}
	l.remaining = l.budget.Sub(l.total)
	return l
}

// Sheet returns the persisted form of the ledger under title.
func (l *Ledger) Sheet(title string) core.Sheet {
	return core.Sheet{
		Title:     title,
		Budget:    l.budget,
		Records:   l.Records(),
		HasBudget: true,
	}
}

// Clone returns a deep copy sharing nothing with l.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.records = append([]core.Record(nil), l.records...)
	return &c
}

// SetBudget replaces the budget and returns the updated summary.
func (l *Ledger) SetBudget(value core.Money) (core.Summary, error) {
	if value.IsNegative() {
		return core.Summary{}, core.NewValidationError("budget", value.String(), core.ErrInvalidAmount)
	}
	if value.Cents > core.MaxCents {
		return core.Summary{}, core.NewValidationError("budget", value.String(), core.ErrAmountTooLarge)
	}
	l.budget = value
	l.remaining = l.budget.Sub(l.total)
	if l.opts.BudgetMode == BudgetRetroactive {
		l.recompute()
	}
	return l.Summary(), nil
}

// Add appends a record whose balance is the aggregate remaining budget
// minus its amount.
func (l *Ledger) Add(e Entry) (core.Record, error) {
	if e.Amount.IsNegative() {
		return core.Record{}, core.NewValidationError("amount", e.Amount.String(), core.ErrInvalidAmount)
	}
	if err := l.checkTotal(e.Amount, e.Amount); err != nil {
		return core.Record{}, err
	}
	category := e.Category
	if category == "" {
		category = core.Miscellaneous
	}
	if !category.Valid() {
		return core.Record{}, core.NewValidationError("category", string(category), core.ErrUnknownCategory)
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = l.opts.Clock()
	}

	l.total = l.total.Add(e.Amount)
	l.remaining = l.remaining.Sub(e.Amount)
	rec := core.Record{
		Serial:      len(l.records) + 1,
		Description: e.Description,
		Amount:      e.Amount,
		Timestamp:   core.EntryTime(ts),
		Remaining:   l.remaining,
		Category:    category,
	}
	l.records = append(l.records, rec)
	return rec, nil
}

// Edit changes the description and amount of the record at serial and
// restores the running balance from that record onward.
func (l *Ledger) Edit(serial int, description string, amount core.Money) (core.Record, error) {
	idx, err := l.index(serial)
	if err != nil {
		return core.Record{}, err
	}
	if amount.IsNegative() {
		return core.Record{}, core.NewValidationError("amount", amount.String(), core.ErrInvalidAmount)
	}
	diff := amount.Sub(l.records[idx].Amount)
	if err := l.checkTotal(diff, amount); err != nil {
		return core.Record{}, err
	}

	l.records[idx].Description = description
	l.records[idx].Amount = amount
	if l.opts.Recompute == RecomputeFull {
		l.recompute()
	} else {
		l.cascade(idx, diff)
	}
	l.total = l.total.Add(diff)
	l.remaining = l.budget.Sub(l.total)
	return l.records[idx], nil
}

// Delete removes the record at serial, renumbers the ones after it and
// recomputes every balance from the budget down.
func (l *Ledger) Delete(serial int) (core.Record, error) {
	idx, err := l.index(serial)
	if err != nil {
		return core.Record{}, err
	}
	removed := l.records[idx]
	l.records = append(l.records[:idx], l.records[idx+1:]...)
	for i := idx; i < len(l.records); i++ {
		l.records[i].Serial = i + 1
	}
	l.recompute()
	l.total = l.total.Sub(removed.Amount)
	l.remaining = l.budget.Sub(l.total)
	return removed, nil
}

// Record returns the record at serial.
func (l *Ledger) Record(serial int) (core.Record, error) {
	idx, err := l.index(serial)
	if err != nil {
		return core.Record{}, err
	}
	return l.records[idx], nil
}

// Records returns a copy of all records in ledger order.
func (l *Ledger) Records() []core.Record {
	return append([]core.Record(nil), l.records...)
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Budget returns the current budget.
func (l *Ledger) Budget() core.Money { return l.budget }

// Summary returns total expense and remaining budget as of the latest mutation.
func (l *Ledger) Summary() core.Summary {
	return core.Summary{
		Budget:       l.budget,
		TotalExpense: l.total,
		Remaining:    l.remaining,
		Count:        len(l.records),
	}
}

func (l *Ledger) index(serial int) (int, error) {
	if serial < 1 || serial > len(l.records) {
		return 0, &core.NotFoundError{Serial: serial}
	}
	return serial - 1, nil
}

// checkTotal refuses a change of delta that would take the total expense
// past MaxCents. amount is the value reported back to the user.
func (l *Ledger) checkTotal(delta, amount core.Money) error {
	if delta.Cents > core.MaxCents-l.total.Cents {
		return core.NewValidationError("amount", amount.String(), core.ErrTotalTooLarge)
	}
	return nil
}

// cascade subtracts diff from the balance of records[from:].
func (l *Ledger) cascade(from int, diff core.Money) {
	for i := from; i < len(l.records); i++ {
		l.records[i].Remaining = l.records[i].Remaining.Sub(diff)
	}
}

// recompute rebuilds every balance from the budget.
func (l *Ledger) recompute() {
	running := l.budget
	for i := range l.records {
		running = running.Sub(l.records[i].Amount)
		l.records[i].Remaining = running
	}
}

func (o Options) withDefaults() Options {
	if o.BudgetMode == "" {
		o.BudgetMode = BudgetForward
	}
	if o.Recompute == "" {
		o.Recompute = RecomputeIncremental
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
