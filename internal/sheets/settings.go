package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"budgetbook/internal/core"
)

// Keys of the two-column settings block stored next to the table.
const (
	SettingBudget = "Budget"
	SettingTitle  = "Title"
)

// EncodeSettings returns the key/value rows holding the budget and title.
func EncodeSettings(sheet core.Sheet) [][]any {
	return [][]any{
		{SettingBudget, sheet.Budget.Float()},
		{SettingTitle, sheet.Title},
	}
}

// DecodeSettings applies a settings block to sheet. A Budget row marks the
// budget as explicit; without one the ledger derives it from the table.
// Unknown keys and short rows are ignored.
func DecodeSettings(rows [][]string, sheet *core.Sheet) error {
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key, value := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		switch key {
		case SettingBudget:
			if value == "" {
				continue
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid budget %q", value)
			}
			budget, err := core.MoneyFromCell(f)
			if err != nil {
				return fmt.Errorf("invalid budget: %w", err)
			}
			if budget.IsNegative() {
				return fmt.Errorf("invalid budget %q: negative", value)
			}
			sheet.Budget = budget
			sheet.HasBudget = true
		case SettingTitle:
			if value != "" {
				sheet.Title = value
			}
		}
	}
	return nil
}
