// Package xlsx stores a ledger in an Excel workbook.
//
// The table lives on the "Expenses" sheet with the six standard columns.
// The budget and title are kept on a separate "Settings" sheet so that a
// budget set before any expense survives a restart. Workbooks written by
// older versions, with the table on their first sheet and no settings, are
// read as well.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"budgetbook/internal/core"
	ports "budgetbook/internal/sheets"
)

const (
	ExpensesSheet = "Expenses"
	SettingsSheet = "Settings"
)

// Store reads and atomically rewrites one workbook file.
type Store struct {
	path  string
	title string
	codec ports.Codec
}

var _ ports.LedgerStore = (*Store)(nil)

// New returns a store for the workbook at path. title is reported for
// files that do not exist yet or carry no title.
func New(path, title string) *Store {
	return &Store{
		path:  path,
		title: title,
		codec: ports.Codec{SerialTime: func(f float64) (time.Time, error) {
			return excelize.ExcelDateToTime(f, false)
		}},
	}
}

// Path returns the workbook location.
func (s *Store) Path() string { return s.path }

// Load reads the workbook. A missing file is an empty sheet.
func (s *Store) Load(ctx context.Context) (core.Sheet, error) {
	sheet := core.Sheet{Title: s.title}

	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.DebugContext(ctx, "Workbook not found, starting empty", "path", s.path)
		return sheet, nil
	}
	if err != nil {
		return core.Sheet{}, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	list := f.GetSheetList()
	if len(list) == 0 {
		return sheet, nil
	}
	table := list[0]
	for _, name := range list {
		if name == ExpensesSheet {
			table = name
			break
		}
	}

	rows, err := f.GetRows(table, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Sheet{}, fmt.Errorf("read sheet %s: %w", table, err)
	}
	sheet.Records, err = s.codec.Decode(rows)
	if err != nil {
		return core.Sheet{}, fmt.Errorf("decode sheet %s: %w", table, err)
	}

	if hasSheet(list, SettingsSheet) {
		if err := readSettings(f, &sheet); err != nil {
			return core.Sheet{}, err
		}
	}

	slog.DebugContext(ctx, "Workbook loaded",
		"path", s.path,
		"records", len(sheet.Records),
		"has_budget", sheet.HasBudget)
	return sheet, nil
}

// Save writes the whole sheet to a temporary file next to the target and
// renames it into place, so a crash never leaves a half-written workbook.
func (s *Store) Save(ctx context.Context, sheet core.Sheet) error {
	f, err := build(sheet)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close workbook: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace workbook %s: %w", s.path, err)
	}

	slog.DebugContext(ctx, "Workbook saved", "path", s.path, "records", len(sheet.Records))
	return nil
}

func build(sheet core.Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	fail := func(step string, err error) (*excelize.File, error) {
		f.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		return fail("rename sheet", err)
	}
	for i, row := range ports.EncodeRows(sheet.Records) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fail("cell name", err)
		}
		if err := f.SetSheetRow(ExpensesSheet, cell, &row); err != nil {
			return fail("write row", err)
		}
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fail("money style", err)
	}
	for _, col := range []string{"C", "E"} {
		if err := f.SetColStyle(ExpensesSheet, col, money); err != nil {
			return fail("column style", err)
		}
	}
	if err := f.SetColWidth(ExpensesSheet, "B", "B", 32); err != nil {
		return fail("column width", err)
	}
	if err := f.SetColWidth(ExpensesSheet, "D", "E", 20); err != nil {
		return fail("column width", err)
	}

	if _, err := f.NewSheet(SettingsSheet); err != nil {
		return fail("settings sheet", err)
	}
	for i, row := range ports.EncodeSettings(sheet) {
		if err := f.SetSheetRow(SettingsSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fail("write settings", err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func readSettings(f *excelize.File, sheet *core.Sheet) error {
	rows, err := f.GetRows(SettingsSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", SettingsSheet, err)
	}
	if err := ports.DecodeSettings(rows, sheet); err != nil {
		return fmt.Errorf("%s: %w", SettingsSheet, err)
	}
	return nil
}

func hasSheet(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
