package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"budgetbook/internal/core"
	ports "budgetbook/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository holds every ledger of one database, keyed by sheet name.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Store returns the ledger store for one sheet.
func (r *SQLiteRepository) Store(sheet string) *SheetStore {
	return &SheetStore{repo: r, sheet: strings.TrimSpace(sheet)}
}

// Sheets lists the names of stored sheets.
func (r *SQLiteRepository) Sheets(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sheet FROM settings ORDER BY sheet`)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan sheet: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SheetStore implements sheets.LedgerStore over one sheet's rows.
type SheetStore struct {
	repo  *SQLiteRepository
	sheet string
}

// Ensure interface conformance
var _ ports.LedgerStore = (*SheetStore)(nil)

// Load returns the stored rows in serial order. A sheet without a settings
// row has no explicit budget.
func (s *SheetStore) Load(ctx context.Context) (core.Sheet, error) {
	out := core.Sheet{Title: s.sheet}

	var budget int64
	err := s.repo.db.QueryRowContext(ctx,
		`SELECT budget_cents FROM settings WHERE sheet = ?`, s.sheet).Scan(&budget)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return core.Sheet{}, fmt.Errorf("get settings: %w", err)
	default:
		out.Budget = core.Money{Cents: budget}
		out.HasBudget = true
	}

	rows, err := s.repo.db.QueryContext(ctx, `
		SELECT serial, description, amount_cents, occurred_at, remaining_cents, category
		FROM records WHERE sheet = ? ORDER BY serial`, s.sheet)
	if err != nil {
		return core.Sheet{}, fmt.Errorf("get records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec       core.Record
			occurred  string
			category  string
			amount    int64
			remaining int64
		)
		if err := rows.Scan(&rec.Serial, &rec.Description, &amount, &occurred, &remaining, &category); err != nil {
			return core.Sheet{}, fmt.Errorf("scan record: %w", err)
		}
		ts, err := core.ParseTimestamp(occurred)
		if err != nil {
			return core.Sheet{}, fmt.Errorf("record %d: date/time %q: %w", rec.Serial, occurred, err)
		}
		rec.Timestamp = ts
		rec.Amount = core.Money{Cents: amount}
		rec.Remaining = core.Money{Cents: remaining}
		rec.Category = core.Category(category)
		if rec.Category == "" {
			rec.Category = core.Uncategorized
		}
		out.Records = append(out.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return core.Sheet{}, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Save replaces the sheet's rows and budget inside one transaction.
func (s *SheetStore) Save(ctx context.Context, sheet core.Sheet) error {
	tx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (sheet, budget_cents) VALUES (?, ?)
		ON CONFLICT(sheet) DO UPDATE SET budget_cents = excluded.budget_cents, updated_at = CURRENT_TIMESTAMP`,
		s.sheet, sheet.Budget.Cents); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE sheet = ?`, s.sheet); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (sheet, serial, description, amount_cents, occurred_at, remaining_cents, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range sheet.Records {
		if _, err := stmt.ExecContext(ctx, s.sheet, rec.Serial, rec.Description, rec.Amount.Cents,
			rec.FormattedTime(), rec.Remaining.Cents, string(rec.Category)); err != nil {
			return fmt.Errorf("insert record %d: %w", rec.Serial, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Ledger saved to SQLite",
		"sheet", s.sheet,
		"records", len(sheet.Records),
		"budget_cents", sheet.Budget.Cents)
	return nil
}
