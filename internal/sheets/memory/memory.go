package memory

import (
	"context"
	"sync"

	"budgetbook/internal/core"
	ports "budgetbook/internal/sheets"
)

// Store keeps a sheet in process memory. Load and Save copy records so
// callers never share slices with the store.
type Store struct {
	mu    sync.Mutex
	sheet core.Sheet
	saves int
	err   error
}

var _ ports.LedgerStore = (*Store)(nil)

func New(title string) *Store {
	return &Store{sheet: core.Sheet{Title: title}}
}

// NewWithSheet seeds the store with an existing sheet.
func NewWithSheet(sheet core.Sheet) *Store {
	s := &Store{}
	s.sheet = clone(sheet)
	return s
}

// Load returns a copy of the stored sheet.
func (s *Store) Load(_ context.Context) (core.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return core.Sheet{}, s.err
	}
	return clone(s.sheet), nil
}

// Save replaces the stored sheet, or fails with the error set by FailWith.
func (s *Store) Save(_ context.Context, sheet core.Sheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sheet = clone(sheet)
	s.saves++
	return nil
}

// FailWith makes every following Load and Save return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Saves returns the number of successful saves.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func clone(sheet core.Sheet) core.Sheet {
	sheet.Records = append([]core.Record(nil), sheet.Records...)
	return sheet
}
