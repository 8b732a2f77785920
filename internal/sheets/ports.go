package sheets

import (
	"context"

	"budgetbook/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerLoader reads a whole sheet.
	LedgerLoader interface {
		Load(ctx context.Context) (core.Sheet, error)
	}

	// LedgerSaver replaces the stored sheet with the given one in full.
	LedgerSaver interface {
		Save(ctx context.Context, sheet core.Sheet) error
	}

	LedgerStore interface {
		LedgerLoader
		LedgerSaver
	}
)
