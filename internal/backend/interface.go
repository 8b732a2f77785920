package backend

import (
	"context"

	"budgetbook/internal/launcher"
	"budgetbook/internal/services"
	"budgetbook/internal/sheets"
	"budgetbook/internal/worker"
)

// Backend resolves the primary store of each ledger.
type Backend interface {
	// StoreFor returns the store holding the ledger at target.
	StoreFor(target launcher.Target) sheets.LedgerStore
	// List enumerates the ledgers the backend holds.
	List(ctx context.Context) ([]launcher.Target, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// MirrorResult contains the configured mirrors and their cleanup function
type MirrorResult struct {
	Mirrors []worker.Mirror
	Cleanup CleanupFunc
}

// PublisherResult holds the change publisher; Publisher is nil when events
// are disabled or the broker is unreachable.
type PublisherResult struct {
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateMirrors(ctx context.Context, config Config) (*MirrorResult, error)
	CreatePublisher(ctx context.Context, config Config) (*PublisherResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// xlsx specific
	SheetsDir string

	// SQLite specific
	SQLiteDBPath string

	// AMQP; empty URL disables events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Mirrors written by the mirror worker
	MirrorTargets []string
}

// BackendType represents the type of backend
type BackendType string

const (
	XLSXBackend   BackendType = "xlsx"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case XLSXBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
