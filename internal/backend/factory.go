package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cache"
	"budgetbook/internal/config"
	"budgetbook/internal/launcher"
	"budgetbook/internal/log"
	"budgetbook/internal/sheets"
	gsheet "budgetbook/internal/sheets/google"
	"budgetbook/internal/sheets/memory"
	"budgetbook/internal/sheets/xlsx"
	"budgetbook/internal/storage"
	"budgetbook/internal/worker"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case XLSXBackend:
		return f.createXLSXBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createXLSXBackend(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized xlsx backend", "sheets_dir", config.SheetsDir)
	return &BackendResult{Backend: xlsxBackend{dir: config.SheetsDir}}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: sqliteBackend{repo: repo},
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := newGoogleClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &BackendResult{
		Backend: sheetsBackend{client: cli, cache: cache.NewSheetCache(sheetCacheSize, sheetCacheTTL)},
		Cleanup: nil, // No cleanup needed for sheets backend
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Backend: &memoryBackend{stores: make(map[string]*memory.Store)},
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

// CreateMirrors builds one mirror per configured target.
func (f *DefaultFactory) CreateMirrors(ctx context.Context, cfg Config) (*MirrorResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &MirrorResult{}
	var cleanups []CleanupFunc
	for _, target := range cfg.MirrorTargets {
		switch target {
		case config.MirrorSheets:
			cli, err := newGoogleClient(ctx, cfg)
			if err != nil {
				closeAll(cleanups)
				return nil, fmt.Errorf("sheets mirror: %w", err)
			}
			res.Mirrors = append(res.Mirrors, worker.Mirror{
				Name: target,
				For:  func(title string) sheets.LedgerSaver { return cli.ForTab(title) },
			})
		case config.MirrorSQLite:
			repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
			if err != nil {
				closeAll(cleanups)
				return nil, fmt.Errorf("sqlite mirror: %w", err)
			}
			cleanups = append(cleanups, repo.Close)
			res.Mirrors = append(res.Mirrors, worker.Mirror{
				Name: target,
				For:  func(title string) sheets.LedgerSaver { return repo.Store(title) },
			})
		}
		f.logger.Info("Initialized mirror", log.FieldMirror, target)
	}
	res.Cleanup = func() error { return closeAll(cleanups) }
	return res, nil
}

// CreatePublisher connects to the broker when AMQP_URL is set. A broker
// that cannot be reached disables events instead of failing startup.
func (f *DefaultFactory) CreatePublisher(_ context.Context, cfg Config) (*PublisherResult, error) {
	if cfg.AMQPURL == "" {
		return &PublisherResult{}, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		return &PublisherResult{}, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return &PublisherResult{Publisher: client, Cleanup: client.Close}, nil
}

func newGoogleClient(ctx context.Context, cfg Config) (*gsheet.Client, error) {
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
}

func closeAll(fns []CleanupFunc) error {
	var errs []error
	for _, fn := range fns {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// xlsxBackend keeps one workbook per ledger in a directory.
type xlsxBackend struct {
	dir string
}

func (b xlsxBackend) StoreFor(t launcher.Target) sheets.LedgerStore {
	path := t.Path
	if path == "" {
		path = filepath.Join(b.dir, t.Title+launcher.Extension)
	}
	return xlsx.New(path, t.Title)
}

func (b xlsxBackend) List(context.Context) ([]launcher.Target, error) {
	return launcher.List(b.dir)
}

// sqliteBackend keys ledgers by title.
type sqliteBackend struct {
	repo *storage.SQLiteRepository
}

func (b sqliteBackend) StoreFor(t launcher.Target) sheets.LedgerStore {
	return b.repo.Store(t.Title)
}

func (b sqliteBackend) List(ctx context.Context) ([]launcher.Target, error) {
	names, err := b.repo.Sheets(ctx)
	if err != nil {
		return nil, err
	}
	return titles(names), nil
}

const (
	sheetCacheSize = 32
	sheetCacheTTL  = 30 * time.Second
)

// sheetsBackend keeps one tab per ledger. Loads go through a short lived
// cache to stay inside the Sheets API read quota.
type sheetsBackend struct {
	client *gsheet.Client
	cache  *cache.SheetCache
}

func (b sheetsBackend) StoreFor(t launcher.Target) sheets.LedgerStore {
	return b.cache.Wrap(t.Title, b.client.ForTab(t.Title))
}

func (b sheetsBackend) List(ctx context.Context) ([]launcher.Target, error) {
	names, err := b.client.Tabs(ctx)
	if err != nil {
		return nil, err
	}
	return titles(names), nil
}

// memoryBackend hands out one store per title for the process lifetime.
type memoryBackend struct {
	mu     sync.Mutex
	stores map[string]*memory.Store
}

func (b *memoryBackend) StoreFor(t launcher.Target) sheets.LedgerStore {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stores[t.Title]
	if !ok {
		s = memory.New(t.Title)
		b.stores[t.Title] = s
	}
	return s
}

func (b *memoryBackend) List(context.Context) ([]launcher.Target, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]launcher.Target, 0, len(b.stores))
	for title := range b.stores {
		out = append(out, launcher.Target{Title: title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func titles(names []string) []launcher.Target {
	out := make([]launcher.Target, len(names))
	for i, n := range names {
		out[i] = launcher.Target{Title: n}
	}
	return out
}
