package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/config"
	"budgetbook/internal/core"
	"budgetbook/internal/launcher"
	"budgetbook/internal/sheets/xlsx"
	"budgetbook/internal/storage"
)

func sampleSheet(title string) core.Sheet {
	return core.Sheet{
		Title: title, Budget: core.Money{Cents: 5000}, HasBudget: true,
		Records: []core.Record{{
			Serial: 1, Description: "Lunch", Amount: core.Money{Cents: 1250},
			Timestamp: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
			Remaining: core.Money{Cents: 3750}, Category: core.Food,
		}},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"xlsx", Config{Type: XLSXBackend, SheetsDir: "."}, ""},
		{"xlsx without dir", Config{Type: XLSXBackend}, "sheets directory is required"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{"sheets without id", Config{Type: SheetsBackend}, "Google Spreadsheet ID is required"},
		{"memory", Config{Type: MemoryBackend}, ""},
		{"unknown", Config{Type: "floppy"}, "invalid backend type"},
		{"mirror equals primary", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", MirrorTargets: []string{"sqlite"}}, "is the primary backend"},
		{"unknown mirror", Config{Type: MemoryBackend, MirrorTargets: []string{"kafka"}}, "unsupported mirror target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "nope"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:   "xlsx",
		SheetsDir:     "/sheets",
		AMQPURL:       "amqp://localhost/",
		MirrorTargets: []string{"sqlite"},
	})
	require.NoError(t, err)
	assert.Equal(t, XLSXBackend, cfg.Type)
	assert.Equal(t, "/sheets", cfg.SheetsDir)
	assert.Equal(t, []string{"sqlite"}, cfg.MirrorTargets)
	assert.ElementsMatch(t, []string{"xlsx", "sqlite", "sheets", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend_XLSX(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: XLSXBackend, SheetsDir: dir})
	require.NoError(t, err)
	assert.Nil(t, res.Cleanup)

	// Without a path the workbook is resolved in the sheets directory.
	store := res.Backend.StoreFor(launcher.Target{Title: "Trip"})
	require.IsType(t, &xlsx.Store{}, store)
	assert.Equal(t, filepath.Join(dir, "Trip.xlsx"), store.(*xlsx.Store).Path())
	require.NoError(t, store.Save(ctx, sampleSheet("Trip")))

	targets, err := res.Backend.List(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Trip", targets[0].Title)

	got, err := res.Backend.StoreFor(targets[0]).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSheet("Trip").Records, got.Records)
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	require.NoError(t, res.Backend.StoreFor(launcher.Target{Title: "Trip"}).Save(ctx, sampleSheet("Trip")))
	targets, err := res.Backend.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []launcher.Target{{Title: "Trip"}}, targets)
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)

	a := res.Backend.StoreFor(launcher.Target{Title: "b"})
	require.NoError(t, a.Save(ctx, sampleSheet("b")))
	res.Backend.StoreFor(launcher.Target{Title: "a"})

	got, err := res.Backend.StoreFor(launcher.Target{Title: "b"}).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Records, 1, "the same title must resolve to the same store")

	targets, err := res.Backend.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []launcher.Target{{Title: "a"}, {Title: "b"}}, targets)
}

func TestCreateBackend_Invalid(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "floppy"})
	require.Error(t, err)
}

func TestCreateMirrors_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "mirror.db")
	res, err := NewFactory(nil).CreateMirrors(ctx, Config{
		Type: XLSXBackend, SheetsDir: ".", SQLiteDBPath: dbPath, MirrorTargets: []string{"sqlite"},
	})
	require.NoError(t, err)
	require.Len(t, res.Mirrors, 1)
	assert.Equal(t, "sqlite", res.Mirrors[0].Name)

	require.NoError(t, res.Mirrors[0].For("Trip").Save(ctx, sampleSheet("Trip")))
	require.NoError(t, res.Cleanup())

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.Store("Trip").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSheet("Trip"), got)
}

func TestCreateMirrors_None(t *testing.T) {
	res, err := NewFactory(nil).CreateMirrors(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Empty(t, res.Mirrors)
	assert.NoError(t, res.Cleanup())
}

func TestCreatePublisher_Disabled(t *testing.T) {
	res, err := NewFactory(nil).CreatePublisher(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Nil(t, res.Publisher)
	assert.Nil(t, res.Cleanup)
}
