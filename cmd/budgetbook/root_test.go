package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/core"
	"budgetbook/internal/sheets/xlsx"
)

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "xlsx")
	t.Setenv("AMQP_URL", "")
	t.Setenv("MIRROR_TARGETS", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrack_RequiresFileAndTitle(t *testing.T) {
	for _, args := range [][]string{{"track"}, {"track", "only.xlsx"}, {"track", "a.xlsx", "b", "c"}} {
		_, err := execute(t, "", args...)
		var startErr *core.StartupConfigError
		require.ErrorAs(t, err, &startErr, "%v", args)
		assert.Contains(t, err.Error(), "cannot start tracker")
	}
}

func TestTrack_EmptyTitle(t *testing.T) {
	_, err := execute(t, "", "track", filepath.Join(t.TempDir(), "x.xlsx"), " ")
	var startErr *core.StartupConfigError
	require.ErrorAs(t, err, &startErr)
}

func TestNew_CreatesWorkbookOnFirstSave(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "budget 100\nadd 12.5 -c Food Lunch\nquit\n", "new", "--dir", dir, "March", "Trip")
	require.NoError(t, err)
	assert.Contains(t, out, "March Trip")
	assert.Contains(t, out, "Remaining Budget: 87.50")

	sheet, err := xlsx.New(filepath.Join(dir, "March Trip.xlsx"), "March Trip").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, int64(8750), sheet.Records[0].Remaining.Cents)
	assert.Equal(t, int64(10000), sheet.Budget.Cents)

	// A second sheet with the same title is refused.
	_, err = execute(t, "", "new", "--dir", dir, "March Trip")
	var dup *core.DuplicateNameError
	require.ErrorAs(t, err, &dup)
}

func TestOpen_ExistingWorkbook(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "budget 50\nadd 5 Coffee\nquit\n", "new", "--dir", dir, "Cafe")
	require.NoError(t, err)

	out, err := execute(t, "quit\n", "open", filepath.Join(dir, "Cafe.xlsx"))
	require.NoError(t, err)
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "Total Expense: 5.00   Remaining Budget: 45.00")

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("x"), 0o644))
	_, err = execute(t, "", "open", notes)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file", verr.Field)
}

func TestRoot_InvalidConfiguration(t *testing.T) {
	_, err := execute(t, "", "track", "a.xlsx", "A", "--backend", "floppy")
	var startErr *core.StartupConfigError
	require.ErrorAs(t, err, &startErr)
	assert.Contains(t, err.Error(), "invalid data backend 'floppy'")
}
