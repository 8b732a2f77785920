// Package launcher resolves the workbook a tracking session works on:
// either a new sheet created from a title or an existing .xlsx file.
package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"budgetbook/internal/core"
)

// Extension is the only file type the launcher offers.
const Extension = ".xlsx"

// Target is a resolved workbook: where it lives and the title shown for it.
type Target struct {
	Path  string
	Title string
}

// NewSheet resolves <dir>/<title>.xlsx for a new sheet. The file is not
// created; the first save does that.
func NewSheet(dir, title string) (Target, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Target{}, core.NewValidationError("title", "", core.ErrEmptyTitle)
	}
	if strings.ContainsAny(title, `/\`) || title == "." || title == ".." {
		return Target{}, core.NewValidationError("title", title, core.ErrInvalidTitle)
	}

	path := filepath.Join(dir, title+Extension)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return Target{}, &core.DuplicateNameError{Name: title + Extension}
	case !errors.Is(err, fs.ErrNotExist):
		return Target{}, fmt.Errorf("check %s: %w", path, err)
	}
	return Target{Path: path, Title: title}, nil
}

// OpenSheet resolves an existing workbook. Its title is the file name
// without extension.
func OpenSheet(path string) (Target, error) {
	path = strings.TrimSpace(path)
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return Target{}, core.NewValidationError("file", path, core.ErrNotSpreadsheet)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Target{}, core.NewValidationError("file", path, core.ErrNotSpreadsheet)
	}
	return Target{Path: path, Title: TitleFromPath(path)}, nil
}

// TitleFromPath returns the base name of path without its extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// List returns the workbooks in dir sorted by title. Hidden files, such as
// in-flight temporary saves, are skipped.
func List(dir string) ([]Target, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var out []Target
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), Extension) {
			continue
		}
		path := filepath.Join(dir, name)
		out = append(out, Target{Path: path, Title: TitleFromPath(path)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}
