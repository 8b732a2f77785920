package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

// Mirror names accepted in MIRROR_TARGETS.
const (
	MirrorSheets = "sheets"
	MirrorSQLite = "sqlite"
)

type Config struct {
	// Storage
	DataBackend  string
	SheetsDir    string
	SQLiteDBPath string

	// AMQP; an empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Mirror worker
	MirrorTargets      []string
	MirrorSyncInterval time.Duration

	// Ledger behaviour
	BudgetMode string
	Recompute  string

	// Process
	LogLevel        string
	ShutdownTimeout time.Duration
}

var defaults = map[string]any{
	"DATA_BACKEND":                BackendXLSX,
	"SHEETS_DIR":                  ".",
	"SQLITE_DB_PATH":              "./data/budgetbook.db",
	"AMQP_URL":                    "",
	"AMQP_EXCHANGE":               "budgetbook",
	"AMQP_QUEUE":                  "ledger_changes",
	"GOOGLE_SPREADSHEET_ID":       "",
	"GOOGLE_SHEET_NAME":           "",
	"GOOGLE_SERVICE_ACCOUNT_JSON": "",
	"GOOGLE_SERVICE_ACCOUNT_FILE": "",
	"MIRROR_TARGETS":              "",
	"MIRROR_SYNC_INTERVAL":        "0s",
	"LEDGER_BUDGET_MODE":          "forward",
	"LEDGER_RECOMPUTE":            "incremental",
	"LOG_LEVEL":                   "info",
	"SHUTDOWN_TIMEOUT":            "10s",
}

// Load reads the configuration from the environment.
func Load() *Config {
	return LoadFrom(viper.New())
}

// LoadFrom reads the configuration through v, so callers can bind flags
// onto the same keys before loading.
func LoadFrom(v *viper.Viper) *Config {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	return &Config{
		DataBackend:  strings.ToLower(strings.TrimSpace(v.GetString("DATA_BACKEND"))),
		SheetsDir:    v.GetString("SHEETS_DIR"),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),

		AMQPURL:      strings.TrimSpace(v.GetString("AMQP_URL")),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleSheetName:          v.GetString("GOOGLE_SHEET_NAME"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),

		MirrorTargets:      splitList(v.GetString("MIRROR_TARGETS")),
		MirrorSyncInterval: v.GetDuration("MIRROR_SYNC_INTERVAL"),

		BudgetMode: strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_BUDGET_MODE"))),
		Recompute:  strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_RECOMPUTE"))),

		LogLevel:        v.GetString("LOG_LEVEL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{BackendXLSX, BackendSQLite, BackendSheets, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendXLSX && c.SheetsDir == "" {
		errors = append(errors, "sheets directory cannot be empty when using xlsx backend")
	}

	needsSQLite := c.DataBackend == BackendSQLite || slices.Contains(c.MirrorTargets, MirrorSQLite)
	if needsSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if it is the backend or a mirror
	if c.DataBackend == BackendSheets || slices.Contains(c.MirrorTargets, MirrorSheets) {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using Google Sheets")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for Google Sheets")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	for _, m := range c.MirrorTargets {
		if m != MirrorSheets && m != MirrorSQLite {
			errors = append(errors, fmt.Sprintf("invalid mirror target '%s': must be one of [%s %s]", m, MirrorSheets, MirrorSQLite))
		}
	}

	if c.MirrorSyncInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid mirror sync interval %v: must not be negative", c.MirrorSyncInterval))
	}

	if c.BudgetMode != "forward" && c.BudgetMode != "retroactive" {
		errors = append(errors, fmt.Sprintf("invalid ledger budget mode '%s': must be 'forward' or 'retroactive'", c.BudgetMode))
	}
	if c.Recompute != "incremental" && c.Recompute != "full" {
		errors = append(errors, fmt.Sprintf("invalid ledger recompute strategy '%s': must be 'incremental' or 'full'", c.Recompute))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
