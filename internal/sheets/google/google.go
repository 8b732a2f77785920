package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetbook/internal/core"
	ports "budgetbook/internal/sheets"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string // tab holding the table; defaults to the ledger title
	ServiceAccountJSON string
	ServiceAccountFile string
	RetryAttempts      uint
	RetryDelay         time.Duration
}

// Client stores a ledger in one tab of a Google spreadsheet: the table in
// columns A to F and the budget and title in H1:I2. Every Save clears both
// and rewrites them.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	attempts      uint
	delay         time.Duration
	codec         ports.Codec
}

// Ensure interface conformance
var _ ports.LedgerStore = (*Client)(nil)

// New creates a Sheets client from service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, cfg), nil
}

func newClient(svc *gsheet.Service, spreadsheetID string, cfg Config) *Client {
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 3
	}
	delay := cfg.RetryDelay
	if delay == 0 {
		delay = 2 * time.Second
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     strings.TrimSpace(cfg.SheetName),
		attempts:      attempts,
		delay:         delay,
	}
}

// ForTab returns a client writing to the named tab unless a fixed sheet
// name was configured.
func (c *Client) ForTab(name string) *Client {
	cp := *c
	if cp.sheetName == "" {
		cp.sheetName = name
	}
	return &cp
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither JSON nor file is given.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Load reads the table and the settings block from the tab. Tabs written
// without a settings block leave the budget to be derived by the ledger.
func (c *Client) Load(ctx context.Context) (core.Sheet, error) {
	if err := c.ready(); err != nil {
		return core.Sheet{}, err
	}
	table, settings := c.tableRange(), c.settingsRange()

	var resp *gsheet.BatchGetValuesResponse
	err := c.retry(ctx, func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
			Ranges(table, settings).
			ValueRenderOption("UNFORMATTED_VALUE").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return core.Sheet{}, fmt.Errorf("read %s: %w", c.sheetName, err)
	}

	tableValues, settingsValues := splitRanges(resp.ValueRanges)
	records, err := c.codec.Decode(toRows(tableValues))
	if err != nil {
		return core.Sheet{}, fmt.Errorf("decode %s: %w", table, err)
	}
	sheet := core.Sheet{Title: c.sheetName, Records: records}
	if err := ports.DecodeSettings(toRows(settingsValues), &sheet); err != nil {
		return core.Sheet{}, fmt.Errorf("decode %s: %w", settings, err)
	}
	return sheet, nil
}

// Save clears the tab and writes header, records and the settings block
// in one batch.
func (c *Client) Save(ctx context.Context, sheet core.Sheet) error {
	if err := c.ready(); err != nil {
		return err
	}
	clearRange := c.clearRange()

	err := c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	req := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             c.valueRanges(sheet),
	}
	err = c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Ledger written to Google Sheets",
		"sheet", c.sheetName,
		"records", len(sheet.Records),
		"budget", sheet.Budget.String())
	return nil
}

// valueRanges lays out the table from A1 and the settings block from H1.
func (c *Client) valueRanges(sheet core.Sheet) []*gsheet.ValueRange {
	return []*gsheet.ValueRange{
		{Range: fmt.Sprintf("%s!A1", quoteSheet(c.sheetName)), Values: ports.EncodeRows(sheet.Records)},
		{Range: c.settingsRange(), Values: ports.EncodeSettings(sheet)},
	}
}

func (c *Client) ready() error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if c.sheetName == "" {
		return errors.New("sheet name not set")
	}
	return nil
}

func (c *Client) tableRange() string {
	return fmt.Sprintf("%s!A:F", quoteSheet(c.sheetName))
}

func (c *Client) settingsRange() string {
	return fmt.Sprintf("%s!H1:I2", quoteSheet(c.sheetName))
}

// clearRange covers the table and the settings block.
func (c *Client) clearRange() string {
	return fmt.Sprintf("%s!A:I", quoteSheet(c.sheetName))
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			slog.WarnContext(ctx, "Google Sheets call failed, retrying", "attempt", n+1, "error", err)
		}),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
}

// isRetryable accepts rate limiting and server side failures.
func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return false
}

// Tabs lists the tab names of the spreadsheet.
func (c *Client) Tabs(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	var resp *gsheet.Spreadsheet
	err := c.retry(ctx, func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Get(c.spreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	names := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			names = append(names, s.Properties.Title)
		}
	}
	return names, nil
}
