package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"govspend/internal/core"
	"govspend/internal/source"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ source.RowReader = (*Client)(nil)

// Config selects the spreadsheet tab and the service account used to read it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// valuesGetter is the part of the Sheets API the client needs.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type Client struct {
	values        valuesGetter
	spreadsheetID string
	sheetName     string
}

// New creates a client reading the configured tab with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("%w: missing spreadsheet id", source.ErrNotConfigured)
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Spending"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		values:        apiValues{svc: svc},
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheet,
	}, nil
}

// newSheetsService initializes a read-only Sheets service from service account
// credentials, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	credsFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case credsJSON != "":
		credentials = []byte(credsJSON)
	case credsFile != "":
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	default:
		return nil, fmt.Errorf("%w: missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)", source.ErrNotConfigured)
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentials),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ReadRows reads the whole tab and maps it through its header row.
func (c *Client) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	if c.values == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", c.sheetName)
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
			return nil, fmt.Errorf("read %s: %w: %v", rng, source.ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows, err := parseRows(values)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}
	return rows, nil
}

type apiValues struct {
	svc *gsheet.Service
}

func (a apiValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
