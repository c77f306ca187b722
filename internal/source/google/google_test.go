package google

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"

	"govspend/internal/core"
	"govspend/internal/source"
)

type fakeValues struct {
	values [][]interface{}
	err    error
	rng    string
}

func (f *fakeValues) Get(_ context.Context, _ string, rng string) ([][]interface{}, error) {
	f.rng = rng
	return f.values, f.err
}

func TestParseRowsMapsHeaders(t *testing.T) {
	values := [][]interface{}{
		{"Year", " Amount ", "DEPARTMENT", "Notes"},
		{2022.0, 750.0, "Defense", "x"},
		{"2023", "160", "Education"},
		{},
		{"", "", "", ""},
		{2023.0},
	}
	rows, err := parseRows(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (blank lines skipped), got %d: %v", len(rows), rows)
	}
	if rows[0]["department"] != "Defense" || rows[0]["year"] != 2022.0 || rows[0]["amount"] != 750.0 {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[2]["department"] != nil {
		t.Fatalf("short row should have nil department, got %v", rows[2]["department"])
	}

	records := core.Normalize(rows)
	if len(records) != 2 || records[1] != (core.SpendingRecord{Department: "Education", Year: 2023, Amount: 160}) {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestParseRowsMissingHeader(t *testing.T) {
	_, err := parseRows([][]interface{}{{"department", "year"}})
	if err == nil || !strings.Contains(err.Error(), "missing amount") {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestParseRowsEmpty(t *testing.T) {
	rows, err := parseRows(nil)
	if err != nil || len(rows) != 0 {
		t.Fatalf("unexpected: rows=%v err=%v", rows, err)
	}
}

func TestReadRowsUsesSheetRange(t *testing.T) {
	fv := &fakeValues{values: [][]interface{}{{"department", "year", "amount"}, {"Defense", 2022.0, 750.0}}}
	c := &Client{values: fv, spreadsheetID: "id", sheetName: "Spending"}

	rows, err := c.ReadRows(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("unexpected read: rows=%v err=%v", rows, err)
	}
	if fv.rng != "Spending!A:Z" {
		t.Fatalf("unexpected range %q", fv.rng)
	}
}

func TestReadRowsClassifiesAuthErrors(t *testing.T) {
	c := &Client{values: &fakeValues{err: &googleapi.Error{Code: http.StatusForbidden}}, sheetName: "Spending"}
	_, err := c.ReadRows(context.Background())
	if !errors.Is(err, source.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if !errors.Is(err, source.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
