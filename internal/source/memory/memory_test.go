package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"govspend/internal/core"
)

func TestStoreReturnsCopies(t *testing.T) {
	s := New([]core.RawRow{{"department": "A", "year": 2022, "amount": 1}})
	rows, err := s.ReadRows(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("unexpected read: rows=%v err=%v", rows, err)
	}
	rows[0]["department"] = "changed"

	again, _ := s.ReadRows(context.Background())
	if again[0]["department"] != "A" {
		t.Fatalf("store was mutated through a returned row")
	}
}

func TestNewFromFileMissingUsesFallback(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, _ := s.ReadRows(context.Background())
	records := core.Normalize(rows)
	if len(records) != 8 {
		t.Fatalf("expected fallback dataset, got %d records", len(records))
	}
}

func TestNewFromFileYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	yamlPath := mustWrite("spending.yaml", `
- department: Defense
  year: 2022
  amount: 750
- department: Education
  year: "2023"
  amount: 160.5
- department: ""
  year: 2023
  amount: 1
`)
	jsonPath := mustWrite("spending.json", `[{"department":"Defense","year":2022,"amount":750}]`)

	s, err := NewFromFile(yamlPath)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	rows, _ := s.ReadRows(context.Background())
	if len(rows) != 3 {
		t.Fatalf("expected 3 raw rows, got %d", len(rows))
	}
	records := core.Normalize(rows)
	if len(records) != 2 || records[1] != (core.SpendingRecord{Department: "Education", Year: 2023, Amount: 160.5}) {
		t.Fatalf("unexpected records: %+v", records)
	}

	s, err = NewFromFile(jsonPath)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", s.Len())
	}
}

func TestNewFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("department: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
