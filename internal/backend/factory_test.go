package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"govspend/internal/config"
	"govspend/internal/source"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:     "cosmos",
		CosmosEndpoint:  "https://acct.documents.azure.com:443/",
		CosmosContainer: "spending",
		SeedFile:        "seed.yaml",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != CosmosBackend || cfg.CosmosContainer != "spending" || cfg.SeedFile != "seed.yaml" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestBackendTypes(t *testing.T) {
	want := []string{"cosmos", "sheets", "sqlite", "memory"}
	got := GetBackendTypeStrings()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("type %d: got %s, want %s", i, got[i], want[i])
		}
		if !BackendType(got[i]).IsValid() {
			t.Errorf("%s should be valid", got[i])
		}
	}
	if BackendType("excel").IsValid() {
		t.Error("excel should not be valid")
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	f := NewFactory(nil)

	t.Run("missing seed uses fallback rows", func(t *testing.T) {
		res, err := f.CreateBackend(context.Background(), Config{
			Type:     MemoryBackend,
			SeedFile: filepath.Join(t.TempDir(), "absent.yaml"),
		})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		rows, err := res.Reader.ReadRows(context.Background())
		if err != nil {
			t.Fatalf("ReadRows: %v", err)
		}
		if len(rows) != 8 {
			t.Errorf("expected 8 fallback rows, got %d", len(rows))
		}
		if err := res.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	t.Run("seed file", func(t *testing.T) {
		seed := filepath.Join(t.TempDir(), "seed.yaml")
		data := "- {department: Parks, year: 2024, amount: 12.5}\n"
		if err := os.WriteFile(seed, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: seed})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		rows, _ := res.Reader.ReadRows(context.Background())
		if len(rows) != 1 || rows[0]["department"] != "Parks" {
			t.Errorf("unexpected rows: %v", rows)
		}
	})
}

func TestCreateCosmosBackendDefersConfigErrors(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: CosmosBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if _, err := res.Reader.ReadRows(context.Background()); !errors.Is(err, source.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateBackendErrors(t *testing.T) {
	f := NewFactory(nil)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"invalid type", Config{Type: "excel"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"sqlite missing file", Config{Type: SQLiteBackend, SQLiteDBPath: "/non/existent/spending.db"}},
		{"sheets without spreadsheet", Config{Type: SheetsBackend}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.CreateBackend(context.Background(), tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
