package backend

import (
	"context"
	"fmt"

	applog "govspend/internal/log"
	"govspend/internal/source/cosmos"
	"govspend/internal/source/google"
	"govspend/internal/source/memory"
	"govspend/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CosmosBackend:
		return f.createCosmosBackend(config), nil
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCosmosBackend(config Config) *BackendResult {
	cfg := cosmos.Config{
		Endpoint:    config.CosmosEndpoint,
		Key:         config.CosmosKey,
		DatabaseID:  config.CosmosDatabase,
		ContainerID: config.CosmosContainer,
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		f.logger.Warn("Cosmos backend is missing settings, queries will fail", "missing", missing)
	} else {
		f.logger.Info("Initialized Cosmos backend",
			"database", cfg.DatabaseID,
			"container", cfg.ContainerID)
	}
	return &BackendResult{Type: CosmosBackend, Reader: cosmos.New(cfg)}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return &BackendResult{Type: SheetsBackend, Reader: cli}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Type: SQLiteBackend, Reader: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	seed := config.SeedFile
	if seed == "" {
		seed = "data/spending.yaml"
	}
	store, err := memory.NewFromFile(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", seed, "rows", store.Len())
	return &BackendResult{Type: MemoryBackend, Reader: store}, nil
}
