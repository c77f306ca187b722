// Package cli provides common initialization shared by the govspend commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"govspend/internal/backend"
	"govspend/internal/config"
	applog "govspend/internal/log"
	"govspend/internal/spending"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Runtime bundles what every command needs: config, logger, the query
// service and its backend.
type Runtime struct {
	Config  *config.Config
	Logger  *applog.Logger
	Service *spending.Service
	backend *backend.BackendResult
}

// Bootstrap loads .env and configuration, sets up logging and opens the
// configured backend. The caller must Close the runtime.
func Bootstrap(ctx context.Context) (*Runtime, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg.LogLevel)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	svc := spending.NewService(res.Reader, spending.Options{
		Backend:      res.Type.String(),
		CacheTTL:     cfg.CacheTTL,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       logger,
	})
	return &Runtime{Config: cfg, Logger: logger, Service: svc, backend: res}, nil
}

// Close releases the backend.
func (r *Runtime) Close() error {
	return r.backend.Close()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
