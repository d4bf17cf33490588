// Package app wires configuration, storage, clients, and services into a
// single application core shared by the server entrypoint and tests.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/foliotrack/foliotrack/internal/clients/eodhd"
	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/services/performance"
	"github.com/foliotrack/foliotrack/internal/services/price"
	"github.com/foliotrack/foliotrack/internal/storage/surrealdb"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	MarketData  interfaces.MarketDataClient
	Prices      interfaces.PriceService
	Performance interfaces.PerformanceService
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage, clients, and services.
// configPath may be empty, in which case FOLIO_CONFIG and the binary
// directory are checked before falling back to the development default.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "foliotrack.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/foliotrack.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Clients.EODHD.APIKey == "" {
		logger.Warn().Msg("EODHD API key not configured - price fetching will be unavailable")
	}

	marketData := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	)

	priceService := price.NewService(storageManager, marketData, logger)
	performanceService := performance.NewService(storageManager, priceService, logger)

	return &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		MarketData:  marketData,
		Prices:      priceService,
		Performance: performanceService,
	}, nil
}

// Close releases application resources.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}
}
