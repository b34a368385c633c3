package backend

import (
	"context"
	"fmt"
	"log/slog"

	fsstore "cashflow/internal/store/firestore"
	"cashflow/internal/store/memory"
	"cashflow/internal/store/sqlite"
)

// Factory creates stores based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore builds the configured store backend.
func (f *Factory) CreateStore(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLite:
		repo, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		f.logger.Info("Initialized sqlite store", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case Firestore:
		client, err := fsstore.New(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentials)
		if err != nil {
			return nil, fmt.Errorf("initialize firestore store: %w", err)
		}
		f.logger.Info("Initialized firestore store", "project_id", cfg.FirestoreProjectID)
		return &Result{Store: client, Cleanup: client.Close}, nil

	case Memory:
		f.logger.Info("Initialized memory store")
		return &Result{Store: memory.New(), Cleanup: nil}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
