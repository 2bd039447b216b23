package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/IshaanNene/wikimatch/internal/config"
	"github.com/IshaanNene/wikimatch/internal/types"
)

// Storage is the interface for all dataset sinks.
type Storage interface {
	// Store persists a batch of records.
	Store(records []*types.MatchRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// NewStorage opens every sink named in cfg.Formats. More than one sink is
// wrapped in a MultiStorage.
func NewStorage(cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	backends := make([]Storage, 0, len(cfg.Formats))
	for _, format := range cfg.Formats {
		backend, err := newBackend(format, cfg, logger)
		if err != nil {
			for _, b := range backends {
				b.Close()
			}
			return nil, &types.StorageError{Backend: format, Err: err}
		}
		backends = append(backends, backend)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorage(backends, logger), nil
}

func newBackend(format string, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch format {
	case "parquet":
		return NewParquetStorage(filepath.Join(cfg.OutputDir, "matches.parquet"), logger)
	case "json", "jsonl", "csv":
		return NewFileStorage(format, cfg.OutputDir, logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", format)
	}
}
