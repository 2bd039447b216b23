package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// ParquetStorage buffers records and writes one Parquet file on Close. The
// schema comes from the parquet tags on types.MatchRecord; nil pointers are
// stored as nulls.
type ParquetStorage struct {
	path    string
	records []types.MatchRecord
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewParquetStorage creates a new Parquet file storage.
func NewParquetStorage(outputPath string, logger *slog.Logger) (*ParquetStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &ParquetStorage{
		path:   outputPath,
		logger: logger.With("component", "parquet_storage"),
	}, nil
}

func (s *ParquetStorage) Name() string { return "parquet" }

func (s *ParquetStorage) Store(records []*types.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records = append(s.records, *rec)
	}
	return nil
}

func (s *ParquetStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := parquet.WriteFile(s.path, s.records); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	s.logger.Info("Parquet written", "path", s.path, "records", len(s.records))
	return nil
}

// ReadParquet loads every record from a Parquet file written by
// ParquetStorage.
func ReadParquet(path string) ([]types.MatchRecord, error) {
	rows, err := parquet.ReadFile[types.MatchRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
