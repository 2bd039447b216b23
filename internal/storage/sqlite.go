package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/wikimatch/internal/types"
)

const matchesSchema = `
CREATE TABLE IF NOT EXISTS matches (
	match_id        TEXT PRIMARY KEY,
	tournament_page TEXT NOT NULL,
	tournament_tier TEXT NOT NULL,
	team1           TEXT,
	team2           TEXT,
	score1          INTEGER,
	score2          INTEGER,
	best_of         INTEGER,
	winner          TEXT,
	start_time_utc  TEXT,
	stage           TEXT,
	match_format    TEXT,
	map_list        TEXT,
	source_fields   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_tournament ON matches(tournament_page);
`

// SQLiteStorage upserts records into a matches table keyed by match_id, so
// rebuilding the dataset into the same file replaces rows instead of
// duplicating them.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	upsert string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the database and its schema.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps ":memory:" on a single database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, matchesSchema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
	}

	return &SQLiteStorage{
		db:     db,
		path:   path,
		upsert: buildUpsert(),
		logger: logger.With("component", "sqlite_storage"),
	}, nil
}

func buildUpsert() string {
	placeholders := make([]string, len(types.Columns))
	updates := make([]string, 0, len(types.Columns)-1)
	for i, col := range types.Columns {
		placeholders[i] = "?"
		if col != "match_id" {
			updates = append(updates, col+" = excluded."+col)
		}
	}
	return fmt.Sprintf(
		"INSERT INTO matches (%s) VALUES (%s) ON CONFLICT(match_id) DO UPDATE SET %s",
		strings.Join(types.Columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

// DB exposes the underlying handle for read-side queries.
func (s *SQLiteStorage) DB() *sql.DB { return s.db }

func (s *SQLiteStorage) Store(records []*types.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(s.upsert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.MatchID == "" {
			tx.Rollback()
			return fmt.Errorf("sqlite upsert: record for %q has no match_id", rec.TournamentPage)
		}
		if _, err := stmt.Exec(rowArgs(rec)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite upsert %s: %w", rec.MatchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	s.count += len(records)
	s.logger.Debug("records upserted", "count", len(records), "total", s.count)
	return nil
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("SQLite written", "path", s.path, "records", s.count)
	return s.db.Close()
}

func rowArgs(rec *types.MatchRecord) []any {
	var winner any
	if rec.Winner != nil {
		winner = string(*rec.Winner)
	}
	return []any{
		rec.MatchID,
		rec.TournamentPage,
		rec.TournamentTier,
		nullString(rec.Team1),
		nullString(rec.Team2),
		nullInt(rec.Score1),
		nullInt(rec.Score2),
		nullInt(rec.BestOf),
		winner,
		nullString(rec.StartTimeUTC),
		nullString(rec.Stage),
		nullString(rec.MatchFormat),
		nullString(rec.MapList),
		rec.SourceFields,
	}
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return int64(*i)
}
