package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// Report is the data quality summary written after a build. Pct fields are
// fractions in [0,1] of the final rows.
type Report struct {
	RunID                string    `json:"run_id"`
	GeneratedAt          time.Time `json:"generated_at"`
	TournamentsProcessed int       `json:"tournaments_processed"`
	MatchesExtracted     int       `json:"matches_extracted"`
	DuplicatesDropped    int       `json:"duplicates_dropped"`
	RecordsFiltered      int       `json:"records_filtered"`
	PctWithTeams         float64   `json:"pct_with_teams"`
	PctWithScores        float64   `json:"pct_with_scores"`
	PctWithStartTime     float64   `json:"pct_with_start_time"`
}

// qualityTally counts field coverage over the final rows.
type qualityTally struct {
	rows, teams, scores, startTime int
}

func (q *qualityTally) add(rec *types.MatchRecord) {
	q.rows++
	if rec.HasTeams() {
		q.teams++
	}
	if rec.HasScores() {
		q.scores++
	}
	if rec.HasStartTime() {
		q.startTime++
	}
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func newReport(processed, duplicates, filtered int, q qualityTally) *Report {
	return &Report{
		RunID:                uuid.NewString(),
		GeneratedAt:          time.Now().UTC(),
		TournamentsProcessed: processed,
		MatchesExtracted:     q.rows,
		DuplicatesDropped:    duplicates,
		RecordsFiltered:      filtered,
		PctWithTeams:         fraction(q.teams, q.rows),
		PctWithScores:        fraction(q.scores, q.rows),
		PctWithStartTime:     fraction(q.startTime, q.rows),
	}
}

// WriteReport saves the report as indented JSON.
func WriteReport(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
