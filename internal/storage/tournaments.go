package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// TournamentWriter streams tournaments to a JSONL file.
type TournamentWriter struct {
	file  *os.File
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
}

// NewTournamentWriter creates (or truncates) the tournament list.
func NewTournamentWriter(path string) (*TournamentWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create tournament list: %w", err)
	}
	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &TournamentWriter{file: f, buf: buf, enc: enc}, nil
}

// Write appends one tournament line.
func (w *TournamentWriter) Write(t types.Tournament) error {
	if err := w.enc.Encode(t); err != nil {
		return fmt.Errorf("encode tournament: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of tournaments written.
func (w *TournamentWriter) Count() int { return w.count }

// Close flushes and closes the file.
func (w *TournamentWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush tournament list: %w", err)
	}
	return w.file.Close()
}

// ReadTournaments loads a JSONL tournament list. Blank lines are skipped;
// a malformed line is an error naming its line number.
func ReadTournaments(path string) ([]types.Tournament, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tournament list: %w", err)
	}
	defer f.Close()
	return DecodeTournaments(f)
}

// DecodeTournaments parses JSONL tournaments from r.
func DecodeTournaments(r io.Reader) ([]types.Tournament, error) {
	var out []types.Tournament
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var t types.Tournament
		if err := json.Unmarshal([]byte(text), &t); err != nil {
			return nil, fmt.Errorf("tournament list line %d: %w", line, err)
		}
		out = append(out, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan tournament list: %w", err)
	}
	return out, nil
}
