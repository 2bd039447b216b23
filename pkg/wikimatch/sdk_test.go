package wikimatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/wikimatch/internal/storage"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var wikiPages = map[string]string{
	"Major/2024": `{{Match|team1=Alpha|team2=Beta|score1=2|score2=1|bestof=3|date=2024-03-01|time=18:00}}
{{Match|team1=Gamma|team2=Delta|score1=1|score2=2}}`,
	"Masters/2024": `{{Match2|opponent1=Alpha|opponent2=Gamma|score1=0|score2=0}}`,
	"Cup/2024":     `No matches here yet.`,
}

// fakeAPI serves categorymembers and revisions queries the way api.php does.
func fakeAPI(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "user agent required", http.StatusForbidden)
			return
		}
		q := r.URL.Query()
		var resp any
		switch {
		case q.Get("list") == "categorymembers" && q.Get("cmtitle") == "Category:S-Tier_Tournaments":
			if q.Get("cmcontinue") == "" {
				resp = map[string]any{
					"query":    map[string]any{"categorymembers": []map[string]any{{"pageid": 10, "ns": 0, "title": "Major/2024"}}},
					"continue": map[string]any{"cmcontinue": "page|11", "continue": "-||"},
				}
			} else {
				resp = map[string]any{
					"query": map[string]any{"categorymembers": []map[string]any{{"pageid": 11, "ns": 0, "title": "Masters/2024"}}},
				}
			}
		case q.Get("list") == "categorymembers":
			resp = map[string]any{
				"query": map[string]any{"categorymembers": []map[string]any{{"pageid": 20, "ns": 0, "title": "Cup/2024"}}},
			}
		case q.Get("prop") == "revisions":
			title := q.Get("titles")
			resp = map[string]any{"query": map[string]any{"pages": map[string]any{
				"1": map[string]any{
					"title": title,
					"revisions": []map[string]any{
						{"slots": map[string]any{"main": map[string]any{"*": wikiPages[title]}}},
					},
				},
			}}}
		default:
			http.Error(w, "unexpected query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(t *testing.T, baseURL, dir string) *Client {
	t.Helper()
	client, err := New(
		WithBaseURL(baseURL),
		WithUserAgent("wikimatch-test/1.0"),
		WithRateLimit(0),
		WithRetries(1, time.Millisecond),
		WithDataDir(dir),
		WithOutput(filepath.Join(dir, "processed"), "parquet", "csv"),
		WithLogger(testLogger),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRunEndToEnd(t *testing.T) {
	var hits atomic.Int64
	srv := fakeAPI(t, &hits)
	defer srv.Close()

	dir := t.TempDir()
	client := newTestClient(t, srv.URL, dir)

	report, err := client.Run(context.Background(), "S", "A")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.TournamentsProcessed != 3 {
		t.Errorf("tournaments processed = %d, want 3", report.TournamentsProcessed)
	}
	if report.MatchesExtracted != 3 {
		t.Errorf("matches = %d, want 3", report.MatchesExtracted)
	}
	if report.PctWithTeams != 1 {
		t.Errorf("pct with teams = %v, want 1", report.PctWithTeams)
	}
	if got, want := report.PctWithStartTime, 1.0/3.0; got != want {
		t.Errorf("pct with start time = %v, want %v", got, want)
	}

	// 2 category pages for S, 1 for A, 3 page fetches.
	if got := hits.Load(); got != 6 {
		t.Errorf("api hits = %d, want 6", got)
	}

	rows, err := storage.ReadParquet(filepath.Join(dir, "processed", "matches.parquet"))
	if err != nil {
		t.Fatalf("ReadParquet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("parquet rows = %d, want 3", len(rows))
	}
	if rows[0].MatchID == "" || rows[0].TournamentTier != "S" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[2].Winner != nil {
		t.Errorf("drawn match winner = %v, want nil", *rows[2].Winner)
	}

	stats := client.Stats()
	if stats["pages_downloaded"] != 3 {
		t.Errorf("pages_downloaded = %d, want 3", stats["pages_downloaded"])
	}
}

func TestRunTwiceUsesCacheAndStoredPages(t *testing.T) {
	var hits atomic.Int64
	srv := fakeAPI(t, &hits)
	defer srv.Close()

	dir := t.TempDir()
	if _, err := newTestClient(t, srv.URL, dir).Run(context.Background(), "S"); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := hits.Load()

	client := newTestClient(t, srv.URL, dir)
	report, err := client.Run(context.Background(), "S")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if hits.Load() != first {
		t.Errorf("second run hit the API %d more times", hits.Load()-first)
	}
	if report.MatchesExtracted != 3 {
		t.Errorf("matches = %d, want 3", report.MatchesExtracted)
	}
	if stats := client.Stats(); stats["cache_hits"] != 2 || stats["pages_skipped"] != 2 {
		t.Errorf("stats = %v", stats)
	}
}

func TestExtractInMemory(t *testing.T) {
	client, err := New(WithDataDir(t.TempDir()), WithTemplates("Match"), WithLogger(testLogger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	rows, err := client.Extract(wikiPages["Major/2024"]+wikiPages["Masters/2024"], "Major/2024", "S")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (Match2 not allowed)", len(rows))
	}
	if *rows[0].Team1 != "Alpha" || *rows[1].Team2 != "Delta" {
		t.Errorf("teams = %q / %q", *rows[0].Team1, *rows[1].Team2)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(WithBaseURL("ftp://example.com"), WithLogger(testLogger)); err == nil {
		t.Error("expected error for non-http base URL")
	}
	if _, err := New(WithOutput(t.TempDir(), "xml"), WithLogger(testLogger)); err == nil {
		t.Error("expected error for unknown format")
	}
}
