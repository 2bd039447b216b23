package pipeline

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/wikimatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func sampleRecord() *types.MatchRecord {
	return &types.MatchRecord{
		TournamentPage: "Test Event",
		TournamentTier: "S",
		Team1:          strPtr("Alpha"),
		Team2:          strPtr("Beta"),
		Score1:         intPtr(2),
		Score2:         intPtr(1),
		StartTimeUTC:   strPtr("2024-01-01T12:00:00+00:00"),
		SourceFields:   `{"template": "Match", "params": {}}`,
	}
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestMatchID(t *testing.T) {
	rec := sampleRecord()
	want := sha1Hex("Test Event|Alpha|Beta|2024-01-01T12:00:00+00:00|2|1")
	if got := MatchID(rec); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	sparse := &types.MatchRecord{TournamentPage: "Test Event", Team1: strPtr("Alpha")}
	if got, want := MatchID(sparse), sha1Hex("Test Event|Alpha||||"); got != want {
		t.Errorf("nulls should hash as empty strings: expected %s, got %s", want, got)
	}

	zero := sampleRecord()
	zero.Score2 = intPtr(0)
	if got, want := MatchID(zero), sha1Hex("Test Event|Alpha|Beta|2024-01-01T12:00:00+00:00|2|0"); got != want {
		t.Errorf("a zero score must hash as \"0\": expected %s, got %s", want, got)
	}
	if MatchID(zero) == sha1Hex("Test Event|Alpha|Beta|2024-01-01T12:00:00+00:00|2|") {
		t.Error("a zero score must not hash like a missing score")
	}
	nilScore := sampleRecord()
	nilScore.Score2 = nil
	if MatchID(nilScore) == MatchID(zero) {
		t.Error("a null score and a zero score must not collide")
	}
}

func TestMatchIDIgnoresNonIdentityFields(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.Stage = strPtr("Final")
	b.TournamentTier = "A"
	b.SourceFields = `{"template": "Match2", "params": {}}`
	if MatchID(a) != MatchID(b) {
		t.Error("stage, tier and source fields are not part of the identity")
	}
}

func TestIdentityMiddlewareCopies(t *testing.T) {
	rec := sampleRecord()
	out, err := (&IdentityMiddleware{}).Process(rec)
	if err != nil {
		t.Fatal(err)
	}
	if out.MatchID != MatchID(rec) {
		t.Errorf("identity not assigned: %q", out.MatchID)
	}
	if rec.MatchID != "" {
		t.Error("input record must not be modified")
	}
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()

	first := &types.MatchRecord{MatchID: "a", TournamentPage: "first"}
	if out, err := m.Process(first); err != nil || out != first {
		t.Fatal("first record should pass dedup")
	}

	dup := &types.MatchRecord{MatchID: "a", TournamentPage: "second"}
	if out, _ := m.Process(dup); out != nil {
		t.Error("duplicate record should be dropped (nil result)")
	}

	if out, err := m.Process(&types.MatchRecord{MatchID: "b"}); err != nil || out == nil {
		t.Fatal("different id should pass dedup")
	}
	if m.Dropped() != 1 {
		t.Errorf("expected 1 dropped, got %d", m.Dropped())
	}

	if _, err := m.Process(&types.MatchRecord{}); err == nil {
		t.Error("a record without identity should be an error")
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m, err := NewRequiredFieldsMiddleware([]string{"team1", "score1"})
	if err != nil {
		t.Fatal(err)
	}

	if out, _ := m.Process(sampleRecord()); out == nil {
		t.Error("complete record should pass")
	}

	missing := sampleRecord()
	missing.Score1 = nil
	if out, _ := m.Process(missing); out != nil {
		t.Error("record missing a required field should be dropped")
	}

	if _, err := NewRequiredFieldsMiddleware([]string{"elo"}); err == nil {
		t.Error("unknown column should be rejected")
	}
}

func TestDefaultPipeline(t *testing.T) {
	p, dedup, err := Default(nil, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 2 {
		t.Errorf("expected identity and dedup only, got %d stages", p.Len())
	}

	var kept []*types.MatchRecord
	for _, rec := range []*types.MatchRecord{sampleRecord(), sampleRecord(), {TournamentPage: "Other"}} {
		out, err := p.Process(rec)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if out != nil {
			kept = append(kept, out)
		}
	}

	if len(kept) != 2 {
		t.Fatalf("expected 2 records after dedup, got %d", len(kept))
	}
	if kept[0].MatchID == "" || kept[0].MatchID == kept[1].MatchID {
		t.Errorf("unexpected identities %q %q", kept[0].MatchID, kept[1].MatchID)
	}
	if dedup.Dropped() != 1 {
		t.Errorf("expected 1 duplicate, got %d", dedup.Dropped())
	}

	withReq, _, err := Default([]string{"team2"}, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if out, _ := withReq.Process(&types.MatchRecord{TournamentPage: "X", Team1: strPtr("A")}); out != nil {
		t.Error("required fields stage should drop records without team2")
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "boom" }
func (failingMiddleware) Process(*types.MatchRecord) (*types.MatchRecord, error) {
	return nil, errors.New("exploded")
}

func TestPipelineWrapsErrors(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, err := p.Process(sampleRecord())
	var pe *types.PipelineError
	if !errors.As(err, &pe) || pe.Stage != "boom" {
		t.Fatalf("expected PipelineError at stage boom, got %v", err)
	}
	if pe.Record == nil || pe.Record.TournamentPage != "Test Event" {
		t.Error("error should carry the failing record")
	}
}

func BenchmarkPipeline(b *testing.B) {
	p, _, _ := Default([]string{"team1"}, testLogger)
	rec := sampleRecord()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(rec)
	}
}
