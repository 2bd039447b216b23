package types

import (
	"strconv"
)

// Side names which opponent of a match won it.
type Side string

const (
	SideTeam1 Side = "team1"
	SideTeam2 Side = "team2"
)

// MatchRecord is one normalized match extracted from a single template
// invocation. Nil pointer fields are unknown values and serialize as null.
type MatchRecord struct {
	// MatchID is the deduplication identity. The extractor leaves it empty;
	// the record pipeline assigns it.
	MatchID string `json:"match_id,omitempty" parquet:"match_id,optional" bson:"match_id,omitempty"`

	TournamentPage string `json:"tournament_page" parquet:"tournament_page" bson:"tournament_page"`
	TournamentTier string `json:"tournament_tier" parquet:"tournament_tier" bson:"tournament_tier"`

	Team1  *string `json:"team1"  parquet:"team1,optional"  bson:"team1"`
	Team2  *string `json:"team2"  parquet:"team2,optional"  bson:"team2"`
	Score1 *int    `json:"score1" parquet:"score1,optional" bson:"score1"`
	Score2 *int    `json:"score2" parquet:"score2,optional" bson:"score2"`
	BestOf *int    `json:"best_of" parquet:"best_of,optional" bson:"best_of"`
	Winner *Side   `json:"winner" parquet:"winner,optional" bson:"winner"`

	// StartTimeUTC is an ISO-8601 timestamp with an explicit +00:00 offset.
	StartTimeUTC *string `json:"start_time_utc" parquet:"start_time_utc,optional" bson:"start_time_utc"`

	Stage       *string `json:"stage"        parquet:"stage,optional"        bson:"stage"`
	MatchFormat *string `json:"match_format" parquet:"match_format,optional" bson:"match_format"`
	MapList     *string `json:"map_list"     parquet:"map_list,optional"     bson:"map_list"`

	// SourceFields is the JSON snapshot of the template name and its raw
	// parameters, kept for auditing.
	SourceFields string `json:"source_fields" parquet:"source_fields" bson:"source_fields"`
}

// Columns is the fixed column order used by tabular sinks.
var Columns = []string{
	"match_id", "tournament_page", "tournament_tier",
	"team1", "team2", "score1", "score2", "best_of", "winner",
	"start_time_utc", "stage", "match_format", "map_list", "source_fields",
}

// HasTeams reports whether both opponents are known.
func (m *MatchRecord) HasTeams() bool { return m.Team1 != nil && m.Team2 != nil }

// HasScores reports whether both scores are known.
func (m *MatchRecord) HasScores() bool { return m.Score1 != nil && m.Score2 != nil }

// HasStartTime reports whether the start time is known.
func (m *MatchRecord) HasStartTime() bool { return m.StartTimeUTC != nil }

// Field returns the named column as a string, and false when it is null.
func (m *MatchRecord) Field(name string) (string, bool) {
	switch name {
	case "match_id":
		return m.MatchID, m.MatchID != ""
	case "tournament_page":
		return m.TournamentPage, true
	case "tournament_tier":
		return m.TournamentTier, true
	case "team1":
		return derefString(m.Team1)
	case "team2":
		return derefString(m.Team2)
	case "score1":
		return derefInt(m.Score1)
	case "score2":
		return derefInt(m.Score2)
	case "best_of":
		return derefInt(m.BestOf)
	case "winner":
		if m.Winner == nil {
			return "", false
		}
		return string(*m.Winner), true
	case "start_time_utc":
		return derefString(m.StartTimeUTC)
	case "stage":
		return derefString(m.Stage)
	case "match_format":
		return derefString(m.MatchFormat)
	case "map_list":
		return derefString(m.MapList)
	case "source_fields":
		return m.SourceFields, true
	default:
		return "", false
	}
}

func derefString(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func derefInt(i *int) (string, bool) {
	if i == nil {
		return "", false
	}
	return strconv.Itoa(*i), true
}
