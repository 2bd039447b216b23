package extract

import (
	"fmt"
	"strings"
)

// Record fields filled from template parameters. FieldDate and FieldTime are
// inputs to the start time rather than columns of their own.
const (
	FieldTeam1       = "team1"
	FieldTeam2       = "team2"
	FieldScore1      = "score1"
	FieldScore2      = "score2"
	FieldBestOf      = "best_of"
	FieldDate        = "date"
	FieldTime        = "time"
	FieldStage       = "stage"
	FieldMatchFormat = "match_format"
	FieldMapList     = "map_list"
)

// DefaultTemplates are the template names treated as matches when no
// allow-list is configured.
var DefaultTemplates = []string{"Match", "Match2", "MatchMaps"}

// Aliases maps each record field to its candidate parameter names. Order is
// precedence: older and newer naming schemes coexist on the wiki and the
// first non-empty parameter wins.
type Aliases map[string][]string

// DefaultAliases returns a fresh copy of the built-in alias table.
func DefaultAliases() Aliases {
	return Aliases{
		FieldTeam1:       {"team1", "opponent1", "team1name", "team1short"},
		FieldTeam2:       {"team2", "opponent2", "team2name", "team2short"},
		FieldScore1:      {"score1", "team1score", "score"},
		FieldScore2:      {"score2", "team2score"},
		FieldBestOf:      {"bestof", "bo", "best_of"},
		FieldDate:        {"date", "match_date"},
		FieldTime:        {"time", "timezone", "match_time"},
		FieldStage:       {"stage", "round", "group"},
		FieldMatchFormat: {"format", "match_format"},
		FieldMapList:     {"map", "map1", "maplist", "maps"},
	}
}

// Keys returns the candidate parameter names for a field.
func (a Aliases) Keys(field string) []string {
	return a[field]
}

// WithOverrides returns a copy of the table where every field present in
// overrides has its candidate list replaced. Unknown field names are errors.
func (a Aliases) WithOverrides(overrides map[string][]string) (Aliases, error) {
	out := make(Aliases, len(a))
	for field, keys := range a {
		out[field] = append([]string(nil), keys...)
	}

	for field, keys := range overrides {
		field = strings.ToLower(strings.TrimSpace(field))
		if _, ok := a[field]; !ok {
			return nil, fmt.Errorf("unknown alias field %q", field)
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("alias field %q has no candidate keys", field)
		}
		out[field] = append([]string(nil), keys...)
	}
	return out, nil
}
