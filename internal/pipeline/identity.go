package pipeline

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/IshaanNene/wikimatch/internal/types"
)

// identityFields are the columns hashed into a match identity, in order.
var identityFields = []string{"tournament_page", "team1", "team2", "start_time_utc", "score1", "score2"}

// MatchID returns the SHA-1 hex digest of the identity fields joined by "|".
// Null fields contribute an empty string; scores are written in base 10, so
// a score of 0 is "0".
//
// Datasets that hash a zero score as an empty string, the same as a missing
// one, are not compatible: rows with a 0 score get a different ID here and
// cannot be joined to those datasets by match_id.
func MatchID(rec *types.MatchRecord) string {
	parts := make([]string, len(identityFields))
	for i, f := range identityFields {
		parts[i], _ = rec.Field(f)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// IdentityMiddleware assigns MatchID. The input record is left untouched;
// a copy carries the identity onward.
type IdentityMiddleware struct{}

func (m *IdentityMiddleware) Name() string { return "identity" }

func (m *IdentityMiddleware) Process(rec *types.MatchRecord) (*types.MatchRecord, error) {
	out := *rec
	out.MatchID = MatchID(rec)
	return &out, nil
}
