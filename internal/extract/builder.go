package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/IshaanNene/wikimatch/internal/types"
	"github.com/IshaanNene/wikimatch/internal/wikitext"
)

// TemplateNode is the read-only view of a template the builder needs.
type TemplateNode interface {
	ParamSource
	Name() string
	Fields() []wikitext.Field
}

// Builder turns one match template into a MatchRecord.
type Builder struct {
	aliases Aliases
}

// NewBuilder creates a Builder. A nil table uses DefaultAliases.
func NewBuilder(aliases Aliases) *Builder {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Builder{aliases: aliases}
}

// Build maps the node's parameters onto a record. Every derived field comes
// from this node alone; unparsable values become null.
func (b *Builder) Build(node TemplateNode, tournamentTitle, tier string) types.MatchRecord {
	rec := types.MatchRecord{
		TournamentPage: tournamentTitle,
		TournamentTier: tier,
		Team1:          b.text(node, FieldTeam1),
		Team2:          b.text(node, FieldTeam2),
		Score1:         b.integer(node, FieldScore1),
		Score2:         b.integer(node, FieldScore2),
		BestOf:         b.integer(node, FieldBestOf),
		Stage:          b.text(node, FieldStage),
		MatchFormat:    b.text(node, FieldMatchFormat),
		MapList:        b.text(node, FieldMapList),
		SourceFields:   Snapshot(node.Name(), node.Fields()),
	}

	if side, ok := DecideWinner(rec.Score1, rec.Score2); ok {
		rec.Winner = &side
	}

	date, _ := Resolve(node, b.aliases.Keys(FieldDate))
	clock, _ := Resolve(node, b.aliases.Keys(FieldTime))
	if ts, ok := ParseStartTime(date, clock); ok {
		rec.StartTimeUTC = &ts
	}

	return rec
}

func (b *Builder) text(node ParamSource, field string) *string {
	v, ok := Resolve(node, b.aliases.Keys(field))
	if !ok {
		return nil
	}
	return &v
}

func (b *Builder) integer(node ParamSource, field string) *int {
	raw, _ := Resolve(node, b.aliases.Keys(field))
	n, ok := ParseInt(raw)
	if !ok {
		return nil
	}
	return &n
}

// Snapshot serializes a template name and its parameters as
// {"template": name, "params": {...}} with parameters in document order.
// Separators carry a trailing space and non-ASCII text is left unescaped,
// so snapshots compare byte for byte with datasets written by json.dumps.
func Snapshot(name string, fields []wikitext.Field) string {
	var buf bytes.Buffer
	buf.WriteString(`{"template": `)
	buf.WriteString(quote(name))
	buf.WriteString(`, "params": {`)
	for i, f := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(quote(f.Name))
		buf.WriteString(": ")
		buf.WriteString(quote(f.Value))
	}
	buf.WriteString("}}")
	return buf.String()
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	return strings.TrimSuffix(buf.String(), "\n")
}
