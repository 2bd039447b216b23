package wikitext

import (
	"strings"
	"testing"
	"time"
)

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text only",
		"{{Match|team1=Alpha|team2=Beta}}",
		"{{Match\n|team1 = Alpha \n|score1= 2\n}}",
		"{{Outer|inner={{Inner|a=1}}|[[Link|label]]}}",
		"{{unclosed|a=1",
		"text }} stray {{ open",
		"{{{1|default}}} and {{{{Nested}}}}",
		"<!-- comment {{Match|team1=X}} --> after",
		"<!-- unterminated comment",
		"<nowiki>{{Match|team1=X}}</nowiki>",
		"[[File:x.png|thumb|{{Match|team1=A}}]]",
		"Ünïcödé {{Match|team1=Ωmega}} ✓",
	}

	for _, in := range inputs {
		if got := Parse(in).String(); got != in {
			t.Errorf("round trip mismatch:\n  in:  %q\n  out: %q", in, got)
		}
	}
}

func TestParseNamedAndPositionalParams(t *testing.T) {
	code := Parse("{{Match| first |team1 = Alpha |second| score1=2 }}")
	templates := code.Templates()
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}

	tmpl := templates[0]
	if tmpl.Name() != "Match" {
		t.Errorf("expected name Match, got %q", tmpl.Name())
	}

	tests := []struct {
		key  string
		want string
	}{
		{"1", "first"},
		{"2", "second"},
		{"team1", "Alpha"},
		{"score1", "2"},
	}
	for _, tt := range tests {
		got, ok := tmpl.Param(tt.key)
		if !ok {
			t.Errorf("param %q missing", tt.key)
			continue
		}
		if got != tt.want {
			t.Errorf("param %q: expected %q, got %q", tt.key, tt.want, got)
		}
	}

	if tmpl.Has("team2") {
		t.Error("team2 should not exist")
	}
}

func TestParseNestedTemplatesDocumentOrder(t *testing.T) {
	src := `{{#if: yes | {{Match|team1=A}} }}
{{Bracket
|R1M1={{Match|team1=B|opponent2={{TeamOpponent|C}}}}
}}
{{Match2|team1=D}}`

	var names []string
	for _, tmpl := range Parse(src).Templates() {
		names = append(names, tmpl.Name())
	}

	want := []string{"#if: yes", "Match", "Bracket", "Match", "TeamOpponent", "Match2"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestParseNestedValueKeepsRawMarkup(t *testing.T) {
	tmpl := Parse("{{Match|opponent1={{TeamOpponent|Alpha}}|map=[[Dust2|Dust II]]}}").Templates()[0]

	if v, _ := tmpl.Param("opponent1"); v != "{{TeamOpponent|Alpha}}" {
		t.Errorf("expected raw nested template, got %q", v)
	}
	// Pipes inside links do not split parameters.
	if v, _ := tmpl.Param("map"); v != "[[Dust2|Dust II]]" {
		t.Errorf("expected raw link, got %q", v)
	}
	if len(tmpl.Params) != 2 {
		t.Errorf("expected 2 params, got %d", len(tmpl.Params))
	}
}

func TestParseEqualsInsideNestedIsNotAKey(t *testing.T) {
	tmpl := Parse("{{Match|{{Abbr|a=b}}|date={{Date|y=2024}}}}").Templates()[0]

	if v, ok := tmpl.Param("1"); !ok || v != "{{Abbr|a=b}}" {
		t.Errorf("expected positional nested template, got %q (ok=%v)", v, ok)
	}
	if v, _ := tmpl.Param("date"); v != "{{Date|y=2024}}" {
		t.Errorf("expected nested date template, got %q", v)
	}
}

func TestParseUnclosedTemplateIsText(t *testing.T) {
	code := Parse("{{Broken|team1=A\n{{Match|team1=B}}")
	templates := code.Templates()
	if len(templates) != 1 {
		t.Fatalf("expected only the closed template, got %d", len(templates))
	}
	if v, _ := templates[0].Param("team1"); v != "B" {
		t.Errorf("expected team1=B, got %q", v)
	}
}

func TestParseCommentsHideTemplates(t *testing.T) {
	code := Parse("<!-- {{Match|team1=Hidden}} -->{{Match|team1=Shown}}")
	templates := code.Templates()
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}
	if v, _ := templates[0].Param("team1"); v != "Shown" {
		t.Errorf("expected Shown, got %q", v)
	}
}

func TestParseNowikiHidesTemplates(t *testing.T) {
	if n := len(Parse("<NOWIKI>{{Match}}</nowiki>").Templates()); n != 0 {
		t.Errorf("expected no templates inside nowiki, got %d", n)
	}
}

func TestTemplateRepeatedParamLastWins(t *testing.T) {
	tmpl := Parse("{{Match|team1=First|team2=X|team1=Second}}").Templates()[0]

	if v, _ := tmpl.Param("team1"); v != "Second" {
		t.Errorf("expected last occurrence to win, got %q", v)
	}

	fields := tmpl.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 unique fields, got %d", len(fields))
	}
	if fields[0].Name != "team1" || fields[0].Value != "Second" {
		t.Errorf("expected team1=Second first, got %+v", fields[0])
	}
	if fields[1].Name != "team2" {
		t.Errorf("expected team2 second, got %+v", fields[1])
	}
}

func TestArgumentDefaultTemplatesAreFound(t *testing.T) {
	templates := Parse("{{{1|{{Match|team1=Default}}}}}").Templates()
	if len(templates) != 1 || templates[0].Name() != "Match" {
		t.Fatalf("expected template inside argument default, got %d", len(templates))
	}
}

func BenchmarkParse(b *testing.B) {
	src := ""
	for i := 0; i < 200; i++ {
		src += "{{Match|team1=Alpha|team2=Beta|score1=2|score2=1|opponent1={{TeamOpponent|A}}|map=[[Inferno]]}}\n"
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(src)
	}
}

func TestParseUnbalancedInputIsLinear(t *testing.T) {
	inputs := map[string]string{
		"open templates":        strings.Repeat("{{", 4000),
		"open arguments":        strings.Repeat("{{{", 3000),
		"open params":           strings.Repeat("{{a|", 4000),
		"open links":            strings.Repeat("[[", 4000),
		"separators only":       "{{" + strings.Repeat("|x", 4000),
		"open separators":       strings.Repeat("{{|x", 3000),
		"single closer at end":  strings.Repeat("{{", 4000) + "}}",
		"closers inside links":  strings.Repeat("{{[[}}]]", 2000),
		"mixed open constructs": strings.Repeat("{{a|[[b|{{{c|", 1000),
	}

	for name, in := range inputs {
		start := time.Now()
		got := Parse(in).String()
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("%s: parse took %v", name, elapsed)
		}
		if got != in {
			t.Errorf("%s: round trip lost input (len %d, want %d)", name, len(got), len(in))
		}
	}
}

func TestParseClosesInnermostOfUnbalancedRun(t *testing.T) {
	templates := Parse(strings.Repeat("{{ ", 50) + "{{Match|team1=A}}").Templates()
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}
	if v, _ := templates[0].Param("team1"); v != "A" {
		t.Errorf("expected team1=A, got %q", v)
	}
}
