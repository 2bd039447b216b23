package extract

import (
	"sort"

	"github.com/IshaanNene/wikimatch/internal/wikitext"
)

// TemplateCount is how often one template name occurs on a page.
type TemplateCount struct {
	Name  string
	Count int
}

// CountTemplates tallies every template on the page, nested ones included.
// The result is ordered by count, most common first; ties keep first-seen
// order. top <= 0 returns all names.
func CountTemplates(text string, top int) []TemplateCount {
	index := make(map[string]int)
	var counts []TemplateCount
	for _, tmpl := range wikitext.Parse(text).Templates() {
		name := tmpl.Name()
		if i, ok := index[name]; ok {
			counts[i].Count++
			continue
		}
		index[name] = len(counts)
		counts = append(counts, TemplateCount{Name: name, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if top > 0 && len(counts) > top {
		counts = counts[:top]
	}
	return counts
}
