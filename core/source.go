package core

import (
	"fmt"
	"sort"
)

// Source is a citation pointing at a contract document location. Relevance is
// normalized to [0,1] by the search layer and used for ranking only.
type Source struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
	PageNumber   int     `json:"page_number,omitempty"`
	Snippet      string  `json:"content_snippet,omitempty"`
	Relevance    float64 `json:"relevance_score"`
}

// dedupKey identifies a source for citation purposes. Two sources pointing at
// the same document/section/page are the same citation regardless of snippet
// or score.
func (s Source) dedupKey() string {
	return fmt.Sprintf("%s|%s|%d", s.DocumentID, s.SectionTitle, s.PageNumber)
}

// DedupSources removes duplicate citations keeping, for each
// (document, section, page) tuple, the occurrence with the highest relevance.
// First-seen order of surviving tuples is preserved.
func DedupSources(sources []Source) []Source {
	byKey := make(map[string]int, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		k := s.dedupKey()
		if i, ok := byKey[k]; ok {
			if s.Relevance > out[i].Relevance {
				out[i] = s
			}
			continue
		}
		byKey[k] = len(out)
		out = append(out, s)
	}
	return out
}

// TopSources deduplicates and returns at most n sources ordered by descending
// relevance. Ties keep their pre-sort order.
func TopSources(sources []Source, n int) []Source {
	out := DedupSources(sources)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Relevance > out[j].Relevance })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
