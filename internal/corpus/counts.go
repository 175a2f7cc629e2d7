package corpus

import "sort"

// Counts maps a term to its number of occurrences.
type Counts map[string]int

// TermCount is one ranked entry of a Counts.
type TermCount struct {
	Term  string
	Count int
}

// Ranked returns the entries of c by count descending, then term ascending.
func (c Counts) Ranked() []TermCount {
	out := make([]TermCount, 0, len(c))
	for t, n := range c {
		out = append(out, TermCount{Term: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// KeywordCounts counts canonical tokens per cluster.
func (c *Corpus) KeywordCounts() map[string]Counts {
	out := make(map[string]Counts)
	for _, p := range c.Papers {
		counts := bucket(out, p.Cluster)
		for _, t := range p.Tokens {
			counts[t]++
		}
	}
	return out
}

// MeshCounts counts MeSH terms per cluster. Terms are kept as written.
func (c *Corpus) MeshCounts() map[string]Counts {
	out := make(map[string]Counts)
	for _, p := range c.Papers {
		counts := bucket(out, p.Cluster)
		for _, t := range p.Mesh {
			counts[t]++
		}
	}
	return out
}

// CategoryLookup resolves a canonical keyword to its broad categories.
type CategoryLookup interface {
	Lookup(nk string) ([]string, bool)
}

// CategoryCounts counts broad categories per cluster, one count per
// category of every canonical token. Tokens the lookup does not know are
// returned sorted for curation.
func (c *Corpus) CategoryCounts(lookup CategoryLookup) (map[string]Counts, []string) {
	out := make(map[string]Counts)
	missing := make(map[string]struct{})
	for _, p := range c.Papers {
		counts := bucket(out, p.Cluster)
		for _, t := range p.Tokens {
			cats, ok := lookup.Lookup(t)
			if !ok || len(cats) == 0 {
				missing[t] = struct{}{}
				continue
			}
			for _, cat := range cats {
				counts[cat]++
			}
		}
	}

	terms := make([]string, 0, len(missing))
	for t := range missing {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return out, terms
}

func bucket(m map[string]Counts, cluster string) Counts {
	counts, ok := m[cluster]
	if !ok {
		counts = make(Counts)
		m[cluster] = counts
	}
	return counts
}
