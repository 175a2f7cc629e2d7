// Package corpus turns graph nodes into canonical-term documents.
//
// Every paper becomes one document: its keyword field is split, each token is
// normalized and mapped through the canonical map. Documents are grouped by
// the paper's pre-assigned cluster. Nodes are never dropped silently; each
// excluded node is counted under the reason it was excluded, so that
//
//	Total == Used + Sentinel + MissingKeywords + NoCluster + UnmappedExcluded
//
// always holds.
package corpus

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/chriscorrea/kwcanon/internal/graph"
	"github.com/chriscorrea/kwcanon/internal/keyword"
)

// DefaultSentinel is the keyword field value exporters write for papers
// without keywords.
const DefaultSentinel = "Unknown keywords"

// Canonicalizer maps a normalized keyword to its canonical form.
type Canonicalizer interface {
	Canonical(nk string) string
}

// Options control which nodes take part in the groupings.
type Options struct {
	// Sentinel replaces DefaultSentinel when set.
	Sentinel string
	// KnownClusters is the curated cluster set. When empty every cluster is
	// known.
	KnownClusters []string
	// ExcludeUnmapped removes papers of unknown clusters from Papers. They
	// are still listed in Corpus.Unmapped.
	ExcludeUnmapped bool
	// ClusterAttribute overrides cluster attribute detection.
	ClusterAttribute string
}

// Paper is one node's canonical document.
type Paper struct {
	NodeID  string
	Label   string
	Cluster string
	Tokens  []string
	Mesh    []string
}

// Conflict records a raw term seen with two different canonical forms.
type Conflict struct {
	Raw   string
	First string
	Other string
}

// Stats accounts for every node of the graph.
type Stats struct {
	Total            int
	Used             int
	Sentinel         int
	MissingKeywords  int
	NoCluster        int
	Unmapped         int
	UnmappedExcluded int
}

// Corpus is the result of Build. It is read-only once built.
type Corpus struct {
	// Papers are the documents used for weighting and counting, in graph order.
	Papers []Paper
	// Unmapped are the papers whose cluster is outside the known set,
	// whether or not they were excluded from Papers.
	Unmapped []Paper
	// RawToCanonical maps each raw keyword to the canonical form it was
	// first resolved to.
	RawToCanonical map[string]string
	Conflicts      []Conflict
	// ClusterAttribute is the node attribute the clusters were read from.
	ClusterAttribute string
	Stats            Stats
}

// Build groups the nodes of g into canonical documents.
func Build(g *graph.Graph, canon Canonicalizer, opts Options) (*Corpus, error) {
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = DefaultSentinel
	}

	attr := opts.ClusterAttribute
	if attr == "" {
		var err error
		attr, err = g.ClusterAttribute()
		if err != nil {
			return nil, fmt.Errorf("failed to detect cluster attribute: %w", err)
		}
	}
	slog.Debug("Using cluster attribute", "attribute", attr)

	known := make(map[string]bool, len(opts.KnownClusters))
	for _, k := range opts.KnownClusters {
		known[graph.ClusterKey(k)] = true
	}

	c := &Corpus{
		RawToCanonical:   make(map[string]string),
		ClusterAttribute: attr,
	}

	for _, n := range g.Nodes {
		c.Stats.Total++

		raw, ok := n.Keywords()
		if !ok {
			c.Stats.MissingKeywords++
			continue
		}
		if strings.TrimSpace(raw) == sentinel {
			c.Stats.Sentinel++
			continue
		}

		cv, ok := n.Attr(attr)
		if !ok {
			c.Stats.NoCluster++
			continue
		}

		p := Paper{
			NodeID:  n.ID,
			Label:   n.Label,
			Cluster: graph.ClusterKey(cv),
			Tokens:  c.resolve(raw, canon),
		}
		if mesh, ok := n.Mesh(); ok {
			p.Mesh = keyword.SplitMesh(mesh)
		}

		if len(known) > 0 && !known[p.Cluster] {
			c.Stats.Unmapped++
			c.Unmapped = append(c.Unmapped, p)
			if opts.ExcludeUnmapped {
				c.Stats.UnmappedExcluded++
				continue
			}
		}

		c.Papers = append(c.Papers, p)
	}
	c.Stats.Used = len(c.Papers)

	slog.Debug("Built corpus",
		"total", c.Stats.Total,
		"used", c.Stats.Used,
		"sentinel", c.Stats.Sentinel,
		"missing_keywords", c.Stats.MissingKeywords,
		"no_cluster", c.Stats.NoCluster,
		"unmapped", c.Stats.Unmapped,
		"unmapped_excluded", c.Stats.UnmappedExcluded)

	return c, nil
}

func (c *Corpus) resolve(raw string, canon Canonicalizer) []string {
	terms := keyword.SplitString(raw)
	tokens := make([]string, 0, len(terms))
	for _, term := range terms {
		nk := keyword.Normalize(term)
		if nk == "" {
			continue
		}
		ct := nk
		if canon != nil {
			ct = canon.Canonical(nk)
		}
		tokens = append(tokens, ct)

		if first, seen := c.RawToCanonical[term]; !seen {
			c.RawToCanonical[term] = ct
		} else if first != ct {
			slog.Warn("Inconsistent canonical mapping", "raw", term, "first", first, "other", ct)
			c.Conflicts = append(c.Conflicts, Conflict{Raw: term, First: first, Other: ct})
		}
	}
	return tokens
}

// Docs returns the token sequence of every paper, in paper order.
func (c *Corpus) Docs() [][]string {
	docs := make([][]string, len(c.Papers))
	for i, p := range c.Papers {
		docs[i] = p.Tokens
	}
	return docs
}

// ClusterIDs returns the distinct clusters of Papers in SortKeys order.
func (c *Corpus) ClusterIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, p := range c.Papers {
		if _, ok := seen[p.Cluster]; !ok {
			seen[p.Cluster] = struct{}{}
			ids = append(ids, p.Cluster)
		}
	}
	SortKeys(ids)
	return ids
}

// ClusterRows maps each cluster to the indices of its papers in Papers.
func (c *Corpus) ClusterRows() map[string][]int {
	rows := make(map[string][]int)
	for i, p := range c.Papers {
		rows[p.Cluster] = append(rows[p.Cluster], i)
	}
	return rows
}

// Document is the concatenated token sequence of one cluster.
type Document struct {
	Cluster string
	Tokens  []string
}

// Clusters returns one document per cluster in ClusterIDs order.
func (c *Corpus) Clusters() []Document {
	byCluster := make(map[string][]string)
	for _, p := range c.Papers {
		byCluster[p.Cluster] = append(byCluster[p.Cluster], p.Tokens...)
	}
	ids := c.ClusterIDs()
	docs := make([]Document, len(ids))
	for i, id := range ids {
		docs[i] = Document{Cluster: id, Tokens: byCluster[id]}
	}
	return docs
}

// Vocabulary returns the sorted distinct canonical tokens of Papers.
func (c *Corpus) Vocabulary() []string {
	seen := make(map[string]struct{})
	for _, p := range c.Papers {
		for _, t := range p.Tokens {
			seen[t] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen))
	for t := range seen {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)
	return vocab
}

// SortKeys orders cluster keys: integers ascending first, then the rest
// lexicographically.
func SortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, aErr := strconv.ParseInt(keys[i], 10, 64)
		b, bErr := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}
