package mesh

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/chriscorrea/kwcanon/internal/graph"
)

// Node attribute titles written by Transfer.
const (
	GraphDescriptorAttr = "mesh"
	GraphIDAttr         = "mesh_id"
)

// DOIColumns and DOIAttributes are the accepted spellings of the DOI field in
// paper tables and graph nodes.
var (
	DOIColumns    = []string{"Doi", "DOI", "doi"}
	DOIAttributes = []string{"doi", "DOI", "Doi"}
)

// Match tells how a node was matched to a table row.
type Match int

const (
	NoMatch Match = iota
	ByDOI
	ByTitle
	ByNormalizedTitle
)

func (m Match) String() string {
	switch m {
	case ByDOI:
		return "doi"
	case ByTitle:
		return "title"
	case ByNormalizedTitle:
		return "normalized title"
	default:
		return "none"
	}
}

// TransferStats summarize a Transfer.
type TransferStats struct {
	Total     int
	Annotated int // nodes that already carried MeSH terms
	Matched   map[Match]int
	Unmatched []graph.Node
}

// Transfer matches the nodes of g to rows of an annotated paper table and
// returns the MeSH attributes to set, keyed by node id. A node is matched by
// DOI, then by its exact title, then by its normalized title; DOI and exact
// title matches must be unique. Rows without descriptors never match. Nodes
// that already carry MeSH terms are left alone.
func Transfer(g *graph.Graph, t *Table, titleColumn string) (map[string]map[string]string, TransferStats, error) {
	stats := TransferStats{Matched: make(map[Match]int)}

	meshIdx := t.Column(DescriptorColumn, false)
	if meshIdx < 0 {
		return nil, stats, fmt.Errorf("paper table has no %s column", DescriptorColumn)
	}
	idIdx := t.Column(IDColumn, false)
	titleIdx := t.Column(titleColumn, false)
	doiIdx := -1
	for _, c := range DOIColumns {
		if doiIdx = t.Column(c, false); doiIdx >= 0 {
			break
		}
	}
	if titleIdx < 0 && doiIdx < 0 {
		return nil, stats, fmt.Errorf("paper table has neither a %q nor a DOI column", titleColumn)
	}

	byDOI := index(t, doiIdx, strings.TrimSpace)
	byTitle := index(t, titleIdx, strings.TrimSpace)
	byNorm := make(map[string]int)
	if titleIdx >= 0 {
		for i, row := range t.Rows {
			if k := NormalizeTitle(row[titleIdx]); k != "" {
				byNorm[k] = i
			}
		}
	}

	annotated := func(i int) bool { return strings.TrimSpace(t.Rows[i][meshIdx]) != "" }
	unique := func(rows []int) (int, bool) {
		if len(rows) == 1 && annotated(rows[0]) {
			return rows[0], true
		}
		return 0, false
	}

	values := make(map[string]map[string]string)
	for _, n := range g.Nodes {
		stats.Total++
		if _, ok := n.Mesh(); ok {
			stats.Annotated++
			continue
		}

		row, how := -1, NoMatch
		if doi, ok := n.Attr(DOIAttributes...); ok {
			if i, ok := unique(byDOI[strings.TrimSpace(doi)]); ok {
				row, how = i, ByDOI
			}
		}
		title := nodeTitle(n)
		if how == NoMatch && strings.TrimSpace(title) != "" {
			if i, ok := unique(byTitle[strings.TrimSpace(title)]); ok {
				row, how = i, ByTitle
			} else if i, ok := byNorm[NormalizeTitle(title)]; ok && annotated(i) {
				row, how = i, ByNormalizedTitle
			}
		}

		if how == NoMatch {
			stats.Unmatched = append(stats.Unmatched, n)
			continue
		}
		stats.Matched[how]++

		v := map[string]string{GraphDescriptorAttr: t.Rows[row][meshIdx]}
		if idIdx >= 0 && strings.TrimSpace(t.Rows[row][idIdx]) != "" {
			v[GraphIDAttr] = t.Rows[row][idIdx]
		}
		values[n.ID] = v
	}
	return values, stats, nil
}

func index(t *Table, col int, key func(string) string) map[string][]int {
	m := make(map[string][]int)
	if col < 0 {
		return m
	}
	for i, row := range t.Rows {
		if k := key(row[col]); k != "" {
			m[k] = append(m[k], i)
		}
	}
	return m
}

func nodeTitle(n graph.Node) string {
	if n.Label != "" {
		return n.Label
	}
	v, _ := n.Attr("label", "Label", "title", "Title")
	return v
}

// NormalizeTitle lowercases s, drops punctuation and collapses whitespace.
func NormalizeTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
