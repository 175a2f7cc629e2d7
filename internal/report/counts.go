package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chriscorrea/kwcanon/internal/corpus"
)

// countReport describes one family of per-cluster count files.
type countReport struct {
	prefix    string
	column    string
	titleCase bool
}

var (
	keywordCountReport  = countReport{prefix: "canonical_keywords_counts", column: "keyword", titleCase: true}
	categoryCountReport = countReport{prefix: "categories_counts", column: "category"}
	meshCountReport     = countReport{prefix: "mesh_counts", column: "mesh_term"}
)

// KeywordCounts writes canonical_keywords_counts_mod_<id>_<label>.csv per
// cluster.
func (w *Writer) KeywordCounts(counts map[string]corpus.Counts, clusters []string, labels Labeler) ([]string, error) {
	return w.counts(keywordCountReport, counts, clusters, labels)
}

// CategoryCounts writes categories_counts_mod_<id>_<label>.csv per cluster.
func (w *Writer) CategoryCounts(counts map[string]corpus.Counts, clusters []string, labels Labeler) ([]string, error) {
	return w.counts(categoryCountReport, counts, clusters, labels)
}

// MeshCounts writes mesh_counts_mod_<id>_<label>.csv per cluster.
func (w *Writer) MeshCounts(counts map[string]corpus.Counts, clusters []string, labels Labeler) ([]string, error) {
	return w.counts(meshCountReport, counts, clusters, labels)
}

// counts writes one file per cluster in the given order. Clusters without
// counts get no file.
func (w *Writer) counts(r countReport, counts map[string]corpus.Counts, clusters []string, labels Labeler) ([]string, error) {
	var paths []string
	for _, id := range clusters {
		c := counts[id]
		if len(c) == 0 {
			continue
		}

		ranked := c.Ranked()
		rows := make([][]string, len(ranked))
		for i, tc := range ranked {
			term := tc.Term
			if r.titleCase {
				term = TitleCase(term)
			}
			rows[i] = []string{term, strconv.Itoa(tc.Count)}
		}

		name := fmt.Sprintf("%s_mod_%s_%s.csv", r.prefix, id, SafeLabel(labels.Label(id)))
		path, err := w.writeCSV(name, []string{r.column, "count"}, rows)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var rule = strings.Repeat("=", 80)

// CanonicalKeywords writes the sorted canonical vocabulary to
// all_canonical_keywords_processed.txt.
func (w *Writer) CanonicalKeywords(vocab []string) (string, error) {
	items := make([]string, len(vocab))
	for i, kw := range vocab {
		items[i] = TitleCase(kw)
	}
	header := []string{fmt.Sprintf("Total unique CANONICAL keywords processed: %d", len(vocab)), rule, ""}
	return w.writeLines("all_canonical_keywords_processed.txt", header, items)
}

// MeshTerms writes the sorted distinct MeSH terms to
// all_mesh_terms_processed.txt.
func (w *Writer) MeshTerms(terms []string) (string, error) {
	header := []string{fmt.Sprintf("Total unique MESH terms processed: %d", len(terms)), rule, ""}
	return w.writeLines("all_mesh_terms_processed.txt", header, terms)
}

// CanonicalMapping writes the raw to canonical keyword map as JSON with
// sorted keys.
func (w *Writer) CanonicalMapping(m map[string]string) (string, error) {
	return w.writeJSON("qa_canonical_keyword_mapping.json", m)
}

// UnclassifiedTerms lists the canonical keywords the classification CSV does
// not cover.
func (w *Writer) UnclassifiedTerms(terms []string, mappingName string) (string, error) {
	header := []string{fmt.Sprintf("Canonical keywords not found in '%s':", mappingName)}
	return w.writeLines("errors_in_classifying_keywords.txt", header, terms)
}
