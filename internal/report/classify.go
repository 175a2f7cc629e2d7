package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chriscorrea/kwcanon/internal/corpus"
)

// File names of the classification outputs.
const (
	ClassificationFile = "keyword_classification_25_categories.csv"
	CategoryTotalsFile = "all_keywords_count.csv"
)

// Classification is one classified keyword.
type Classification struct {
	Keyword    string
	Categories []string
}

// ReadKeywordList reads one keyword per line. Blank lines and the header
// written by Writer.CanonicalKeywords are skipped.
func ReadKeywordList(r io.Reader) ([]string, error) {
	var out []string
	header := true
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if header && (strings.HasPrefix(line, "Total unique") || strings.Trim(line, "=") == "") {
			continue
		}
		header = false
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keyword list: %w", err)
	}
	return out, nil
}

// Classifications writes the keyword,categories CSV. Categories are joined
// with "; ".
func (w *Writer) Classifications(rows []Classification) (string, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.Keyword, strings.Join(r.Categories, "; ")}
	}
	return w.writeCSV(ClassificationFile, []string{"keyword", "categories"}, records)
}

// CategoryTotals counts every category over rows, including the categories
// of all that no keyword fell into, and writes them most frequent first.
func (w *Writer) CategoryTotals(rows []Classification, all []string) (corpus.Counts, string, error) {
	totals := make(corpus.Counts, len(all))
	for _, c := range all {
		totals[c] = 0
	}
	for _, r := range rows {
		for _, c := range r.Categories {
			totals[c]++
		}
	}

	ranked := totals.Ranked()
	records := make([][]string, len(ranked))
	for i, tc := range ranked {
		records[i] = []string{tc.Term, strconv.Itoa(tc.Count)}
	}
	path, err := w.writeCSV(CategoryTotalsFile, []string{"broad_term", "count"}, records)
	return totals, path, err
}
