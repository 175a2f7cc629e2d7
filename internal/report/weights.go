package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chriscorrea/kwcanon/internal/tfidf"
)

// TopPerCluster is the number of terms per cluster in the combined ranking.
const TopPerCluster = 3

// ClusterWeights writes one cluster_<id>_<label>_tfidf_scores.csv file per
// cluster listing every positively weighted term, highest first. It returns
// the written paths in cluster order.
func (w *Writer) ClusterWeights(scores *tfidf.ClusterScores, labels Labeler) ([]string, error) {
	paths := make([]string, 0, len(scores.Clusters))
	for _, id := range scores.Clusters {
		ranked := scores.Top(id, 0)
		rows := make([][]string, len(ranked))
		for i, ts := range ranked {
			rows[i] = []string{TitleCase(ts.Term), formatScore(ts.Score)}
		}

		name := fmt.Sprintf("cluster_%s_%s_tfidf_scores.csv", id, FileLabel(labels.Label(id)))
		path, err := w.writeCSV(name, []string{"canonical_keyword", "tfidf_score"}, rows)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// TopKeywords writes the n best terms of every cluster into a single
// top_keywords_per_cluster.csv.
func (w *Writer) TopKeywords(scores *tfidf.ClusterScores, labels Labeler, n int) (string, error) {
	var rows [][]string
	for _, id := range scores.Clusters {
		label := strings.ReplaceAll(labels.Label(id), "\n", " ")
		for rank, ts := range scores.Top(id, n) {
			rows = append(rows, []string{
				id,
				label,
				labels.Color(id),
				TitleCase(ts.Term),
				formatScore(ts.Score),
				strconv.Itoa(rank + 1),
			})
		}
	}
	header := []string{"cluster_id", "cluster_label", "cluster_color", "keyword", "score", "rank"}
	return w.writeCSV("top_keywords_per_cluster.csv", header, rows)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
