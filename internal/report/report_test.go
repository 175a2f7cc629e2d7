package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscorrea/kwcanon/internal/config"
	"github.com/chriscorrea/kwcanon/internal/corpus"
	"github.com/chriscorrea/kwcanon/internal/embedding"
	"github.com/chriscorrea/kwcanon/internal/tfidf"
)

type labels map[string]string

func (l labels) Label(id string) string {
	if s, ok := l[id]; ok {
		return s
	}
	return "Modularity_" + id
}

func (l labels) Color(string) string { return "#00A50F" }

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func clusterScores() *tfidf.ClusterScores {
	m := tfidf.FitTransform([][]string{{"basal ganglia"}, {"motor cortex"}, {"motor cortex"}})
	return m.Aggregate([]tfidf.Group{
		{Name: "1", Rows: []int{0, 1}},
		{Name: "2", Rows: []int{2}},
	})
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Basic_Cerebellum", FileLabel("Basic: Cerebellum"))
	assert.Equal(t, "Applied_Feedback_and_training_scheduling", FileLabel("Applied: Feedback and\ntraining scheduling"))
	assert.Equal(t, "Applied_Feedback_and_training_scheduling", SafeLabel("Applied: Feedback and\ntraining scheduling"))
	assert.Equal(t, "a-b_c", SafeLabel(" a-b (c) "))
	assert.Equal(t, "Modularity_10", SafeLabel("Modularity_10"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Basal Ganglia", TitleCase("basal ganglia"))
	assert.Equal(t, "Motor Cortex (M1)", TitleCase("motor cortex (m1)"))
	assert.Equal(t, "Fmri", TitleCase("fMRI"))
}

func TestWriter_ClusterWeights(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	paths, err := w.ClusterWeights(clusterScores(), labels{"1": "Basic: Cerebellum"})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, "cluster_1_Basic_Cerebellum_tfidf_scores.csv", filepath.Base(paths[0]))
	assert.Equal(t, "canonical_keyword,tfidf_score\nBasal Ganglia,0.5\nMotor Cortex,0.5\n", readFile(t, paths[0]))

	assert.Equal(t, "cluster_2_Modularity_2_tfidf_scores.csv", filepath.Base(paths[1]))
	assert.Equal(t, "canonical_keyword,tfidf_score\nMotor Cortex,1\n", readFile(t, paths[1]))
}

func TestWriter_TopKeywords(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.TopKeywords(clusterScores(), labels{"1": "Motivation\nand Attention"}, 1)
	require.NoError(t, err)

	want := "cluster_id,cluster_label,cluster_color,keyword,score,rank\n" +
		"1,Motivation and Attention,#00A50F,Basal Ganglia,0.5,1\n" +
		"2,Modularity_2,#00A50F,Motor Cortex,1,1\n"
	assert.Equal(t, want, readFile(t, path))
}

func TestWriter_TopKeywords_ClusterMetadata(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	var clusters Labeler = config.DefaultClusters()
	path, err := w.TopKeywords(clusterScores(), clusters, 1)
	require.NoError(t, err)

	want := "cluster_id,cluster_label,cluster_color,keyword,score,rank\n" +
		"1,Basic: Cerebellum,#00A50F,Basal Ganglia,0.5,1\n" +
		"2,Basic: Adaptation,#9A9CFF,Motor Cortex,1,1\n"
	assert.Equal(t, want, readFile(t, path))
}

func TestWriter_Counts(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	counts := map[string]corpus.Counts{
		"1": {"motor cortex": 1, "basal ganglia": 3},
		"2": {},
		"7": {"cerebellum": 2},
	}
	paths, err := w.KeywordCounts(counts, []string{"1", "2", "7"}, labels{"7": "Applied: Feedback"})
	require.NoError(t, err)
	require.Len(t, paths, 2, "clusters without counts get no file")

	assert.Equal(t, "canonical_keywords_counts_mod_1_Modularity_1.csv", filepath.Base(paths[0]))
	assert.Equal(t, "keyword,count\nBasal Ganglia,3\nMotor Cortex,1\n", readFile(t, paths[0]))
	assert.Equal(t, "canonical_keywords_counts_mod_7_Applied_Feedback.csv", filepath.Base(paths[1]))

	paths, err = w.MeshCounts(map[string]corpus.Counts{"1": {"Humans": 2, "Animals": 2}}, []string{"1"}, labels{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "mesh_term,count\nAnimals,2\nHumans,2\n", readFile(t, paths[0]))

	paths, err = w.CategoryCounts(map[string]corpus.Counts{"1": {"B. Motor Cortex": 1}}, []string{"1"}, labels{})
	require.NoError(t, err)
	assert.Equal(t, "category,count\nB. Motor Cortex,1\n", readFile(t, paths[0]))
}

func TestWriter_QAFiles(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.CanonicalKeywords([]string{"basal ganglia", "motor cortex"})
	require.NoError(t, err)
	want := "Total unique CANONICAL keywords processed: 2\n" + strings.Repeat("=", 80) + "\n\nBasal Ganglia\nMotor Cortex\n"
	assert.Equal(t, want, readFile(t, path))

	path, err = w.MeshTerms([]string{"Humans"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(readFile(t, path), "Total unique MESH terms processed: 1\n"))

	path, err = w.CanonicalMapping(map[string]string{"M1": "motor cortex", "Basal Ganglia": "basal ganglia"})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"Basal Ganglia\": \"basal ganglia\",\n    \"M1\": \"motor cortex\"\n}\n", readFile(t, path))

	path, err = w.UnclassifiedTerms([]string{"qqzzxj"}, ClassificationFile)
	require.NoError(t, err)
	assert.Equal(t, "Canonical keywords not found in 'keyword_classification_25_categories.csv':\nqqzzxj\n", readFile(t, path))
}

func TestReadKeywordList(t *testing.T) {
	in := "Total unique CANONICAL keywords processed: 2\n" + strings.Repeat("=", 80) + "\n\nBasal Ganglia\n\n  Motor Cortex \n"
	got, err := ReadKeywordList(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Basal Ganglia", "Motor Cortex"}, got)

	got, err = ReadKeywordList(strings.NewReader("dopamine\ncerebellum\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"dopamine", "cerebellum"}, got)
}

func TestWriter_Classifications(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	rows := []Classification{
		{Keyword: "Cortical Dopamine", Categories: []string{"B. Motor Cortex", "D. Neurotransmitters"}},
		{Keyword: "Sunflower Seeds", Categories: []string{"Z. Unclassified"}},
	}
	path, err := w.Classifications(rows)
	require.NoError(t, err)
	assert.Equal(t, "keyword,categories\nCortical Dopamine,B. Motor Cortex; D. Neurotransmitters\nSunflower Seeds,Z. Unclassified\n", readFile(t, path))

	totals, path, err := w.CategoryTotals(rows, []string{"A. Cerebellum", "B. Motor Cortex", "D. Neurotransmitters", "Z. Unclassified"})
	require.NoError(t, err)
	assert.Equal(t, 0, totals["A. Cerebellum"])
	assert.Equal(t, 1, totals["B. Motor Cortex"])

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"broad_term", "count"}, records[0])
	assert.Equal(t, []string{"A. Cerebellum", "0"}, records[4])
}

func TestEmbeddingOutputs(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "proj", "projection.csv")
	require.NoError(t, Projection(path, []embedding.Point{{Text: "cerebellum", X: 1.5, Y: -2}}))
	assert.Equal(t, "keyword,x,y\ncerebellum,1.5,-2\n", readFile(t, path))

	path = filepath.Join(dir, "nearest.csv")
	require.NoError(t, Assignments(path, []embedding.Assignment{
		{Text: "purkinje cell", Category: "A. Cerebellum", Score: 0.75},
		{Text: "orphan"},
	}))
	assert.Equal(t, "keyword,predicted_category,similarity_score\npurkinje cell,A. Cerebellum,0.75\norphan,,\n", readFile(t, path))
}
