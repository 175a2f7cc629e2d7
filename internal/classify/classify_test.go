package classify_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/chriscorrea/kwcanon/internal/classify"
)

func testScheme() classify.Scheme {
	return classify.Scheme{
		Categories: []classify.Category{
			{ID: "A. Neuroscience & Neuroanatomy", Terms: []string{"cortex", "Cerebellum"}},
			{ID: "B. Neuropharmacology & Biochemistry", Terms: []string{"dopamine", "nmda"}},
			{ID: "E. Motor Skills & Performance", Terms: []string{"skill"}},
		},
		Unclassified: "Z. Unclassified",
		Exceptions:   []string{"2330", "NMDA"},
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := classify.NewClassifier(testScheme())

	tests := []struct {
		name          string
		keyword       string
		wantCats      []string
		wantUnmatched bool
	}{
		{
			name:     "multi label",
			keyword:  "Dopamine release in motor cortex",
			wantCats: []string{"A. Neuroscience & Neuroanatomy", "B. Neuropharmacology & Biochemistry"},
		},
		{
			name:     "single label",
			keyword:  "cerebellum",
			wantCats: []string{"A. Neuroscience & Neuroanatomy"},
		},
		{
			name:     "terms normalized",
			keyword:  "  CEREBELLUM lesions ",
			wantCats: []string{"A. Neuroscience & Neuroanatomy"},
		},
		{
			name:     "exception wins over category term",
			keyword:  "nmda",
			wantCats: []string{"Z. Unclassified"},
		},
		{
			name:     "numeric exception",
			keyword:  "2330",
			wantCats: []string{"Z. Unclassified"},
		},
		{
			name:     "exception is exact only",
			keyword:  "nmda receptor",
			wantCats: []string{"B. Neuropharmacology & Biochemistry"},
		},
		{
			name:          "no match",
			keyword:       "sunflower seeds",
			wantCats:      []string{"Z. Unclassified"},
			wantUnmatched: true,
		},
		{
			name:          "empty keyword",
			keyword:       "",
			wantCats:      []string{"Z. Unclassified"},
			wantUnmatched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.keyword)
			if !slices.Equal(got.Categories, tt.wantCats) {
				t.Errorf("Classify(%q).Categories = %q, want %q", tt.keyword, got.Categories, tt.wantCats)
			}
			if got.Unmatched != tt.wantUnmatched {
				t.Errorf("Classify(%q).Unmatched = %v, want %v", tt.keyword, got.Unmatched, tt.wantUnmatched)
			}
		})
	}
}

func TestClassifier_Categories(t *testing.T) {
	c := classify.NewClassifier(testScheme())
	got := c.Categories()
	want := []string{
		"A. Neuroscience & Neuroanatomy",
		"B. Neuropharmacology & Biochemistry",
		"E. Motor Skills & Performance",
		"Z. Unclassified",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Categories() = %q, want %q", got, want)
	}
}

func TestDefaultScheme(t *testing.T) {
	s := classify.DefaultScheme()
	if len(s.Categories) != 24 {
		t.Fatalf("default scheme has %d categories, want 24 plus unclassified", len(s.Categories))
	}
	if s.Unclassified != "Z. Unclassified" {
		t.Errorf("Unclassified = %q", s.Unclassified)
	}

	c := classify.NewClassifier(s)
	if n := len(c.Categories()); n != 25 {
		t.Errorf("len(Categories()) = %d, want 25", n)
	}

	r := c.Classify("cortex dopamine")
	for _, want := range []string{"A. Neuroscience & Neuroanatomy", "B. Neuropharmacology & Biochemistry"} {
		if !slices.Contains(r.Categories, want) {
			t.Errorf("Classify(cortex dopamine) = %q, missing %q", r.Categories, want)
		}
	}
	if !slices.IsSorted(r.Categories) {
		t.Errorf("categories not sorted: %q", r.Categories)
	}

	r = c.Classify("2330")
	if !slices.Equal(r.Categories, []string{"Z. Unclassified"}) || r.Unmatched {
		t.Errorf("Classify(2330) = %+v, want exception routing", r)
	}

	r = c.Classify("qqzzxj")
	if !r.Unmatched {
		t.Errorf("Classify(qqzzxj) = %+v, want unmatched", r)
	}
}

func TestLoadScheme(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "scheme.yaml")
		data := "categories:\n  - id: Motor\n    terms: [motor]\nexceptions: [\"1s\"]\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := classify.LoadScheme(path)
		if err != nil {
			t.Fatalf("LoadScheme() error = %v", err)
		}
		if s.Unclassified != "Z. Unclassified" {
			t.Errorf("Unclassified default not applied: %q", s.Unclassified)
		}
		if len(s.Categories) != 1 || s.Categories[0].ID != "Motor" {
			t.Errorf("Categories = %+v", s.Categories)
		}
	})

	t.Run("no categories", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		if err := os.WriteFile(path, []byte("unclassified: Z\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := classify.LoadScheme(path); err == nil {
			t.Error("LoadScheme() expected error for empty scheme")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := classify.LoadScheme(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Error("LoadScheme() expected error for missing file")
		}
	})
}

func TestReadMapping(t *testing.T) {
	in := "keyword,categories\n" +
		"Motor Cortex,A. Neuroscience & Neuroanatomy\n" +
		"dopamine,\"A. Neuroscience & Neuroanatomy; B. Neuropharmacology & Biochemistry\"\n" +
		"motor cortex,E. Motor Skills & Performance\n" +
		"short\n"

	m, err := classify.ReadMapping(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadMapping() error = %v", err)
	}

	tests := []struct {
		name string
		key  string
		want []string
		ok   bool
	}{
		{"first row wins", "motor cortex", []string{"A. Neuroscience & Neuroanatomy"}, true},
		{"semicolon list", "dopamine", []string{"A. Neuroscience & Neuroanatomy", "B. Neuropharmacology & Biochemistry"}, true},
		{"short row skipped", "short", nil, false},
		{"header skipped", "keyword", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Lookup(tt.key)
			if ok != tt.ok || !slices.Equal(got, tt.want) {
				t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLoadMapping_Missing(t *testing.T) {
	m, err := classify.LoadMapping(filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil {
		t.Fatalf("LoadMapping() error = %v, want nil", err)
	}
	if len(m) != 0 {
		t.Errorf("LoadMapping() = %v, want empty", m)
	}
}

func TestUnknownLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unknown_words.txt")
	log := classify.NewUnknownLog(path)
	c := classify.NewClassifier(testScheme())

	for _, kw := range []string{"sunflower seeds", "cortex", "2330", "Wages"} {
		log.Record(kw, c.Classify(kw))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "sunflower seeds\nWages\n"; got != want {
		t.Errorf("unknown log = %q, want %q", got, want)
	}

	// disabled log never fails
	classify.NewUnknownLog("").Record("x", classify.Result{Unmatched: true})
	var nilLog *classify.UnknownLog
	nilLog.Record("x", classify.Result{Unmatched: true})
}

func TestCachedClassifier(t *testing.T) {
	c := classify.NewClassifier(testScheme())
	cached, err := classify.NewCachedClassifier(c, 2)
	if err != nil {
		t.Fatalf("NewCachedClassifier() error = %v", err)
	}

	for _, kw := range []string{"Cortex", "cortex", " CORTEX "} {
		got := cached.Classify(kw)
		if !slices.Equal(got.Categories, []string{"A. Neuroscience & Neuroanatomy"}) {
			t.Errorf("Classify(%q) = %q", kw, got.Categories)
		}
	}
	if cached.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after normalized repeats", cached.Len())
	}

	cached.Classify("dopamine")
	cached.Classify("skill")
	if cached.Len() != 2 {
		t.Errorf("Len() = %d, want bounded at 2", cached.Len())
	}

	var _ classify.Decider = cached
	var _ classify.Decider = c
}
