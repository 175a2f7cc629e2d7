package synonym

import (
	"log/slog"
	"strings"

	"github.com/kljensen/snowball"

	"github.com/chriscorrea/kwcanon/internal/keyword"
)

// LexicalDictionary proposes synonyms without embeddings: keywords whose
// words reduce to the same English Snowball stems are grouped, so that
// "basket cell" and "Basket Cells" land together. The result is already
// closed and uses normalized keywords.
func LexicalDictionary(keywords []string) Dictionary {
	byStem := make(map[string][]string)
	seen := make(map[string]struct{})

	for _, kw := range keywords {
		nk := keyword.Normalize(kw)
		if nk == "" {
			continue
		}
		if _, dup := seen[nk]; dup {
			continue
		}
		seen[nk] = struct{}{}

		key := stemKey(nk)
		byStem[key] = append(byStem[key], nk)
	}

	d := make(Dictionary)
	for _, group := range byStem {
		if len(group) < 2 {
			continue
		}
		for _, member := range group {
			for _, other := range group {
				if other != member {
					d[member] = append(d[member], other)
				}
			}
		}
	}

	slog.Debug("Lexical synonym discovery", "keywords", len(seen), "linked", len(d))
	return d
}

// stemKey stems every whitespace separated word of a normalized keyword.
func stemKey(nk string) string {
	words := strings.Fields(nk)
	for i, w := range words {
		stemmed, err := snowball.Stem(w, "english", true)
		if err != nil {
			// keep the word as is when stemming fails
			continue
		}
		words[i] = stemmed
	}
	return strings.Join(words, " ")
}
