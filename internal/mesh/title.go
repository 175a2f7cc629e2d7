package mesh

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// MinTitleOverlap is the share of query title words that a candidate article
// title must contain to be accepted.
const MinTitleOverlap = 0.7

// titleWords returns the distinct lowercase words of title with punctuation
// removed.
func titleWords(title string) map[string]struct{} {
	words := make(map[string]struct{})
	doc, err := prose.NewDocument(strings.ToLower(title),
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		for _, f := range strings.Fields(strings.ToLower(title)) {
			if w := stripPunct(f); w != "" {
				words[w] = struct{}{}
			}
		}
		return words
	}

	for _, tok := range doc.Tokens() {
		if w := stripPunct(tok.Text); w != "" {
			words[w] = struct{}{}
		}
	}
	return words
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, s)
}

// TitleOverlap returns the share of the query's distinct words that also
// occur in found. It is 0 when either title has no words.
func TitleOverlap(query, found string) float64 {
	qw, fw := titleWords(query), titleWords(found)
	if len(qw) == 0 || len(fw) == 0 {
		return 0
	}
	shared := 0
	for w := range qw {
		if _, ok := fw[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(qw))
}
