// Package classify assigns canonical keywords to broad topical categories.
//
// Classification is multi-label and purely lexical: a keyword belongs to every
// category that has at least one term occurring in it as a substring. A short
// list of exceptions (fragments, chemical identifiers, numbers) is matched
// exactly first and routed straight to the unclassified category. Keywords
// matching nothing are also unclassified, and are flagged so the caller can
// record them for curation.
package classify

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/chriscorrea/kwcanon/internal/keyword"
)

// Result is the outcome of classifying one keyword.
type Result struct {
	// Categories is sorted and never empty.
	Categories []string
	// Unmatched reports that no category term matched and the keyword is
	// unclassified by default rather than by an exception entry.
	Unmatched bool
}

// Decider is implemented by Classifier and CachedClassifier.
type Decider interface {
	Classify(kw string) Result
}

// Classifier applies a Scheme. It is safe for concurrent use.
type Classifier struct {
	categories   []compiledCategory
	unclassified string
	exceptions   map[string]struct{}
}

type compiledCategory struct {
	id    string
	terms []string
}

// NewClassifier compiles scheme into a Classifier. Terms and exceptions are
// normalized the same way keywords are.
func NewClassifier(scheme Scheme) *Classifier {
	c := &Classifier{
		unclassified: scheme.Unclassified,
		exceptions:   make(map[string]struct{}, len(scheme.Exceptions)),
	}

	for _, e := range scheme.Exceptions {
		if ne := keyword.Normalize(e); ne != "" {
			c.exceptions[ne] = struct{}{}
		}
	}

	for _, cat := range scheme.Categories {
		if cat.ID == scheme.Unclassified {
			continue
		}
		cc := compiledCategory{id: cat.ID}
		for _, t := range cat.Terms {
			if nt := keyword.Normalize(t); nt != "" {
				cc.terms = append(cc.terms, nt)
			}
		}
		c.categories = append(c.categories, cc)
	}

	slog.Debug("Compiled classifier", "categories", len(c.categories), "exceptions", len(c.exceptions))
	return c
}

// Classify returns the categories of kw.
func (c *Classifier) Classify(kw string) Result {
	nk := keyword.Normalize(kw)

	if _, ok := c.exceptions[nk]; ok {
		return Result{Categories: []string{c.unclassified}}
	}

	var matched []string
	if nk != "" {
		for _, cat := range c.categories {
			for _, term := range cat.terms {
				if strings.Contains(nk, term) {
					matched = append(matched, cat.id)
					break
				}
			}
		}
	}

	if len(matched) == 0 {
		return Result{Categories: []string{c.unclassified}, Unmatched: true}
	}

	sort.Strings(matched)
	return Result{Categories: dedupSorted(matched)}
}

// Categories returns every category id of the scheme in sorted order,
// including the unclassified category.
func (c *Classifier) Categories() []string {
	ids := make([]string, 0, len(c.categories)+1)
	seen := make(map[string]struct{}, len(c.categories)+1)
	for _, cat := range c.categories {
		if _, ok := seen[cat.id]; !ok {
			seen[cat.id] = struct{}{}
			ids = append(ids, cat.id)
		}
	}
	if _, ok := seen[c.unclassified]; !ok {
		ids = append(ids, c.unclassified)
	}
	sort.Strings(ids)
	return ids
}

// Unclassified returns the catch-all category id.
func (c *Classifier) Unclassified() string {
	return c.unclassified
}

func dedupSorted(s []string) []string {
	out := make([]string, 0, len(s))
	for i, v := range s {
		if i > 0 && v == s[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}
