// Package synonym builds equivalence classes of near-duplicate keywords and the
// canonical map used to merge them.
//
// The input is a synonym dictionary: a JSON object mapping each keyword to the
// keywords found similar enough to be interchangeable, typically produced by
// thresholding cosine similarity over keyword embeddings. The dictionary is an
// adjacency list of an undirected "is-synonym-of" graph. Classes are the
// connected components of that graph, so links that only appear in separate
// entries are still merged:
//
//	{"a": ["b"], "b": ["c"]}  =>  {a, b, c}
//
// Each class has one canonical representative: the shortest member, ties
// broken by lexicographic order. The rule is total, so the map does not depend
// on the order in which dictionary entries are read.
package synonym

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/chriscorrea/kwcanon/internal/keyword"
)

// Dictionary maps a keyword to its near-duplicate keywords.
type Dictionary map[string][]string

// LoadDictionary reads a synonym dictionary from a JSON file.
func LoadDictionary(path string) (Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym dictionary %q: %w", path, err)
	}

	var d Dictionary
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse synonym dictionary %q: %w", path, err)
	}
	if d == nil {
		d = Dictionary{}
	}

	slog.Debug("Loaded synonym dictionary", "path", path, "entries", len(d))
	return d, nil
}

// LoadDictionaryLenient is LoadDictionary for optional inputs: a missing or
// malformed file is reported and an empty dictionary is returned, so no
// keyword is merged.
func LoadDictionaryLenient(path string) Dictionary {
	if path == "" {
		return Dictionary{}
	}

	d, err := LoadDictionary(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Synonym dictionary not found, keywords will not be merged", "path", path)
		} else {
			slog.Warn("Synonym dictionary unusable, keywords will not be merged", "path", path, "error", err)
		}
		return Dictionary{}
	}
	return d
}

// WriteDictionary writes d as indented JSON with sorted keys and sorted,
// de-duplicated value lists.
func WriteDictionary(path string, d Dictionary) error {
	out := make(Dictionary, len(d))
	for k, vs := range d {
		out[k] = sortedUnique(vs)
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode synonym dictionary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write synonym dictionary %q: %w", path, err)
	}
	return nil
}

// Close returns the transitive closure of d: every keyword that takes part in
// any link maps to all other keywords reachable from it. Keywords are compared
// as given, without normalization, and self links are ignored.
func Close(d Dictionary) Dictionary {
	uf := newUnionFind()
	for _, k := range sortedKeys(d) {
		uf.add(k)
		for _, v := range d[k] {
			if v == k {
				continue
			}
			uf.union(k, v)
		}
	}

	closed := make(Dictionary)
	for _, members := range uf.classes() {
		if len(members) < 2 {
			continue
		}
		for _, m := range members {
			others := make([]string, 0, len(members)-1)
			for _, o := range members {
				if o != m {
					others = append(others, o)
				}
			}
			closed[m] = others
		}
	}
	return closed
}

// Map is an immutable canonical keyword map over normalized keywords.
// The zero value maps every keyword to itself.
type Map struct {
	canonical map[string]string
	groups    [][]string
}

// NewMap builds the canonical map for d. Keys and values are normalized before
// grouping, so case variants always fall into the same class.
func NewMap(d Dictionary) *Map {
	uf := newUnionFind()
	for _, k := range sortedKeys(d) {
		nk := keyword.Normalize(k)
		if nk == "" {
			continue
		}
		uf.add(nk)
		for _, v := range d[k] {
			nv := keyword.Normalize(v)
			if nv == "" || nv == nk {
				continue
			}
			uf.union(nk, nv)
		}
	}

	m := &Map{canonical: make(map[string]string)}
	for _, members := range uf.classes() {
		if len(members) < 2 {
			continue
		}
		rep := representative(members)
		for _, member := range members {
			m.canonical[member] = rep
		}
		m.groups = append(m.groups, members)
	}

	sort.Slice(m.groups, func(i, j int) bool {
		return representative(m.groups[i]) < representative(m.groups[j])
	})

	slog.Debug("Built canonical map", "variants", len(m.canonical), "classes", len(m.groups))
	return m
}

// Canonical returns the representative of the class containing the normalized
// keyword k, or k itself when k belongs to no class.
func (m *Map) Canonical(k string) string {
	if m == nil {
		return k
	}
	if c, ok := m.canonical[k]; ok {
		return c
	}
	return k
}

// Len returns the number of keyword variants that belong to a class.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.canonical)
}

// Groups returns the equivalence classes, each sorted, ordered by
// representative. The returned slices must not be modified.
func (m *Map) Groups() [][]string {
	if m == nil {
		return nil
	}
	return m.groups
}

// representative picks the shortest member, then the lexicographically smallest.
func representative(members []string) string {
	best := members[0]
	for _, s := range members[1:] {
		if shorter(s, best) {
			best = s
		}
	}
	return best
}

func shorter(a, b string) bool {
	la, lb := len([]rune(a)), len([]rune(b))
	if la != lb {
		return la < lb
	}
	return a < b
}

func sortedKeys(d Dictionary) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUnique(vs []string) []string {
	seen := make(map[string]struct{}, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
