// Package keyword splits raw keyword-list fields into individual keyword tokens
// and normalizes tokens into lookup keys.
//
// Keyword fields on graph nodes are free text such as
//
//	"Motor Cortex, basal ganglia (BG), [11C]raclopride, receptor (D1, D2)"
//
// Commas separate keywords except when they appear inside parentheses or
// square brackets, which are common in chemical names and abbreviations.
// MeSH fields use a simpler rule, see SplitMesh.
//
// Every lookup in the pipeline (canonical map, category terms, QA tables) is
// keyed by Normalize, so callers must normalize before comparing keywords.
package keyword

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Token is a single keyword extracted from a raw field.
type Token struct {
	Raw        string // trimmed source text
	Normalized string // lookup key, see Normalize
}

// Split splits a raw keyword field into trimmed keyword tokens.
// Values that are not strings (nil, NaN, numbers read from a loosely typed
// source) carry no keywords and yield an empty slice.
func Split(raw any) []string {
	switch v := raw.(type) {
	case string:
		return SplitString(v)
	case *string:
		if v == nil {
			return []string{}
		}
		return SplitString(*v)
	default:
		return []string{}
	}
}

// SplitString splits s on commas that are not nested in (...) or [...].
//
// Parenthesis and bracket depths are tracked independently. An unmatched
// closing delimiter drives its counter negative, which is tolerated: commas are
// only delimiters while both counters are exactly zero. Whatever is buffered at
// the end of the string is flushed as the final token, even inside an unclosed
// bracket.
func SplitString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	parts := []string{}
	var current strings.Builder
	parenDepth, bracketDepth := 0, 0

	flush := func() {
		if part := strings.TrimSpace(current.String()); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}

	for _, r := range s {
		switch r {
		case '(':
			parenDepth++
		case ')':
			parenDepth--
		case '[':
			bracketDepth++
		case ']':
			bracketDepth--
		case ',':
			if parenDepth == 0 && bracketDepth == 0 {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()

	return parts
}

// SplitMesh splits a MeSH term field. Semicolons are preferred when present,
// otherwise commas are used. No bracket tracking is applied.
func SplitMesh(raw any) []string {
	s, ok := raw.(string)
	if !ok {
		return []string{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	}

	parts := []string{}
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Normalize returns the lookup key for a token: NFC composed, trimmed and
// lowercased. Normalize is idempotent.
func Normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(token)))
}

// Tokens splits raw and pairs every token with its normalized form.
func Tokens(raw any) []Token {
	parts := Split(raw)
	tokens := make([]Token, 0, len(parts))
	for _, p := range parts {
		tokens = append(tokens, Token{Raw: p, Normalized: Normalize(p)})
	}
	return tokens
}
