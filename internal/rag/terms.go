package rag

import (
	"sort"
	"strings"
	"unicode"

	"praxis/internal/store"
)

// stopwords excluded from keyword retrieval. Small on purpose: over-long
// stopword lists hurt recall on technical queries.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "to": true, "of": true,
	"in": true, "on": true, "at": true, "and": true, "or": true,
	"for": true, "with": true, "what": true, "which": true, "who": true,
	"how": true, "why": true, "when": true, "where": true, "do": true,
	"does": true, "did": true, "it": true, "its": true, "this": true,
	"that": true, "about": true, "tell": true, "me": true, "i": true,
}

// QueryTerms extracts the content-bearing terms from a question.
func QueryTerms(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var terms []string
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

func sortHitsByScore(hits []store.Hit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
}
