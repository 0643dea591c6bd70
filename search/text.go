package search

import (
	"strings"
	"unicode"
)

// Words too common in documentation questions to count as a verbatim match.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "can": true, "do": true, "does": true, "for": true,
	"from": true, "how": true, "i": true, "in": true, "is": true, "it": true,
	"my": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"what": true, "when": true, "where": true, "which": true, "why": true,
	"with": true, "you": true,
}

// terms lowercases text and splits it on anything that is not a letter or
// digit, dropping stop words. Hyphenated identifiers such as cmdlet names
// yield their parts.
func terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	filtered := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// containsAll reports whether every query term occurs in document.
// An empty term list never matches.
func containsAll(document string, queryTerms []string) bool {
	if len(queryTerms) == 0 {
		return false
	}
	present := make(map[string]bool)
	for _, w := range terms(document) {
		present[w] = true
	}
	for _, t := range queryTerms {
		if !present[t] {
			return false
		}
	}
	return true
}
