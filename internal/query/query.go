// Package query parses a raw search string into terms and quoted phrases
// per §4.3, generalizing the teacher's boolean AND/OR/NOT parser
// (internal/searcher/parser/parser.go) to Marian's implicit-AND,
// phrase-aware grammar.
package query

import (
	"regexp"
	"strings"

	"github.com/marian-search/marian/internal/stemmer"
)

// MaximumTerms is the default cap on top-level query terms (§4.6 step 3),
// overridable via configuration.
const MaximumTerms = 10

// Query is the parsed form of a raw search string.
type Query struct {
	// Terms is the set of lower-cased top-level and in-phrase tokens.
	Terms map[string]struct{}
	// TermsOrdered preserves the order terms were encountered in, needed
	// for stemmed-bigram correlation lookups.
	TermsOrdered []string
	// Phrases preserves the original casing-lowered literal of each
	// quoted (or phrase-fragment) block.
	Phrases []string
	// StemmedPhrases holds, per phrase, the stem of every non-stop-word
	// token in the phrase, in order.
	StemmedPhrases [][]string
	// Filter is assigned externally by the searcher facade.
	Filter func(docID int) bool
}

// mandatoryTerms behave as if quoted even when written bare.
var mandatoryTerms = map[string]struct{}{
	"realm":   {},
	"atlas":   {},
	"compass": {},
}

var (
	quotedBlock = regexp.MustCompile(`"([^"]+)"`)
	wordSplit   = regexp.MustCompile(`\W+`)
)

// Parse parses raw into a Query. Filter is left nil; the caller assigns it.
func Parse(raw string) *Query {
	text := strings.ToLower(raw)

	var phrases []string

	// A phrase fragment: an odd number of quotes means the last one
	// never closes, and its body runs to the end of the string.
	if strings.Count(text, `"`)%2 == 1 {
		idx := strings.LastIndex(text, `"`)
		frag := strings.TrimSpace(text[idx+1:])
		text = text[:idx]
		if frag != "" {
			phrases = append(phrases, frag)
		}
	}

	termsSet := make(map[string]struct{})
	var termsOrdered []string
	addTerms := func(s string) {
		for _, t := range wordSplit.Split(s, -1) {
			if t == "" {
				continue
			}
			if _, ok := termsSet[t]; !ok {
				termsSet[t] = struct{}{}
			}
			termsOrdered = append(termsOrdered, t)
		}
	}

	last := 0
	for _, m := range quotedBlock.FindAllStringSubmatchIndex(text, -1) {
		addTerms(text[last:m[0]])
		phrase := strings.TrimSpace(text[m[2]:m[3]])
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
		addTerms(phrase)
		last = m[1]
	}
	addTerms(text[last:])

	stemmedPhrases := stemPhrases(phrases)

	seenMandatory := make(map[string]struct{})
	for _, t := range termsOrdered {
		if _, ok := mandatoryTerms[t]; !ok {
			continue
		}
		if _, done := seenMandatory[t]; done {
			continue
		}
		seenMandatory[t] = struct{}{}
		stemmedPhrases = append(stemmedPhrases, []string{stemmer.Stem(t)})
	}

	return &Query{
		Terms:          termsSet,
		TermsOrdered:   termsOrdered,
		Phrases:        phrases,
		StemmedPhrases: stemmedPhrases,
	}
}

func stemPhrases(phrases []string) [][]string {
	var out [][]string
	for _, p := range phrases {
		var stemmed []string
		for _, c := range wordSplit.Split(p, -1) {
			if c == "" || stemmer.IsStopWord(c) {
				continue
			}
			stemmed = append(stemmed, stemmer.Stem(c))
		}
		if len(stemmed) == 0 {
			continue
		}
		out = append(out, stemmed)
	}
	return out
}
