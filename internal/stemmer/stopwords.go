package stemmer

// stopWords is the fixed English stop-word list consulted during tokenizing.
// Membership is checked on the raw (unstemmed) lower-cased token.
var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {},
	"at": {}, "be": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"below": {}, "between": {}, "both": {}, "but": {}, "by": {}, "can": {},
	"did": {}, "do": {}, "does": {}, "doing": {}, "down": {}, "during": {},
	"each": {}, "few": {}, "for": {}, "from": {}, "further": {}, "had": {},
	"has": {}, "have": {}, "having": {}, "he": {}, "her": {}, "here": {},
	"hers": {}, "herself": {}, "him": {}, "himself": {}, "his": {}, "how": {},
	"i": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {},
	"itself": {}, "me": {}, "more": {}, "most": {}, "my": {}, "myself": {},
	"no": {}, "nor": {}, "not": {}, "of": {}, "off": {}, "on": {}, "once": {},
	"only": {}, "or": {}, "other": {}, "our": {}, "ours": {}, "ourselves": {},
	"out": {}, "over": {}, "own": {}, "same": {}, "she": {}, "should": {},
	"so": {}, "some": {}, "such": {}, "than": {}, "that": {}, "the": {},
	"their": {}, "theirs": {}, "them": {}, "themselves": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "through": {},
	"to": {}, "too": {}, "under": {}, "until": {}, "up": {}, "very": {},
	"was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "who": {}, "whom": {}, "why": {}, "with": {},
	"would": {}, "you": {}, "your": {}, "yours": {}, "yourself": {}, "yourselves": {},
}

// IsStopWord reports whether word (expected lower-case) is in the fixed
// English stop-word list.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// atomicPhrases maps the first word of a fixed two-word phrase to the
// required second word. Atomic phrases are emitted as a single joined token
// ("ops manager") and bypass stemming entirely.
var atomicPhrases = map[string]string{
	"ops":   "manager",
	"cloud": "manager",
	"real":  "time",
}

// atomicPhraseFor reports the atomic-phrase token for (first, second) if one
// is registered, and whether it matched.
func atomicPhraseFor(first, second string) (string, bool) {
	want, ok := atomicPhrases[first]
	if !ok || want != second {
		return "", false
	}
	return first + " " + second, true
}
