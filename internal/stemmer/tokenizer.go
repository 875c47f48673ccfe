// Package stemmer normalizes raw text into a canonical token stream: it
// splits on non-token characters, recognizes atomic phrases and sigil
// tokens, filters stop-words, and stems the remainder with a Porter2
// implementation frozen from the Snowball "english" definition.
package stemmer

import (
	"strings"
	"sync"
)

// Token holds one normalized token; it carries no offset into the split
// component stream it was produced from.
type Token struct {
	Text string
}

// splitComponents partitions text on any run of characters outside
// [A-Za-z0-9_$%.], mirroring the tokenizer's component split.
func splitComponents(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		if isTokenRune(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func isTokenRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '$' || r == '%' || r == '.':
		return true
	}
	return false
}

// Tokenize splits and normalizes text into a stream of raw (un-stemmed)
// component tokens per §4.1 steps 1-5, honoring atomic-phrase lookahead,
// the standalone "$" rule, and (when fuzzy) dot-separated sub-component
// expansion. Stop-word filtering and stemming are applied by the caller via
// IsStopWord and Stem, since sigil tokens must bypass both.
func Tokenize(text string, fuzzy bool) []string {
	components := splitComponents(text)
	var out []string
	for i := 0; i < len(components); i++ {
		c := strings.ToLower(components[i])
		c = strings.Trim(c, ".")
		if c == "$" {
			out = append(out, "positional", "operator")
			continue
		}
		if i+1 < len(components) {
			next := strings.Trim(strings.ToLower(components[i+1]), ".")
			if joined, ok := atomicPhraseFor(c, next); ok {
				out = append(out, joined)
				i++
				continue
			}
		}
		if len(c) > 1 {
			out = append(out, c)
			if fuzzy && strings.Contains(c, ".") {
				for _, sub := range strings.Split(c, ".") {
					if len(sub) > 1 {
						out = append(out, sub)
					}
				}
			}
		}
	}
	return out
}

var (
	stemCacheMu sync.Mutex
	stemCache   = make(map[string]string)
)

// Stem returns the Porter2 stem of word, memoized across calls. Atomic
// phrases (tokens containing a space) and sigil-prefixed tokens pass through
// unchanged.
func Stem(word string) string {
	if strings.Contains(word, " ") {
		return word
	}
	if IsSigil(word) {
		return word
	}
	stemCacheMu.Lock()
	if s, ok := stemCache[word]; ok {
		stemCacheMu.Unlock()
		return s
	}
	stemCacheMu.Unlock()

	s := stemPorter2(word)

	stemCacheMu.Lock()
	stemCache[word] = s
	stemCacheMu.Unlock()
	return s
}

// IsSigil reports whether token is a sigil-prefixed token ("$foo", "%foo",
// "%%foo").
func IsSigil(token string) bool {
	return strings.HasPrefix(token, "$") || strings.HasPrefix(token, "%")
}

// SigilBase returns the stemmed unprefixed form of a sigil token and the
// correlation weight (0.9) that should be registered between it and the
// verbatim sigil token, per the §4.1 sigil rule. ok is false if token is not
// a sigil token.
func SigilBase(token string) (base string, weight float64, ok bool) {
	if !IsSigil(token) {
		return "", 0, false
	}
	rest := token[1:]
	if strings.HasPrefix(token, "%%") {
		rest = token[2:]
	}
	if rest == "" {
		return "", 0, false
	}
	return Stem(rest), 0.9, true
}
