package stemmer

import "strings"

// porter2 implements the Snowball "English" (Porter2) stemming algorithm.
// It operates on a single lower-cased word and returns its stem. The
// algorithm is a fixed, well-known specification; this is a direct, literal
// translation of its steps rather than an approximation.
const vowels = "aeiouy"

// stemPorter2 reduces word to its Porter2 stem. Inputs shorter than 3 runes
// are returned unchanged, matching the reference implementation's practice
// of leaving very short tokens alone.
func stemPorter2(word string) string {
	if len(word) <= 2 {
		return word
	}
	w := []rune(markInitialY(word))

	r1, r2 := regions(w)

	w = step0(w)
	r1, r2 = clampRegions(w, r1, r2)
	w = step1a(w)
	r1, r2 = clampRegions(w, r1, r2)
	w = step1b(w, r1)
	r1, r2 = clampRegions(w, r1, r2)
	w = step1c(w)
	w = step2(w, r1)
	r1, r2 = clampRegions(w, r1, r2)
	w = step3(w, r1, r2)
	r1, r2 = clampRegions(w, r1, r2)
	w = step4(w, r2)
	r1, r2 = clampRegions(w, r1, r2)
	w = step5(w, r1, r2)

	return unmarkY(string(w))
}

// yMark is a private-use rune substituted for a consonant "y" that begins a
// syllable (after a vowel, or word-initial), so the region/vowel scanner can
// treat it as a consonant the way the reference algorithm's capital-Y does.
const yMark = ''

func markInitialY(word string) string {
	r := []rune(word)
	for i, c := range r {
		if c != 'y' {
			continue
		}
		if i == 0 {
			r[i] = yMark
		} else if isVowel(r[i-1]) {
			r[i] = yMark
		}
	}
	return string(r)
}

func unmarkY(s string) string {
	return strings.ReplaceAll(s, string(yMark), "y")
}

func isVowel(c rune) bool {
	return strings.ContainsRune(vowels, c) && c != yMark
}

func isConsonant(c rune) bool {
	return !isVowel(c)
}

// regions computes R1 and R2 as defined by the Snowball specification: R1 is
// the region after the first consonant following a vowel; R2 is the same
// applied again within R1. Both are expressed as rune offsets into w.
func regions(w []rune) (r1, r2 int) {
	r1 = findRegion(w, 0)
	// Special-case prefixes extend R1 past the standard computation, per the
	// Porter2 spec, for words beginning "gener", "commun", "arsen".
	for _, pfx := range []string{"gener", "commun", "arsen"} {
		if hasPrefix(w, pfx) {
			r1 = len(pfx)
			break
		}
	}
	r2 = findRegion(w, r1)
	return r1, r2
}

func findRegion(w []rune, from int) int {
	n := len(w)
	i := from
	for i < n && isVowel(w[i]) {
		i++
	}
	for i < n && isConsonant(w[i]) {
		i++
	}
	if i < n {
		return i + 1
	}
	return n
}

func clampRegions(w []rune, r1, r2 int) (int, int) {
	if r1 > len(w) {
		r1 = len(w)
	}
	if r2 > len(w) {
		r2 = len(w)
	}
	return r1, r2
}

func hasPrefix(w []rune, pfx string) bool {
	p := []rune(pfx)
	if len(w) < len(p) {
		return false
	}
	for i, c := range p {
		if w[i] != c {
			return false
		}
	}
	return true
}

func hasSuffix(w []rune, sfx string) bool {
	s := []rune(sfx)
	if len(w) < len(s) {
		return false
	}
	for i, c := range s {
		if w[len(w)-len(s)+i] != c {
			return false
		}
	}
	return true
}

func trimSuffix(w []rune, sfx string) []rune {
	return w[:len(w)-len([]rune(sfx))]
}

// inRegion reports whether offset idx lies within the region that starts at
// offset region (i.e. idx >= region).
func inRegion(idx, region int) bool {
	return idx >= region
}

// suffixInRegion reports whether the suffix sfx, if present at the end of w,
// starts at or after the given region boundary.
func suffixInRegion(w []rune, sfx string, region int) bool {
	if !hasSuffix(w, sfx) {
		return false
	}
	start := len(w) - len([]rune(sfx))
	return inRegion(start, region)
}

func containsVowel(w []rune) bool {
	for _, c := range w {
		if isVowel(c) {
			return true
		}
	}
	return false
}

// endsShortSyllable reports whether w ends in a short syllable: either a
// vowel followed by a non-w/x/Y consonant, preceded by a consonant (i.e. at
// word position >= 2 from the end forming VC with the preceding a
// consonant), or the entire word is consonant-vowel-consonant with the word
// starting at position 0.
func endsShortSyllable(w []rune) bool {
	n := len(w)
	if n < 2 {
		return false
	}
	last := w[n-1]
	secondLast := w[n-2]
	if n == 2 {
		return isVowel(secondLast) && isConsonant(last)
	}
	third := w[n-3]
	return isConsonant(third) && isVowel(secondLast) && isConsonant(last) &&
		last != 'w' && last != 'x' && last != yMark
}

// isShortWord reports whether w is a "short word": R1 is empty (i.e. equal
// to len(w)) and w ends in a short syllable.
func isShortWord(w []rune, r1 int) bool {
	return r1 >= len(w) && endsShortSyllable(w)
}

// step0 removes a trailing apostrophe-based possessive: "'s'", "'s", "'".
func step0(w []rune) []rune {
	for _, sfx := range []string{"'s'", "'s", "'"} {
		if hasSuffix(w, sfx) {
			return trimSuffix(w, sfx)
		}
	}
	return w
}

// step1a handles plurals and -ed/-ing derivatives' special plural cases.
func step1a(w []rune) []rune {
	switch {
	case hasSuffix(w, "sses"):
		return append(trimSuffix(w, "sses"), 's', 's')
	case hasSuffix(w, "ied"), hasSuffix(w, "ies"):
		var stem []rune
		if hasSuffix(w, "ies") {
			stem = trimSuffix(w, "ies")
		} else {
			stem = trimSuffix(w, "ied")
		}
		if len(stem) > 1 {
			return append(stem, 'i')
		}
		return append(stem, 'i', 'e')
	case hasSuffix(w, "us"), hasSuffix(w, "ss"):
		return w
	case hasSuffix(w, "s"):
		stem := trimSuffix(w, "s")
		if hasVowelBeforeLastTwo(stem) {
			return stem
		}
		return w
	}
	return w
}

// hasVowelBeforeLastTwo reports whether stem (w with the trailing "s"
// removed) contains a vowel anywhere except its final letter — the
// "preceding word part contains a vowel not immediately before the s"
// condition the spec uses to decide whether to strip a bare plural "s"
// (so "gas" keeps its s, "gaps" and "cats" lose it).
func hasVowelBeforeLastTwo(stem []rune) bool {
	n := len(stem)
	if n == 0 {
		return false
	}
	limit := n - 1
	for i := 0; i < limit; i++ {
		if isVowel(stem[i]) {
			return true
		}
	}
	return false
}

// step1b handles -eed/-eedly, -ed/-edly/-ing/-ingly.
func step1b(w []rune, r1 int) []rune {
	if suffixInRegion(w, "eedly", r1) {
		return append(trimSuffix(w, "eedly"), 'e', 'e')
	}
	if suffixInRegion(w, "eed", r1) {
		return append(trimSuffix(w, "eed"), 'e', 'e')
	}
	for _, sfx := range []string{"ingly", "edly", "ing", "ed"} {
		if hasSuffix(w, sfx) {
			stem := trimSuffix(w, sfx)
			if !containsVowel(stem) {
				continue
			}
			return finishStep1b(stem)
		}
	}
	return w
}

func finishStep1b(stem []rune) []rune {
	switch {
	case hasSuffix(stem, "at"), hasSuffix(stem, "bl"), hasSuffix(stem, "iz"):
		return append(stem, 'e')
	case endsDoubleConsonant(stem) && !hasSuffix(stem, "ll") && !hasSuffix(stem, "ss") && !hasSuffix(stem, "zz"):
		return stem[:len(stem)-1]
	case isShortWord(stem, findRegion(stem, 0)):
		return append(stem, 'e')
	}
	return stem
}

func endsDoubleConsonant(w []rune) bool {
	n := len(w)
	if n < 2 {
		return false
	}
	return w[n-1] == w[n-2] && isConsonant(w[n-1])
}

// step1c replaces a terminal y/Y with i when preceded by a consonant, unless
// that y is the first letter of the word.
func step1c(w []rune) []rune {
	n := len(w)
	if n < 2 {
		return w
	}
	last := w[n-1]
	if last != 'y' && last != yMark {
		return w
	}
	if isConsonant(w[n-2]) {
		out := make([]rune, n)
		copy(out, w)
		out[n-1] = 'i'
		return out
	}
	return w
}

type suffixRule struct {
	suffix      string
	replacement string
}

// step2 applies a fixed table of long-suffix replacements when the suffix
// lies within R1.
func step2(w []rune, r1 int) []rune {
	rules := []suffixRule{
		{"ization", "ize"}, {"ational", "ate"}, {"fulness", "ful"},
		{"ousness", "ous"}, {"iveness", "ive"}, {"tional", "tion"},
		{"biliti", "ble"}, {"lessli", "less"}, {"entli", "ent"},
		{"ation", "ate"}, {"alism", "al"}, {"aliti", "al"},
		{"ousli", "ous"}, {"iviti", "ive"}, {"fulli", "ful"},
		{"enci", "ence"}, {"anci", "ance"}, {"abli", "able"},
		{"izer", "ize"}, {"ator", "ate"}, {"alli", "al"},
		{"bli", "ble"},
		{"ogi", "og"}, // only after "l", handled specially below
		{"li", ""},    // only after valid-li-ending letter, handled specially below
	}
	for _, rule := range rules {
		if !suffixInRegion(w, rule.suffix, r1) {
			continue
		}
		switch rule.suffix {
		case "ogi":
			if !hasSuffix(w, "logi") {
				continue
			}
		case "li":
			stem := trimSuffix(w, "li")
			if len(stem) == 0 || !strings.ContainsRune("cdeghkmnrt", stem[len(stem)-1]) {
				continue
			}
		}
		stem := trimSuffix(w, rule.suffix)
		return append(stem, []rune(rule.replacement)...)
	}
	return w
}

// step3 applies a second fixed table of suffix replacements within R1, with
// "-ative" additionally requiring R2.
func step3(w []rune, r1, r2 int) []rune {
	rules := []suffixRule{
		{"ational", "ate"}, {"tional", "tion"}, {"alize", "al"},
		{"icate", "ic"}, {"iciti", "ic"}, {"ative", ""},
		{"ical", "ic"}, {"ness", ""}, {"ful", ""},
	}
	for _, rule := range rules {
		if !suffixInRegion(w, rule.suffix, r1) {
			continue
		}
		if rule.suffix == "ative" && !suffixInRegion(w, rule.suffix, r2) {
			continue
		}
		stem := trimSuffix(w, rule.suffix)
		return append(stem, []rune(rule.replacement)...)
	}
	return w
}

// step4 deletes a fixed set of suffixes when they lie within R2 ("-ion" is
// additionally conditioned on being preceded by "s" or "t").
func step4(w []rune, r2 int) []rune {
	suffixes := []string{
		"al", "ance", "ence", "er", "ic", "able", "ible", "ant",
		"ement", "ment", "ent", "ism", "ate", "iti", "ous", "ive", "ize",
	}
	for _, sfx := range suffixes {
		if suffixInRegion(w, sfx, r2) {
			return trimSuffix(w, sfx)
		}
	}
	if suffixInRegion(w, "ion", r2) {
		stem := trimSuffix(w, "ion")
		if len(stem) > 0 && (stem[len(stem)-1] == 's' || stem[len(stem)-1] == 't') {
			return stem
		}
	}
	return w
}

// step5 deletes a final "e" (in R2, or in R1 when not preceded by a short
// syllable) and degeminates a final "l" in R2 preceded by another "l".
func step5(w []rune, r1, r2 int) []rune {
	n := len(w)
	if n > 0 && w[n-1] == 'e' {
		idx := n - 1
		if inRegion(idx, r2) {
			return w[:n-1]
		}
		if inRegion(idx, r1) && !endsShortSyllable(w[:n-1]) {
			return w[:n-1]
		}
	}
	if n > 0 && w[n-1] == 'l' && inRegion(n-1, r2) && n >= 2 && w[n-2] == 'l' {
		return w[:n-1]
	}
	return w
}
