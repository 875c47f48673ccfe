// Package ranker implements the Dirichlet+ relevance score, the
// phrase-adjacency post-filter, and HITS link analysis (§4.5). Grounded on
// internal/searcher/ranker/ranker.go's RankParams/Rank(postings, params,
// getDocInfo, limit) shape and its sort.Slice-plus-insertion-order
// tie-break, generalized from BM25 to Dirichlet+/HITS.
package ranker

import (
	"math"
	"sort"

	"github.com/marian-search/marian/internal/ftsindex"
	"github.com/marian-search/marian/internal/query"
)

// Canonical tuning constants (§4.5).
const (
	Mu         = 2000.0
	Delta      = 0.05
	MaxMatches = 150
	hitsMaxIter = 200
	hitsEpsilon = 1e-5
)

// Match is a transient per-query record (§3).
type Match struct {
	DocID          int
	RelevancyScore float64
	Terms          map[string]struct{}
	AuthorityScore float64
	HubScore       float64
	Score          float64
}

type candidate struct {
	match       *Match
	termWeights map[string]float64
}

// Rank executes the full ranking procedure (Steps A-D) against idx for q,
// given the original ordered query terms fed to collectCorrelations.
func Rank(idx *ftsindex.FTSIndex, q *query.Query, queryTerms []string, useHits bool) []Match {
	weights := idx.CollectCorrelations(queryTerms)

	candidates := make(map[int]*candidate)
	var order []int

	for term := range weights {
		hits := idx.Trie().Search(term, true)
		for docID, actualTerms := range hits {
			if q.Filter != nil && !q.Filter(docID) {
				continue
			}
			c, ok := candidates[docID]
			if !ok {
				c = &candidate{
					match:       &Match{DocID: docID, Terms: make(map[string]struct{}), AuthorityScore: 1, HubScore: 1},
					termWeights: make(map[string]float64),
				}
				candidates[docID] = c
				order = append(order, docID)
			}
			for actual := range actualTerms {
				c.match.Terms[actual] = struct{}{}
				w, ok := weights[actual]
				if !ok {
					w = 0.1
				}
				if cur, ok := c.termWeights[actual]; !ok || w > cur {
					c.termWeights[actual] = w
				}
			}
		}
	}

	qlen := float64(len(queryTerms))
	fields := idx.FieldOrder()
	for _, docID := range order {
		c := candidates[docID]
		docWeight := idx.DocWeight(docID)
		for actualTerm, tfq := range c.termWeights {
			te, ok := idx.TermEntry(actualTerm)
			if !ok {
				continue
			}
			for _, fc := range fields {
				field, ok := idx.Field(fc.Name)
				if !ok {
					continue
				}
				docEntry, ok := field.Docs[docID]
				if !ok {
					continue
				}
				p := float64(te.TimesAppeared[fc.Name]) / math.Max(float64(field.TotalTokensSeen), 500)
				if p == 0 {
					continue
				}
				tfd := float64(docEntry.TermFrequencies[actualTerm])
				dl := float64(docEntry.Len)
				main := tfq*(log2(1+tfd/(Mu*p))+log2(1+Delta/(Mu*p))) + qlen*log2(Mu/(dl+Mu))
				c.match.RelevancyScore += main * field.Weight * field.LengthWeight() * docWeight
			}
		}
	}

	if len(q.StemmedPhrases) > 0 {
		var kept []int
		for _, docID := range order {
			if matchesAllPhrases(idx, q.StemmedPhrases, docID) {
				kept = append(kept, docID)
			} else {
				delete(candidates, docID)
			}
		}
		order = kept
	}

	if !useHits {
		return finalize(order, candidates, func(c *candidate) float64 { return c.match.RelevancyScore })
	}
	return rankWithHITS(idx, order, candidates)
}

func log2(x float64) float64 { return math.Log2(x) }

// matchesAllPhrases implements Step C. Positions are drawn from the
// combined (all-field) TermEntry.Positions table: the field-separator bump
// of 1 leaves a gap of one position between the last token of a field and
// the first token of the next, so a phrase never matches across a field
// boundary.
func matchesAllPhrases(idx *ftsindex.FTSIndex, phrases [][]string, docID int) bool {
	for _, phrase := range phrases {
		if !matchesPhrase(idx, phrase, docID) {
			return false
		}
	}
	return true
}

func matchesPhrase(idx *ftsindex.FTSIndex, components []string, docID int) bool {
	positions := make([][]int, len(components))
	for i, comp := range components {
		te, ok := idx.TermEntry(comp)
		if !ok {
			return false
		}
		ps := te.Positions[docID]
		if len(ps) == 0 {
			return false
		}
		positions[i] = ps
	}

	for _, start := range positions[0] {
		pos := start
		ok := true
		for i := 1; i < len(positions); i++ {
			found := false
			for _, p := range positions[i] {
				if p == pos+1 {
					pos = p
					found = true
					break
				}
			}
			if !found {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func finalize(order []int, candidates map[int]*candidate, scoreOf func(*candidate) float64) []Match {
	type scored struct {
		m     Match
		idx   int
		score float64
	}
	out := make([]scored, 0, len(order))
	for i, docID := range order {
		c := candidates[docID]
		c.match.Score = scoreOf(c)
		out = append(out, scored{m: *c.match, idx: i, score: c.match.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].idx < out[j].idx
	})
	if len(out) > MaxMatches {
		out = out[:MaxMatches]
	}
	result := make([]Match, len(out))
	for i, s := range out {
		result[i] = s.m
	}
	return result
}

// rankWithHITS implements Step D's useHits=true branch.
func rankWithHITS(idx *ftsindex.FTSIndex, root []int, candidates map[int]*candidate) []Match {
	inBase := make(map[int]bool)
	var baseOrder []int
	addToBase := func(docID int) {
		if inBase[docID] {
			return
		}
		inBase[docID] = true
		baseOrder = append(baseOrder, docID)
		if _, ok := candidates[docID]; !ok {
			candidates[docID] = &candidate{match: &Match{DocID: docID, Terms: make(map[string]struct{}), AuthorityScore: 1, HubScore: 1}}
		}
	}
	for _, docID := range root {
		addToBase(docID)
	}
	for _, docID := range root {
		for _, n := range idx.LinkGraph().IncomingDocIDs(docID) {
			addToBase(n)
		}
		for _, n := range idx.LinkGraph().OutgoingDocIDs(docID) {
			addToBase(n)
		}
	}

	n := len(baseOrder)
	idIndex := make(map[int]int, n)
	for i, id := range baseOrder {
		idIndex[id] = i
	}
	authority := make([]float64, n)
	hub := make([]float64, n)
	for i := range authority {
		authority[i] = 1
		hub[i] = 1
	}

	prevNormA, prevNormH := -1.0, -1.0
	for iter := 0; iter < hitsMaxIter; iter++ {
		newAuthority := make([]float64, n)
		for i, id := range baseOrder {
			var sum float64
			for _, u := range idx.LinkGraph().IncomingDocIDs(id) {
				if j, ok := idIndex[u]; ok {
					sum += hub[j]
				}
			}
			newAuthority[i] = sum
		}
		normA := l2Norm(newAuthority)
		normalize(newAuthority, normA)

		newHub := make([]float64, n)
		for i, id := range baseOrder {
			var sum float64
			for _, w := range idx.LinkGraph().OutgoingDocIDs(id) {
				if j, ok := idIndex[w]; ok {
					sum += newAuthority[j]
				}
			}
			newHub[i] = sum
		}
		normH := l2Norm(newHub)
		normalize(newHub, normH)

		authority, hub = newAuthority, newHub

		if prevNormA >= 0 && math.Abs(normA-prevNormA) < hitsEpsilon && math.Abs(normH-prevNormH) < hitsEpsilon {
			break
		}
		prevNormA, prevNormH = normA, normH
	}

	for i, id := range baseOrder {
		c := candidates[id]
		a := authority[i]
		if math.IsNaN(a) {
			a = 1e-10
		}
		c.match.AuthorityScore = a
		c.match.HubScore = hub[i]
	}

	var survivors []int
	for _, id := range baseOrder {
		if candidates[id].match.RelevancyScore > 0 {
			survivors = append(survivors, id)
		}
	}
	if len(survivors) == 0 {
		return nil
	}

	var sum float64
	for _, id := range survivors {
		sum += candidates[id].match.RelevancyScore
	}
	mean := sum / float64(len(survivors))
	var variance float64
	for _, id := range survivors {
		d := candidates[id].match.RelevancyScore - mean
		variance += d * d
	}
	variance /= float64(len(survivors))
	tau := math.Sqrt(variance)

	var maxRelevancy, maxAuthority float64
	for _, id := range survivors {
		m := candidates[id].match
		if m.RelevancyScore >= tau {
			if m.RelevancyScore > maxRelevancy {
				maxRelevancy = m.RelevancyScore
			}
			if m.AuthorityScore > maxAuthority {
				maxAuthority = m.AuthorityScore
			}
		}
	}
	if maxRelevancy == 0 {
		maxRelevancy = 1
	}
	if maxAuthority == 0 {
		maxAuthority = 1
	}

	for _, id := range survivors {
		m := candidates[id].match
		score := log2(m.RelevancyScore/maxRelevancy+1) + log2(m.AuthorityScore/maxAuthority+1)*(1/log2(4))
		if m.RelevancyScore < tau*2.5 {
			score -= tau / m.RelevancyScore
		}
		m.Score = score
	}

	survivorCandidates := make(map[int]*candidate, len(survivors))
	for _, id := range survivors {
		survivorCandidates[id] = candidates[id]
	}
	return finalize(survivors, survivorCandidates, func(c *candidate) float64 { return c.match.Score })
}

func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func normalize(v []float64, norm float64) {
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] /= norm
	}
}
