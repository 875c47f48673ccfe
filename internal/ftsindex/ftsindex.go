// Package ftsindex builds and queries the in-memory inverted index: per-field
// posting lists and term statistics, the token-position table, the link
// graph, and synonym correlations (§4.4). Grounded on the concurrent
// map-of-maps index in internal/indexer/index/memory_index.go (the
// AddDocument/Search/Snapshot shape survives; the posting representation is
// replaced by per-field TermEntry/DocumentEntry pairs per the spec's data
// model) and the per-shard candidate merging in
// internal/searcher/executor/sharded.go.
package ftsindex

import (
	"strings"
	"sync"

	"github.com/marian-search/marian/internal/stemmer"
	"github.com/marian-search/marian/internal/trie"
)

// FieldConfig declares one field's name and ranking weight, in index
// construction order (canonical: text=1, headings=5, title=10, tags=75/10).
type FieldConfig struct {
	Name   string
	Weight float64
}

// DocumentEntry is one document's statistics within a single field.
type DocumentEntry struct {
	Len             int
	TermFrequencies map[string]int
}

// Field is a named posting bucket shared by every document that has
// non-empty text for it.
type Field struct {
	Name            string
	Weight          float64
	Docs            map[int]*DocumentEntry
	TotalTokensSeen int
	lengthWeight    float64
}

// LengthWeight returns |docs| / Σ|uniqueTermsPerDoc|, computed once by
// Finalize after index construction completes.
func (f *Field) LengthWeight() float64 { return f.lengthWeight }

// TermEntry aggregates, for one stemmed token, the documents that contain
// it, per-field appearance counts, and per-doc global token positions.
type TermEntry struct {
	Docs          map[int]struct{}
	TimesAppeared map[string]int
	Positions     map[int][]int
}

// Correlation is one synonym edge: key -> (Synonym, Weight).
type Correlation struct {
	Synonym string
	Weight  float64
}

// Document is the input to Add: a single indexable document.
type Document struct {
	SearchProperty        string
	URL                   string
	Fields                map[string]string
	Links                 []string
	Weight                float64
	Title                 string
	Preview               string
	IncludeInGlobalSearch bool
}

// FTSIndex is one immutable-after-build index generation.
type FTSIndex struct {
	mu sync.RWMutex

	fieldOrder []FieldConfig
	fields     map[string]*Field
	terms      map[string]*TermEntry
	trie       *trie.Trie
	docs       map[int]Document
	nextID     int
	link       *LinkGraph

	correlations map[string][]Correlation
}

// New creates an empty index configured with the given ordered fields.
func New(fieldOrder []FieldConfig) *FTSIndex {
	idx := &FTSIndex{
		fieldOrder:   fieldOrder,
		fields:       make(map[string]*Field, len(fieldOrder)),
		terms:        make(map[string]*TermEntry),
		trie:         trie.New(),
		docs:         make(map[int]Document),
		link:         newLinkGraph(),
		correlations: make(map[string][]Correlation),
	}
	for _, fc := range fieldOrder {
		idx.fields[fc.Name] = &Field{Name: fc.Name, Weight: fc.Weight, Docs: make(map[int]*DocumentEntry)}
	}
	return idx
}

// CorrelateWord registers a synonym correlation. word's stemmed form (which
// may itself be a space-joined stemmed bigram) maps to (stem(synonym),
// closeness). Multiple correlations for the same key accumulate.
func (idx *FTSIndex) CorrelateWord(word, synonym string, closeness float64) {
	key := stemKey(word)
	idx.mu.Lock()
	idx.correlations[key] = append(idx.correlations[key], Correlation{Synonym: stemmer.Stem(strings.ToLower(synonym)), Weight: closeness})
	idx.mu.Unlock()
}

func (idx *FTSIndex) addCorrelation(key, synonym string, weight float64) {
	idx.mu.Lock()
	idx.correlations[key] = append(idx.correlations[key], Correlation{Synonym: synonym, Weight: weight})
	idx.mu.Unlock()
}

func stemKey(word string) string {
	parts := strings.Fields(strings.ToLower(word))
	stemmed := make([]string, len(parts))
	for i, p := range parts {
		stemmed[i] = stemmer.Stem(p)
	}
	return strings.Join(stemmed, " ")
}

// Add assigns doc the next dense id, records its link-graph entry, tokenizes
// every configured field fuzzily, and registers the resulting tokens into
// the term table and trie. Returns the assigned id.
func (idx *FTSIndex) Add(doc Document) int {
	idx.mu.Lock()
	id := idx.nextID
	idx.nextID++
	idx.docs[id] = doc
	idx.mu.Unlock()

	if doc.URL != "" {
		idx.link.registerDoc(doc.URL, id)
		for _, l := range doc.Links {
			idx.link.addEdge(doc.URL, l)
		}
	}

	position := 0
	for _, fc := range idx.fieldOrder {
		text := doc.Fields[fc.Name]
		if text == "" {
			continue
		}
		field := idx.fields[fc.Name]
		idx.mu.Lock()
		docEntry, ok := field.Docs[id]
		if !ok {
			docEntry = &DocumentEntry{TermFrequencies: make(map[string]int)}
			field.Docs[id] = docEntry
		}
		idx.mu.Unlock()

		seenInField := make(map[string]bool)
		for _, raw := range stemmer.Tokenize(text, true) {
			if stemmer.IsStopWord(raw) {
				continue
			}
			if base, weight, ok := stemmer.SigilBase(raw); ok {
				idx.addCorrelation(base, raw, weight)
			}
			stemmed := stemmer.Stem(raw)

			idx.mu.Lock()
			docEntry.TermFrequencies[stemmed]++
			docEntry.Len++
			field.TotalTokensSeen++
			te, ok := idx.terms[stemmed]
			if !ok {
				te = &TermEntry{Docs: make(map[int]struct{}), TimesAppeared: make(map[string]int), Positions: make(map[int][]int)}
				idx.terms[stemmed] = te
			}
			te.Docs[id] = struct{}{}
			if !seenInField[stemmed] {
				te.TimesAppeared[fc.Name]++
				seenInField[stemmed] = true
			}
			te.Positions[id] = append(te.Positions[id], position)
			idx.mu.Unlock()

			idx.trie.Insert(stemmed, id)
			position++
		}
		position++ // field separator bump, per §4.4/§9 design note.
	}
	return id
}

// Finalize computes each field's lazily-defined LengthWeight. Call once
// after every Add for this generation has completed.
func (idx *FTSIndex) Finalize() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, f := range idx.fields {
		uniqueTermsSum := 0
		for _, de := range f.Docs {
			uniqueTermsSum += len(de.TermFrequencies)
		}
		if uniqueTermsSum == 0 {
			f.lengthWeight = 0
			continue
		}
		f.lengthWeight = float64(len(f.Docs)) / float64(uniqueTermsSum)
	}
}

// CollectCorrelations seeds the stemmed-term weight map with every stemmed
// query term at weight 1, merges correlations keyed by each term and by
// each stemmed-adjacent-pair bigram, then applies one further transitive
// hop over the resulting set (§4.4; the extra-hop depth, not fixed-point
// expansion, is an intentionally preserved open question — see DESIGN.md).
func (idx *FTSIndex) CollectCorrelations(queryTerms []string) map[string]float64 {
	result := make(map[string]float64, len(queryTerms))
	stems := make([]string, len(queryTerms))
	for i, t := range queryTerms {
		s := stemmer.Stem(t)
		stems[i] = s
		if cur, ok := result[s]; !ok || 1 > cur {
			result[s] = 1
		}
	}

	apply := func(key string) {
		idx.mu.RLock()
		corrs := idx.correlations[key]
		idx.mu.RUnlock()
		for _, c := range corrs {
			if cur, ok := result[c.Synonym]; !ok || c.Weight > cur {
				result[c.Synonym] = c.Weight
			}
		}
	}

	for _, s := range stems {
		apply(s)
	}
	for i := 0; i+1 < len(stems); i++ {
		apply(stems[i] + " " + stems[i+1])
	}

	firstPass := make([]string, 0, len(result))
	for k := range result {
		firstPass = append(firstPass, k)
	}
	for _, k := range firstPass {
		apply(k)
	}

	return result
}

// Trie exposes the index's prefix trie for candidate generation.
func (idx *FTSIndex) Trie() *trie.Trie { return idx.trie }

// LinkGraph exposes the index's link graph for HITS.
func (idx *FTSIndex) LinkGraph() *LinkGraph { return idx.link }

// FieldOrder returns the configured fields in construction order.
func (idx *FTSIndex) FieldOrder() []FieldConfig { return idx.fieldOrder }

// Field returns the named field's posting bucket.
func (idx *FTSIndex) Field(name string) (*Field, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	f, ok := idx.fields[name]
	return f, ok
}

// TermEntry returns the term table entry for a stemmed token.
func (idx *FTSIndex) TermEntry(token string) (*TermEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	te, ok := idx.terms[token]
	return te, ok
}

// Document returns the stored document metadata for id.
func (idx *FTSIndex) Document(id int) (Document, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	d, ok := idx.docs[id]
	return d, ok
}

// DocWeight returns the document's configured weight, defaulting to 1.
func (idx *FTSIndex) DocWeight(id int) float64 {
	idx.mu.RLock()
	d, ok := idx.docs[id]
	idx.mu.RUnlock()
	if !ok || d.Weight == 0 {
		return 1
	}
	return d.Weight
}

// Len returns the number of documents added to this generation.
func (idx *FTSIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nextID
}
