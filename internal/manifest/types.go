// Package manifest defines the per-search-property manifest JSON schema
// (§6), its validation, manifest-source-string parsing (§6's "bucket:"/
// "dir:" grammar), and the fetcher contract external collaborators
// implement. Grounded on internal/ingestion/types.go's request/response
// schema shape.
package manifest

import "strings"

// ResolveURL builds a document's full URL from the manifest's base URL and
// the document's slug: trailing slashes are stripped from the base,
// leading slashes from the slug.
func ResolveURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(slug, "/")
}

// Manifest is one search property's published document set.
type Manifest struct {
	// SearchProperty is derived from the source filename, not the JSON body.
	SearchProperty string `json:"-"`

	URL                   string   `json:"url"`
	Aliases               []string `json:"aliases"`
	IncludeInGlobalSearch bool     `json:"includeInGlobalSearch"`
	Documents             []Document `json:"documents"`
}

// Document is one entry in a manifest's documents array.
type Document struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Preview  string   `json:"preview"`
	Text     string   `json:"text"`
	Tags     string   `json:"tags"`
	Headings []string `json:"headings"`
	Links    []string `json:"links"`
	Weight   *float64 `json:"weight"`
}

// WeightOrDefault returns the document's configured weight, defaulting to 1.
func (d Document) WeightOrDefault() float64 {
	if d.Weight == nil {
		return 1
	}
	return *d.Weight
}

// JoinedHeadings returns the document's headings joined by a single space,
// per §6 ("joined by a single space before indexing").
func (d Document) JoinedHeadings() string {
	out := ""
	for i, h := range d.Headings {
		if i > 0 {
			out += " "
		}
		out += h
	}
	return out
}
