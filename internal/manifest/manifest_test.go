package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base, slug, want string
	}{
		{"https://docs.example.com/", "/guide/intro", "https://docs.example.com/guide/intro"},
		{"https://docs.example.com", "guide/intro", "https://docs.example.com/guide/intro"},
		{"https://docs.example.com///", "///guide", "https://docs.example.com/guide"},
	}
	for _, c := range cases {
		if got := ResolveURL(c.base, c.slug); got != c.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", c.base, c.slug, got, c.want)
		}
	}
}

func TestDocument_WeightOrDefault(t *testing.T) {
	var noWeight Document
	if got := noWeight.WeightOrDefault(); got != 1 {
		t.Errorf("nil weight default = %v, want 1", got)
	}
	w := 2.5
	withWeight := Document{Weight: &w}
	if got := withWeight.WeightOrDefault(); got != 2.5 {
		t.Errorf("weight = %v, want 2.5", got)
	}
}

func TestDocument_JoinedHeadings(t *testing.T) {
	d := Document{Headings: []string{"Intro", "Setup", "Usage"}}
	if got := d.JoinedHeadings(); got != "Intro Setup Usage" {
		t.Errorf("JoinedHeadings = %q", got)
	}
	if got := (Document{}).JoinedHeadings(); got != "" {
		t.Errorf("JoinedHeadings of empty doc = %q, want empty", got)
	}
}

func TestValidate(t *testing.T) {
	valid := &Manifest{URL: "https://example.com", Documents: []Document{{Slug: "a"}}}
	if err := Validate(valid); err != nil {
		t.Errorf("expected valid manifest to pass, got %v", err)
	}

	missingURL := &Manifest{Documents: []Document{{Slug: "a"}}}
	if err := Validate(missingURL); err == nil {
		t.Errorf("expected error for missing url")
	}

	noDocs := &Manifest{URL: "https://example.com"}
	if err := Validate(noDocs); err == nil {
		t.Errorf("expected error for empty documents")
	}
}

func TestValidDocuments_DropsEmptySlug(t *testing.T) {
	m := &Manifest{
		Documents: []Document{
			{Slug: "ok"},
			{Slug: ""},
			{Slug: "  "},
			{Slug: "also-ok"},
		},
	}
	valid, dropped := ValidDocuments(m)
	if len(valid) != 2 {
		t.Fatalf("valid = %d, want 2", len(valid))
	}
	if len(dropped) != 2 {
		t.Fatalf("dropped = %d, want 2", len(dropped))
	}
}

func TestParseSource(t *testing.T) {
	cases := []struct {
		raw     string
		wantErr bool
		kind    SourceKind
	}{
		{"dir:./manifests", false, SourceDir},
		{"dir:", true, 0},
		{"bucket:my-bucket/prefix", false, SourceBucket},
		{"bucket:my-bucket", true, 0},
		{"bucket:/prefix", true, 0},
		{"s3://nope", true, 0},
	}
	for _, c := range cases {
		src, err := ParseSource(c.raw)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseSource(%q): expected error", c.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSource(%q): unexpected error %v", c.raw, err)
		}
		if src.Kind != c.kind {
			t.Errorf("ParseSource(%q).Kind = %v, want %v", c.raw, src.Kind, c.kind)
		}
	}
}

func TestParse_StampsSearchPropertyAndTrimsURL(t *testing.T) {
	entry := Entry{
		Body:           `{"url":"https://example.com/","documents":[{"slug":"a"}]}`,
		SearchProperty: "docs",
	}
	m, err := Parse(entry)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.SearchProperty != "docs" {
		t.Errorf("SearchProperty = %q, want docs", m.SearchProperty)
	}
	if m.URL != "https://example.com" {
		t.Errorf("URL = %q, want trimmed", m.URL)
	}
}

func TestParse_InvalidManifestRejected(t *testing.T) {
	entry := Entry{Body: `{"documents":[]}`, SearchProperty: "docs"}
	if _, err := Parse(entry); err == nil {
		t.Errorf("expected validation error for empty documents")
	}
}

func TestParse_MalformedJSONRejected(t *testing.T) {
	entry := Entry{Body: `not json`, SearchProperty: "docs"}
	if _, err := Parse(entry); err == nil {
		t.Errorf("expected JSON decode error")
	}
}

func TestNewFetcher_DefaultsToDir(t *testing.T) {
	src := Source{Kind: SourceDir, Path: "/tmp/manifests"}
	f := NewFetcher(src)
	if _, ok := f.(*DirFetcher); !ok {
		t.Errorf("NewFetcher(dir source) = %T, want *DirFetcher", f)
	}
}

func TestDirFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFile := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("writing fixture %s: %v", name, err)
		}
	}
	writeFile("docs.json", `{"url":"https://example.com","documents":[{"slug":"a"}]}`)
	writeFile("blog.json", `{"url":"https://blog.example.com","documents":[{"slug":"b"}]}`)
	writeFile("ignored.txt", "not a manifest")

	f := NewDirFetcher(dir)
	entries, errs := f.Fetch(context.Background())
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (got errs=%v)", len(entries), errs)
	}
	if len(errs) != 1 {
		t.Fatalf("errs = %d, want 1 for the non-matching filename", len(errs))
	}

	byProperty := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byProperty[e.SearchProperty] = e
	}
	if _, ok := byProperty["docs"]; !ok {
		t.Errorf("expected entry for search property %q", "docs")
	}
	if _, ok := byProperty["blog"]; !ok {
		t.Errorf("expected entry for search property %q", "blog")
	}
}

func TestBucketFetcher_NotImplemented(t *testing.T) {
	f := NewBucketFetcher("my-bucket", "prefix")
	_, errs := f.Fetch(context.Background())
	if len(errs) != 1 {
		t.Fatalf("expected exactly one not-implemented error, got %v", errs)
	}
}

func TestNewFetcher_Bucket(t *testing.T) {
	src := Source{Kind: SourceBucket, Bucket: "b", Prefix: "p"}
	f := NewFetcher(src)
	if _, ok := f.(*BucketFetcher); !ok {
		t.Errorf("NewFetcher(bucket source) = %T, want *BucketFetcher", f)
	}
}
