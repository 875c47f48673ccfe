package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Entry is one raw manifest file as returned by a Fetcher, before JSON
// parsing: (body, lastModified, searchProperty derived from filename) per
// the §6 listener contract.
type Entry struct {
	Body           string
	LastModified   time.Time
	SearchProperty string
}

// Fetcher lists and reads raw manifest files from a configured source.
// Implementations (local filesystem walker, S3 listing) are external
// collaborators out of core scope (§1); this package only defines the
// contract plus a filesystem reference implementation.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Entry, []error)
}

var filenamePattern = regexp.MustCompile(`([^/]+)\.json$`)

// searchPropertyFromFilename extracts the search property tag from a
// manifest filename, per §6: "([^/]+)\.json$"; ok is false if the filename
// doesn't match.
func searchPropertyFromFilename(name string) (string, bool) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DirFetcher lists *.json files in a local directory. Reference
// implementation of Fetcher for manifest sources of the form "dir:<path>".
type DirFetcher struct {
	Path string
}

// NewDirFetcher builds a DirFetcher for path.
func NewDirFetcher(path string) *DirFetcher {
	return &DirFetcher{Path: path}
}

func (f *DirFetcher) Fetch(ctx context.Context) ([]Entry, []error) {
	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return nil, []error{fmt.Errorf("listing %s: %w", f.Path, err)}
	}

	var out []Entry
	var errs []error
	for _, de := range entries {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			return out, errs
		}
		if de.IsDir() {
			continue
		}
		property, ok := searchPropertyFromFilename(de.Name())
		if !ok {
			errs = append(errs, fmt.Errorf("%s: does not match *.json", de.Name()))
			continue
		}
		full := filepath.Join(f.Path, de.Name())
		body, err := os.ReadFile(full)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", full, err))
			continue
		}
		info, err := de.Info()
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", full, err))
			continue
		}
		out = append(out, Entry{
			Body:           string(body),
			LastModified:   info.ModTime(),
			SearchProperty: property,
		})
	}
	return out, errs
}

// BucketFetcher lists objects under a bucket/prefix. Contract-only stub:
// S3 listing is an external collaborator out of core scope (§1); wiring a
// real object-storage SDK belongs to a deployment, not the core engine.
type BucketFetcher struct {
	Bucket string
	Prefix string
}

// NewBucketFetcher builds a BucketFetcher for the given bucket and prefix.
func NewBucketFetcher(bucket, prefix string) *BucketFetcher {
	return &BucketFetcher{Bucket: bucket, Prefix: prefix}
}

func (f *BucketFetcher) Fetch(ctx context.Context) ([]Entry, []error) {
	return nil, []error{fmt.Errorf("bucket fetcher for s3://%s/%s: not implemented in core", f.Bucket, f.Prefix)}
}

// Parse parses the raw JSON body of one manifest file into a Manifest,
// stamping SearchProperty from the entry and validating the result.
func Parse(entry Entry) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal([]byte(entry.Body), &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", entry.SearchProperty, err)
	}
	m.SearchProperty = entry.SearchProperty
	m.URL = strings.TrimRight(m.URL, "/")
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewFetcher builds the appropriate Fetcher for a parsed Source.
func NewFetcher(src Source) Fetcher {
	switch src.Kind {
	case SourceBucket:
		return NewBucketFetcher(src.Bucket, src.Prefix)
	default:
		return NewDirFetcher(src.Path)
	}
}
