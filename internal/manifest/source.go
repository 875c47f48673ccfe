package manifest

import (
	"fmt"
	"strings"
)

// SourceKind distinguishes the two manifest-source grammars (§6).
type SourceKind int

const (
	SourceDir SourceKind = iota
	SourceBucket
)

// Source is a parsed manifest-source string.
type Source struct {
	Kind   SourceKind
	Path   string // dir: the filesystem path
	Bucket string // bucket: the bucket name
	Prefix string // bucket: the key prefix
}

// ParseSource parses a manifest source string of the form
// "bucket:<bucket>/<prefix>" or "dir:<path>". Anything else is a fatal
// configuration error at startup (§6).
func ParseSource(raw string) (Source, error) {
	switch {
	case strings.HasPrefix(raw, "dir:"):
		path := strings.TrimPrefix(raw, "dir:")
		if path == "" {
			return Source{}, fmt.Errorf("manifest source %q: empty path", raw)
		}
		return Source{Kind: SourceDir, Path: path}, nil

	case strings.HasPrefix(raw, "bucket:"):
		rest := strings.TrimPrefix(raw, "bucket:")
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Source{}, fmt.Errorf("manifest source %q: empty bucket", raw)
		}
		if prefix == "" {
			return Source{}, fmt.Errorf("manifest source %q: empty prefix", raw)
		}
		return Source{Kind: SourceBucket, Bucket: bucket, Prefix: prefix}, nil

	default:
		return Source{}, fmt.Errorf("manifest source %q: must start with \"dir:\" or \"bucket:\"", raw)
	}
}
