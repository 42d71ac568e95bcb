// Package fileref resolves file references to local paths. A reference is
// either a local filesystem path or a remote URI (s3:// or http(s)://);
// remote references are fetched into a local cache directory on first use.
package fileref

import (
	"fmt"
	"strings"
)

// Reference is a local path or a remote URI pointing at an input artifact
// (component database, semantic fields file, component map, weather archive).
type Reference string

// IsRemote reports whether the reference must be fetched over the network.
func (r Reference) IsRemote() bool {
	s := string(r)
	return strings.HasPrefix(s, "s3://") ||
		strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://")
}

// String returns the raw reference.
func (r Reference) String() string {
	return string(r)
}

// Base returns the final path element of the reference.
func (r Reference) Base() string {
	s := strings.TrimRight(string(r), "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Stem returns the base name of the reference without its final extension.
func (r Reference) Stem() string {
	base := r.Base()
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// FetchError reports a reference that could not be resolved to a local path.
type FetchError struct {
	URI string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
