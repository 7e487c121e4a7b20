// Package artifact derives where the asynchronously produced artifacts of an
// uploaded video live and fetches them from object storage.
package artifact

import (
	"fmt"
	"strings"
)

// Kind identifies a dependent artifact of a video.
type Kind int

const (
	Transcript Kind = iota
	Analysis
	Summary
)

// Kinds lists every artifact kind in a stable order.
var Kinds = []Kind{Transcript, Analysis, Summary}

func (k Kind) String() string {
	switch k {
	case Transcript:
		return "transcript"
	case Analysis:
		return "analysis"
	case Summary:
		return "summary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Folder returns the storage folder the artifact kind is written to.
func (k Kind) Folder() string {
	switch k {
	case Transcript:
		return "transcript"
	case Analysis:
		return "analysis"
	case Summary:
		return "summaries"
	default:
		return k.String()
	}
}

// ParseKind parses the string form of a kind. The folder name is accepted too.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == k.String() || s == k.Folder() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown artifact kind %q", s)
}

// BaseName returns the last path segment of key without its extension.
// Everything from the last "." on is removed.
func BaseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[:i]
	}
	return key
}

// Locate returns the storage key at which the artifact of the given kind for
// the video stored at key is expected. It does no validation: any input maps
// to some deterministic location.
func Locate(key string, kind Kind) string {
	return kind.Folder() + "/" + BaseName(key) + ".json"
}

// LocateAll returns the locations of every artifact kind for key.
func LocateAll(key string) map[Kind]string {
	locs := make(map[Kind]string, len(Kinds))
	for _, k := range Kinds {
		locs[k] = Locate(key, k)
	}
	return locs
}
