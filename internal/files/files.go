// Package files holds the flat file lists pushed into new repositories.
package files

import (
	"fmt"

	"github.com/shaun/scaffold/server/internal/fault"
)

// Entry is one file to push. Path is slash-separated and relative to the
// repository root.
type Entry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Set is an insertion-ordered collection of entries with unique paths.
type Set struct {
	entries []Entry
	index   map[string]int
}

func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Add appends an entry. A path that is already present is rejected.
func (s *Set) Add(path, content string) error {
	if _, ok := s.index[path]; ok {
		return fault.Invalid(
			fmt.Sprintf("duplicate file path %q", path),
			fault.FieldError{Field: "path", Message: "duplicate path " + path},
		)
	}
	s.index[path] = len(s.entries)
	s.entries = append(s.entries, Entry{Path: path, Content: content})
	return nil
}

// Put stores content under path, replacing an existing entry in place.
func (s *Set) Put(path, content string) {
	if i, ok := s.index[path]; ok {
		s.entries[i].Content = content
		return
	}
	s.index[path] = len(s.entries)
	s.entries = append(s.entries, Entry{Path: path, Content: content})
}

func (s *Set) Len() int { return len(s.entries) }

// Entries returns a copy of the entries in insertion order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
