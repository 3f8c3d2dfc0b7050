// Package tree turns flat file lists into Git tree entries. Nothing here
// performs I/O.
package tree

import (
	"fmt"
	"path"
	"strings"

	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/files"
)

const (
	// ModeFile is the Git mode of a regular, non-executable file.
	ModeFile = "100644"
	// TypeBlob is the Git object type of file content.
	TypeBlob = "blob"
)

// Item is one entry of a tree creation request.
type Item struct {
	Path    string
	Mode    string
	Type    string
	Content string
}

// NormalizePath converts p to a clean, slash-separated relative path. Absolute
// paths and paths with ".." segments are rejected so nothing can land outside
// the repository root.
func NormalizePath(p string) (string, error) {
	s := strings.ReplaceAll(p, `\`, "/")
	if strings.TrimSpace(s) == "" {
		return "", invalidPath(p, "path is empty")
	}
	if strings.HasPrefix(s, "/") || hasDriveLetter(s) {
		return "", invalidPath(p, "path must be relative")
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return "", invalidPath(p, "path must not contain '..'")
		}
	}
	s = path.Clean(s)
	if s == "." {
		return "", invalidPath(p, "path names no file")
	}
	return s, nil
}

func hasDriveLetter(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func invalidPath(p, msg string) error {
	return fault.Invalid(
		fmt.Sprintf("invalid file path %q: %s", p, msg),
		fault.FieldError{Field: "path", Message: msg},
	)
}

// BuildItems maps each entry to a blob item with a normalized path. Two
// entries that normalize to the same path are rejected.
func BuildItems(entries []files.Entry) ([]Item, error) {
	seen := files.NewSet()
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		p, err := NormalizePath(e.Path)
		if err != nil {
			return nil, err
		}
		if err := seen.Add(p, ""); err != nil {
			return nil, err
		}
		items = append(items, Item{Path: p, Mode: ModeFile, Type: TypeBlob, Content: e.Content})
	}
	return items, nil
}
