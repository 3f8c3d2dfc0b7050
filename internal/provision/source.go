package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/files"
	"github.com/shaun/scaffold/server/internal/tree"
)

// Source is where the files to push come from: a directory tree or an
// explicit list.
type Source struct {
	fsys  fs.FS
	label string
	list  []files.Entry
}

// FromDir reads files from a directory on disk.
func FromDir(dir string) Source {
	return Source{fsys: os.DirFS(dir), label: dir}
}

// FromFS reads files from fsys rooted at ".".
func FromFS(fsys fs.FS, label string) Source {
	return Source{fsys: fsys, label: label}
}

// FromFiles pushes entries as given.
func FromFiles(entries []files.Entry) Source {
	return Source{list: entries}
}

func (s Source) isDir() bool { return s.fsys != nil }

// Files returns the explicit file list, nil for a directory source.
func (s Source) Files() []files.Entry { return s.list }

// readDir walks the source directory, pruning denylisted subtrees. Files that
// are not valid UTF-8 are skipped. A scan that keeps nothing is EmptyInput.
func readDir(s Source, deny tree.Denylist, log *zap.Logger) ([]files.Entry, error) {
	const errCtx = "reading directory"

	info, err := fs.Stat(s.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fault.Newf(fault.NotFound, "directory not found: %s", s.label)
		}
		return nil, fmt.Errorf("%s %s: %w", errCtx, s.label, err)
	}
	if !info.IsDir() {
		return nil, fault.Newf(fault.NotFound, "not a directory: %s", s.label)
	}

	set := files.NewSet()
	err = fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && deny.Skip(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if tree.IgnoreFile(d.Name()) {
			return nil
		}
		b, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			log.Warn("skipping unreadable file", zap.String("path", p), zap.Error(err))
			return nil
		}
		if !utf8.Valid(b) {
			log.Warn("skipping non-UTF-8 file", zap.String("path", p))
			return nil
		}
		return set.Add(p, string(b))
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", errCtx, s.label, err)
	}
	if set.Len() == 0 {
		return nil, fault.Newf(fault.EmptyInput, "no files to push in %s", s.label)
	}
	return set.Entries(), nil
}
