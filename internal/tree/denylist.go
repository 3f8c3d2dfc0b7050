package tree

// DefaultDenylist names the directories skipped when scanning a scaffold
// directory: version-control metadata, dependency caches and build output.
var DefaultDenylist = []string{"node_modules", ".git", ".DS_Store", "dist", "build"}

// Denylist is a set of directory base names excluded from directory scans.
type Denylist map[string]struct{}

// NewDenylist builds a Denylist from names. With no names it returns the
// default list.
func NewDenylist(names ...string) Denylist {
	if len(names) == 0 {
		names = DefaultDenylist
	}
	d := make(Denylist, len(names))
	for _, n := range names {
		d[n] = struct{}{}
	}
	return d
}

// Skip reports whether a directory with the given base name must be pruned.
func (d Denylist) Skip(name string) bool {
	_, ok := d[name]
	return ok
}

// IgnoredFiles names regular files dropped from directory scans wherever they
// appear. Directory denylists never apply to files.
var IgnoredFiles = []string{".DS_Store"}

// IgnoreFile reports whether a regular file with the given base name is
// dropped from directory scans.
func IgnoreFile(name string) bool {
	for _, n := range IgnoredFiles {
		if n == name {
			return true
		}
	}
	return false
}
