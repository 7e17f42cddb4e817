package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

// Library is a flat directory of media files (background videos or music
// tracks) referenced by fuzzy name from scenario documents.
type Library struct {
	dir   string
	files []string
}

// OpenLibrary lists a media directory. The listing order is stable (sorted)
// so the first-file fallback in Resolve is deterministic.
func OpenLibrary(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open media library %s: %w", dir, err)
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir()
	})
	sort.Strings(files)

	return &Library{dir: dir, files: files}, nil
}

// Files returns the file names in the library.
func (l *Library) Files() []string { return l.files }

// Path returns the absolute path of a file in the library.
func (l *Library) Path(name string) string {
	return filepath.Join(l.dir, name)
}

// Resolve fuzzy-matches a requested name against the library and returns the
// full path of the chosen file.
func (l *Library) Resolve(requested string) (string, error) {
	name, err := Resolve(requested, l.files)
	if err != nil {
		return "", err
	}
	return l.Path(name), nil
}
