package file

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindByExt returns the regular files under dir whose extension matches ext
// case-insensitively, sorted by path. Hidden files are skipped.
func FindByExt(dir, ext string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ext) {
			found = append(found, path)
		}
		return nil
	})

	sort.Strings(found)
	return found, err
}
