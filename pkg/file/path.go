package file

import (
	"path/filepath"
	"strings"
)

func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}

	return filepath.Join(dir, filename[:lastDot]+ext)
}

// AppendToStem inserts suffix between the file name and its extension:
// "a/movie.srt" with "_es" becomes "a/movie_es.srt". A non-empty dir
// replaces the original directory.
func AppendToStem(path, suffix, dir string) string {
	if path == "" {
		return path
	}
	if dir == "" {
		dir = filepath.Dir(path)
	}
	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	if stem == "" {
		stem, ext = filename, ""
	}
	return filepath.Join(dir, stem+suffix+ext)
}
