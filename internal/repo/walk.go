package repo

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MarkdownExt is the suffix a file needs to be indexed
const MarkdownExt = ".md"

// WalkMarkdown lazily yields the slash-separated paths, relative to root, of
// every markdown file under root.
//
// Directories are visited top-down. Inside a directory its files are yielded
// first in lexicographic order, then its subdirectories are descended in
// lexicographic order. Directories whose name starts with "." are skipped with
// their whole subtree. A missing root yields nothing.
func WalkMarkdown(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walkDir(root, "", yield)
	}
}

// walkDir returns false once the consumer stops iterating
func walkDir(root, rel string, yield func(string, error) bool) bool {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		if rel == "" && errors.Is(err, fs.ErrNotExist) {
			return true
		}
		return yield("", err)
	}

	// os.ReadDir sorts by name
	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(root, filepath.FromSlash(rel), name)

		switch {
		case entry.IsDir():
			dirs = append(dirs, name)
		case isRegular(entry, full) && strings.HasSuffix(name, MarkdownExt):
			if !yield(path.Join(rel, name), nil) {
				return false
			}
		}
	}

	for _, name := range dirs {
		if isHidden(name) {
			continue
		}
		if !walkDir(root, path.Join(rel, name), yield) {
			return false
		}
	}
	return true
}

// isRegular reports whether entry is a regular file or a symlink to one
func isRegular(entry fs.DirEntry, full string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
