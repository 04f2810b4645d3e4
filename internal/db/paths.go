package db

import (
	"path/filepath"
	"strings"
)

// ProjectRelativePath rewrites a file path for storage: paths inside the
// project root become root-relative with forward slashes, so a store can move
// between machines. Paths outside the root are kept absolute.
func ProjectRelativePath(p, baseDir string) string {
	if p == "" {
		return p
	}
	abs := p
	if !filepath.IsAbs(abs) {
		var err error
		if abs, err = filepath.Abs(p); err != nil {
			return filepath.ToSlash(filepath.Clean(p))
		}
	}
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return filepath.ToSlash(abs)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
