// Package workdir resolves the gnd project root, supporting redirection
// via .gnd-root files so several checkouts can share one store.
package workdir

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	rootFile = ".gnd-root"
	dataDir  = ".gnd"
)

// ResolveBaseDir walks up from dir to the nearest directory holding a
// .gnd-root file or a .gnd directory. A .gnd-root file's content names the
// real root; relative paths are resolved against the file's directory.
// When neither marker exists, dir is returned unchanged.
func ResolveBaseDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for current := abs; ; {
		if target, ok := readRootFile(current); ok {
			return target
		}
		if info, err := os.Stat(filepath.Join(current, dataDir)); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

func readRootFile(dir string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(dir, rootFile))
	if err != nil {
		return "", false
	}
	resolved := strings.TrimSpace(string(content))
	if resolved == "" {
		return "", false
	}
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(dir, resolved)
	}
	return filepath.Clean(resolved), true
}
