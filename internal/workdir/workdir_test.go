package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func mkdir(t *testing.T, parts ...string) string {
	t.Helper()
	p := filepath.Join(parts...)
	if err := os.MkdirAll(p, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", p, err)
	}
	return p
}

func assertSamePath(t *testing.T, want, got string) {
	t.Helper()
	wantEval, err := filepath.EvalSymlinks(want)
	if err != nil {
		t.Fatalf("eval %s: %v", want, err)
	}
	gotEval, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatalf("eval %s: %v", got, err)
	}
	if wantEval != gotEval {
		t.Errorf("ResolveBaseDir = %q, want %q", got, want)
	}
}

func TestResolveBaseDir_FindsDataDirFromSubdir(t *testing.T) {
	project := t.TempDir()
	mkdir(t, project, dataDir)
	sub := mkdir(t, project, "plots", "north")

	assertSamePath(t, project, ResolveBaseDir(sub))
}

func TestResolveBaseDir_FollowsRootFile(t *testing.T) {
	shared := mkdir(t, t.TempDir(), "shared")
	checkout := t.TempDir()
	if err := os.WriteFile(filepath.Join(checkout, rootFile), []byte(shared+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := mkdir(t, checkout, "nested")

	assertSamePath(t, shared, ResolveBaseDir(sub))
}

func TestResolveBaseDir_RelativeRootFile(t *testing.T) {
	parent := t.TempDir()
	checkout := mkdir(t, parent, "checkout")
	shared := mkdir(t, parent, "shared")
	if err := os.WriteFile(filepath.Join(checkout, rootFile), []byte("../shared"), 0644); err != nil {
		t.Fatal(err)
	}

	assertSamePath(t, shared, ResolveBaseDir(checkout))
}

func TestResolveBaseDir_EmptyRootFileIgnored(t *testing.T) {
	project := t.TempDir()
	mkdir(t, project, dataDir)
	if err := os.WriteFile(filepath.Join(project, rootFile), []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	assertSamePath(t, project, ResolveBaseDir(project))
}

func TestResolveBaseDir_NoMarkers(t *testing.T) {
	dir := mkdir(t, t.TempDir(), "plain")
	if got := ResolveBaseDir(dir); got != dir {
		t.Errorf("ResolveBaseDir = %q, want unchanged %q", got, dir)
	}
}
