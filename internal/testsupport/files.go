package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes, creating
// parent directories. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		t.Fatalf("size %s: %v", path, err)
	}
}

// WriteTree creates each relative path under root as a one byte file and
// returns root.
func WriteTree(t testing.TB, root string, paths ...string) string {
	t.Helper()

	for _, rel := range paths {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), 1)
	}
	return root
}
