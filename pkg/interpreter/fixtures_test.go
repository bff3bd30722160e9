package interpreter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFixtures(t *testing.T) {
	root := filepath.Join("..", "..", "fixtures")
	count := 0
	walkFixtures(t, root, func(dir string) {
		count++
		name, _ := filepath.Rel(root, dir)
		t.Run(filepath.ToSlash(name), func(t *testing.T) {
			runFixture(t, dir)
		})
	})
	if count == 0 {
		t.Fatalf("no fixtures found under %s", root)
	}
}

func walkFixtures(t *testing.T, dir string, fn func(string)) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	hasManifest := false
	for _, entry := range entries {
		if entry.Type().IsRegular() && entry.Name() == "manifest.json" {
			hasManifest = true
		}
	}
	if hasManifest {
		fn(dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			walkFixtures(t, filepath.Join(dir, entry.Name()), fn)
		}
	}
}
