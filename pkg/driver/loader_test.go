package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aurora/interpreter-go/pkg/interpreter"
	"aurora/interpreter-go/pkg/runtime"
)

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestFileName), "name: demo\n")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	script := filepath.Join(nested, "main.au")
	writeFile(t, script, "1")

	for _, start := range []string{nested, script} {
		got, err := FindManifest(start)
		if err != nil {
			t.Fatalf("FindManifest(%s): %v", start, err)
		}
		if got != filepath.Join(root, ManifestFileName) {
			t.Fatalf("FindManifest(%s) = %s", start, got)
		}
	}
}

func TestFindManifestNotFound(t *testing.T) {
	if _, err := FindManifest(t.TempDir()); !errors.Is(err, ErrManifestNotFound) {
		t.Fatalf("expected ErrManifestNotFound, got %v", err)
	}
}

func TestParseFileReportsDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.au")
	writeFile(t, path, "let = 1")
	_, err := ParseFile(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.HasPrefix(perr.Error(), path+":1:5: expected token IDENT, got =") {
		t.Fatalf("unexpected message %q", perr.Error())
	}
}

func TestSessionRunsPreludesThenEntry(t *testing.T) {
	base := t.TempDir()
	libDir := filepath.Join(base, "mathlib")
	writeFile(t, filepath.Join(libDir, ManifestFileName), "name: mathlib\nprelude: [double.au]\n")
	writeFile(t, filepath.Join(libDir, "double.au"), "let double = fn(x) { x * 2 };")

	appDir := filepath.Join(base, "app")
	writeFile(t, filepath.Join(appDir, ManifestFileName), `name: app
main: main.au
prelude: helpers.au
dependencies:
  mathlib: ../mathlib
repl:
  max_depth: 64
`)
	writeFile(t, filepath.Join(appDir, "helpers.au"), "let inc = fn(x) { x + 1 };")
	writeFile(t, filepath.Join(appDir, "main.au"), "inc(double(20))")

	manifest, err := LoadManifest(filepath.Join(appDir, ManifestFileName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	lock := NewLockfile(manifest.Name, "test")
	lock.Put(&LockedPackage{Name: "mathlib", Version: "path", Source: "path:" + libDir, Path: libDir})

	session := NewSession(manifest, lock)
	files, err := session.PreludeFiles()
	if err != nil {
		t.Fatalf("PreludeFiles: %v", err)
	}
	wantFiles := []string{filepath.Join(libDir, "double.au"), filepath.Join(appDir, "helpers.au")}
	if strings.Join(files, "|") != strings.Join(wantFiles, "|") {
		t.Fatalf("PreludeFiles = %#v, want %#v", files, wantFiles)
	}
	if err := session.LoadPreludes(); err != nil {
		t.Fatalf("LoadPreludes: %v", err)
	}
	if keys := strings.Join(session.Env().Keys(), ","); keys != "double,inc" {
		t.Fatalf("root bindings = %q", keys)
	}

	entry, err := session.EntryPath()
	if err != nil {
		t.Fatalf("EntryPath: %v", err)
	}
	val, err := session.RunFile(entry)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if got, ok := val.(runtime.IntegerValue); !ok || got.Val != 41 {
		t.Fatalf("expected 41, got %#v", val)
	}
}

func TestSessionRejectsModifiedGitCheckout(t *testing.T) {
	base := t.TempDir()
	libDir := filepath.Join(base, "cache", "mathlib")
	writeFile(t, filepath.Join(libDir, ManifestFileName), "name: mathlib\nprelude: double.au\n")
	writeFile(t, filepath.Join(libDir, "double.au"), "let double = fn(x) { x * 2 };")
	sum, err := ChecksumDir(libDir)
	if err != nil {
		t.Fatalf("ChecksumDir: %v", err)
	}

	appDir := filepath.Join(base, "app")
	writeFile(t, filepath.Join(appDir, ManifestFileName), "name: app\ndependencies:\n  mathlib:\n    git: https://example.com/mathlib.git\n    tag: v1\n")
	manifest, err := LoadManifest(filepath.Join(appDir, ManifestFileName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	lock := NewLockfile(manifest.Name, "test")
	lock.Put(&LockedPackage{
		Name:     "mathlib",
		Version:  "v1@abc123",
		Source:   "git+https://example.com/mathlib.git@abc123",
		Path:     libDir,
		Checksum: sum,
	})

	if err := NewSession(manifest, lock).LoadPreludes(); err != nil {
		t.Fatalf("LoadPreludes with intact checkout: %v", err)
	}

	writeFile(t, filepath.Join(libDir, "double.au"), "let double = fn(x) { x * 3 };")
	session := NewSession(manifest, lock)
	err = session.LoadPreludes()
	if !errors.Is(err, ErrChecksumMismatch) || !strings.Contains(err.Error(), "aurora deps install") {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	if _, ok := session.Env().Get("double"); ok {
		t.Fatalf("no prelude should run from a modified checkout")
	}
}

func TestSessionHonoursMaxDepth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestFileName), "name: deep\nrepl:\n  max_depth: 50\n")
	script := filepath.Join(dir, "loop.au")
	writeFile(t, script, "let f = fn(n) { f(n + 1) }; f(0)")

	manifest, err := LoadManifest(filepath.Join(dir, ManifestFileName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	_, err = NewSession(manifest, nil).RunFile(script)
	if !errors.Is(err, interpreter.ErrMaxDepth) {
		t.Fatalf("expected ErrMaxDepth, got %v", err)
	}
}

func TestSessionScriptError(t *testing.T) {
	script := filepath.Join(t.TempDir(), "main.au")
	writeFile(t, script, "let a = 1; a + true; 5")
	_, err := NewSession(nil, nil).RunFile(script)
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ScriptError, got %v", err)
	}
	if serr.Message != "type mismatch: INTEGER+BOOLEAN" {
		t.Fatalf("unexpected message %q", serr.Message)
	}
}

func TestSessionRequiresLockedDependencies(t *testing.T) {
	path := writeManifest(t, "name: app\ndependencies:\n  missing: ../missing\n")
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	err = NewSession(manifest, nil).LoadPreludes()
	if err == nil || !strings.Contains(err.Error(), `dependency "missing" is not locked`) {
		t.Fatalf("expected unlocked dependency error, got %v", err)
	}
}

func TestSessionWithoutEntry(t *testing.T) {
	if _, err := NewSession(nil, nil).EntryPath(); err == nil {
		t.Fatalf("expected missing entry error")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
