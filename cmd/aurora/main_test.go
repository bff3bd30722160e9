package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/driver"
	"aurora/interpreter-go/pkg/parser"
)

func TestResolveAuroraHomeEnv(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cache")
	t.Setenv("AURORA_HOME", target)

	got, err := resolveAuroraHome()
	if err != nil {
		t.Fatalf("resolveAuroraHome error: %v", err)
	}
	if got != target {
		t.Fatalf("resolveAuroraHome = %q, want %q", got, target)
	}
}

func TestResolveAuroraHomeDefault(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("AURORA_HOME", "")
	t.Setenv("HOME", tmp)

	got, err := resolveAuroraHome()
	if err != nil {
		t.Fatalf("resolveAuroraHome error: %v", err)
	}
	if want := filepath.Join(tmp, ".aurora"); got != want {
		t.Fatalf("resolveAuroraHome = %q, want %q", got, want)
	}
}

func TestLoadLockfileForManifest_NoDepsMissingLock(t *testing.T) {
	root := t.TempDir()
	manifest := &driver.Manifest{Path: filepath.Join(root, driver.ManifestFileName), Name: "app"}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if lock != nil {
		t.Fatalf("expected nil lock, got %#v", lock)
	}
}

func TestLoadLockfileForManifest_WithDepsMissingLock(t *testing.T) {
	root := t.TempDir()
	manifest := &driver.Manifest{
		Path:         filepath.Join(root, driver.ManifestFileName),
		Name:         "app",
		Dependencies: map[string]*driver.DependencySpec{"lib": {Path: "../lib"}},
	}
	_, err := loadLockfileForManifest(manifest)
	if err == nil || !strings.Contains(err.Error(), "aurora deps install") {
		t.Fatalf("expected missing lock error, got %v", err)
	}
}

func TestLoadLockfileForManifest_RootMismatch(t *testing.T) {
	root := t.TempDir()
	manifest := &driver.Manifest{Path: filepath.Join(root, driver.ManifestFileName), Name: "app"}
	if err := driver.WriteLockfile(driver.NewLockfile("other", cliToolVersion), driver.LockPathFor(manifest)); err != nil {
		t.Fatalf("WriteLockfile: %v", err)
	}
	_, err := loadLockfileForManifest(manifest)
	if err == nil || !strings.Contains(err.Error(), `lockfile root "other" does not match`) {
		t.Fatalf("expected root mismatch, got %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	out, _ := captureOutput(t)
	if code := run([]string{"version"}); code != 0 {
		t.Fatalf("version exit code %d", code)
	}
	if got := out.String(); got != cliToolVersion+"\n" {
		t.Fatalf("version output %q", got)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	_, errOut := captureOutput(t)
	if code := run([]string{"bogus"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(errOut.String(), `unknown command "bogus"`) {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
}

func TestRunEntryDirectFileNoManifest(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, "main.au"), "let a = 2; a * 21")

	out, _ := captureOutput(t)
	if code := run([]string{"main.au"}); code != 0 {
		t.Fatalf("run returned exit code %d, want 0", code)
	}
	if got := out.String(); got != "42\n" {
		t.Fatalf("stdout = %q, want 42", got)
	}
}

func TestRunEntryUsesManifestMainAndPrelude(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, driver.ManifestFileName), `
name: app
main: src/main.au
prelude: lib/inc.au
`)
	writeFile(t, filepath.Join(dir, "lib", "inc.au"), "let inc = fn(x) { x + 1 };")
	writeFile(t, filepath.Join(dir, "src", "main.au"), "inc(40)")

	out, errOut := captureOutput(t)
	if code := run([]string{"run"}); code != 0 {
		t.Fatalf("run returned exit code %d: %s", code, errOut.String())
	}
	if got := out.String(); got != "41\n" {
		t.Fatalf("stdout = %q, want 41", got)
	}
}

func TestRunEntryNullResultPrintsNothing(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, "main.au"), "if (false) { 1 }")

	out, _ := captureOutput(t)
	if code := run([]string{"run", "main.au"}); code != 0 {
		t.Fatalf("run returned exit code %d", code)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestRunEntryReportsRuntimeError(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, "main.au"), "let a = 1; a + true; 99")

	out, errOut := captureOutput(t)
	if code := run([]string{"main.au"}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected stdout %q", out.String())
	}
	if !strings.Contains(errOut.String(), "ERROR: type mismatch: INTEGER+BOOLEAN") {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
}

func TestRunEntryReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, "main.au"), "let = 1")

	_, errOut := captureOutput(t)
	if code := run([]string{"main.au"}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "main.au:1:5: expected token IDENT, got =") {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
}

func TestRunEntryWithoutMainFails(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, driver.ManifestFileName), "name: app")

	_, errOut := captureOutput(t)
	if code := run([]string{"run"}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "no entry script") {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
}

func TestFmtPrintsCanonicalForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messy.au")
	writeFile(t, path, "let   x=1+2*3;x")

	out, _ := captureOutput(t)
	if code := run([]string{"fmt", path}); code != 0 {
		t.Fatalf("fmt exit code %d", code)
	}
	if got, want := out.String(), "let x = 1 + 2 * 3;\nx;\n"; got != want {
		t.Fatalf("fmt output %q, want %q", got, want)
	}
}

func TestFmtWriteInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "closure.au")
	writeFile(t, path, "let make=fn(x){fn(y){x+y}};make(1)(2)")

	out, _ := captureOutput(t)
	if code := run([]string{"fmt", "-w", path}); code != 0 {
		t.Fatalf("fmt -w exit code %d", code)
	}
	if out.Len() != 0 {
		t.Fatalf("fmt -w should not print, got %q", out.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read formatted file: %v", err)
	}
	want := "let make = fn(x) {\n  fn(y) {\n    x + y;\n  };\n};\nmake(1)(2);\n"
	if string(data) != want {
		t.Fatalf("formatted file %q, want %q", data, want)
	}
}

func TestFmtRefusesInvalidSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.au")
	writeFile(t, path, "let x = ;")

	_, errOut := captureOutput(t)
	if code := run([]string{"fmt", "-w", path}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "no prefix parse function for ; found") {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "let x = ;\n" {
		t.Fatalf("invalid file was rewritten: %q", data)
	}
}

func TestParseCompactAndJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.au")
	source := "let x = 1 + 2 * 3; x"
	writeFile(t, path, source)

	out, _ := captureOutput(t)
	if code := run([]string{"parse", path}); code != 0 {
		t.Fatalf("parse exit code %d", code)
	}
	if got, want := out.String(), "let x = (1 + (2 * 3)); x\n"; got != want {
		t.Fatalf("parse output %q, want %q", got, want)
	}

	out.Reset()
	if code := run([]string{"parse", "-json", path}); code != 0 {
		t.Fatalf("parse -json exit code %d", code)
	}
	decoded, err := ast.DecodeProgram(out.Bytes())
	if err != nil {
		t.Fatalf("DecodeProgram: %v\n%s", err, out.String())
	}
	expected, diags := parser.ParseSource(source)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
	if !reflect.DeepEqual(decoded, expected) {
		t.Fatalf("JSON tree %s does not match %s", decoded, expected)
	}
}

func TestParseTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.au")
	writeFile(t, path, "let x = 1;")

	out, _ := captureOutput(t)
	if code := run([]string{"parse", "-tokens", path}); code != 0 {
		t.Fatalf("parse -tokens exit code %d", code)
	}
	want := strings.Join([]string{
		`LET("let")@1:1`,
		`IDENT("x")@1:5`,
		`=("=")@1:7`,
		`INT("1")@1:9`,
		`;(";")@1:10`,
		`EOF("")@2:1`,
	}, "\n") + "\n"
	if got := out.String(); got != want {
		t.Fatalf("tokens output %q, want %q", got, want)
	}
}

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = prevOut, prevErr
	})
	return &out, &errOut
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
