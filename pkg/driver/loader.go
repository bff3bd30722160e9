package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/interpreter"
	"aurora/interpreter-go/pkg/lexer"
	"aurora/interpreter-go/pkg/parser"
	"aurora/interpreter-go/pkg/runtime"
)

// SourceExt is the extension of Aurora source files.
const SourceExt = ".au"

// ErrManifestNotFound is returned by FindManifest when no package.yml exists
// in the start directory or any of its parents.
var ErrManifestNotFound = errors.New("driver: package.yml not found")

// ParseError reports the parser diagnostics for one source file.
type ParseError struct {
	Path        string
	Diagnostics []parser.Diagnostic
}

func (e *ParseError) Error() string {
	var b strings.Builder
	for idx, diag := range e.Diagnostics {
		if idx > 0 {
			b.WriteByte('\n')
		}
		if diag.Pos.IsZero() {
			fmt.Fprintf(&b, "%s: %s", e.Path, diag.Message)
			continue
		}
		fmt.Fprintf(&b, "%s:%s", e.Path, diag)
	}
	return b.String()
}

// ScriptError reports an Aurora error value that ended a script.
type ScriptError struct {
	Path    string
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: ERROR: %s", e.Path, e.Message)
}

// FindManifest walks from start towards the filesystem root and returns the
// first package.yml it finds. start may be a file or a directory.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrManifestNotFound
		}
		dir = parent
	}
}

// ParseFile reads and parses path. Diagnostics are returned as a *ParseError.
func ParseFile(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	program, diags := parser.ParseTokens(lexer.Lex(string(data)))
	if len(diags) > 0 {
		return nil, &ParseError{Path: path, Diagnostics: diags}
	}
	return program, nil
}

// Session is one root environment shared by every script it runs: the
// preludes of locked dependencies, the project prelude and finally the entry.
type Session struct {
	Interp   *interpreter.Interpreter
	Manifest *Manifest
	Lock     *Lockfile
}

// NewSession prepares an interpreter for manifest. Both manifest and lock may
// be nil, in which case the session has no preludes.
func NewSession(manifest *Manifest, lock *Lockfile) *Session {
	opts := interpreter.Options{}
	if manifest != nil {
		opts.MaxDepth = manifest.Repl.MaxDepth
	}
	return &Session{
		Interp:   interpreter.NewWithOptions(opts),
		Manifest: manifest,
		Lock:     lock,
	}
}

// Env returns the session root environment.
func (s *Session) Env() *runtime.Environment {
	return s.Interp.GlobalEnvironment()
}

// PreludeFiles lists the scripts LoadPreludes evaluates, in order.
func (s *Session) PreludeFiles() ([]string, error) {
	if s.Manifest == nil {
		return nil, nil
	}
	var files []string
	for _, name := range s.Manifest.DependencyNames() {
		pkg, ok := s.Lock.Find(name)
		if !ok {
			return nil, fmt.Errorf("loader: dependency %q is not locked; run `aurora deps install`", name)
		}
		if err := pkg.Verify(); err != nil {
			return nil, fmt.Errorf("loader: dependency %q: %w; run `aurora deps install`", name, err)
		}
		depManifest, err := LoadManifest(filepath.Join(pkg.Path, ManifestFileName))
		if err != nil {
			return nil, fmt.Errorf("loader: dependency %q: %w", name, err)
		}
		for _, script := range depManifest.Prelude {
			files = append(files, depManifest.Resolve(script))
		}
	}
	for _, script := range s.Manifest.Prelude {
		files = append(files, s.Manifest.Resolve(script))
	}
	return files, nil
}

// LoadPreludes evaluates every prelude script into the root environment.
func (s *Session) LoadPreludes() error {
	files, err := s.PreludeFiles()
	if err != nil {
		return err
	}
	for _, path := range files {
		if _, err := s.RunFile(path); err != nil {
			return err
		}
	}
	return nil
}

// RunFile parses and evaluates path in the root environment. An Aurora error
// value is returned as a *ScriptError.
func (s *Session) RunFile(path string) (runtime.Value, error) {
	program, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	val, err := s.Interp.EvaluateProgram(program)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if errVal, ok := val.(runtime.ErrorValue); ok {
		return nil, &ScriptError{Path: path, Message: errVal.Message}
	}
	return val, nil
}

// EntryPath returns the manifest's main script as an absolute path.
func (s *Session) EntryPath() (string, error) {
	if s.Manifest == nil || s.Manifest.Main == "" {
		return "", fmt.Errorf("loader: no entry script; pass a file or set main in %s", ManifestFileName)
	}
	return s.Manifest.Resolve(s.Manifest.Main), nil
}
