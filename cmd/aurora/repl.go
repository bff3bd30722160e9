package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"aurora/interpreter-go/pkg/driver"
	"aurora/interpreter-go/pkg/interpreter"
	"aurora/interpreter-go/pkg/parser"
	"aurora/interpreter-go/pkg/runtime"
)

const (
	defaultPrompt      = "Aurora: "
	continuationPrompt = "... "
	historyFileName    = "history"
)

// lineReader is the part of liner.State the read loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func runRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	maxDepth := fs.Int("max-depth", 0, "maximum call depth (0 uses the manifest or built-in default)")
	noPrelude := fs.Bool("no-prelude", false, "skip prelude scripts from package.yml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	manifest, err := loadManifestFrom(".")
	if err != nil {
		if !errors.Is(err, driver.ErrManifestNotFound) {
			fmt.Fprintf(stderr, "failed to load manifest: %v\n", err)
			return 1
		}
		manifest = nil
	}
	if manifest != nil && *maxDepth > 0 {
		manifest.Repl.MaxDepth = *maxDepth
	}
	session, err := newReplSession(manifest, *noPrelude)
	if err != nil {
		reportError(err)
		return 1
	}
	if manifest == nil && *maxDepth > 0 {
		session.Interp = interpreter.NewWithOptions(interpreter.Options{MaxDepth: *maxDepth})
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := replHistoryPath(manifest)
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	return replLoop(ln, session, replPrompt(manifest))
}

func newReplSession(manifest *driver.Manifest, skipPrelude bool) (*driver.Session, error) {
	if manifest == nil || skipPrelude {
		return driver.NewSession(manifest, nil), nil
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		return nil, err
	}
	session := driver.NewSession(manifest, lock)
	if err := session.LoadPreludes(); err != nil {
		return nil, err
	}
	return session, nil
}

func replPrompt(manifest *driver.Manifest) string {
	if manifest != nil && manifest.Repl.Prompt != "" {
		return manifest.Repl.Prompt
	}
	return defaultPrompt
}

// replHistoryPath returns the manifest's history file, or the shared one
// under AURORA_HOME. An empty result disables history.
func replHistoryPath(manifest *driver.Manifest) string {
	if manifest != nil && manifest.Repl.History != "" {
		return manifest.Resolve(manifest.Repl.History)
	}
	home, err := resolveAuroraHome()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return ""
	}
	return filepath.Join(home, historyFileName)
}

// replLoop reads and evaluates inputs in the session root environment until
// end of input or `.exit`.
func replLoop(r lineReader, session *driver.Session, prompt string) int {
	for {
		code, ok := readByParseProbe(r, prompt, continuationPrompt)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		trimmed := strings.TrimSpace(code)
		switch trimmed {
		case "":
			continue
		case ".exit":
			return 0
		case ".env":
			printBindings(stdout, session.Env())
			continue
		}
		r.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		val, diags, err := session.Interp.EvaluateSource(code)
		if err != nil {
			fmt.Fprintln(stderr, err)
			continue
		}
		if len(diags) > 0 {
			for _, diag := range diags {
				fmt.Fprintln(stderr, diag)
			}
			continue
		}
		if runtime.IsError(val) {
			fmt.Fprintln(stderr, interpreter.Inspect(val))
			continue
		}
		fmt.Fprintln(stdout, interpreter.Inspect(val))
	}
}

// readByParseProbe keeps reading lines while the accumulated input only
// fails to parse because it ended too early.
func readByParseProbe(r lineReader, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := r.Prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ".") {
			return src, true
		}
		if _, diags := parser.ParseSource(src); parser.IsIncomplete(diags) {
			continue
		}
		return src, true
	}
}

func printBindings(w io.Writer, env *runtime.Environment) {
	bindings := env.Snapshot()
	if len(bindings) == 0 {
		fmt.Fprintln(w, "(no bindings)")
		return
	}
	for _, name := range env.Keys() {
		fmt.Fprintf(w, "%s = %s\n", name, interpreter.Inspect(bindings[name]))
	}
}
