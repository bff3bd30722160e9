package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/driver"
	"aurora/interpreter-go/pkg/interpreter"
	"aurora/interpreter-go/pkg/lexer"
	"aurora/interpreter-go/pkg/runtime"
)

const cliToolVersion = "aurora-cli 0.1.0-dev"

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return runRepl(nil)
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:])
	case "repl":
		return runRepl(args[1:])
	case "fmt":
		return runFmt(args[1:])
	case "parse":
		return runParse(args[1:])
	case "deps":
		return runDeps(args[1:])
	default:
		if filepath.Ext(args[0]) == driver.SourceExt {
			return runEntry(args)
		}
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage()
		return 2
	}
}

// runEntry evaluates a script after the preludes of the nearest manifest.
// Without a file argument the manifest's main script is used.
func runEntry(args []string) int {
	if len(args) > 1 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return 1
	}

	start := "."
	if len(args) == 1 {
		start = args[0]
	}
	manifest, err := loadManifestFrom(start)
	if err != nil {
		if !errors.Is(err, driver.ErrManifestNotFound) || len(args) == 0 {
			fmt.Fprintf(stderr, "failed to load manifest: %v\n", err)
			return 1
		}
		manifest = nil
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	session := driver.NewSession(manifest, lock)
	entry := ""
	if len(args) == 1 {
		entry = args[0]
	} else if entry, err = session.EntryPath(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := session.LoadPreludes(); err != nil {
		reportError(err)
		return 1
	}
	val, err := session.RunFile(entry)
	if err != nil {
		reportError(err)
		return 1
	}
	if _, isNull := val.(runtime.NullValue); !isNull {
		fmt.Fprintln(stdout, interpreter.Inspect(val))
	}
	return 0
}

func runFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	write := fs.Bool("w", false, "write result to the source file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "aurora fmt requires at least one file")
		return 2
	}

	status := 0
	for _, path := range fs.Args() {
		program, err := driver.ParseFile(path)
		if err != nil {
			reportError(err)
			status = 1
			continue
		}
		formatted := ast.Format(program)
		if !*write {
			fmt.Fprint(stdout, formatted)
			continue
		}
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(stderr, "write %s: %v\n", path, err)
			status = 1
		}
	}
	return status
}

func runParse(args []string) int {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print the syntax tree as JSON")
	tokens := fs.Bool("tokens", false, "print the token stream instead of the tree")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "aurora parse requires exactly one file")
		return 2
	}

	if *tokens {
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			reportError(err)
			return 1
		}
		for _, tok := range lexer.Lex(string(data)) {
			fmt.Fprintln(stdout, tok)
		}
		return 0
	}

	program, err := driver.ParseFile(fs.Arg(0))
	if err != nil {
		reportError(err)
		return 1
	}
	if !*asJSON {
		fmt.Fprintln(stdout, program.String())
		return 0
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(program); err != nil {
		fmt.Fprintf(stderr, "encode: %v\n", err)
		return 1
	}
	return 0
}

func reportError(err error) {
	fmt.Fprintln(stderr, err)
}

func loadManifestFrom(start string) (*driver.Manifest, error) {
	manifestPath, err := driver.FindManifest(start)
	if err != nil {
		return nil, err
	}
	return driver.LoadManifest(manifestPath)
}

func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	if manifest == nil {
		return nil, nil
	}
	lockPath := driver.LockPathFor(manifest)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if len(manifest.Dependencies) > 0 {
				return nil, fmt.Errorf("package.lock missing for %q; run `aurora deps install`", manifest.Name)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %s: %w", lockPath, err)
	}
	if lock.Root != manifest.Name {
		return nil, fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
	}
	return lock, nil
}

func resolveAuroraHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("AURORA_HOME")); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve AURORA_HOME %q: %w", home, err)
		}
		return abs, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".aurora"), nil
}

func printUsage() {
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  aurora                       start the REPL")
	fmt.Fprintln(stderr, "  aurora repl")
	fmt.Fprintln(stderr, "  aurora run [file.au]")
	fmt.Fprintln(stderr, "  aurora <file.au>")
	fmt.Fprintln(stderr, "  aurora fmt [-w] <file.au> ...")
	fmt.Fprintln(stderr, "  aurora parse [-json|-tokens] <file.au>")
	fmt.Fprintln(stderr, "  aurora deps install")
	fmt.Fprintln(stderr, "  aurora deps update [dependency ...]")
	fmt.Fprintln(stderr, "  aurora version")
}
