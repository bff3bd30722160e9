package driver

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockFileName is the lockfile written next to package.yml.
const LockFileName = "package.lock"

// Source prefixes and checksum scheme recorded in package.lock.
const (
	PathSourcePrefix = "path:"
	GitSourcePrefix  = "git+"
	checksumScheme   = "sha256:"
)

// ErrChecksumMismatch reports a git checkout whose files changed after it was
// locked.
var ErrChecksumMismatch = errors.New("lockfile: checkout does not match locked checksum")

// Lockfile models the package.lock contents.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Packages  []*LockedPackage
}

// LockedPackage captures a single resolved dependency. Path is the directory
// holding the dependency's package.yml and its prelude scripts. Source records
// where it came from ("path:<dir>" or "git+<url>@<commit>"). Only git packages
// carry a Checksum; path packages are edited in place.
type LockedPackage struct {
	Name     string
	Version  string
	Source   string
	Path     string
	Checksum string
}

// NewLockfile constructs a lockfile with metadata seeded for the provided root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      sanitizeSegment(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Packages:  []*LockedPackage{},
	}
}

// LockPathFor returns the lockfile path belonging to manifest.
func LockPathFor(manifest *Manifest) string {
	return filepath.Join(manifest.Dir(), LockFileName)
}

// LoadLockfile parses package.lock from disk. A missing file is reported with
// the underlying os error so callers can test errors.Is(err, os.ErrNotExist).
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk, refreshing metadata.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the locked package called name.
func (l *Lockfile) Find(name string) (*LockedPackage, bool) {
	if l == nil {
		return nil, false
	}
	name = sanitizeSegment(name)
	for _, pkg := range l.Packages {
		if pkg != nil && pkg.Name == name {
			return pkg, true
		}
	}
	return nil, false
}

// Retain drops every package not named in names and reports whether any
// were dropped.
func (l *Lockfile) Retain(names []string) bool {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[sanitizeSegment(name)] = true
	}
	kept := l.Packages[:0]
	for _, pkg := range l.Packages {
		if pkg != nil && keep[pkg.Name] {
			kept = append(kept, pkg)
		}
	}
	dropped := len(kept) != len(l.Packages)
	l.Packages = kept
	return dropped
}

// Put inserts pkg, replacing any entry with the same name.
func (l *Lockfile) Put(pkg *LockedPackage) {
	for idx, existing := range l.Packages {
		if existing != nil && existing.Name == pkg.Name {
			l.Packages[idx] = pkg
			return
		}
	}
	l.Packages = append(l.Packages, pkg)
}

// IsGit reports whether pkg was fetched from a git repository.
func (p *LockedPackage) IsGit() bool {
	return strings.HasPrefix(p.Source, GitSourcePrefix)
}

// Commit returns the commit a git package is pinned to, or "".
func (p *LockedPackage) Commit() string {
	if !p.IsGit() {
		return ""
	}
	idx := strings.LastIndex(p.Source, "@")
	if idx < 0 {
		return ""
	}
	return p.Source[idx+1:]
}

// Verify recomputes the checksum of a git package's checkout and compares it
// with the locked one. Path packages always verify.
func (p *LockedPackage) Verify() error {
	if !p.IsGit() {
		return nil
	}
	if p.Checksum == "" {
		return fmt.Errorf("%w: %s has no checksum", ErrChecksumMismatch, p.Name)
	}
	sum, err := ChecksumDir(p.Path)
	if err != nil {
		return fmt.Errorf("lockfile: checksum %s: %w", p.Path, err)
	}
	if sum != p.Checksum {
		return fmt.Errorf("%w: %s at %s", ErrChecksumMismatch, p.Name, p.Path)
	}
	return nil
}

// ChecksumDir hashes every file under dir except git metadata, in walk order,
// and returns it in the form stored in package.lock.
func ChecksumDir(dir string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return checksumScheme + hex.EncodeToString(h.Sum(nil)), nil
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Root = sanitizeSegment(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	kept := l.Packages[:0]
	for _, pkg := range l.Packages {
		if pkg == nil {
			continue
		}
		pkg.Name = sanitizeSegment(pkg.Name)
		pkg.Version = strings.TrimSpace(pkg.Version)
		pkg.Source = strings.TrimSpace(pkg.Source)
		pkg.Path = strings.TrimSpace(pkg.Path)
		pkg.Checksum = strings.TrimSpace(pkg.Checksum)
		kept = append(kept, pkg)
	}
	l.Packages = kept
	sort.SliceStable(l.Packages, func(i, j int) bool {
		return l.Packages[i].Name < l.Packages[j].Name
	})
}

func (l *Lockfile) toDisk() lockfileDisk {
	pkgs := make([]lockfilePackage, 0, len(l.Packages))
	for _, pkg := range l.Packages {
		pkgs = append(pkgs, lockfilePackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Path:     pkg.Path,
			Checksum: pkg.Checksum,
		})
	}
	return lockfileDisk{
		Root:      l.Root,
		Generated: l.Generated,
		Tool:      l.Tool,
		Packages:  pkgs,
	}
}

type lockfileDisk struct {
	Root      string            `yaml:"root"`
	Generated string            `yaml:"generated"`
	Tool      string            `yaml:"tool"`
	Packages  []lockfilePackage `yaml:"packages"`
}

type lockfilePackage struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Path     string `yaml:"path"`
	Checksum string `yaml:"checksum"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:      d.Root,
		Generated: strings.TrimSpace(d.Generated),
		Tool:      d.Tool,
		Packages:  make([]*LockedPackage, 0, len(d.Packages)),
	}
	for _, pkg := range d.Packages {
		lock.Packages = append(lock.Packages, &LockedPackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Path:     pkg.Path,
			Checksum: pkg.Checksum,
		})
	}
	lock.normalize()
	return lock
}
