package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"aurora/interpreter-go/pkg/driver"
)

func runDeps(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "aurora deps requires a subcommand (install, update)")
		return 1
	}
	switch args[0] {
	case "install":
		if len(args) > 1 {
			fmt.Fprintf(stderr, "aurora deps install does not take arguments (received %s)\n", strings.Join(args[1:], " "))
			return 1
		}
		return runDepsInstall()
	case "update":
		return runDepsUpdate(args[1:])
	default:
		fmt.Fprintf(stderr, "unknown deps subcommand %q\n", args[0])
		return 1
	}
}

// depsContext is the manifest, lockfile and cache shared by install and
// update.
type depsContext struct {
	manifest    *driver.Manifest
	lock        *driver.Lockfile
	lockPath    string
	lockCreated bool
	cacheDir    string
}

func loadDepsContext() (*depsContext, bool) {
	manifest, err := loadManifestFrom(".")
	if err != nil {
		fmt.Fprintf(stderr, "unable to load package.yml: %v\n", err)
		return nil, false
	}
	cacheDir, err := resolveAuroraHome()
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve AURORA_HOME: %v\n", err)
		return nil, false
	}

	ctx := &depsContext{manifest: manifest, cacheDir: cacheDir, lockPath: driver.LockPathFor(manifest)}
	lock, err := driver.LoadLockfile(ctx.lockPath)
	switch {
	case err == nil:
		if lock.Root != manifest.Name {
			fmt.Fprintf(stderr, "lockfile root %q does not match manifest name %q\n", lock.Root, manifest.Name)
			return nil, false
		}
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
		ctx.lockCreated = true
	default:
		fmt.Fprintf(stderr, "failed to read lockfile: %v\n", err)
		return nil, false
	}
	lock.Path = ctx.lockPath
	lock.Tool = cliToolVersion
	ctx.lock = lock
	return ctx, true
}

func runDepsInstall() int {
	ctx, ok := loadDepsContext()
	if !ok {
		return 1
	}

	fmt.Fprintf(stdout, "Manifest: %s\n", ctx.manifest.Path)
	fmt.Fprintf(stdout, "Root package: %s\n", ctx.manifest.Name)
	fmt.Fprintf(stdout, "Dependencies: %d\n", len(ctx.manifest.Dependencies))
	fmt.Fprintf(stdout, "Cache directory: %s\n", ctx.cacheDir)

	installer := newDependencyInstaller(ctx.manifest, ctx.cacheDir)
	changed, logs, err := installer.Install(ctx.lock)
	for _, line := range logs {
		fmt.Fprintln(stdout, line)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve dependencies: %v\n", err)
		return 1
	}

	if changed || ctx.lockCreated {
		action := "Updated"
		if ctx.lockCreated {
			action = "Created"
		}
		if err := driver.WriteLockfile(ctx.lock, ctx.lockPath); err != nil {
			fmt.Fprintf(stderr, "failed to write lockfile: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "%s package.lock: %s\n", action, ctx.lock.Path)
	} else {
		fmt.Fprintf(stdout, "package.lock already up to date: %s\n", ctx.lock.Path)
	}
	fmt.Fprintln(stdout, "Dependencies installed.")
	return 0
}

// runDepsUpdate re-resolves the named dependencies, or all of them when no
// names are given. Git branches and tags move to their current commit.
func runDepsUpdate(targets []string) int {
	ctx, ok := loadDepsContext()
	if !ok {
		return 1
	}

	updateSet := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		name := sanitizeName(target)
		if _, declared := ctx.manifest.Dependencies[name]; !declared {
			fmt.Fprintf(stderr, "dependency %q not declared in manifest\n", target)
			return 1
		}
		updateSet[name] = struct{}{}
	}

	installer := newDependencyInstaller(ctx.manifest, ctx.cacheDir)
	installer.refresh = func(name string) bool {
		if len(updateSet) == 0 {
			return true
		}
		_, ok := updateSet[name]
		return ok
	}
	changed, logs, err := installer.Install(ctx.lock)
	for _, line := range logs {
		fmt.Fprintln(stdout, line)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to update dependencies: %v\n", err)
		return 1
	}

	if changed || ctx.lockCreated {
		if err := driver.WriteLockfile(ctx.lock, ctx.lockPath); err != nil {
			fmt.Fprintf(stderr, "failed to write lockfile: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Updated package.lock: %s\n", ctx.lock.Path)
	} else {
		fmt.Fprintln(stdout, "Dependencies already up to date.")
	}
	return 0
}

// dependencyInstaller resolves every manifest dependency to a directory
// holding a package.yml and records it in the lockfile.
type dependencyInstaller struct {
	manifest     *driver.Manifest
	manifestRoot string
	cacheDir     string
	logs         []string
	git          *gitFetcher
	// refresh reports whether a locked git dependency must be fetched again
	// instead of reusing its pinned commit.
	refresh func(name string) bool
}

func newDependencyInstaller(manifest *driver.Manifest, cacheDir string) *dependencyInstaller {
	var root string
	if manifest != nil {
		root = manifest.Dir()
	}
	return &dependencyInstaller{
		manifest:     manifest,
		manifestRoot: root,
		cacheDir:     cacheDir,
		logs:         []string{},
		git:          newGitFetcher(cacheDir),
		refresh:      func(string) bool { return false },
	}
}

// Install resolves the manifest's dependencies into lock. It reports whether
// the lock contents changed along with progress lines for the user.
func (d *dependencyInstaller) Install(lock *driver.Lockfile) (bool, []string, error) {
	if d.manifest == nil {
		return false, d.logs, nil
	}

	names := d.manifest.DependencyNames()
	changed := false
	for _, name := range names {
		spec := d.manifest.Dependencies[name]
		if spec == nil {
			return false, d.logs, fmt.Errorf("dependency %q has no descriptor", name)
		}
		current, _ := lock.Find(name)
		pkg, err := d.resolveDependency(name, spec, current)
		if err != nil {
			return false, d.logs, err
		}
		if !lockedPackageEqual(current, pkg) {
			changed = true
		}
		lock.Put(pkg)
	}
	if lock.Retain(names) {
		changed = true
	}
	sort.SliceStable(lock.Packages, func(i, j int) bool {
		return lock.Packages[i].Name < lock.Packages[j].Name
	})
	return changed, d.logs, nil
}

func (d *dependencyInstaller) resolveDependency(name string, spec *driver.DependencySpec, current *driver.LockedPackage) (*driver.LockedPackage, error) {
	if spec.IsGit() {
		return d.resolveGitDependency(name, spec, current)
	}
	return d.resolvePathDependency(name, spec)
}

func (d *dependencyInstaller) resolvePathDependency(name string, spec *driver.DependencySpec) (*driver.LockedPackage, error) {
	pathSpec := spec.Path
	if !filepath.IsAbs(pathSpec) {
		pathSpec = filepath.Join(d.manifestRoot, pathSpec)
	}
	abs, err := filepath.Abs(pathSpec)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: resolve path %q: %w", name, spec.Path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: stat %s: %w", name, abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dependency %q: expected directory at %s", name, abs)
	}

	depManifest, err := driver.LoadManifest(filepath.Join(abs, driver.ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	version := depManifest.Version
	if version == "" {
		version = "0.0.0-dev"
	}
	d.logs = append(d.logs, fmt.Sprintf("linked %s %s (%s)", name, version, d.displayPath(abs)))

	return &driver.LockedPackage{
		Name:    sanitizeName(name),
		Version: version,
		Source:  driver.PathSourcePrefix + abs,
		Path:    abs,
	}, nil
}

func (d *dependencyInstaller) resolveGitDependency(name string, spec *driver.DependencySpec, current *driver.LockedPackage) (*driver.LockedPackage, error) {
	if d.git == nil {
		return nil, fmt.Errorf("dependency %q: git support unavailable", name)
	}
	if current != nil && !d.refresh(current.Name) && lockedGitMatches(current, spec) {
		if _, err := os.Stat(current.Path); err == nil {
			if current.Verify() == nil {
				d.logs = append(d.logs, fmt.Sprintf("using locked %s (%s)", name, current.Version))
				return current, nil
			}
			// The checkout was edited; replace it with the locked commit.
			if err := os.RemoveAll(current.Path); err != nil {
				return nil, fmt.Errorf("dependency %q: remove modified checkout: %w", name, err)
			}
		}
		// Fetch the exact commit recorded in the lock.
		pinned := *spec
		pinned.Rev, pinned.Tag, pinned.Branch = current.Commit(), "", ""
		pkg, err := d.git.Fetch(name, &pinned)
		if err != nil {
			return nil, err
		}
		pkg.Version = current.Version
		d.logs = append(d.logs, fmt.Sprintf("restored %s (%s)", name, current.Version))
		return pkg, nil
	}

	pkg, err := d.git.Fetch(name, spec)
	if err != nil {
		return nil, err
	}
	if _, err := driver.LoadManifest(filepath.Join(pkg.Path, driver.ManifestFileName)); err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	d.logs = append(d.logs, fmt.Sprintf("fetched git dependency %s (%s)", pkg.Name, pkg.Version))
	return pkg, nil
}

func (d *dependencyInstaller) displayPath(path string) string {
	if d.manifestRoot != "" {
		if rel, err := filepath.Rel(d.manifestRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return path
}

// lockedGitMatches reports whether current was fetched from the repository
// and revision spec points at.
func lockedGitMatches(current *driver.LockedPackage, spec *driver.DependencySpec) bool {
	if !strings.HasPrefix(current.Source, driver.GitSourcePrefix+spec.Git+"@") {
		return false
	}
	_, descriptor, err := gitRevisionFromSpec(spec)
	if err != nil {
		return false
	}
	return current.Version == descriptor || strings.HasPrefix(current.Version, descriptor+"@")
}

func lockedPackageEqual(a, b *driver.LockedPackage) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name &&
		a.Version == b.Version &&
		a.Source == b.Source &&
		a.Path == b.Path &&
		a.Checksum == b.Checksum
}

func sanitizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}

type gitFetcher struct {
	cacheDir string
}

func newGitFetcher(cacheDir string) *gitFetcher {
	if cacheDir == "" {
		return nil
	}
	return &gitFetcher{cacheDir: cacheDir}
}

// Fetch clones spec.Git into the cache and checks out the requested revision.
func (g *gitFetcher) Fetch(name string, spec *driver.DependencySpec) (*driver.LockedPackage, error) {
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("dependency %q: git URL required", name)
	}

	baseDir := filepath.Join(g.cacheDir, "pkg", "src", sanitizeName(name))
	version, commit, err := ensureGitCheckout(baseDir, url, spec)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}

	checkoutDir := filepath.Join(baseDir, sanitizePathSegment(version))
	checksum, err := driver.ChecksumDir(checkoutDir)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: checksum: %w", name, err)
	}

	return &driver.LockedPackage{
		Name:     sanitizeName(name),
		Version:  version,
		Source:   fmt.Sprintf("%s%s@%s", driver.GitSourcePrefix, url, commit),
		Path:     checkoutDir,
		Checksum: checksum,
	}, nil
}

// ensureGitCheckout clones url into a temporary directory under baseDir,
// checks out the revision named by spec and moves the tree to
// baseDir/<version>. An existing checkout for the same version is reused.
func ensureGitCheckout(baseDir, url string, spec *driver.DependencySpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revision, descriptor, err := gitRevisionFromSpec(spec)
	if err != nil {
		return "", "", err
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{
		URL:               url,
		Depth:             0,
		Tags:              git.AllTags,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil && spec.Branch != "" {
		hash, err = repo.ResolveRevision(plumbing.Revision("refs/heads/" + spec.Branch))
	}
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

func gitRevisionFromSpec(spec *driver.DependencySpec) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/remotes/origin/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git dependencies require rev, tag, or branch")
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

