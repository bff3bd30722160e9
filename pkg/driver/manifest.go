package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the project file searched for by FindManifest.
const ManifestFileName = "package.yml"

// Manifest represents the parsed contents of package.yml.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	Main         string
	Prelude      []string
	Dependencies map[string]*DependencySpec
	Repl         ReplConfig
}

// ReplConfig holds the optional repl section of a manifest.
type ReplConfig struct {
	Prompt   string
	History  string
	MaxDepth int
}

// DependencySpec describes a prelude library the project depends on. Exactly
// one of Path and Git is set; git dependencies also name one of Rev, Tag or
// Branch.
type DependencySpec struct {
	Path   string
	Git    string
	Rev    string
	Tag    string
	Branch string
}

// IsGit reports whether the dependency is fetched from a git repository.
func (d *DependencySpec) IsGit() bool {
	return d != nil && d.Git != ""
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses package.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Dir returns the directory holding the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Resolve turns a manifest-relative path into an absolute one.
func (m *Manifest) Resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Dir(), filepath.FromSlash(rel))
}

// DependencyNames returns the dependency names in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Main != "" && filepath.Ext(m.Main) != SourceExt {
		errs.Issues = append(errs.Issues, fmt.Sprintf("main %q must be a %s file", m.Main, SourceExt))
	}
	for i, script := range m.Prelude {
		if filepath.Ext(script) != SourceExt {
			errs.Issues = append(errs.Issues, fmt.Sprintf("prelude[%d] %q must be a %s file", i, script, SourceExt))
		}
	}
	if m.Repl.MaxDepth < 0 {
		errs.Issues = append(errs.Issues, "repl.max_depth must not be negative")
	}
	for _, name := range m.DependencyNames() {
		for _, issue := range m.Dependencies[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var errs []string
	if d == nil {
		return []string{"must specify git or path"}
	}
	switch {
	case d.Path != "" && d.Git != "":
		errs = append(errs, "path dependencies cannot also specify git")
	case d.Path == "" && d.Git == "":
		errs = append(errs, "must specify git or path")
	}
	refs := 0
	for _, ref := range []string{d.Rev, d.Tag, d.Branch} {
		if ref != "" {
			refs++
		}
	}
	if d.Git != "" && refs == 0 {
		errs = append(errs, "git dependencies require rev, tag, or branch")
	}
	if refs > 1 {
		errs = append(errs, "only one of rev, tag, or branch may be given")
	}
	if d.Git == "" && refs > 0 {
		errs = append(errs, "rev, tag, and branch apply only to git dependencies")
	}
	return errs
}

type manifestFile struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Main         string        `yaml:"main"`
	Prelude      stringList    `yaml:"prelude"`
	Dependencies dependencyMap `yaml:"dependencies"`
	Repl         struct {
		Prompt   string `yaml:"prompt"`
		History  string `yaml:"history"`
		MaxDepth int    `yaml:"max_depth"`
	} `yaml:"repl"`
}

type dependencyMap map[string]*DependencySpec

type stringList []string

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:         path,
		Name:         sanitizeSegment(mf.Name),
		Version:      strings.TrimSpace(mf.Version),
		Main:         strings.TrimSpace(mf.Main),
		Prelude:      mf.Prelude.Clone(),
		Dependencies: make(map[string]*DependencySpec, len(mf.Dependencies)),
		Repl: ReplConfig{
			Prompt:   mf.Repl.Prompt,
			History:  strings.TrimSpace(mf.Repl.History),
			MaxDepth: mf.Repl.MaxDepth,
		},
	}
	for name, dep := range mf.Dependencies {
		result.Dependencies[sanitizeSegment(name)] = dep.clone()
	}
	return result
}

func (d *DependencySpec) clone() *DependencySpec {
	if d == nil {
		return nil
	}
	copy := *d
	return &copy
}

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			str = strings.TrimSpace(str)
			if str == "" {
				continue
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*dm = make(dependencyMap)
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dependencies must be a mapping")
	}
	result := make(dependencyMap, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: dependency names must be non-empty")
		}
		var dep DependencySpec
		if err := dep.unmarshalYAML(valNode); err != nil {
			return fmt.Errorf("manifest: dependency %q: %w", key, err)
		}
		result[key] = dep.clone()
	}
	*dm = result
	return nil
}

// unmarshalYAML accepts either a mapping or a bare scalar, which is shorthand
// for a path dependency.
func (d *DependencySpec) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*d = DependencySpec{}
			return nil
		}
		*d = DependencySpec{Path: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Path   string `yaml:"path"`
			Git    string `yaml:"git"`
			Rev    string `yaml:"rev"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*d = DependencySpec{
			Path:   strings.TrimSpace(raw.Path),
			Git:    strings.TrimSpace(raw.Git),
			Rev:    strings.TrimSpace(raw.Rev),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
		}
		return nil
	case yaml.AliasNode:
		return d.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}

func sanitizeSegment(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "-", "_")
}
