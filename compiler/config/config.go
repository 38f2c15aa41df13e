// Package config loads datatype project files.
//
// A project file names the definition sources once and the targets they
// are generated into, one per consumer:
//
//	sources: schema
//	cache_key: build-1
//	targets:
//	  - name: model
//	    output: ./model
//	    mutable: true
//	  - name: wire
//	    output: ./internal/wire
//	    package: wire
//	    empty_interfaces: error
//	    features: [text]
//
// Relative paths are relative to the directory of the project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/syssam/datatype/compiler/gen"
)

// DefaultFile is the project file looked up when none is given.
const DefaultFile = "datatype.yaml"

// Environment variables overriding project settings.
const (
	EnvCacheKey = "DATATYPE_CACHE_KEY"
	EnvCacheDir = "DATATYPE_CACHE_DIR"
)

// Project is a datatype project file.
type Project struct {
	// Sources are definition files or directories holding them.
	Sources StringList `yaml:"sources"`
	// CacheKey is the caller's contribution to cache fingerprints.
	CacheKey string `yaml:"cache_key,omitempty"`
	// CacheDir overrides where cache records are kept.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// Header overrides the generated file header.
	Header string `yaml:"header,omitempty"`
	// Version overrides the generator version.
	Version string `yaml:"version,omitempty"`
	// Targets are generated independently of each other.
	Targets []Target `yaml:"targets"`

	// Dir is the directory of the project file.
	Dir string `yaml:"-"`
}

// Target is one output configuration of a project.
type Target struct {
	Name            string   `yaml:"name"`
	Output          string   `yaml:"output"`
	Package         string   `yaml:"package,omitempty"`
	Mutable         bool     `yaml:"mutable,omitempty"`
	EmptyInterfaces string   `yaml:"empty_interfaces,omitempty"`
	Features        []string `yaml:"features,omitempty"`
	// CacheKey is appended to the project cache key.
	CacheKey string `yaml:"cache_key,omitempty"`
}

// StringList is a YAML value that is either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// Load reads the project file at path. A .env file next to it, if any, is
// loaded first so that the DATATYPE_* variables it sets take effect.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	dir := filepath.Dir(path)
	// The .env file is read on every load and never exported to the
	// process, so edits to it take effect when a project is reloaded.
	var dotenv map[string]string
	if env := filepath.Join(dir, ".env"); fileExists(env) {
		if dotenv, err = godotenv.Read(env); err != nil {
			return nil, fmt.Errorf("load %s: %w", env, err)
		}
	}
	p, err := Parse(dir, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.applyEnv(dotenv)
	return p, nil
}

// Parse decodes a project file whose relative paths are relative to dir.
func Parse(dir string, data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}
	p.Dir = dir
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the project for missing or conflicting settings.
func (p *Project) Validate() error {
	if len(p.Sources) == 0 {
		return gen.NewConfigError("sources", nil, "no definition sources")
	}
	if len(p.Targets) == 0 {
		return gen.NewConfigError("targets", nil, "no targets")
	}
	names := make(map[string]bool)
	outputs := make(map[string]string)
	for i, t := range p.Targets {
		if t.Name == "" {
			return gen.NewConfigError(fmt.Sprintf("targets[%d].name", i), nil, "missing target name")
		}
		if names[t.Name] {
			return gen.NewConfigError("targets", t.Name, "duplicate target name")
		}
		names[t.Name] = true
		if t.Output == "" {
			return gen.NewConfigError("targets."+t.Name+".output", nil, "missing output directory")
		}
		out := p.path(t.Output)
		if other, ok := outputs[out]; ok {
			return gen.NewConfigError("targets."+t.Name+".output", t.Output, "output directory already used by target "+other)
		}
		outputs[out] = t.Name
	}
	return nil
}

// SourcePaths returns the definition sources resolved against the project
// directory.
func (p *Project) SourcePaths() []string {
	paths := make([]string, len(p.Sources))
	for i, s := range p.Sources {
		paths[i] = p.path(s)
	}
	return paths
}

// Select returns the targets with the given names, or all targets when no
// name is given.
func (p *Project) Select(names ...string) ([]Target, error) {
	if len(names) == 0 {
		return p.Targets, nil
	}
	var out []Target
	for _, name := range names {
		i := slices.IndexFunc(p.Targets, func(t Target) bool { return t.Name == name })
		if i < 0 {
			return nil, gen.NewConfigError("targets", name, "unknown target")
		}
		out = append(out, p.Targets[i])
	}
	return out, nil
}

// Config builds the generation config of target t. The extra options are
// applied last.
func (p *Project) Config(t Target, extra ...gen.Option) (*gen.Config, error) {
	opts := []gen.Option{
		gen.WithTarget(p.path(t.Output)),
		gen.WithMutableVariant(t.Mutable),
	}
	if t.Package != "" {
		opts = append(opts, gen.WithPackage(t.Package))
	}
	if t.EmptyInterfaces != "" {
		policy, err := gen.ParseEmptyInterfacePolicy(t.EmptyInterfaces)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", t.Name, err)
		}
		opts = append(opts, gen.WithEmptyInterfacePolicy(policy))
	}
	for _, name := range t.Features {
		f, ok := gen.LookupFeature(name)
		if !ok {
			return nil, fmt.Errorf("target %s: %w", t.Name, gen.NewConfigError("features", name, "unknown feature"))
		}
		opts = append(opts, gen.WithFeatures(f))
	}
	if key := joinKey(p.CacheKey, t.CacheKey); key != "" {
		opts = append(opts, gen.WithCacheKey(key))
	}
	if p.CacheDir != "" {
		opts = append(opts, gen.WithCacheDir(p.path(p.CacheDir)))
	}
	if p.Header != "" {
		opts = append(opts, gen.WithHeader(p.Header))
	}
	if p.Version != "" {
		opts = append(opts, gen.WithGeneratorVersion(p.Version))
	}
	cfg, err := gen.NewConfig(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", t.Name, err)
	}
	return cfg, nil
}

// applyEnv overrides settings from the process environment, then from the
// variables of the project's .env file.
func (p *Project) applyEnv(dotenv map[string]string) {
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if v := lookup(EnvCacheKey); v != "" {
		p.CacheKey = v
	}
	if v := lookup(EnvCacheDir); v != "" {
		p.CacheDir = v
	}
}

func (p *Project) path(s string) string {
	if filepath.IsAbs(s) || p.Dir == "" {
		return filepath.Clean(s)
	}
	return filepath.Join(p.Dir, s)
}

func joinKey(project, target string) string {
	switch {
	case project == "":
		return target
	case target == "":
		return project
	default:
		return project + "/" + target
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
