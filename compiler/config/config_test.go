package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datatype/compiler/gen"
)

const projectFile = `
sources: [schema, extra/more.dt]
cache_key: build-1
header: "Code generated for tests. DO NOT EDIT."
targets:
  - name: model
    output: ./model
    mutable: true
  - name: wire
    output: internal/wire
    package: wire
    empty_interfaces: error
    features: [text]
    cache_key: wire
`

func TestParse(t *testing.T) {
	p, err := Parse("/project", []byte(projectFile))
	require.NoError(t, err)
	assert.Equal(t, StringList{"schema", "extra/more.dt"}, p.Sources)
	assert.Equal(t, []string{
		filepath.Join("/project", "schema"),
		filepath.Join("/project", "extra", "more.dt"),
	}, p.SourcePaths())
	require.Len(t, p.Targets, 2)
	assert.Equal(t, Target{Name: "model", Output: "./model", Mutable: true}, p.Targets[0])
	assert.Equal(t, []string{"text"}, p.Targets[1].Features)
}

func TestParseSingleSource(t *testing.T) {
	p, err := Parse("", []byte("sources: schema\ntargets: [{name: model, output: model}]\n"))
	require.NoError(t, err)
	assert.Equal(t, StringList{"schema"}, p.Sources)
	assert.Equal(t, []string{"schema"}, p.SourcePaths())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"Syntax", "sources: [schema\n", "parse project file"},
		{"SourcesMapping", "sources: {a: b}\ntargets: [{name: m, output: m}]\n", "expected string or list"},
		{"NoSources", "targets: [{name: m, output: m}]\n", "no definition sources"},
		{"NoTargets", "sources: schema\n", "no targets"},
		{"MissingName", "sources: schema\ntargets: [{output: m}]\n", "missing target name"},
		{"DuplicateName", "sources: schema\ntargets: [{name: m, output: a}, {name: m, output: b}]\n", "duplicate target name"},
		{"MissingOutput", "sources: schema\ntargets: [{name: m}]\n", "missing output directory"},
		{"SharedOutput", "sources: schema\ntargets: [{name: a, output: out}, {name: b, output: ./out}]\n", "already used by target a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("/project", []byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig(t *testing.T) {
	p, err := Parse("/project", []byte(projectFile))
	require.NoError(t, err)

	model, err := p.Config(p.Targets[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project", "model"), model.Target)
	assert.Equal(t, "model", model.PackageName())
	assert.True(t, model.MutableVariant())
	assert.Equal(t, "build-1", model.CacheKey)
	assert.Equal(t, "Code generated for tests. DO NOT EDIT.", model.HeaderComment())
	assert.Equal(t, gen.EmptyInterfaceOpen, model.EmptyInterfaces)

	wire, err := p.Config(p.Targets[1], gen.WithoutCache())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project", "internal", "wire"), wire.Target)
	assert.Equal(t, "wire", wire.PackageName())
	assert.False(t, wire.MutableVariant())
	assert.Equal(t, gen.EmptyInterfaceError, wire.EmptyInterfaces)
	assert.Equal(t, "build-1/wire", wire.CacheKey)
	assert.True(t, wire.NoCache)
	assert.NotEqual(t, model.Flags(), wire.Flags())
}

func TestConfigErrors(t *testing.T) {
	p := &Project{Dir: "/project", Sources: StringList{"schema"}}
	tests := []struct {
		name   string
		target Target
		want   string
	}{
		{"Policy", Target{Name: "m", Output: "m", EmptyInterfaces: "closed"}, "unsupported policy"},
		{"Feature", Target{Name: "m", Output: "m", Features: []string{"nope"}}, "unknown feature"},
		{"Package", Target{Name: "m", Output: "m", Package: "Bad-Name"}, "invalid package name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Config(tt.target)
			require.Error(t, err)
			assert.True(t, gen.IsConfigError(err))
			assert.Contains(t, err.Error(), "target m")
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	p.Version = "not-a-version"
	_, err := p.Config(Target{Name: "m", Output: "m"})
	assert.True(t, gen.IsConfigError(err))
}

func TestSelect(t *testing.T) {
	p, err := Parse("/project", []byte(projectFile))
	require.NoError(t, err)

	all, err := p.Select()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	wire, err := p.Select("wire")
	require.NoError(t, err)
	require.Len(t, wire, 1)
	assert.Equal(t, "wire", wire[0].Name)

	_, err = p.Select("model", "nope")
	assert.True(t, gen.IsConfigError(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(projectFile), 0o644))

	t.Run("File", func(t *testing.T) {
		t.Setenv(EnvCacheKey, "")
		p, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, dir, p.Dir)
		assert.Equal(t, "build-1", p.CacheKey)
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv(EnvCacheKey, "from-env")
		t.Setenv(EnvCacheDir, "/var/cache/datatype")
		p, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", p.CacheKey)
		cfg, err := p.Config(p.Targets[0])
		require.NoError(t, err)
		assert.Equal(t, "/var/cache/datatype", cfg.CacheDir)
	})

	t.Run("DotEnv", func(t *testing.T) {
		t.Setenv(EnvCacheKey, "")
		env := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(env, []byte(EnvCacheKey+"=dotenv\n"), 0o644))
		t.Cleanup(func() { os.Remove(env) })
		p, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "dotenv", p.CacheKey)
		assert.Empty(t, os.Getenv(EnvCacheKey), "the process environment is untouched")

		require.NoError(t, os.WriteFile(env, []byte(EnvCacheKey+"=edited\n"), 0o644))
		p, err = Load(path)
		require.NoError(t, err)
		assert.Equal(t, "edited", p.CacheKey, "a reload sees the edited file")

		t.Setenv(EnvCacheKey, "process")
		p, err = Load(path)
		require.NoError(t, err)
		assert.Equal(t, "process", p.CacheKey, "the process environment wins")
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read project file")
	})

	t.Run("Invalid", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("sources: schema\n"), 0o644))
		_, err := Load(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), bad)
		assert.True(t, gen.IsConfigError(err))
	})
}
