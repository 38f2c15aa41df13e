package gen

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/syssam/datatype"
)

// Config holds the configuration of one generation target. Distinct
// targets (for example one per consumer) use distinct Configs and are
// cached independently.
type Config struct {
	// Target is the output directory. It is replaced wholesale on every
	// successful generation.
	Target string
	// Package is the package name of the generated code. Defaults to the
	// base name of Target.
	Package string
	// Header is the comment placed on top of each generated file.
	Header string
	// Dialect selects the registered dialect rendering the output.
	Dialect string
	// Features enabled for the target.
	Features []Feature
	// EmptyInterfaces decides how interfaces without variants are treated.
	EmptyInterfaces EmptyInterfacePolicy
	// Version is the generator version taking part in cache fingerprints.
	Version *semver.Version
	// CacheKey is an opaque contribution of the caller to the fingerprint,
	// for example the identity of the consumer's build.
	CacheKey string
	// CacheDir overrides where cache records are kept.
	CacheDir string
	// NoCache disables the cache controller.
	NoCache bool
	// Force regenerates even when the cache record is current. The new
	// run is still recorded.
	Force bool
	// Workers bounds parallel parsing and rendering.
	Workers int
	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultDialect is the dialect used when none is configured.
const DefaultDialect = "go"

// DefaultHeader is the header used when none is configured.
const DefaultHeader = "Code generated by " + datatype.Name + ". DO NOT EDIT."

// Log returns the configured logger, never nil.
func (c *Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// DialectName returns the configured dialect name.
func (c *Config) DialectName() string {
	if c.Dialect != "" {
		return c.Dialect
	}
	return DefaultDialect
}

// PackageName returns the package name of the generated code.
func (c *Config) PackageName() string {
	if c.Package != "" {
		return c.Package
	}
	base := filepath.Base(filepath.Clean(c.Target))
	return strings.ToLower(strings.NewReplacer("-", "", ".", "", " ", "").Replace(base))
}

// HeaderComment returns the generated file header.
func (c *Config) HeaderComment() string {
	if c.Header != "" {
		return c.Header
	}
	return DefaultHeader
}

// MutableVariant reports whether builder companions are generated.
func (c *Config) MutableVariant() bool {
	return c.featureEnabled(FeatureBuilder)
}

// GeneratorVersion returns the configured or built-in generator version.
func (c *Config) GeneratorVersion() *semver.Version {
	if c.Version != nil {
		return c.Version
	}
	return semver.MustParse(datatype.Version)
}

// WorkerCount returns the number of parallel workers to use.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Flags returns the output-mode settings that change the generated bytes,
// as sorted key=value pairs. They take part in cache fingerprints.
func (c *Config) Flags() []string {
	names := make([]string, 0, len(c.Features))
	for _, f := range c.Features {
		names = append(names, f.Name)
	}
	slices.Sort(names)
	names = slices.Compact(names)
	flags := []string{
		"empty_interfaces=" + c.EmptyInterfaces.String(),
		"features=" + strings.Join(names, ","),
		"header=" + c.HeaderComment(),
		"dialect=" + c.DialectName(),
		"mutable=" + fmt.Sprint(c.MutableVariant()),
		"package=" + c.PackageName(),
	}
	slices.Sort(flags)
	return flags
}

// Validate checks that the configuration can drive a generation run.
func (c *Config) Validate() error {
	if c.Target == "" {
		return NewConfigError("Target", nil, "missing target directory in config")
	}
	if pkg := c.PackageName(); !validPackage(pkg) {
		return NewConfigError("Package", pkg, "invalid package name")
	}
	for _, f := range c.Features {
		if _, ok := LookupFeature(f.Name); !ok {
			return NewConfigError("Features", f.Name, "unknown feature")
		}
	}
	return nil
}

func validPackage(s string) bool {
	if s == "" || s == "_" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
