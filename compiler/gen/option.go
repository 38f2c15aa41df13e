package gen

import (
	"errors"
	"slices"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the package name of the generated code.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		if !validPackage(pkg) {
			return NewConfigError("Package", pkg, "invalid package name")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithDialect selects the registered dialect rendering the output.
func WithDialect(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("Dialect", nil, "dialect cannot be empty")
		}
		c.Dialect = name
		return nil
	}
}

// WithFeatures enables specific features.
// Features control optional code generation capabilities.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		for _, f := range features {
			if _, ok := LookupFeature(f.Name); !ok {
				return NewConfigError("Features", f.Name, "unknown feature")
			}
			if !slices.ContainsFunc(c.Features, func(e Feature) bool { return e.Name == f.Name }) {
				c.Features = append(c.Features, f)
			}
		}
		return nil
	}
}

// WithoutFeatures disables specific features, including default ones.
func WithoutFeatures(features ...Feature) Option {
	return func(c *Config) error {
		c.Features = slices.DeleteFunc(c.Features, func(e Feature) bool {
			return slices.ContainsFunc(features, func(f Feature) bool { return f.Name == e.Name })
		})
		return nil
	}
}

// WithMutableVariant toggles generation of builder companions.
func WithMutableVariant(enabled bool) Option {
	if enabled {
		return WithFeatures(FeatureBuilder)
	}
	return WithoutFeatures(FeatureBuilder)
}

// WithEmptyInterfacePolicy sets how interfaces without variants are treated.
func WithEmptyInterfacePolicy(p EmptyInterfacePolicy) Option {
	return func(c *Config) error {
		switch p {
		case EmptyInterfaceOpen, EmptyInterfaceError:
			c.EmptyInterfaces = p
			return nil
		default:
			return NewConfigError("EmptyInterfaces", p, "unsupported policy")
		}
	}
}

// WithGeneratorVersion overrides the generator version used in cache
// fingerprints. The version must be a valid semantic version.
func WithGeneratorVersion(v string) Option {
	return func(c *Config) error {
		ver, err := semver.NewVersion(v)
		if err != nil {
			return NewConfigError("Version", v, "invalid semantic version: "+err.Error())
		}
		c.Version = ver
		return nil
	}
}

// WithCacheKey sets the caller's opaque contribution to the fingerprint.
func WithCacheKey(key string) Option {
	return func(c *Config) error {
		c.CacheKey = key
		return nil
	}
}

// WithCacheDir sets the directory holding cache records.
func WithCacheDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("CacheDir", nil, "cache directory cannot be empty")
		}
		c.CacheDir = dir
		return nil
	}
}

// WithoutCache disables the cache controller; every run regenerates.
func WithoutCache() Option {
	return func(c *Config) error {
		c.NoCache = true
		return nil
	}
}

// WithForce regenerates regardless of the cache record, and records the
// new run.
func WithForce() Option {
	return func(c *Config) error {
		c.Force = true
		return nil
	}
}

// WithWorkers bounds parallel parsing and rendering.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "workers cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger receiving diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the default features and the given
// options applied.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{Features: defaultFeatures()}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
