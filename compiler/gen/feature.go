package gen

import (
	"fmt"
	"slices"
)

// Stage describes the stability of a feature.
type Stage int

const (
	_ Stage = iota
	// Experimental features may change or disappear.
	Experimental
	// Alpha features are usable but their output may change.
	Alpha
	// Beta features are close to stable.
	Beta
	// Stable features produce output that consumers may rely on.
	Stable
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case Experimental:
		return "experimental"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	case Stable:
		return "stable"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Feature is an optional part of the generated output.
type Feature struct {
	Name        string
	Stage       Stage
	Default     bool
	Description string
}

var (
	// FeatureBuilder generates a mutable builder companion for every record.
	FeatureBuilder = Feature{
		Name:        "builder",
		Stage:       Stable,
		Default:     false,
		Description: "Builder generates a mutable {Record}Builder with setters and a conversion back to the immutable value",
	}

	// FeatureWithers generates With{Field} copy methods on records.
	FeatureWithers = Feature{
		Name:        "withers",
		Stage:       Stable,
		Default:     true,
		Description: "Withers generates With{Field} methods returning a copy of the record with one field replaced",
	}

	// FeatureTextMarshal generates encoding.TextMarshaler support for enumerations.
	FeatureTextMarshal = Feature{
		Name:        "text",
		Stage:       Beta,
		Default:     true,
		Description: "Text implements encoding.TextMarshaler and encoding.TextUnmarshaler on enumerations",
	}
)

// AllFeatures holds the features known to the generator.
var AllFeatures = []Feature{
	FeatureBuilder,
	FeatureWithers,
	FeatureTextMarshal,
}

// LookupFeature returns the known feature with the given name.
func LookupFeature(name string) (Feature, bool) {
	for _, f := range AllFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// defaultFeatures returns the features enabled when none are configured.
func defaultFeatures() []Feature {
	var fs []Feature
	for _, f := range AllFeatures {
		if f.Default {
			fs = append(fs, f)
		}
	}
	return fs
}

// FeatureEnabled reports if the given feature name is enabled.
// It returns an error for unknown feature names.
func (c *Config) FeatureEnabled(name string) (bool, error) {
	if _, ok := LookupFeature(name); !ok {
		return false, fmt.Errorf("unexpected feature name %q", name)
	}
	return slices.ContainsFunc(c.Features, func(f Feature) bool { return f.Name == name }), nil
}

// featureEnabled is FeatureEnabled for known features.
func (c *Config) featureEnabled(f Feature) bool {
	enabled, _ := c.FeatureEnabled(f.Name)
	return enabled
}

// EmptyInterfacePolicy decides how an interface with no implementing
// record in the run is treated.
type EmptyInterfacePolicy int

const (
	// EmptyInterfaceOpen emits such an interface as an open contract.
	EmptyInterfaceOpen EmptyInterfacePolicy = iota
	// EmptyInterfaceError rejects such an interface as a schema error.
	EmptyInterfaceError
)

// String returns the policy name used in configuration files.
func (p EmptyInterfacePolicy) String() string {
	switch p {
	case EmptyInterfaceOpen:
		return "open"
	case EmptyInterfaceError:
		return "error"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseEmptyInterfacePolicy parses "open" or "error".
func ParseEmptyInterfacePolicy(s string) (EmptyInterfacePolicy, error) {
	switch s {
	case "", "open":
		return EmptyInterfaceOpen, nil
	case "error":
		return EmptyInterfaceError, nil
	default:
		return 0, NewConfigError("EmptyInterfaces", s, "unsupported policy; use open or error")
	}
}
