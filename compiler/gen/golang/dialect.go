// Package golang provides the Go dialect of the Jennifer generator.
//
// The dialect registers itself under the name "go". Importing the package
// is enough to make it available to gen.NewDialect:
//
//	import _ "github.com/syssam/datatype/compiler/gen/golang"
//
// Generated code structure:
//
//	{output}/
//	├── datatype.go               # Value contract, hash/equality/format helpers
//	├── {type}.go                 # record, interface or enumeration
//	├── {record}_builder.go       # mutable companion (builder feature)
//	└── {interface}_dispatch.go   # visitor and match helper (closed interfaces)
package golang

import (
	"github.com/syssam/datatype/compiler/gen"
)

// Name is the registered dialect name.
const Name = "go"

func init() {
	gen.RegisterDialect(Name, func(h gen.GeneratorHelper) gen.MinimalDialect {
		return NewDialect(h)
	})
}

// Dialect implements gen.Dialect for Go.
//
// Records become immutable value structs with unexported fields, interfaces
// become marker interfaces (sealed when closed) and enumerations become
// integer-backed constants.
type Dialect struct {
	helper gen.GeneratorHelper
}

// NewDialect creates a new Go dialect generator.
// The helper parameter should be a *gen.JenniferGenerator.
func NewDialect(helper gen.GeneratorHelper) *Dialect {
	return &Dialect{helper: helper}
}

var (
	_ gen.Dialect   = (*Dialect)(nil)
	_ gen.Validator = (*Dialect)(nil)
)

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return Name
}

// Ext returns the extension of generated files.
func (d *Dialect) Ext() string {
	return ".go"
}

// =============================================================================
// Per-type generation methods
// =============================================================================

// GenRecord generates the record file ({type}.go).
// Includes: struct, constructor, accessors, withers, equality, hash, String.
func (d *Dialect) GenRecord(t *gen.Type) gen.Content {
	return genRecord(d.helper, t)
}

// GenBuilder generates the builder file ({type}_builder.go).
// Includes: builder struct with defaults, setters, Build and ToBuilder.
func (d *Dialect) GenBuilder(t *gen.Type) gen.Content {
	return genBuilder(d.helper, t)
}

// GenInterface generates the interface file ({type}.go).
func (d *Dialect) GenInterface(t *gen.Type) gen.Content {
	return genInterface(d.helper, t)
}

// GenDispatch generates the dispatch file ({type}_dispatch.go) of a closed
// interface. Includes: visitor, function cases adapter, match helper and
// the variant list.
func (d *Dialect) GenDispatch(t *gen.Type) gen.Content {
	return genDispatch(d.helper, t)
}

// GenEnum generates the enumeration file ({type}.go).
// Includes: constants, ordinal mapping, parsing and text marshaling.
func (d *Dialect) GenEnum(t *gen.Type) gen.Content {
	return genEnum(d.helper, t)
}

// =============================================================================
// Graph-level generation methods
// =============================================================================

// GenSupport generates datatype.go shared by every generated type.
func (d *Dialect) GenSupport() gen.Content {
	return genSupport(d.helper)
}

// Validate rejects schemas that cannot be expressed in Go.
func (d *Dialect) Validate(g *gen.Graph) error {
	return validate(g, d.helper.FeatureEnabled(gen.FeatureBuilder.Name))
}
