package gen

import (
	"io"

	"github.com/dave/jennifer/jen"
)

// Content is a rendered source file. *jen.File and *TemplateFile
// implement it.
type Content interface {
	Render(w io.Writer) error
}

// =============================================================================
// Interface Segregation: a dialect implements the generators it supports
// =============================================================================

// TypeGenerator generates the primary file of each declared type.
// Each method is called once per type of the matching kind.
type TypeGenerator interface {
	// GenRecord generates the immutable record ({type}.go)
	GenRecord(t *Type) Content
	// GenInterface generates the interface contract ({type}.go)
	GenInterface(t *Type) Content
	// GenEnum generates the enumeration ({type}.go)
	GenEnum(t *Type) Content
}

// SupportGenerator generates code shared by all types.
// It is called once per generation run.
type SupportGenerator interface {
	// GenSupport generates the shared value contract and helpers (datatype.go)
	GenSupport() Content
}

// BuilderGenerator generates mutable companions of records. It is used
// only when the builder feature is enabled.
type BuilderGenerator interface {
	// GenBuilder generates the record builder ({type}_builder.go)
	GenBuilder(t *Type) Content
}

// DispatchGenerator generates dispatch helpers over the variants of a
// closed interface.
type DispatchGenerator interface {
	// GenDispatch generates the visitor and match helper ({type}_dispatch.go)
	GenDispatch(t *Type) Content
}

// Validator checks rules of the target language that the resolved schema
// may violate, for example identifier collisions. It runs before any
// file is rendered.
type Validator interface {
	Validate(g *Graph) error
}

// MinimalDialect requires only type and support generation.
// This is the minimum interface a dialect must implement.
type MinimalDialect interface {
	// Name returns the dialect name (e.g., "go")
	Name() string
	// Ext returns the file extension of generated files (e.g., ".go")
	Ext() string
	TypeGenerator
	SupportGenerator
}

// Dialect defines the interface for a complete target language.
//
// Architecture:
//
//	JenniferGenerator   orchestration: parallel rendering, atomic flush
//	        | uses
//	        v
//	     Dialect        per-language syntax: records, interfaces, enums
//	        | implemented by
//	        v
//	compiler/gen/golang (or a user-defined dialect)
//
// Methods return Content holding the generated code. The generator
// orchestrates calling these methods and writing the files to disk.
//
// Usage:
//
//	generator := gen.NewJenniferGenerator(graph)
//	d, err := gen.NewDialect("go", generator)
//	if err != nil {
//	    return err
//	}
//	files, err := generator.WithDialect(d).Generate(ctx)
type Dialect interface {
	MinimalDialect
	BuilderGenerator
	DispatchGenerator
}

// GeneratorHelper provides helper methods for dialect implementations.
// JenniferGenerator implements this interface, allowing dialect packages
// to use helper methods without importing the full generator.
type GeneratorHelper interface {
	// NewFile creates a new Jennifer file with the standard header comment.
	NewFile() *jen.File

	// GoType returns the Jennifer code for the Go type of a reference.
	GoType(r *TypeRef) jen.Code

	// FieldType returns the Jennifer code for the Go type of a field.
	FieldType(f *Field) jen.Code

	// Graph returns the resolved schema.
	Graph() *Graph

	// Pkg returns the output package name.
	Pkg() string

	// Header returns the header comment of generated files.
	Header() string

	// HeaderLines returns the header comment split into lines.
	HeaderLines() []string

	// FeatureEnabled reports if the given feature name is enabled.
	FeatureEnabled(name string) bool
}
