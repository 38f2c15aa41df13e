// Package gen resolves datatype schemas and renders them through a dialect.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	Definition files (*.dt)
//	        ↓
//	   load.Schema (parsed declarations)
//	        ↓
//	   Graph (resolved types, inheritance closure)
//	        ↓
//	   Dialect (language-specific code)
//	        ↓
//	   Generated code, flushed atomically into the target
//
// # Key Types
//
//   - Graph: the resolved schema of one run, immutable once built
//   - Type: a record, interface or enumeration
//   - Field: a record field with its resolved TypeRef and default
//   - TypeRef: a primitive, a declared type, a sequence or an optional
//   - Config: the settings of one generation target
//
// # Interface Hierarchy
//
// Dialects implement what they support:
//
//	MinimalDialect (basic dialect support)
//	├── Name(), Ext()
//	├── TypeGenerator
//	│   └── GenRecord, GenInterface, GenEnum
//	└── SupportGenerator
//	    └── GenSupport
//
//	Dialect (full interface, extends MinimalDialect)
//	├── BuilderGenerator (mutable companions, builder feature)
//	└── DispatchGenerator (visitors over closed interfaces)
//
// A dialect may also implement Validator to reject schemas its target
// language cannot express. Dialects register themselves with
// RegisterDialect and are created by name with NewDialect.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - DuplicateTypeError: a qualified name declared twice
//   - UnresolvedReferenceError: a reference to nothing declared
//   - CyclicInheritanceError: a cycle in the extends relation
//   - SchemaError: any other schema defect
//   - ConfigError: configuration errors
//   - GenerationError: rendering and dialect validation errors
//   - EmissionIOError: the target could not be written
//
// Example error handling:
//
//	graph, err := gen.NewGraph(config, schema)
//	if err != nil {
//	    if gen.IsCyclicInheritanceError(err) {
//	        // Handle the cycle
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithTarget("./model"),
//	    gen.WithFeatures(gen.FeatureBuilder),
//	    gen.WithHeader("Code generated by datatype. DO NOT EDIT."),
//	)
//
// The package name defaults to the base name of the target.
//
// # Usage
//
// The recommended way to generate code is compiler.Generate, which adds
// caching on top of this package. To drive the generator directly:
//
//	import _ "github.com/syssam/datatype/compiler/gen/golang"
//
//	generator := gen.NewJenniferGenerator(graph).WithWorkers(4)
//	d, err := gen.NewDialect(graph.DialectName(), generator)
//	if err != nil {
//	    return err
//	}
//	files, err := generator.WithDialect(d).Generate(ctx)
package gen
