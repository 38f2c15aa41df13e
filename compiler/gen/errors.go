package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/datatype/compiler/load"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a schema definition error.
	ErrInvalidSchema = errors.New("datatype: invalid schema")
	// ErrDuplicateType indicates a type declared more than once.
	ErrDuplicateType = errors.New("datatype: duplicate type")
	// ErrUnresolvedReference indicates a reference to an undeclared type or constant.
	ErrUnresolvedReference = errors.New("datatype: unresolved reference")
	// ErrCyclicInheritance indicates a cycle in the extends relation.
	ErrCyclicInheritance = errors.New("datatype: cyclic inheritance")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("datatype: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("datatype: code generation failed")
	// ErrEmission indicates the generated files could not be written.
	ErrEmission = errors.New("datatype: emission failed")
)

// SchemaError represents a schema definition error that is not covered by
// a more specific error type.
type SchemaError struct {
	Type    string // Qualified type name
	Field   string // Field name (if applicable)
	Pos     load.Position
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("datatype: schema error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Pos.File != "" {
		b.WriteString(" (")
		b.WriteString(e.Pos.String())
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(typeName, fieldName, message string, cause error) *SchemaError {
	return &SchemaError{
		Type:    typeName,
		Field:   fieldName,
		Message: message,
		Cause:   cause,
	}
}

// DuplicateTypeError reports a qualified name declared twice in one run.
type DuplicateTypeError struct {
	Name   string
	First  load.Position
	Second load.Position
}

// Error implements the error interface.
func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("datatype: duplicate type %s declared at %s and %s", e.Name, e.First, e.Second)
}

// Is reports whether the target matches the sentinel errors for DuplicateTypeError.
func (e *DuplicateTypeError) Is(target error) bool {
	return target == ErrDuplicateType || target == ErrInvalidSchema
}

// UnresolvedReferenceError reports a type reference, extends entry or enum
// constant that names nothing declared in the run.
type UnresolvedReferenceError struct {
	Type      string // Qualified name of the declaring type
	Field     string // Field name, empty for extends clauses
	Reference string // The name that failed to resolve
	Pos       load.Position
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "datatype: unresolved reference %q", e.Reference)
	if e.Field != "" {
		fmt.Fprintf(&b, " in field %s of %s", e.Field, e.Type)
	} else if e.Type != "" {
		fmt.Fprintf(&b, " in extends clause of %s", e.Type)
	}
	if e.Pos.File != "" || e.Pos.Line != 0 {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}
	return b.String()
}

// Is reports whether the target matches the sentinel errors for UnresolvedReferenceError.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference || target == ErrInvalidSchema
}

// CyclicInheritanceError reports a cycle in the extends relation. Cycle
// lists the participating names in order, ending with the first one again.
type CyclicInheritanceError struct {
	Cycle []string
}

// Error implements the error interface.
func (e *CyclicInheritanceError) Error() string {
	return "datatype: cyclic inheritance: " + strings.Join(e.Cycle, " -> ")
}

// Is reports whether the target matches the sentinel errors for CyclicInheritanceError.
func (e *CyclicInheritanceError) Is(target error) bool {
	return target == ErrCyclicInheritance || target == ErrInvalidSchema
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("datatype: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("datatype: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "record", "builder", "interface", "enum", "support"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("datatype: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// EmissionIOError reports a file-system failure while writing generated files.
type EmissionIOError struct {
	Op    string // "mkdir", "write", "rename", "remove"
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *EmissionIOError) Error() string {
	msg := fmt.Sprintf("datatype: emission failed: %s %s", e.Op, e.Path)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *EmissionIOError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for EmissionIOError.
func (e *EmissionIOError) Is(target error) bool {
	return target == ErrEmission
}

// IsSchemaError reports whether the error is any schema defect: a
// SchemaError, DuplicateTypeError, UnresolvedReferenceError or
// CyclicInheritanceError.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsDuplicateTypeError reports whether the error is a DuplicateTypeError.
func IsDuplicateTypeError(err error) bool {
	var dupErr *DuplicateTypeError
	return errors.As(err, &dupErr)
}

// IsUnresolvedReferenceError reports whether the error is an UnresolvedReferenceError.
func IsUnresolvedReferenceError(err error) bool {
	var refErr *UnresolvedReferenceError
	return errors.As(err, &refErr)
}

// IsCyclicInheritanceError reports whether the error is a CyclicInheritanceError.
func IsCyclicInheritanceError(err error) bool {
	var cycleErr *CyclicInheritanceError
	return errors.As(err, &cycleErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsEmissionIOError reports whether the error is an EmissionIOError.
func IsEmissionIOError(err error) bool {
	var ioErr *EmissionIOError
	return errors.As(err, &ioErr)
}
