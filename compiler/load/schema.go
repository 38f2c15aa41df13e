package load

import (
	"fmt"
	"strings"
)

// Kind identifies the kind of a top-level declaration.
type Kind uint8

const (
	// KindRecord is a named type with ordered fields.
	KindRecord Kind = iota + 1
	// KindInterface is a named abstract marker type.
	KindInterface
	// KindEnum is a named type with ordered constants.
	KindEnum
)

// String returns the keyword used to declare the kind.
func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Position describes a location in a definition source.
type Position struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// String formats the position as file:line:column.
func (p Position) String() string {
	switch {
	case p.File == "" && p.Line == 0:
		return "-"
	case p.Column == 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// RefKind identifies the shape of an unresolved type reference.
type RefKind uint8

const (
	// RefPrimitive references a built-in scalar type.
	RefPrimitive RefKind = iota + 1
	// RefNamed references a declared type by name.
	RefNamed
	// RefSequence wraps an element type in an ordered container.
	RefSequence
	// RefOptional wraps a type that may be absent.
	RefOptional
)

// TypeRef is a type expression as written in a field.
type TypeRef struct {
	Kind RefKind  `json:"kind"`
	Name string   `json:"name,omitempty"` // primitive or declared name
	Elem *TypeRef `json:"elem,omitempty"` // sequence/optional element
	Pos  Position `json:"-"`
}

// String renders the reference in schema syntax.
func (r *TypeRef) String() string {
	if r == nil {
		return "<nil>"
	}
	switch r.Kind {
	case RefSequence:
		return "sequence-of<" + r.Elem.String() + ">"
	case RefOptional:
		return "optional<" + r.Elem.String() + ">"
	default:
		return r.Name
	}
}

// LiteralKind identifies the kind of a default value literal.
type LiteralKind uint8

const (
	// LitString is a double-quoted string.
	LitString LiteralKind = iota + 1
	// LitInt is an integer number.
	LitInt
	// LitFloat is a decimal number.
	LitFloat
	// LitBool is true or false.
	LitBool
	// LitIdent is a bare identifier, used for enumeration constants.
	LitIdent
)

// Literal is a default value attached to a field.
type Literal struct {
	Kind  LiteralKind `json:"kind"`
	Value string      `json:"value"`
	Pos   Position    `json:"-"`
}

// Field is a record field as declared.
type Field struct {
	Name     string   `json:"name"`
	Type     *TypeRef `json:"type"`
	Nullable bool     `json:"nullable,omitempty"`
	Position int      `json:"position"`
	Default  *Literal `json:"default,omitempty"`
	Comment  string   `json:"comment,omitempty"`
	Pos      Position `json:"-"`
}

// Declaration is one top-level record, interface or enum.
type Declaration struct {
	Kind      Kind     `json:"kind"`
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	Open      bool     `json:"open,omitempty"`
	Extends   []string `json:"extends,omitempty"`
	Fields    []*Field `json:"fields,omitempty"`
	Constants []string `json:"constants,omitempty"`
	Comment   string   `json:"comment,omitempty"`
	Pos       Position `json:"-"`
}

// QualifiedName returns the namespace-qualified declaration name.
func (d *Declaration) QualifiedName() string {
	if d.Namespace == "" {
		return d.Name
	}
	return d.Namespace + "." + d.Name
}

// Source is a definition file read into memory.
type Source struct {
	Path     string
	Contents []byte
}

// File is the result of parsing one definition source.
type File struct {
	Path      string
	Namespace string
	Decls     []*Declaration
}

// Schema is the unresolved set of declarations of one generation run.
// Declarations keep the order in which they appear, files ordered by path.
type Schema struct {
	Files []*File
	Decls []*Declaration
}

// Merge combines parsed files into a Schema in the given order.
func Merge(files ...*File) *Schema {
	s := &Schema{Files: files}
	for _, f := range files {
		s.Decls = append(s.Decls, f.Decls...)
	}
	return s
}

// Names returns the qualified names of all declarations in order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Decls))
	for _, d := range s.Decls {
		names = append(names, d.QualifiedName())
	}
	return names
}

// Primitives lists the built-in scalar type names.
var Primitives = []string{
	"bool", "string", "bytes",
	"int", "int8", "int16", "int32", "int64",
	"uint", "uint8", "uint16", "uint32", "uint64",
	"float32", "float64",
	"time", "duration",
}

// IsPrimitive reports whether name is a built-in scalar type.
func IsPrimitive(name string) bool {
	for _, p := range Primitives {
		if p == name {
			return true
		}
	}
	return false
}

// keywords may not be used as declaration or field names.
var keywords = map[string]bool{
	"record": true, "interface": true, "enum": true, "extends": true,
	"namespace": true, "open": true, "true": true, "false": true,
}

// validName reports whether s is a plain identifier.
func validName(s string) bool {
	if s == "" || strings.ContainsAny(s, ".-") {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
