package gen

import (
	"strings"

	"github.com/syssam/datatype/compiler/load"
)

// RefKind identifies the shape of a resolved type reference.
type RefKind uint8

const (
	// PrimitiveRef is a built-in scalar.
	PrimitiveRef RefKind = iota + 1
	// RecordRef points to a declared record.
	RecordRef
	// InterfaceRef points to a declared interface.
	InterfaceRef
	// EnumRef points to a declared enumeration.
	EnumRef
	// SequenceRef is an ordered container of Elem.
	SequenceRef
	// OptionalRef is an Elem that may be absent.
	OptionalRef
)

// TypeRef is a type reference bound to a primitive or a declared Type.
type TypeRef struct {
	Kind      RefKind
	Primitive string   // PrimitiveRef only
	Type      *Type    // RecordRef, InterfaceRef and EnumRef
	Elem      *TypeRef // SequenceRef and OptionalRef
}

// String renders the reference in schema syntax using qualified names.
func (r *TypeRef) String() string {
	switch r.Kind {
	case PrimitiveRef:
		return r.Primitive
	case SequenceRef:
		return "sequence-of<" + r.Elem.String() + ">"
	case OptionalRef:
		return "optional<" + r.Elem.String() + ">"
	default:
		return r.Type.QualifiedName()
	}
}

// IsDeclared reports whether the reference points to a declared type.
func (r *TypeRef) IsDeclared() bool {
	return r.Kind == RecordRef || r.Kind == InterfaceRef || r.Kind == EnumRef
}

// Type is a resolved record, interface or enumeration.
type Type struct {
	Kind      load.Kind
	Name      string
	Namespace string
	Comment   string
	Pos       load.Position
	// Open marks an interface whose implementations may live outside the run.
	Open bool
	// Fields of a record, in declared order.
	Fields []*Field
	// Constants of an enumeration, in declared order.
	Constants []string
	// Extends holds the directly extended interfaces.
	Extends []*Type
	// Ancestors holds every interface reachable through Extends, nearest first.
	Ancestors []*Type
	// Variants holds, for an interface, every record implementing it
	// directly or through a descendant interface, in declaration order.
	Variants []*Type
	// Descendants holds, for an interface, the interfaces extending it.
	Descendants []*Type
}

// QualifiedName returns the namespace-qualified name of the type.
func (t *Type) QualifiedName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// IsRecord reports whether the type is a record.
func (t *Type) IsRecord() bool { return t.Kind == load.KindRecord }

// IsInterface reports whether the type is an interface.
func (t *Type) IsInterface() bool { return t.Kind == load.KindInterface }

// IsEnum reports whether the type is an enumeration.
func (t *Type) IsEnum() bool { return t.Kind == load.KindEnum }

// Closed reports whether the interface's implementations are all known
// within the run, which allows a dispatch over its variants.
func (t *Type) Closed() bool {
	return t.IsInterface() && !t.Open && len(t.Variants) > 0
}

// Implements reports whether the record or interface t has iface among
// its ancestors.
func (t *Type) Implements(iface *Type) bool {
	for _, a := range t.Ancestors {
		if a == iface {
			return true
		}
	}
	return false
}

// FileBase returns the base name, without extension, of the files
// generated for the type. It is derived from the qualified name only.
func (t *Type) FileBase() string {
	parts := strings.Split(t.QualifiedName(), ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, "_")
}

// GoName returns the exported Go identifier of the type.
func (t *Type) GoName() string { return pascal(t.Name) }

// Receiver returns the receiver name used in methods of the type.
func (t *Type) Receiver() string { return receiver(t.GoName()) }

// ConstantName returns the Go identifier of an enumeration constant.
func (t *Type) ConstantName(name string) string { return t.GoName() + pascal(name) }

// Constant returns the ordinal of the named enum constant, or -1.
func (t *Type) Constant(name string) int {
	for i, c := range t.Constants {
		if c == name {
			return i
		}
	}
	return -1
}

// Field is a resolved record field.
type Field struct {
	Name     string
	Type     *TypeRef
	Nullable bool
	Position int
	Comment  string
	Default  *Default
	Pos      load.Position
}

// StructField returns the exported Go name of the field, used in accessors.
func (f *Field) StructField() string { return pascal(f.Name) }

// PrivateName returns the unexported Go name of the field, used for struct
// fields and parameters.
func (f *Field) PrivateName() string { return privateName(f.Name) }

// Optional reports whether the field may be absent.
func (f *Field) Optional() bool { return f.Type.Kind == OptionalRef }

// Sequence reports whether the field holds an ordered container.
func (f *Field) Sequence() bool { return f.Type.Kind == SequenceRef }

// Value returns the reference of the field's value, looking through an
// optional wrapper.
func (f *Field) Value() *TypeRef {
	if f.Optional() {
		return f.Type.Elem
	}
	return f.Type
}

// Default is a type-checked default value. Value holds an int64, uint64,
// float64, bool, string or time.Duration; for enumerations it holds the
// constant's ordinal as an int.
type Default struct {
	Literal *load.Literal
	Value   any
}
