package golang

import (
	"strconv"
	"strings"
	"time"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/datatype/compiler/gen"
)

// Names of method parameters and locals in generated code. Receivers must
// not use them.
var locals = map[string]bool{
	"other":    true,
	"that":     true,
	"ok":       true,
	"sum":      true,
	"v":        true,
	"vs":       true,
	"fallback": true,
	"text":     true,
	"err":      true,
}

// recv returns a receiver name for methods of the Go type named typeName
// declared for t, avoiding parameter names of the generated methods.
func recv(t *gen.Type, typeName string) string {
	taken := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		taken[f.PrivateName()] = true
	}
	for _, r := range []string{receiverOf(typeName), "rcv", "self"} {
		if !locals[r] && !taken[r] {
			return r
		}
	}
	return "_rcv"
}

// receiverOf derives the receiver name of a type name.
func receiverOf(typeName string) string {
	return (&gen.Type{Name: typeName}).Receiver()
}

// genericHelpers are the support helpers taking a type parameter.
var genericHelpers = map[string]bool{
	"equalComparable": true,
	"equalValue":      true,
	"hashInt":         true,
	"hashUint":        true,
	"hashFloat":       true,
	"hashValue":       true,
	"formatAny":       true,
	"formatValue":     true,
}

// helperFunc references a support helper as a function value for values
// of r, instantiating generic helpers.
func helperFunc(h gen.GeneratorHelper, name string, r *gen.TypeRef) *jen.Statement {
	s := jen.Id(name)
	if genericHelpers[name] {
		s.Index(h.GoType(r))
	}
	return s
}

// nilOptional reports whether r is an optional interface, stored as the
// interface itself with nil for absence.
func nilOptional(r *gen.TypeRef) bool {
	return r.Kind == gen.OptionalRef && r.Elem.Kind == gen.InterfaceRef
}

func equalName(r *gen.TypeRef) string {
	switch r.Kind {
	case gen.PrimitiveRef:
		switch r.Primitive {
		case "bytes":
			return "equalBytes"
		case "time":
			return "equalTime"
		}
		return "equalComparable"
	case gen.InterfaceRef:
		return "equalValue"
	default:
		return "equalComparable"
	}
}

// equalFunc returns a function value reporting whether two values of r
// are equal.
func equalFunc(h gen.GeneratorHelper, r *gen.TypeRef) jen.Code {
	switch {
	case r.Kind == gen.RecordRef:
		return jen.Id(r.Type.GoName()).Dot("Equal")
	case r.Kind == gen.SequenceRef:
		return jen.Id("equalSliceOf").Call(equalFunc(h, r.Elem))
	case nilOptional(r):
		return equalFunc(h, r.Elem)
	case r.Kind == gen.OptionalRef:
		return jen.Id("equalOptionalOf").Call(equalFunc(h, r.Elem))
	default:
		return helperFunc(h, equalName(r), r)
	}
}

// equalExpr returns an expression reporting whether the values x and y of
// r are equal. x and y must not be shared with other statements.
func equalExpr(h gen.GeneratorHelper, r *gen.TypeRef, x, y *jen.Statement) jen.Code {
	switch {
	case r.Kind == gen.RecordRef, r.Kind == gen.PrimitiveRef && r.Primitive == "time":
		return jen.Add(x).Dot("Equal").Call(y)
	case r.Kind == gen.SequenceRef:
		return jen.Id("equalSlice").Call(x, y, equalFunc(h, r.Elem))
	case nilOptional(r):
		return equalExpr(h, r.Elem, x, y)
	case r.Kind == gen.OptionalRef:
		return jen.Id("equalOptional").Call(x, y, equalFunc(h, r.Elem))
	}
	switch name := equalName(r); name {
	case "equalComparable":
		return jen.Add(x).Op("==").Add(y)
	default:
		return jen.Id(name).Call(x, y)
	}
}

func hashName(r *gen.TypeRef) string {
	if r.Kind != gen.PrimitiveRef {
		return "hashValue"
	}
	switch r.Primitive {
	case "bool":
		return "hashBool"
	case "string":
		return "hashString"
	case "bytes":
		return "hashBytes"
	case "time":
		return "hashTime"
	case "uint", "uint8", "uint16", "uint32", "uint64":
		return "hashUint"
	case "float32", "float64":
		return "hashFloat"
	default:
		return "hashInt"
	}
}

// hashFunc returns a function value folding a value of r into a hash.
func hashFunc(h gen.GeneratorHelper, r *gen.TypeRef) jen.Code {
	switch {
	case r.Kind == gen.SequenceRef:
		return jen.Id("hashSliceOf").Call(hashFunc(h, r.Elem))
	case nilOptional(r):
		return hashFunc(h, r.Elem)
	case r.Kind == gen.OptionalRef:
		return jen.Id("hashOptionalOf").Call(hashFunc(h, r.Elem))
	default:
		return helperFunc(h, hashName(r), r)
	}
}

// hashExpr returns an expression folding the value x of r into acc.
func hashExpr(h gen.GeneratorHelper, r *gen.TypeRef, acc, x *jen.Statement) jen.Code {
	switch {
	case r.Kind == gen.SequenceRef:
		return jen.Id("hashSlice").Call(acc, x, hashFunc(h, r.Elem))
	case nilOptional(r):
		return hashExpr(h, r.Elem, acc, x)
	case r.Kind == gen.OptionalRef:
		return jen.Id("hashOptional").Call(acc, x, hashFunc(h, r.Elem))
	default:
		return jen.Id(hashName(r)).Call(acc, x)
	}
}

func formatName(r *gen.TypeRef) string {
	if r.Kind != gen.PrimitiveRef {
		return "formatValue"
	}
	switch r.Primitive {
	case "string":
		return "formatString"
	case "bytes":
		return "formatBytes"
	case "time":
		return "formatTime"
	default:
		return "formatAny"
	}
}

// formatFunc returns a function value formatting a value of r.
func formatFunc(h gen.GeneratorHelper, r *gen.TypeRef) jen.Code {
	switch {
	case r.Kind == gen.SequenceRef:
		return jen.Id("formatSliceOf").Call(formatFunc(h, r.Elem))
	case nilOptional(r):
		return formatFunc(h, r.Elem)
	case r.Kind == gen.OptionalRef:
		return jen.Id("formatOptionalOf").Call(formatFunc(h, r.Elem))
	default:
		return helperFunc(h, formatName(r), r)
	}
}

// formatExpr returns an expression formatting the value x of r.
func formatExpr(h gen.GeneratorHelper, r *gen.TypeRef, x *jen.Statement) jen.Code {
	switch {
	case r.Kind == gen.SequenceRef:
		return jen.Id("formatSlice").Call(x, formatFunc(h, r.Elem))
	case nilOptional(r):
		return formatExpr(h, r.Elem, x)
	case r.Kind == gen.OptionalRef:
		return jen.Id("formatOptional").Call(x, formatFunc(h, r.Elem))
	default:
		return jen.Id(formatName(r)).Call(x)
	}
}

// mutable reports whether values of r share memory that must be copied
// when they cross the boundary of a record.
func mutable(r *gen.TypeRef) bool {
	switch {
	case r.Kind == gen.SequenceRef:
		return true
	case r.Kind == gen.PrimitiveRef:
		return r.Primitive == "bytes"
	case nilOptional(r):
		return false
	default:
		return r.Kind == gen.OptionalRef
	}
}

// cloneFunc returns a function value deep-copying values of the mutable
// type r.
func cloneFunc(h gen.GeneratorHelper, r *gen.TypeRef) jen.Code {
	switch {
	case r.Kind == gen.SequenceRef && mutable(r.Elem):
		return jen.Id("cloneSliceOf").Call(cloneFunc(h, r.Elem))
	case r.Kind == gen.SequenceRef:
		return jen.Qual("slices", "Clone").Index(h.GoType(r))
	case r.Kind == gen.OptionalRef && mutable(r.Elem):
		return jen.Id("cloneOptionalOf").Call(cloneFunc(h, r.Elem))
	case r.Kind == gen.OptionalRef:
		return jen.Id("cloneOptional").Index(h.GoType(r.Elem))
	default:
		return jen.Qual("bytes", "Clone")
	}
}

// copyOut returns an expression copying the value x of r so that the copy
// shares no mutable state with x.
func copyOut(h gen.GeneratorHelper, r *gen.TypeRef, x *jen.Statement) jen.Code {
	switch {
	case !mutable(r):
		return x
	case r.Kind == gen.SequenceRef && mutable(r.Elem):
		return jen.Id("cloneSlice").Call(x, cloneFunc(h, r.Elem))
	case r.Kind == gen.SequenceRef:
		return jen.Qual("slices", "Clone").Call(x)
	case r.Kind == gen.OptionalRef && mutable(r.Elem):
		return jen.Id("cloneOptionalWith").Call(x, cloneFunc(h, r.Elem))
	case r.Kind == gen.OptionalRef:
		return jen.Id("cloneOptional").Call(x)
	default:
		return jen.Qual("bytes", "Clone").Call(x)
	}
}

// cloneExpr returns an expression copying the stored value x of field f.
func cloneExpr(h gen.GeneratorHelper, f *gen.Field, x *jen.Statement) jen.Code {
	return copyOut(h, f.Type, x)
}

// defaultValue returns the Go expression of the field's default value.
// Optional fields wrap the value with Some.
func defaultValue(h gen.GeneratorHelper, f *gen.Field) jen.Code {
	ref := f.Value()
	var lit jen.Code
	switch v := f.Default.Value.(type) {
	case int:
		lit = jen.Id(ref.Type.ConstantName(ref.Type.Constants[v]))
	case int64:
		lit = jen.Id(strconv.FormatInt(v, 10))
	case uint64:
		lit = jen.Id(strconv.FormatUint(v, 10))
	case float64:
		lit = jen.Id(strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		lit = jen.Lit(v)
	case time.Duration:
		lit = jen.Qual("time", "Duration").Call(jen.Id(strconv.FormatInt(int64(v), 10)))
	case string:
		if ref.Primitive == "bytes" {
			lit = jen.Index().Byte().Call(jen.Lit(v))
		} else {
			lit = jen.Lit(v)
		}
	default:
		lit = jen.Nil()
	}
	if f.Optional() && !nilOptional(f.Type) {
		return jen.Id("Some").Index(h.GoType(ref)).Call(lit)
	}
	return lit
}

// doc writes the doc comment of a declaration one line at a time, or
// fallback when the schema carries none.
func doc(f *jen.File, text, fallback string) {
	if text == "" {
		text = fallback
	}
	for _, line := range strings.Split(text, "\n") {
		f.Comment(line)
	}
}

// markerMethod returns the name of the method marking implementations of
// the interface t: unexported for closed interfaces, exported otherwise.
func markerMethod(t *gen.Type) string {
	if t.Closed() {
		return "is" + t.GoName()
	}
	return "Is" + t.GoName()
}
