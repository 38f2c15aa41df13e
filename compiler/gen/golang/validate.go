package golang

import (
	"fmt"
	"strings"

	"github.com/syssam/datatype/compiler/gen"
)

// supportNames are the package-level identifiers of datatype.go that
// generated declarations and constructor parameters must not shadow.
var supportNames = []string{
	"Value", "Some",
	"hashOffset", "hashPrime", "signed", "unsigned", "float",
	"hashSeed", "hashUint64", "hashBytes", "hashString", "hashBool", "hashInt",
	"hashUint", "hashFloat", "hashTime", "hashValue", "hashSlice", "hashOptional",
	"hashSliceOf", "hashOptionalOf",
	"equalComparable", "equalBytes", "equalTime", "equalValue", "equalSlice",
	"equalOptional", "equalSliceOf", "equalOptionalOf",
	"cloneOptional", "cloneOptionalWith", "cloneOptionalOf", "cloneSlice", "cloneSliceOf",
	"formatAny", "formatString", "formatBytes", "formatTime", "formatValue",
	"formatSlice", "formatOptional", "formatSliceOf", "formatOptionalOf",
}

// validate rejects schemas whose Go rendition would not compile: two
// declarations owning the same identifier, a method of a record declared
// twice, or a record holding itself by value.
func validate(g *gen.Graph, builder bool) error {
	owners := make(map[string]string)
	for _, n := range supportNames {
		owners[n] = gen.SupportFile + ".go"
	}
	claim := func(t *gen.Type, ident string) error {
		if prev, ok := owners[ident]; ok {
			return gen.NewGenerationError("validate", t.FileBase()+".go",
				fmt.Sprintf("identifier %s of %s is already declared by %s", ident, t.QualifiedName(), prev), nil)
		}
		owners[ident] = t.QualifiedName()
		return nil
	}
	for _, t := range g.Nodes {
		for _, ident := range packageNames(t, builder) {
			if err := claim(t, ident); err != nil {
				return err
			}
		}
	}
	for _, t := range g.Records() {
		if err := checkMethods(g, t, builder); err != nil {
			return err
		}
	}
	return checkContainment(g)
}

// packageNames returns the package-level identifiers declared for t.
func packageNames(t *gen.Type, builder bool) []string {
	name := t.GoName()
	switch {
	case t.IsRecord():
		names := []string{name, "New" + name}
		if builder {
			names = append(names, name+"Builder", "New"+name+"Builder")
		}
		return names
	case t.IsInterface():
		if !t.Closed() {
			return []string{name}
		}
		return []string{name, name + "Visitor", name + "Cases", "Match" + name, name + "Variants"}
	default:
		names := []string{name, privateName(name) + "Names", name + "Values", name + "FromOrdinal", "Parse" + name}
		for _, c := range t.Constants {
			names = append(names, t.ConstantName(c))
		}
		return names
	}
}

// checkMethods rejects records whose fields map to colliding methods or
// struct fields, or to parameters shadowing support helpers.
func checkMethods(g *gen.Graph, t *gen.Type, builder bool) error {
	fail := func(msg string) error {
		return gen.NewGenerationError("validate", t.FileBase()+".go", fmt.Sprintf("record %s: %s", t.QualifiedName(), msg), nil)
	}
	methods := map[string]string{
		"Equal":      "",
		"EqualValue": "",
		"Hash":       "",
		"String":     "",
	}
	if builder {
		methods["ToBuilder"] = ""
	}
	for _, a := range t.Ancestors {
		methods[markerMethod(a)] = ""
	}
	withers, _ := g.FeatureEnabled(gen.FeatureWithers.Name)
	fields := make(map[string]string, len(t.Fields))
	support := make(map[string]bool, len(supportNames))
	for _, n := range supportNames {
		support[n] = true
	}
	for _, f := range t.Fields {
		pn := f.PrivateName()
		if prev, ok := fields[pn]; ok {
			return fail(fmt.Sprintf("fields %s and %s map to the same Go name %s", prev, f.Name, pn))
		}
		fields[pn] = f.Name
		if support[pn] {
			return fail(fmt.Sprintf("field %s shadows the generated helper %s", f.Name, pn))
		}
		sf := f.StructField()
		names := []string{sf}
		if f.Optional() {
			names = append(names, sf+"OrElse")
		}
		if withers {
			names = append(names, "With"+sf)
			if f.Optional() {
				names = append(names, "Without"+sf)
			}
		}
		for _, m := range names {
			if prev, ok := methods[m]; ok {
				if prev == "" {
					return fail(fmt.Sprintf("method %s of field %s collides with a generated method", m, f.Name))
				}
				return fail(fmt.Sprintf("method %s is generated for fields %s and %s", m, prev, f.Name))
			}
			methods[m] = f.Name
		}
	}
	return nil
}

// checkContainment rejects records holding themselves through a chain of
// plain record fields. Sequences, optionals and interfaces break the chain.
func checkContainment(g *gen.Graph) error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*gen.Type]int)
	var path []string
	var visit func(t *gen.Type) error
	visit = func(t *gen.Type) error {
		color[t] = gray
		path = append(path, t.QualifiedName())
		for _, f := range t.Fields {
			if f.Type.Kind != gen.RecordRef {
				continue
			}
			switch next := f.Type.Type; color[next] {
			case gray:
				return gen.NewGenerationError("validate", t.FileBase()+".go",
					fmt.Sprintf("record contains itself by value: %s -> %s; make a field optional or a sequence", strings.Join(path, " -> "), next.QualifiedName()), nil)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[t] = black
		return nil
	}
	for _, t := range g.Records() {
		if color[t] == white {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}
