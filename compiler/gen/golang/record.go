package golang

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/datatype/compiler/gen"
)

// genRecord generates the immutable value type of a record.
func genRecord(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile()
	name := t.GoName()
	r := recv(t, name)

	doc(f, t.Comment, fmt.Sprintf("%s is the immutable record %s.", name, t.QualifiedName()))
	f.Type().Id(name).StructFunc(func(g *jen.Group) {
		for _, fd := range t.Fields {
			g.Id(fd.PrivateName()).Add(h.FieldType(fd))
		}
	})

	f.Var().DefsFunc(func(g *jen.Group) {
		g.Id("_").Id("Value").Op("=").Id(name).Values()
		for _, e := range t.Extends {
			g.Id("_").Id(e.GoName()).Op("=").Id(name).Values()
		}
	})

	genConstructor(h, f, t)
	for _, fd := range t.Fields {
		genAccessor(h, f, t, r, fd)
	}
	if h.FeatureEnabled(gen.FeatureWithers.Name) {
		for _, fd := range t.Fields {
			genWither(h, f, t, r, fd)
		}
	}
	genEqual(h, f, t, r)
	genHash(h, f, t, r)
	genString(h, f, t, r)
	for _, a := range t.Ancestors {
		f.Commentf("%s marks %s as a variant of %s.", markerMethod(a), name, a.GoName())
		f.Func().Params(jen.Id(name)).Id(markerMethod(a)).Params().Block()
	}
	return f
}

// genConstructor generates New{Record} taking every field in declared order.
func genConstructor(h gen.GeneratorHelper, f *jen.File, t *gen.Type) {
	name := t.GoName()
	f.Commentf("New%s returns a %s holding the given field values.", name, name)
	if len(t.Fields) > 0 {
		f.Comment("Sequences are copied; optional values are passed as pointers, nil meaning absent.")
	}
	f.Func().Id("New" + name).ParamsFunc(func(g *jen.Group) {
		for _, fd := range t.Fields {
			g.Id(fd.PrivateName()).Add(h.FieldType(fd))
		}
	}).Id(name).Block(
		jen.Return(jen.Id(name).Values(jen.DictFunc(func(d jen.Dict) {
			for _, fd := range t.Fields {
				d[jen.Id(fd.PrivateName())] = cloneExpr(h, fd, jen.Id(fd.PrivateName()))
			}
		}))),
	)
}

// genAccessor generates the getter of a field. Optional fields get a
// comma-ok getter and an OrElse variant.
func genAccessor(h gen.GeneratorHelper, f *jen.File, t *gen.Type, r string, fd *gen.Field) {
	name, sf := t.GoName(), fd.StructField()
	sel := func() *jen.Statement { return jen.Id(r).Dot(fd.PrivateName()) }
	value := h.GoType(fd.Value())

	f.Commentf("%s returns the value of the %s field.", sf, fd.Name)
	if fd.Comment != "" {
		f.Comment("")
		doc(f, fd.Comment, "")
	}
	switch {
	case nilOptional(fd.Type):
		f.Func().Params(jen.Id(r).Id(name)).Id(sf).Params().Params(value, jen.Bool()).Block(
			jen.Return(sel(), sel().Op("!=").Nil()),
		)
	case fd.Optional():
		f.Func().Params(jen.Id(r).Id(name)).Id(sf).Params().Params(jen.Id("v").Add(value), jen.Id("ok").Bool()).Block(
			jen.If(sel().Op("!=").Nil()).Block(
				jen.Return(copyOut(h, fd.Value(), jen.Op("*").Add(sel())), jen.True()),
			),
			jen.Return(jen.Id("v"), jen.False()),
		)
	default:
		f.Func().Params(jen.Id(r).Id(name)).Id(sf).Params().Add(value).Block(
			jen.Return(copyOut(h, fd.Type, sel())),
		)
		return
	}

	f.Commentf("%sOrElse returns the value of the %s field, or fallback if it is absent.", sf, fd.Name)
	var present jen.Code = sel()
	if !nilOptional(fd.Type) {
		present = copyOut(h, fd.Value(), jen.Op("*").Add(sel()))
	}
	f.Func().Params(jen.Id(r).Id(name)).Id(sf+"OrElse").Params(jen.Id("fallback").Add(h.GoType(fd.Value()))).Add(h.GoType(fd.Value())).Block(
		jen.If(sel().Op("==").Nil()).Block(jen.Return(jen.Id("fallback"))),
		jen.Return(present),
	)
}

// genWither generates With{Field}, and Without{Field} for optional fields.
func genWither(h gen.GeneratorHelper, f *jen.File, t *gen.Type, r string, fd *gen.Field) {
	name, sf := t.GoName(), fd.StructField()
	sel := func() *jen.Statement { return jen.Id(r).Dot(fd.PrivateName()) }

	var assign jen.Code
	switch {
	case nilOptional(fd.Type):
		assign = jen.Id("v")
	case fd.Optional():
		assign = jen.Id("Some").Call(copyOut(h, fd.Value(), jen.Id("v")))
	default:
		assign = copyOut(h, fd.Type, jen.Id("v"))
	}
	f.Commentf("With%s returns a copy of %s with the %s field set to v.", sf, r, fd.Name)
	f.Func().Params(jen.Id(r).Id(name)).Id("With"+sf).Params(jen.Id("v").Add(h.GoType(fd.Value()))).Id(name).Block(
		sel().Op("=").Add(assign),
		jen.Return(jen.Id(r)),
	)
	if !fd.Optional() {
		return
	}
	f.Commentf("Without%s returns a copy of %s with the %s field absent.", sf, r, fd.Name)
	f.Func().Params(jen.Id(r).Id(name)).Id("Without"+sf).Params().Id(name).Block(
		sel().Op("=").Nil(),
		jen.Return(jen.Id(r)),
	)
}

// genEqual generates Equal and EqualValue comparing every field in
// declared order.
func genEqual(h gen.GeneratorHelper, f *jen.File, t *gen.Type, r string) {
	name := t.GoName()
	var cmp *jen.Statement
	for _, fd := range t.Fields {
		e := equalExpr(h, fd.Type, jen.Id(r).Dot(fd.PrivateName()), jen.Id("other").Dot(fd.PrivateName()))
		if cmp == nil {
			cmp = jen.Add(e)
		} else {
			cmp.Op("&&").Line().Add(e)
		}
	}
	if cmp == nil {
		cmp = jen.True()
	}
	f.Commentf("Equal reports whether %s and other hold equal values in every field.", r)
	f.Func().Params(jen.Id(r).Id(name)).Id("Equal").Params(jen.Id("other").Id(name)).Bool().Block(
		jen.Return(cmp),
	)

	f.Commentf("EqualValue reports whether other is a %s equal to %s.", name, r)
	f.Func().Params(jen.Id(r).Id(name)).Id("EqualValue").Params(jen.Id("other").Any()).Bool().Block(
		jen.List(jen.Id("that"), jen.Id("ok")).Op(":=").Id("other").Assert(jen.Id(name)),
		jen.Return(jen.Id("ok").Op("&&").Id(r).Dot("Equal").Call(jen.Id("that"))),
	)
}

// genHash generates Hash folding every field in declared order.
func genHash(h gen.GeneratorHelper, f *jen.File, t *gen.Type, r string) {
	f.Comment("Hash returns a hash of the field values in declared order.")
	f.Func().Params(jen.Id(r).Id(t.GoName())).Id("Hash").Params().Uint64().BlockFunc(func(g *jen.Group) {
		g.Id("sum").Op(":=").Id("hashSeed").Call(jen.Lit(t.QualifiedName()))
		for _, fd := range t.Fields {
			g.Id("sum").Op("=").Add(hashExpr(h, fd.Type, jen.Id("sum"), jen.Id(r).Dot(fd.PrivateName())))
		}
		g.Return(jen.Id("sum"))
	})
}

// genString generates String listing the fields in declared order.
func genString(h gen.GeneratorHelper, f *jen.File, t *gen.Type, r string) {
	name := t.GoName()
	s := jen.Lit(name + "{")
	for i, fd := range t.Fields {
		label := fd.Name + ": "
		if i > 0 {
			label = ", " + label
		}
		s.Op("+").Line().Lit(label).Op("+").Add(formatExpr(h, fd.Type, jen.Id(r).Dot(fd.PrivateName())))
	}
	s.Op("+").Lit("}")
	if len(t.Fields) == 0 {
		s = jen.Lit(name + "{}")
	}
	f.Commentf("String returns a readable representation of %s.", r)
	f.Func().Params(jen.Id(r).Id(name)).Id("String").Params().String().Block(
		jen.Return(s),
	)
}
