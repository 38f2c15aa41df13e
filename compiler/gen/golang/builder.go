package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/datatype/compiler/gen"
)

// genBuilder generates the mutable companion of a record.
func genBuilder(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile()
	name := t.GoName()
	builder := name + "Builder"
	b := recv(t, builder)
	sel := func(fd *gen.Field) *jen.Statement { return jen.Id(b).Dot(fd.PrivateName()) }
	ret := func() jen.Code { return jen.Return(jen.Id(b)) }

	f.Commentf("%s is a mutable companion of %s. Its zero value holds the zero", builder, name)
	f.Comment("value of every field; New" + builder + " applies the schema defaults.")
	f.Type().Id(builder).StructFunc(func(g *jen.Group) {
		for _, fd := range t.Fields {
			g.Id(fd.PrivateName()).Add(h.FieldType(fd))
		}
	})

	f.Commentf("New%s returns a builder holding the field defaults.", builder)
	f.Func().Id("New" + builder).Params().Op("*").Id(builder).Block(
		jen.Return(jen.Op("&").Id(builder).Values(jen.DictFunc(func(d jen.Dict) {
			for _, fd := range t.Fields {
				if fd.Default != nil {
					d[jen.Id(fd.PrivateName())] = defaultValue(h, fd)
				}
			}
		}))),
	)

	for _, fd := range t.Fields {
		sf := fd.StructField()
		var assign jen.Code
		switch {
		case nilOptional(fd.Type):
			assign = jen.Id("v")
		case fd.Optional():
			assign = jen.Id("Some").Call(copyOut(h, fd.Value(), jen.Id("v")))
		default:
			assign = copyOut(h, fd.Type, jen.Id("v"))
		}
		f.Commentf("Set%s sets the %s field.", sf, fd.Name)
		f.Func().Params(jen.Id(b).Op("*").Id(builder)).Id("Set"+sf).Params(jen.Id("v").Add(h.GoType(fd.Value()))).Op("*").Id(builder).Block(
			sel(fd).Op("=").Add(assign),
			ret(),
		)
		if fd.Optional() {
			f.Commentf("Clear%s marks the %s field absent.", sf, fd.Name)
			f.Func().Params(jen.Id(b).Op("*").Id(builder)).Id("Clear"+sf).Params().Op("*").Id(builder).Block(
				sel(fd).Op("=").Nil(),
				ret(),
			)
		}
		if fd.Sequence() {
			f.Commentf("Add%s appends values to the %s field.", sf, fd.Name)
			f.Func().Params(jen.Id(b).Op("*").Id(builder)).Id("Add"+sf).Params(jen.Id("vs").Op("...").Add(h.GoType(fd.Type.Elem))).Op("*").Id(builder).Block(
				sel(fd).Op("=").Append(sel(fd), jen.Id("vs").Op("...")),
				ret(),
			)
		}
	}

	f.Commentf("Build returns the %s holding the builder's field values. The builder", name)
	f.Comment("may be reused afterwards.")
	f.Func().Params(jen.Id(b).Op("*").Id(builder)).Id("Build").Params().Id(name).Block(
		jen.Return(jen.Id("New" + name).CallFunc(func(g *jen.Group) {
			for _, fd := range t.Fields {
				g.Add(sel(fd))
			}
		})),
	)

	r := recv(t, name)
	f.Commentf("ToBuilder returns a builder holding the field values of %s.", r)
	f.Func().Params(jen.Id(r).Id(name)).Id("ToBuilder").Params().Op("*").Id(builder).Block(
		jen.Return(jen.Op("&").Id(builder).Values(jen.DictFunc(func(d jen.Dict) {
			for _, fd := range t.Fields {
				d[jen.Id(fd.PrivateName())] = cloneExpr(h, fd, jen.Id(r).Dot(fd.PrivateName()))
			}
		}))),
	)
	return f
}
