package golang

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/datatype/compiler/gen"
)

// genInterface generates the contract of an interface. A closed interface
// is sealed by an unexported marker method; an open one exports its
// marker so that types outside the package may implement it.
func genInterface(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile()
	name := t.GoName()
	doc(f, t.Comment, fmt.Sprintf("%s is the interface %s.", name, t.QualifiedName()))
	if t.Closed() {
		names := make([]string, 0, len(t.Variants))
		for _, v := range t.Variants {
			names = append(names, v.GoName())
		}
		f.Comment("")
		f.Commentf("It is implemented by exactly: %s. Use Match%s to dispatch over them.", strings.Join(names, ", "), name)
	} else {
		f.Comment("")
		f.Commentf("It is an open contract: any Value defining %s() implements it.", markerMethod(t))
	}
	f.Type().Id(name).InterfaceFunc(func(g *jen.Group) {
		g.Id("Value")
		for _, e := range t.Extends {
			g.Id(e.GoName())
		}
		g.Id(markerMethod(t)).Params()
	})
	return f
}

// genDispatch generates the visitor, the function cases adapter, the match
// helper and the variant list of a closed interface.
func genDispatch(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile()
	name := t.GoName()
	visitor := name + "Visitor"
	cases := name + "Cases"
	typeParam := func() *jen.Statement { return jen.Id("R").Any() }

	f.Commentf("%s handles each variant of %s.", visitor, name)
	f.Type().Id(visitor).Types(typeParam()).InterfaceFunc(func(g *jen.Group) {
		for _, v := range t.Variants {
			g.Id("Visit" + v.GoName()).Params(jen.Id(v.GoName())).Id("R")
		}
	})

	f.Commentf("%s adapts one function per variant to a %s.", cases, visitor)
	f.Type().Id(cases).Types(typeParam()).StructFunc(func(g *jen.Group) {
		for _, v := range t.Variants {
			g.Id(v.GoName()).Func().Params(jen.Id(v.GoName())).Id("R")
		}
	})
	for _, v := range t.Variants {
		vn := v.GoName()
		f.Commentf("Visit%s calls the %s case.", vn, vn)
		f.Func().Params(jen.Id("c").Id(cases).Types(jen.Id("R"))).Id("Visit"+vn).Params(jen.Id("v").Id(vn)).Id("R").Block(
			jen.Return(jen.Id("c").Dot(vn).Call(jen.Id("v"))),
		)
	}

	f.Commentf("Match%s calls the visitor method of the variant held by v.", name)
	f.Comment("It panics if v is nil.")
	f.Func().Id("Match"+name).Types(typeParam()).Params(
		jen.Id("v").Id(name),
		jen.Id("visitor").Id(visitor).Types(jen.Id("R")),
	).Id("R").Block(
		jen.Switch(jen.Id("x").Op(":=").Id("v").Assert(jen.Type())).BlockFunc(func(g *jen.Group) {
			for _, variant := range t.Variants {
				g.Case(jen.Id(variant.GoName())).Block(
					jen.Return(jen.Id("visitor").Dot("Visit" + variant.GoName()).Call(jen.Id("x"))),
				)
			}
			g.Default().Block(
				jen.Panic(jen.Qual("fmt", "Sprintf").Call(jen.Lit(fmt.Sprintf("%s: unexpected %s variant %%T", h.Pkg(), name)), jen.Id("v"))),
			)
		}),
	)

	f.Commentf("%sVariants returns the qualified names of the variants of %s in", name, name)
	f.Comment("declaration order.")
	f.Func().Id(name + "Variants").Params().Index().String().Block(
		jen.Return(jen.Index().String().ValuesFunc(func(g *jen.Group) {
			for _, v := range t.Variants {
				g.Lit(v.QualifiedName())
			}
		})),
	)
	return f
}
