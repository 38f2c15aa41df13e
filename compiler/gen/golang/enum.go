package golang

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/datatype/compiler/gen"
)

// genEnum generates an enumeration: an int-backed type, one constant per
// declared name in ordinal order, and the lookups between ordinals, names
// and constants.
func genEnum(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile()
	name := t.GoName()
	r := recv(t, name)
	names := privateName(name) + "Names"

	doc(f, t.Comment, fmt.Sprintf("%s is the enumeration %s.", name, t.QualifiedName()))
	f.Type().Id(name).Int()

	f.Const().DefsFunc(func(g *jen.Group) {
		for i, c := range t.Constants {
			if i == 0 {
				g.Id(t.ConstantName(c)).Id(name).Op("=").Iota()
				continue
			}
			g.Id(t.ConstantName(c))
		}
	})

	f.Var().Id(names).Op("=").Index(jen.Op("...")).String().ValuesFunc(func(g *jen.Group) {
		for _, c := range t.Constants {
			g.Line().Lit(c)
		}
		g.Line()
	})

	f.Var().Id("_").Id("Value").Op("=").Id(name).Call(jen.Lit(0))

	f.Commentf("%sValues returns the constants of %s in ordinal order.", name, name)
	f.Func().Id(name + "Values").Params().Index().Id(name).Block(
		jen.Return(jen.Index().Id(name).ValuesFunc(func(g *jen.Group) {
			for _, c := range t.Constants {
				g.Id(t.ConstantName(c))
			}
		})),
	)

	f.Commentf("%sFromOrdinal returns the constant with ordinal i.", name)
	f.Func().Id(name+"FromOrdinal").Params(jen.Id("i").Int()).Params(jen.Id(name), jen.Bool()).Block(
		jen.If(jen.Id("i").Op("<").Lit(0).Op("||").Id("i").Op(">=").Len(jen.Id(names))).Block(
			jen.Return(jen.Lit(0), jen.False()),
		),
		jen.Return(jen.Id(name).Call(jen.Id("i")), jen.True()),
	)

	f.Commentf("Parse%s returns the constant with the given name.", name)
	f.Func().Id("Parse"+name).Params(jen.Id("s").String()).Params(jen.Id(name), jen.Error()).Block(
		jen.For(jen.List(jen.Id("i"), jen.Id("n")).Op(":=").Range().Id(names)).Block(
			jen.If(jen.Id("n").Op("==").Id("s")).Block(
				jen.Return(jen.Id(name).Call(jen.Id("i")), jen.Nil()),
			),
		),
		jen.Return(jen.Lit(0), jen.Qual("fmt", "Errorf").Call(jen.Lit(fmt.Sprintf("%s: unknown %s %%q", h.Pkg(), name)), jen.Id("s"))),
	)

	f.Comment("Ordinal returns the zero-based position of the constant in its declaration.")
	f.Func().Params(jen.Id(r).Id(name)).Id("Ordinal").Params().Int().Block(
		jen.Return(jen.Int().Call(jen.Id(r))),
	)

	f.Commentf("Valid reports whether %s is a declared constant.", r)
	f.Func().Params(jen.Id(r).Id(name)).Id("Valid").Params().Bool().Block(
		jen.Return(jen.Id(r).Op(">=").Lit(0).Op("&&").Int().Call(jen.Id(r)).Op("<").Len(jen.Id(names))),
	)

	f.Commentf("String returns the declared name of %s.", r)
	f.Func().Params(jen.Id(r).Id(name)).Id("String").Params().String().Block(
		jen.If(jen.Op("!").Id(r).Dot("Valid").Call()).Block(
			jen.Return(jen.Lit(name+"(").Op("+").Qual("strconv", "Itoa").Call(jen.Int().Call(jen.Id(r))).Op("+").Lit(")")),
		),
		jen.Return(jen.Id(names).Index(jen.Id(r))),
	)

	f.Commentf("EqualValue reports whether other is the same %s constant.", name)
	f.Func().Params(jen.Id(r).Id(name)).Id("EqualValue").Params(jen.Id("other").Any()).Bool().Block(
		jen.List(jen.Id("that"), jen.Id("ok")).Op(":=").Id("other").Assert(jen.Id(name)),
		jen.Return(jen.Id("ok").Op("&&").Id(r).Op("==").Id("that")),
	)

	f.Comment("Hash returns a hash of the constant.")
	f.Func().Params(jen.Id(r).Id(name)).Id("Hash").Params().Uint64().Block(
		jen.Return(jen.Id("hashInt").Call(jen.Id("hashSeed").Call(jen.Lit(t.QualifiedName())), jen.Int().Call(jen.Id(r)))),
	)

	for _, a := range t.Ancestors {
		f.Commentf("%s marks %s as a variant of %s.", markerMethod(a), name, a.GoName())
		f.Func().Params(jen.Id(name)).Id(markerMethod(a)).Params().Block()
	}

	if !h.FeatureEnabled(gen.FeatureTextMarshal.Name) {
		return f
	}
	f.Comment("MarshalText implements encoding.TextMarshaler.")
	f.Func().Params(jen.Id(r).Id(name)).Id("MarshalText").Params().Params(jen.Index().Byte(), jen.Error()).Block(
		jen.If(jen.Op("!").Id(r).Dot("Valid").Call()).Block(
			jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(jen.Lit(fmt.Sprintf("%s: invalid %s %%d", h.Pkg(), name)), jen.Int().Call(jen.Id(r)))),
		),
		jen.Return(jen.Index().Byte().Call(jen.Id(names).Index(jen.Id(r))), jen.Nil()),
	)
	f.Comment("UnmarshalText implements encoding.TextUnmarshaler.")
	f.Func().Params(jen.Id(r).Op("*").Id(name)).Id("UnmarshalText").Params(jen.Id("text").Index().Byte()).Error().Block(
		jen.List(jen.Id("v"), jen.Err()).Op(":=").Id("Parse"+name).Call(jen.String().Call(jen.Id("text"))),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
		jen.Op("*").Id(r).Op("=").Id("v"),
		jen.Return(jen.Nil()),
	)
	return f
}

// privateName lowers the first rune run of an exported identifier, as in
// ColorNames -> colorNames and HTTPCode -> httpCode.
func privateName(s string) string {
	upper := 0
	for upper < len(s) && s[upper] >= 'A' && s[upper] <= 'Z' {
		upper++
	}
	switch {
	case upper == 0:
		return s
	case upper == 1 || upper == len(s):
		return strings.ToLower(s[:upper]) + s[upper:]
	default:
		return strings.ToLower(s[:upper-1]) + s[upper-1:]
	}
}
