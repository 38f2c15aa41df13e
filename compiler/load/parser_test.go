package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("single line record", func(t *testing.T) {
		f, err := Parse("point.dt", []byte("record Point { x: int, y: int }"))
		require.NoError(t, err)
		require.Len(t, f.Decls, 1)

		d := f.Decls[0]
		assert.Equal(t, KindRecord, d.Kind)
		assert.Equal(t, "Point", d.Name)
		require.Len(t, d.Fields, 2)
		assert.Equal(t, "x", d.Fields[0].Name)
		assert.Equal(t, 0, d.Fields[0].Position)
		assert.Equal(t, "y", d.Fields[1].Name)
		assert.Equal(t, 1, d.Fields[1].Position)
		assert.Equal(t, RefPrimitive, d.Fields[1].Type.Kind)
		assert.Equal(t, "int", d.Fields[1].Type.Name)
	})

	t.Run("interface hierarchy", func(t *testing.T) {
		src := `
interface Shape
record Circle extends Shape { radius: int }
record Square extends Shape { side: int }
`
		f, err := Parse("shapes.dt", []byte(src))
		require.NoError(t, err)
		require.Len(t, f.Decls, 3)
		assert.Equal(t, KindInterface, f.Decls[0].Kind)
		assert.Equal(t, []string{"Shape"}, f.Decls[1].Extends)
		assert.Equal(t, []string{"Shape"}, f.Decls[2].Extends)
	})

	t.Run("enum constants keep order", func(t *testing.T) {
		f, err := Parse("color.dt", []byte("enum Color { Red, Green, Blue }"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Red", "Green", "Blue"}, f.Decls[0].Constants)
	})

	t.Run("type constructors", func(t *testing.T) {
		src := `record R {
  a: sequence-of<string>
  b: sequence<int>
  c: optional<Point>
  d: optional-of<[]int>
  e: geo.Point?
}`
		f, err := Parse("r.dt", []byte(src))
		require.NoError(t, err)
		fields := f.Decls[0].Fields
		require.Len(t, fields, 5)
		assert.Equal(t, "sequence-of<string>", fields[0].Type.String())
		assert.Equal(t, "sequence-of<int>", fields[1].Type.String())
		assert.Equal(t, "optional<Point>", fields[2].Type.String())
		assert.Equal(t, RefNamed, fields[2].Type.Elem.Kind)
		assert.Equal(t, "optional<sequence-of<int>>", fields[3].Type.String())
		assert.Equal(t, "geo.Point", fields[4].Type.Name)
		assert.True(t, fields[4].Nullable)
	})

	t.Run("defaults", func(t *testing.T) {
		src := `record R {
  a: string = "hi \"there\""
  b: int = -3
  c: float64 = 2.5
  d: bool = true
  e: Color = Green
}`
		f, err := Parse("r.dt", []byte(src))
		require.NoError(t, err)
		fields := f.Decls[0].Fields
		assert.Equal(t, Literal{Kind: LitString, Value: `hi "there"`, Pos: fields[0].Default.Pos}, *fields[0].Default)
		assert.Equal(t, LitInt, fields[1].Default.Kind)
		assert.Equal(t, "-3", fields[1].Default.Value)
		assert.Equal(t, LitFloat, fields[2].Default.Kind)
		assert.Equal(t, LitBool, fields[3].Default.Kind)
		assert.Equal(t, LitIdent, fields[4].Default.Kind)
		assert.Equal(t, "Green", fields[4].Default.Value)
	})

	t.Run("doc comments", func(t *testing.T) {
		src := `# stray comment

# Point is a location.
# It has two coordinates.
record Point {
  # horizontal
  x: int # not a doc comment
  y: int
}`
		f, err := Parse("p.dt", []byte(src))
		require.NoError(t, err)
		d := f.Decls[0]
		assert.Equal(t, "Point is a location.\nIt has two coordinates.", d.Comment)
		assert.Equal(t, "horizontal", d.Fields[0].Comment)
		assert.Empty(t, d.Fields[1].Comment)
	})

	t.Run("namespace qualifies declarations", func(t *testing.T) {
		f, err := Parse("n.dt", []byte("namespace geo.shapes\nrecord Point"))
		require.NoError(t, err)
		assert.Equal(t, "geo.shapes", f.Namespace)
		assert.Equal(t, "geo.shapes.Point", f.Decls[0].QualifiedName())
	})

	t.Run("zero field record and open interface", func(t *testing.T) {
		f, err := Parse("m.dt", []byte("record Marker {}\nrecord Empty\nopen interface Plugin"))
		require.NoError(t, err)
		require.Len(t, f.Decls, 3)
		assert.Empty(t, f.Decls[0].Fields)
		assert.Empty(t, f.Decls[1].Fields)
		assert.True(t, f.Decls[2].Open)
	})

	t.Run("slash comments and separators", func(t *testing.T) {
		src := "// Pair holds two values.\nrecord Pair { a: int, b: int = 2,\n  c: [][]string }\n\nenum E { A,\n B }"
		f, err := Parse("pair.dt", []byte(src))
		require.NoError(t, err)
		require.Len(t, f.Decls, 2)
		assert.Equal(t, "Pair holds two values.", f.Decls[0].Comment)
		require.Len(t, f.Decls[0].Fields, 3)
		assert.Equal(t, "sequence-of<sequence-of<string>>", f.Decls[0].Fields[2].Type.String())
		assert.Equal(t, 2, f.Decls[0].Fields[2].Position)
		assert.Equal(t, []string{"A", "B"}, f.Decls[1].Constants)
		assert.Empty(t, f.Decls[1].Comment)
	})

	t.Run("positions", func(t *testing.T) {
		f, err := Parse("pos.dt", []byte("\n\nrecord Point {\n  x: int\n}"))
		require.NoError(t, err)
		assert.Equal(t, Position{File: "pos.dt", Line: 3, Column: 1}, f.Decls[0].Pos)
		assert.Equal(t, Position{File: "pos.dt", Line: 4, Column: 3}, f.Decls[0].Fields[0].Pos)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		message string
	}{
		{"unexpected token", "record Point { x: int }\nstruct Foo", 2, "expected record, interface or enum"},
		{"malformed field list", "record Point {\n  x: int y: int\n}", 2, "malformed field list"},
		{"missing colon", "record Point {\n  x int\n}", 2, `malformed field "x"`},
		{"duplicate declaration", "record A\nrecord A", 2, `duplicate declaration "A"`},
		{"duplicate field", "record A {\n x: int\n x: string\n}", 3, `duplicate field "x"`},
		{"duplicate constant", "enum E { A, B, A }", 1, `duplicate constant "A"`},
		{"empty enum", "enum E {}", 1, "declares no constants"},
		{"interface body", "interface I {\n x: int\n}", 1, "cannot declare a body"},
		{"reserved name", "record int", 1, `"int" is reserved`},
		{"unknown constructor", "record A { x: map<string> }", 1, `unknown type constructor "map"`},
		{"missing brace", "record A {\n x: int\n", 1, "missing closing brace"},
		{"unterminated string", "record A { x: string = \"abc\n}", 1, "unterminated string"},
		{"bad character", "record A { x: int; }", 1, "unexpected character"},
		{"enum extends", "enum E extends I { A }", 1, "cannot extend"},
		{"trailing tokens", "record A {} B", 1, "after declaration"},
		{"open record", "open record R", 1, `expected "interface" after "open"`},
		{"unknown escape", `record A { x: string = "a\qb" }`, 1, "unknown escape sequence"},
		{"missing type", "record A {\n x: }", 2, "unexpected token"},
		{"typed constant", "enum E { A: int }", 1, `constant "A" cannot have a type`},
		{"fields on one line", "record A { x: int = 1 y: int }", 1, `unexpected "y" after field "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.dt", []byte(tt.src))
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "bad.dt", perr.File)
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, perr.Message, tt.message)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}
