package gen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datatype/compiler/load"
)

// parseSchema parses each source as its own file, in the given order.
func parseSchema(t *testing.T, sources ...string) *load.Schema {
	t.Helper()
	files := make([]*load.File, 0, len(sources))
	for i, src := range sources {
		f, err := load.Parse(string(rune('a'+i))+".dt", []byte(src))
		require.NoError(t, err)
		files = append(files, f)
	}
	return load.Merge(files...)
}

func newTestGraph(t *testing.T, sources ...string) (*Graph, error) {
	t.Helper()
	return NewGraph(MustNewConfig(WithTarget(t.TempDir())), parseSchema(t, sources...))
}

func TestNewGraph(t *testing.T) {
	g, err := newTestGraph(t, `
interface Shape
interface Polygon extends Shape
record Point { x: int, y: int }
record Circle extends Shape { center: Point, radius: float64 }
record Square extends Polygon { side: float64 }
enum Color { Red, Green }
`)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 6)
	assert.Len(t, g.Records(), 3)
	assert.Len(t, g.Interfaces(), 2)
	assert.Len(t, g.Enums(), 1)

	shape, ok := g.Lookup("Shape")
	require.True(t, ok)
	polygon, _ := g.Lookup("Polygon")
	circle, _ := g.Lookup("Circle")
	square, _ := g.Lookup("Square")

	assert.Equal(t, []*Type{circle, square}, shape.Variants)
	assert.Equal(t, []*Type{polygon}, shape.Descendants)
	assert.Equal(t, []*Type{square}, polygon.Variants)
	assert.Equal(t, []*Type{polygon, shape}, square.Ancestors)
	assert.True(t, square.Implements(shape))
	assert.False(t, circle.Implements(polygon))
	assert.True(t, shape.Closed())

	require.Len(t, circle.Fields, 2)
	center := circle.Fields[0]
	assert.Equal(t, RecordRef, center.Type.Kind)
	assert.Equal(t, "Point", center.Type.String())
	assert.Equal(t, 1, circle.Fields[1].Position)
}

func TestNewGraphNamespaces(t *testing.T) {
	g, err := newTestGraph(t,
		"namespace geo\nrecord Point { x: int }\nrecord Line { from: Point, to: geo.Point, tag: Tag }",
		"record Tag { name: string }\nrecord Point { label: string }",
	)
	require.NoError(t, err)
	line, ok := g.Lookup("geo.Line")
	require.True(t, ok)
	assert.Equal(t, "geo.Point", line.Fields[0].Type.Type.QualifiedName(), "namespace of the referring file first")
	assert.Equal(t, "geo.Point", line.Fields[1].Type.Type.QualifiedName())
	assert.Equal(t, "Tag", line.Fields[2].Type.Type.QualifiedName(), "root namespace second")
}

func TestNewGraphErrors(t *testing.T) {
	t.Run("duplicate type", func(t *testing.T) {
		_, err := newTestGraph(t, "record Point { x: int }", "record Point { y: int }")
		require.Error(t, err)
		assert.True(t, IsDuplicateTypeError(err))
		assert.Contains(t, err.Error(), "a.dt:1:1 and b.dt:1:1")
	})

	t.Run("unresolved field type", func(t *testing.T) {
		_, err := newTestGraph(t, "record Circle { center: Pointt }")
		require.Error(t, err)
		var refErr *UnresolvedReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, "Pointt", refErr.Reference)
		assert.Equal(t, "center", refErr.Field)
	})

	t.Run("unresolved extends", func(t *testing.T) {
		_, err := newTestGraph(t, "record Circle extends Shap")
		require.Error(t, err)
		assert.True(t, IsUnresolvedReferenceError(err))
	})

	t.Run("extends a record", func(t *testing.T) {
		_, err := newTestGraph(t, "record Point\nrecord Circle extends Point")
		require.Error(t, err)
		assert.True(t, IsSchemaError(err))
		assert.Contains(t, err.Error(), "only interfaces can be extended")
	})

	t.Run("cyclic inheritance", func(t *testing.T) {
		_, err := newTestGraph(t, "interface A extends B\ninterface B extends A")
		require.Error(t, err)
		var cycleErr *CyclicInheritanceError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"A", "B", "A"}, cycleErr.Cycle)
	})

	t.Run("self inheritance", func(t *testing.T) {
		_, err := newTestGraph(t, "interface A extends A")
		var cycleErr *CyclicInheritanceError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"A", "A"}, cycleErr.Cycle)
	})

	t.Run("nested optional", func(t *testing.T) {
		_, err := newTestGraph(t, "record R { a: optional<optional<int>> }")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "optional<optional<T>> is not supported")
	})
}

func TestNewGraphDefaults(t *testing.T) {
	g, err := newTestGraph(t, `
enum Color { Red, Green }
record R {
  a: int8 = -3
  b: uint16 = 7
  c: float32 = 2
  d: bool = false
  e: string = "x"
  f: duration = "2s"
  g: Color = Color.Green
  h: optional<int> = 4
  i: int? = 5
}`)
	require.NoError(t, err)
	r, _ := g.Lookup("R")
	values := make([]any, 0, len(r.Fields))
	for _, f := range r.Fields {
		require.NotNil(t, f.Default, f.Name)
		values = append(values, f.Default.Value)
	}
	assert.Equal(t, []any{int64(-3), uint64(7), float64(2), false, "x", 2 * time.Second, 1, int64(4), int64(5)}, values)
	assert.True(t, r.Fields[8].Optional(), "nullable fields are optional")
	assert.True(t, r.Fields[8].Nullable)
}

func TestNewGraphDefaultErrors(t *testing.T) {
	tests := map[string]string{
		"int overflow":      "record R { a: int8 = 300 }",
		"negative unsigned": "record R { a: uint = -1 }",
		"bool mismatch":     `record R { a: bool = "yes" }`,
		"bad duration":      `record R { a: duration = "soon" }`,
		"record default":    "record P\nrecord R { a: P = 1 }",
		"sequence default":  "record R { a: sequence-of<int> = 1 }",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestGraph(t, src)
			require.Error(t, err)
			assert.True(t, IsSchemaError(err))
		})
	}

	t.Run("unknown enum constant", func(t *testing.T) {
		_, err := newTestGraph(t, "enum Color { Red }\nrecord R { c: Color = Blue }")
		require.Error(t, err)
		assert.True(t, IsUnresolvedReferenceError(err))
		assert.Contains(t, err.Error(), "Color.Blue")
	})
}

func TestEmptyInterfacePolicy(t *testing.T) {
	schema := "interface Shape\nopen interface Plugin"

	g, err := NewGraph(MustNewConfig(WithTarget(t.TempDir())), parseSchema(t, schema))
	require.NoError(t, err)
	shape, _ := g.Lookup("Shape")
	assert.False(t, shape.Closed())

	_, err = NewGraph(MustNewConfig(WithTarget(t.TempDir()), WithEmptyInterfacePolicy(EmptyInterfaceError)), parseSchema(t, schema))
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Contains(t, err.Error(), "on type Shape")
	assert.Contains(t, err.Error(), "declare it open or add a variant")
}

func TestOpenInterfaceExtendsClosed(t *testing.T) {
	tests := map[string]string{
		"declared open": "interface Shape\nopen interface Plugin extends Shape\nrecord Circle extends Shape {}",
		"without variants": "interface Shape\ninterface Polygon extends Shape\nrecord Circle extends Shape {}",
	}
	for name, schema := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestGraph(t, schema)
			require.Error(t, err)
			assert.True(t, IsSchemaError(err))
			assert.Contains(t, err.Error(), "extends closed interface Shape")
		})
	}

	g, err := newTestGraph(t, "open interface Named\nopen interface Plugin extends Named\nrecord Echo extends Plugin {}")
	require.NoError(t, err, "open interfaces may extend open ones")
	named, _ := g.Lookup("Named")
	assert.False(t, named.Closed())
}

func TestNewGraphNilConfig(t *testing.T) {
	_, err := NewGraph(nil, &load.Schema{})
	assert.True(t, IsConfigError(err))
}
