package golang

import (
	"context"
	"go/parser"
	"go/token"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/datatype/compiler/gen"
	"github.com/syssam/datatype/compiler/load"
)

// newGraph resolves the given sources, keyed by file name.
func newGraph(t *testing.T, sources map[string]string, opts ...gen.Option) *gen.Graph {
	t.Helper()
	names := keys(sources)
	slices.Sort(names)
	files := make([]*load.File, 0, len(sources))
	for _, name := range names {
		f, err := load.Parse(name, []byte(sources[name]))
		require.NoError(t, err)
		files = append(files, f)
	}
	opts = append([]gen.Option{gen.WithTarget(filepath.Join(t.TempDir(), "model"))}, opts...)
	g, err := gen.NewGraph(gen.MustNewConfig(opts...), load.Merge(files...))
	require.NoError(t, err)
	return g
}

// renderSchema renders a single-file schema with the Go dialect and
// returns the files by path. Every file must be valid Go syntax.
func renderSchema(t *testing.T, src string, opts ...gen.Option) map[string]string {
	t.Helper()
	files, err := render(newGraph(t, map[string]string{"schema.dt": src}, opts...))
	require.NoError(t, err)
	out := make(map[string]string, len(files))
	fset := token.NewFileSet()
	for _, f := range files {
		_, err := parser.ParseFile(fset, f.Path, f.Content, parser.ParseComments)
		require.NoError(t, err, "generated file %s:\n%s", f.Path, f.Content)
		out[f.Path] = string(f.Content)
	}
	return out
}

func render(g *gen.Graph) ([]*gen.File, error) {
	generator := gen.NewJenniferGenerator(g)
	generator.WithDialect(NewDialect(generator))
	return generator.Render(context.Background())
}

func keys(m map[string]string) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}
