package gen

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SupportFile is the base name of the shared support file.
const SupportFile = "datatype"

// JenniferGenerator renders a resolved schema through a dialect.
// Files are rendered in memory in parallel and written only after every
// file rendered successfully.
type JenniferGenerator struct {
	graph   *Graph
	workers int
	pkg     string

	// Dialect generator for the target language.
	// Requires at least MinimalDialect; builders and dispatch helpers are
	// generated when the dialect implements them.
	dialect MinimalDialect

	// Optional interface implementations detected at runtime
	builderGen  BuilderGenerator
	dispatchGen DispatchGenerator
	validator   Validator
}

// NewJenniferGenerator creates a new generator for the graph.
// You must call WithDialect() to set a dialect before calling Render().
//
// Example:
//
//	generator := gen.NewJenniferGenerator(graph)
//	generator.WithDialect(golang.NewDialect(generator))
//	files, err := generator.Generate(ctx)
func NewJenniferGenerator(g *Graph) *JenniferGenerator {
	return &JenniferGenerator{
		graph:   g,
		workers: g.WorkerCount(),
		pkg:     g.PackageName(),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *JenniferGenerator) WithWorkers(n int) *JenniferGenerator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// WithPackage sets the output package name.
func (g *JenniferGenerator) WithPackage(pkg string) *JenniferGenerator {
	if pkg != "" {
		g.pkg = pkg
	}
	return g
}

// WithDialect sets the dialect generator.
// The dialect must implement MinimalDialect at minimum.
// Additional capabilities are detected via BuilderGenerator,
// DispatchGenerator and Validator.
func (g *JenniferGenerator) WithDialect(d MinimalDialect) *JenniferGenerator {
	if d != nil {
		g.dialect = d
		// Detect optional capabilities via type assertion
		g.builderGen, _ = d.(BuilderGenerator)
		g.dispatchGen, _ = d.(DispatchGenerator)
		g.validator, _ = d.(Validator)
	}
	return g
}

// renderTask is one file to render.
type renderTask struct {
	phase  string
	path   string
	render func() Content
}

// tasks lists the files of the run in declaration order.
func (g *JenniferGenerator) tasks() []renderTask {
	ext := g.dialect.Ext()
	mutable := g.graph.MutableVariant()
	var tasks []renderTask
	for _, t := range g.graph.Nodes {
		base := t.FileBase()
		switch {
		case t.IsRecord():
			tasks = append(tasks, renderTask{"record", base + ext, func() Content { return g.dialect.GenRecord(t) }})
			if mutable && g.builderGen != nil {
				tasks = append(tasks, renderTask{"builder", base + "_builder" + ext, func() Content { return g.builderGen.GenBuilder(t) }})
			}
		case t.IsInterface():
			tasks = append(tasks, renderTask{"interface", base + ext, func() Content { return g.dialect.GenInterface(t) }})
			if t.Closed() && g.dispatchGen != nil {
				tasks = append(tasks, renderTask{"dispatch", base + "_dispatch" + ext, func() Content { return g.dispatchGen.GenDispatch(t) }})
			}
		case t.IsEnum():
			tasks = append(tasks, renderTask{"enum", base + ext, func() Content { return g.dialect.GenEnum(t) }})
		}
	}
	tasks = append(tasks, renderTask{"support", SupportFile + ext, g.dialect.GenSupport})
	return tasks
}

// Render renders every file of the run in memory. It returns the files
// sorted by path, or the first error without producing any output.
func (g *JenniferGenerator) Render(ctx context.Context) ([]*File, error) {
	if g.dialect == nil {
		return nil, NewConfigError("Dialect", nil, "no dialect set: call WithDialect() before Render()")
	}
	if g.validator != nil {
		if err := g.validator.Validate(g.graph); err != nil {
			return nil, err
		}
	}
	tasks := g.tasks()
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		key := strings.ToLower(task.path)
		if seen[key] {
			return nil, NewGenerationError(task.phase, task.path, "two declarations map to the same file name", nil)
		}
		seen[key] = true
	}

	files := make([]*File, len(tasks))
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers)
	for i, task := range tasks {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := task.render().Render(&buf); err != nil {
				return NewGenerationError(task.phase, task.path, "render", err)
			}
			files[i] = &File{Path: task.path, Content: buf.Bytes()}
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b *File) int { return strings.Compare(a.Path, b.Path) })
	g.graph.Log().Debug("files rendered", zap.Int("files", len(files)), zap.String("dialect", g.dialect.Name()))
	return files, nil
}

// Generate renders every file and flushes them atomically into the target
// directory of the graph's configuration.
func (g *JenniferGenerator) Generate(ctx context.Context) ([]*File, error) {
	files, err := g.Render(ctx)
	if err != nil {
		return nil, err
	}
	if err := Flush(g.graph.Target, files); err != nil {
		return nil, err
	}
	return files, nil
}

// =============================================================================
// GeneratorHelper interface implementation
// These exported methods allow dialect packages to access helper functionality.
// =============================================================================

// NewFile creates a new Jennifer file with the header comment.
func (g *JenniferGenerator) NewFile() *jen.File {
	f := jen.NewFile(g.pkg)
	for _, line := range g.HeaderLines() {
		f.HeaderComment(line)
	}
	return f
}

// GoType returns the Jennifer code for the Go type of a reference.
func (g *JenniferGenerator) GoType(r *TypeRef) jen.Code {
	return goType(r)
}

// FieldType returns the Jennifer code for the Go type of a field.
func (g *JenniferGenerator) FieldType(f *Field) jen.Code {
	return goType(f.Type)
}

// Graph returns the resolved schema.
func (g *JenniferGenerator) Graph() *Graph {
	return g.graph
}

// Pkg returns the output package name.
func (g *JenniferGenerator) Pkg() string {
	return g.pkg
}

// Header returns the header comment of generated files.
func (g *JenniferGenerator) Header() string {
	return g.graph.HeaderComment()
}

// HeaderLines returns the header comment split into lines.
func (g *JenniferGenerator) HeaderLines() []string {
	return strings.Split(strings.TrimRight(g.graph.HeaderComment(), "\n"), "\n")
}

// FeatureEnabled reports if the given feature name is enabled.
func (g *JenniferGenerator) FeatureEnabled(name string) bool {
	enabled, _ := g.graph.FeatureEnabled(name)
	return enabled
}

// goType maps a reference to its Go type. Optional values are pointers,
// except optional interfaces which use the nil interface for absence.
func goType(r *TypeRef) jen.Code {
	switch r.Kind {
	case PrimitiveRef:
		return primitiveType(r.Primitive)
	case SequenceRef:
		return jen.Index().Add(goType(r.Elem))
	case OptionalRef:
		if r.Elem.Kind == InterfaceRef {
			return goType(r.Elem)
		}
		return jen.Op("*").Add(goType(r.Elem))
	default:
		return jen.Id(r.Type.GoName())
	}
}

func primitiveType(name string) jen.Code {
	switch name {
	case "bool":
		return jen.Bool()
	case "string":
		return jen.String()
	case "bytes":
		return jen.Index().Byte()
	case "int":
		return jen.Int()
	case "int8":
		return jen.Int8()
	case "int16":
		return jen.Int16()
	case "int32":
		return jen.Int32()
	case "int64":
		return jen.Int64()
	case "uint":
		return jen.Uint()
	case "uint8":
		return jen.Uint8()
	case "uint16":
		return jen.Uint16()
	case "uint32":
		return jen.Uint32()
	case "uint64":
		return jen.Uint64()
	case "float32":
		return jen.Float32()
	case "float64":
		return jen.Float64()
	case "time":
		return jen.Qual("time", "Time")
	case "duration":
		return jen.Qual("time", "Duration")
	default:
		return jen.Any()
	}
}
