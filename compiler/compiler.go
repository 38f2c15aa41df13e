// Package compiler runs the datatype pipeline: definition files are parsed,
// resolved into a Graph and rendered through the configured dialect into
// the target directory. A content fingerprint of every input guards the
// whole pipeline; when nothing changed since the last successful run the
// previous output is reused without parsing anything.
//
//	cfg, err := gen.NewConfig(gen.WithTarget("./model"), gen.WithMutableVariant(true))
//	if err != nil {
//		return err
//	}
//	res, err := compiler.Generate(ctx, cfg, "./schema")
package compiler

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/syssam/datatype"
	"github.com/syssam/datatype/compiler/cache"
	"github.com/syssam/datatype/compiler/gen"
	_ "github.com/syssam/datatype/compiler/gen/golang" // default dialect
	"github.com/syssam/datatype/compiler/load"
)

// Result is the outcome of a generation run.
type Result struct {
	// Files are the paths of the generated files, under the target.
	Files []string
	// CacheHit reports that the previous output was reused.
	CacheHit bool
	// Fingerprint of the run's inputs.
	Fingerprint string
}

// Generate generates the code of the definition files found in sources
// (files, or directories holding *.dt files) into cfg.Target.
func Generate(ctx context.Context, cfg *gen.Config, sources ...string) (*Result, error) {
	in, err := prepare(cfg, sources)
	if err != nil {
		return nil, err
	}
	log := cfg.Log().With(zap.String("target", cfg.Target))
	produce := func(ctx context.Context) ([]string, error) {
		return run(ctx, cfg, in.Sources)
	}
	key := cache.Key{Target: cfg.Target, Flags: cfg.Flags(), Fingerprint: cache.Fingerprint(*in)}

	if cfg.NoCache {
		files, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		log.Info("generated", zap.Int("files", len(files)))
		return newResult(cfg, files, false, key.Fingerprint), nil
	}
	c := cache.New(cacheDir(cfg), cache.WithLogger(cfg.Log()))
	cached := c.Run
	if cfg.Force {
		cached = c.Regenerate
	}
	out, err := cached(ctx, key, produce)
	if err != nil {
		return nil, err
	}
	if out.Hit {
		log.Info("up to date", zap.Int("files", len(out.Files)), zap.String("run_id", out.RunID))
	} else {
		log.Info("generated", zap.Int("files", len(out.Files)), zap.String("run_id", out.RunID))
	}
	return newResult(cfg, out.Files, out.Hit, out.Fingerprint), nil
}

// Check reports whether the output of cfg is up to date with sources,
// without generating anything. The result's CacheHit is true when the
// recorded output matches the current inputs.
func Check(ctx context.Context, cfg *gen.Config, sources ...string) (*Result, error) {
	in, err := prepare(cfg, sources)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cache.Key{Target: cfg.Target, Flags: cfg.Flags(), Fingerprint: cache.Fingerprint(*in)}
	out, ok := cache.New(cacheDir(cfg), cache.WithLogger(cfg.Log())).Lookup(key)
	if !ok {
		return &Result{Fingerprint: key.Fingerprint}, nil
	}
	return newResult(cfg, out.Files, true, key.Fingerprint), nil
}

// LoadGraph parses and resolves the definition files of sources without
// generating anything.
func LoadGraph(ctx context.Context, cfg *gen.Config, sources ...string) (*gen.Graph, error) {
	in, err := prepare(cfg, sources)
	if err != nil {
		return nil, err
	}
	return resolve(ctx, cfg, in.Sources)
}

// prepare validates cfg and reads every definition file of the run.
func prepare(cfg *gen.Config, sources []string) (*cache.Inputs, error) {
	if cfg == nil {
		return nil, errors.New("datatype: missing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	paths, err := load.Collect(sources...)
	if err != nil {
		return nil, errors.Wrap(err, "collect definition files")
	}
	if len(paths) == 0 {
		return nil, errors.WithHint(
			errors.Newf("datatype: no definition files in %v", sources),
			"pass definition files or directories holding "+load.Ext+" files",
		)
	}
	srcs, err := load.ReadSources(paths)
	if err != nil {
		return nil, errors.Wrap(err, "read definition files")
	}
	return &cache.Inputs{
		Sources:   srcs,
		Generator: datatype.Name + "/" + cfg.DialectName(),
		Version:   cfg.GeneratorVersion().String(),
		CallerKey: cfg.CacheKey,
		Flags:     cfg.Flags(),
	}, nil
}

func resolve(ctx context.Context, cfg *gen.Config, srcs []load.Source) (*gen.Graph, error) {
	schema, err := load.ParseSources(ctx, cfg.WorkerCount(), srcs)
	if err != nil {
		return nil, errors.Wrap(err, "parse definition files")
	}
	g, err := gen.NewGraph(cfg, schema)
	if err != nil {
		return nil, errors.Wrap(err, "resolve schema")
	}
	return g, nil
}

// run is the full pipeline, returning the generated files relative to the
// target.
func run(ctx context.Context, cfg *gen.Config, srcs []load.Source) ([]string, error) {
	g, err := resolve(ctx, cfg, srcs)
	if err != nil {
		return nil, err
	}
	generator := gen.NewJenniferGenerator(g)
	d, err := gen.NewDialect(cfg.DialectName(), generator)
	if err != nil {
		return nil, err
	}
	files, err := generator.WithDialect(d).Generate(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "generate %s", cfg.Target)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

func cacheDir(cfg *gen.Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	return cache.DefaultDir(cfg.Target)
}

func newResult(cfg *gen.Config, files []string, hit bool, fingerprint string) *Result {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(cfg.Target, filepath.FromSlash(f))
	}
	return &Result{Files: paths, CacheHit: hit, Fingerprint: fingerprint}
}
