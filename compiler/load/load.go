// Package load reads datatype definition files into an unresolved Schema.
//
// A definition file holds zero or more declarations:
//
//	namespace geometry
//
//	# Shape is any drawable figure.
//	interface Shape
//
//	record Circle extends Shape {
//	  radius: int = 1
//	  label: optional<string>
//	  tags: sequence-of<string>
//	}
//
//	enum Color { Red, Green, Blue }
//
// Files are independent parse units: ParseFiles parses them concurrently
// and merges the results in path order, so the declaration order of the
// resulting Schema does not depend on scheduling.
package load

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Ext is the file extension of definition files found in directories.
const Ext = ".dt"

// ParseFile reads and parses a single definition file.
func ParseFile(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Message: "cannot read definition file", Cause: err}
	}
	return Parse(path, src)
}

// ReadSources reads the contents of the given definition files in order.
func ReadSources(paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &ParseError{File: path, Message: "cannot read definition file", Cause: err}
		}
		sources = append(sources, Source{Path: path, Contents: src})
	}
	return sources, nil
}

// ParseSources parses already-read sources using up to workers goroutines.
// The merged Schema is ordered by source path. The first error aborts the
// run; no partial Schema is returned.
func ParseSources(ctx context.Context, workers int, sources []Source) (*Schema, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sorted := slices.Clone(sources)
	slices.SortStableFunc(sorted, func(a, b Source) int { return strings.Compare(a.Path, b.Path) })
	files := make([]*File, len(sorted))
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(workers)
	for i, src := range sorted {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := Parse(src.Path, src.Contents)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	return Merge(files...), nil
}

// ParseFiles reads and parses the given definition files.
func ParseFiles(ctx context.Context, paths ...string) (*Schema, error) {
	sources, err := ReadSources(paths)
	if err != nil {
		return nil, err
	}
	return ParseSources(ctx, 0, sources)
}

// Collect expands the given paths into a sorted, de-duplicated list of
// definition files. Directories contribute their *.dt files (not
// recursively); plain files are taken as they are.
func Collect(paths ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &ParseError{File: p, Message: "cannot read definition source", Cause: err}
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, &ParseError{File: p, Message: "cannot list definition directory", Cause: err}
		}
		for _, e := range entries {
			if e.Type()&fs.ModeType == 0 && filepath.Ext(e.Name()) == Ext {
				add(filepath.Join(p, e.Name()))
			}
		}
	}
	slices.Sort(out)
	return out, nil
}
