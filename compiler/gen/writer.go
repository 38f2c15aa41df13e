package gen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	"golang.org/x/tools/imports"
)

// File is a rendered file of a generation run.
type File struct {
	// Path is relative to the target directory, slash separated.
	Path    string
	Content []byte
}

// TemplateFile renders a text/template and formats the result with
// goimports (removes unused imports and adds missing ones).
type TemplateFile struct {
	// Name is the file name used for formatting diagnostics.
	Name     string
	Template *template.Template
	Data     any
}

// Render executes the template and writes the formatted source to w.
func (f *TemplateFile) Render(w io.Writer) error {
	// 1. Execute template
	var buf bytes.Buffer
	if err := f.Template.Execute(&buf, f.Data); err != nil {
		return fmt.Errorf("execute template %q for %s: %w", f.Template.Name(), f.Name, err)
	}
	// 2. Format using goimports
	formatted, err := imports.Process(f.Name, buf.Bytes(), nil)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.Name, err)
	}
	_, err = w.Write(formatted)
	return err
}

// Flush replaces the target directory with the given files.
//
// The files are written into a temporary sibling directory first. The
// previous target, if any, is then moved aside and the new directory
// renamed into place. On failure the previous target is restored and the
// temporary directory removed, so the target is never left half-written.
func Flush(target string, files []*File) error {
	target = filepath.Clean(target)
	parent, base := filepath.Dir(target), filepath.Base(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return &EmissionIOError{Op: "mkdir", Path: parent, Cause: err}
	}
	if err := recoverStale(target); err != nil {
		return err
	}

	tmp, err := os.MkdirTemp(parent, "."+base+".tmp-")
	if err != nil {
		return &EmissionIOError{Op: "mkdir", Path: parent, Cause: err}
	}
	defer os.RemoveAll(tmp)
	if err := os.Chmod(tmp, 0o755); err != nil {
		return &EmissionIOError{Op: "chmod", Path: tmp, Cause: err}
	}
	for _, f := range files {
		name := filepath.Join(tmp, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return &EmissionIOError{Op: "mkdir", Path: filepath.Join(target, filepath.FromSlash(f.Path)), Cause: err}
		}
		if err := os.WriteFile(name, f.Content, 0o644); err != nil {
			return &EmissionIOError{Op: "write", Path: filepath.Join(target, filepath.FromSlash(f.Path)), Cause: err}
		}
	}

	var old string
	switch _, err := os.Lstat(target); {
	case err == nil:
		old = tmp + ".old"
		if err := os.Rename(target, old); err != nil {
			return &EmissionIOError{Op: "rename", Path: target, Cause: err}
		}
	case !os.IsNotExist(err):
		return &EmissionIOError{Op: "stat", Path: target, Cause: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		if old != "" {
			_ = os.Rename(old, target)
		}
		return &EmissionIOError{Op: "rename", Path: target, Cause: err}
	}
	if old != "" {
		// A leftover backup is removed by the next flush.
		_ = os.RemoveAll(old)
	}
	return nil
}

// recoverStale cleans up after an interrupted flush. When the target is
// missing, the newest backup of the previous output is moved back into
// place. Remaining temporary directories and backups are then removed.
func recoverStale(target string) error {
	parent, base := filepath.Dir(target), filepath.Base(target)
	matches, _ := filepath.Glob(filepath.Join(parent, "."+base+".tmp-*"))
	var backups []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".old") {
			backups = append(backups, m)
			continue
		}
		_ = os.RemoveAll(m)
	}
	if len(backups) == 0 {
		return nil
	}
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		newest, at := 0, time.Time{}
		for i, b := range backups {
			if info, err := os.Stat(b); err == nil && info.ModTime().After(at) {
				newest, at = i, info.ModTime()
			}
		}
		if err := os.Rename(backups[newest], target); err != nil {
			return &EmissionIOError{Op: "restore", Path: target, Cause: err}
		}
		backups = slices.Delete(backups, newest, newest+1)
	}
	for _, b := range backups {
		_ = os.RemoveAll(b)
	}
	return nil
}
