package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/datatype/compiler"
	"github.com/syssam/datatype/compiler/load"
)

func newWatchCmd(o *options) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate targets whenever definition files change",
		Long: `Generate the targets of a project, then regenerate them whenever a
definition file or the project file changes. Failed generations are logged
and the previous output is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := newWatcher(o, cmd.OutOrStdout(), debounce)
			if err != nil {
				return err
			}
			defer w.close()
			return w.run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before regenerating")
	return cmd
}

// watcher regenerates a project on file system changes.
type watcher struct {
	o        *options
	out      io.Writer
	fs       *fsnotify.Watcher
	debounce time.Duration
	config   string
	dirs     map[string]bool
}

func newWatcher(o *options, out io.Writer, debounce time.Duration) (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	config, err := filepath.Abs(o.configPath)
	if err != nil {
		fs.Close()
		return nil, errors.Wrap(err, "resolve project file")
	}
	return &watcher{o: o, out: out, fs: fs, debounce: debounce, config: config, dirs: make(map[string]bool)}, nil
}

func (w *watcher) close() {
	if err := w.fs.Close(); err != nil {
		w.o.log.Warn("close file watcher", zap.Error(err))
	}
}

// run generates once and then on every relevant change until ctx is done.
func (w *watcher) run(ctx context.Context) error {
	if err := w.watch(filepath.Dir(w.config)); err != nil {
		return err
	}
	w.generate(ctx)

	var fire <-chan time.Time
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.o.log.Debug("change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.generate(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.o.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

// generate reloads the project and regenerates the selected targets. The
// directories of new sources are added to the watch list.
func (w *watcher) generate(ctx context.Context) {
	p, targets, err := w.o.project()
	if err != nil {
		w.o.log.Error("load project", zap.Error(err))
		return
	}
	for _, src := range p.SourcePaths() {
		dir := src
		if info, err := os.Stat(src); err == nil && !info.IsDir() {
			dir = filepath.Dir(src)
		}
		if err := w.watch(dir); err != nil {
			w.o.log.Warn("watch sources", zap.String("dir", dir), zap.Error(err))
		}
	}
	results, err := w.o.each(ctx, p, targets, compiler.Generate)
	if err != nil {
		w.o.log.Error("generation failed", zap.Error(err))
		return
	}
	printResults(w.out, targets, results)
}

func (w *watcher) watch(dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if w.dirs[dir] {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}
	w.dirs[dir] = true
	return nil
}

// relevant reports whether the event can change the generated output.
func (w *watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	switch {
	case name == w.config, filepath.Ext(name) == load.Ext:
		return true
	case filepath.Base(name) == ".env" && filepath.Dir(name) == filepath.Dir(w.config):
		return true
	}
	return false
}
