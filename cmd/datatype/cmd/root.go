// Package cmd implements the datatype command line.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/datatype/compiler"
	"github.com/syssam/datatype/compiler/config"
	"github.com/syssam/datatype/compiler/gen"
)

// ErrStale is returned by the check command when generated code is out of
// date.
var ErrStale = errors.New("generated code is out of date")

// options are the flags shared by every command.
type options struct {
	configPath string
	targets    []string
	jsonLogs   bool
	verbose    bool

	log *zap.Logger
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd returns the datatype command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "datatype",
		Short: "Generate Go datatypes from definition files",
		Long: `Generate immutable Go value types from datatype definition files.

A project file (datatype.yaml) names the definition sources and the targets
they are generated into. Every target is generated independently and cached:
a target whose inputs did not change since its last generation is left
untouched.

Examples:
  datatype generate                    # Generate every target of ./datatype.yaml
  datatype generate -t model           # Generate one target
  datatype check                       # Exit 1 when a target is out of date
  datatype watch                       # Regenerate on every change`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			o.log = newLogger(cmd.ErrOrStderr(), o.jsonLogs, o.verbose)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.log != nil {
				_ = o.log.Sync()
			}
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", config.DefaultFile, "Project file")
	flags.StringSliceVarP(&o.targets, "target", "t", nil, "Targets to process (default: all)")
	flags.BoolVar(&o.jsonLogs, "json-logs", false, "Write logs as JSON")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Log debug output")

	root.AddCommand(
		newGenerateCmd(o),
		newCheckCmd(o),
		newWatchCmd(o),
		newVersionCmd(),
	)
	return root
}

// newLogger builds a console logger for humans, or a JSON logger for
// machines, writing to w.
func newLogger(w io.Writer, json, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), level))
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), level))
}

// project loads the project file and the selected targets.
func (o *options) project() (*config.Project, []config.Target, error) {
	p, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, errors.WithHint(err, "create "+config.DefaultFile+" or pass --config")
	}
	targets, err := p.Select(o.targets...)
	if err != nil {
		return nil, nil, err
	}
	return p, targets, nil
}

// targetRun is the per-target step of a command.
type targetRun func(ctx context.Context, cfg *gen.Config, sources ...string) (*compiler.Result, error)

// each runs fn for every target concurrently. Distinct targets never share
// a cache entry, so they do not contend. Results are in target order.
func (o *options) each(ctx context.Context, p *config.Project, targets []config.Target, fn targetRun, extra ...gen.Option) ([]*compiler.Result, error) {
	results := make([]*compiler.Result, len(targets))
	errg, ctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		errg.Go(func() error {
			opts := append([]gen.Option{gen.WithLogger(o.log.With(zap.String("name", t.Name)))}, extra...)
			cfg, err := p.Config(t, opts...)
			if err != nil {
				return err
			}
			res, err := fn(ctx, cfg, p.SourcePaths()...)
			if err != nil {
				return errors.Wrapf(err, "target %s", t.Name)
			}
			results[i] = res
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
