// Package cache skips regeneration when nothing that determines the
// generated bytes has changed since the last successful run.
//
// A run is identified by a Key: the target directory and the output-mode
// flags. For each key the controller keeps a record holding the
// fingerprint of the last successful run and the files it produced:
//
//	{dir}/
//	├── {key}.msgpack   # last successful run of the configuration
//	└── {key}.lock      # locked while a run of the configuration is active
//
// A run whose fingerprint matches the record, and whose recorded files all
// still exist, is a hit and leaves the target untouched.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// recordVersion changes whenever the record layout does.
const recordVersion = 1

// DirName is the default name of the cache directory, created next to the
// target directory.
const DirName = ".datatype-cache"

// DefaultDir returns the default cache directory of a target.
func DefaultDir(target string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(target)), DirName)
}

// Key identifies a generation configuration and its fingerprint.
type Key struct {
	// Target is the output directory. Recorded files are relative to it.
	Target string
	// Flags are the output-mode settings of the configuration.
	Flags []string
	// Fingerprint of the run's inputs.
	Fingerprint string
}

// ID returns a stable identifier of the configuration, independent of the
// fingerprint. Distinct configurations have distinct records and locks.
func (k Key) ID() string {
	abs, err := filepath.Abs(k.Target)
	if err != nil {
		abs = filepath.Clean(k.Target)
	}
	sum := sha256.Sum256([]byte(abs + "\x00" + strings.Join(k.Flags, "\x00")))
	return hex.EncodeToString(sum[:12])
}

// Producer regenerates the output of a run and returns the produced file
// paths, relative to the target and slash separated.
type Producer func(ctx context.Context) ([]string, error)

// Outcome describes a finished run.
type Outcome struct {
	Hit         bool
	Files       []string
	Fingerprint string
	// RunID identifies the run that produced the files.
	RunID string
	// GeneratedAt is when the files were produced.
	GeneratedAt time.Time
}

// record is the persisted state of the last successful run.
type record struct {
	Version     int       `msgpack:"version"`
	Fingerprint string    `msgpack:"fingerprint"`
	Target      string    `msgpack:"target"`
	Files       []string  `msgpack:"files"`
	RunID       string    `msgpack:"run_id"`
	CreatedAt   time.Time `msgpack:"created_at"`
}

// Controller decides between reusing and regenerating the output of a run.
type Controller struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger receiving cache diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock sets the clock stamping records.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a controller keeping its records in dir.
func New(dir string, opts ...Option) *Controller {
	c := &Controller{dir: dir, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the directory holding the records.
func (c *Controller) Dir() string { return c.dir }

// Run returns the recorded outcome of key when it is still valid, and
// otherwise calls produce and records its result. Runs of the same
// configuration are serialized. Errors of produce are returned as they
// are; cache failures are logged and never fail the run.
func (c *Controller) Run(ctx context.Context, key Key, produce Producer) (*Outcome, error) {
	return c.run(ctx, key, produce, false)
}

// Regenerate calls produce regardless of the recorded outcome of key and
// records its result, under the same lock as Run.
func (c *Controller) Regenerate(ctx context.Context, key Key, produce Producer) (*Outcome, error) {
	return c.run(ctx, key, produce, true)
}

func (c *Controller) run(ctx context.Context, key Key, produce Producer, force bool) (*Outcome, error) {
	id := key.ID()
	log := c.log.With(zap.String("target", key.Target), zap.String("key", id))
	unlock, err := Lock(ctx, filepath.Join(c.dir, id+".lock"))
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Without the lock the record cannot be trusted or written.
		log.Warn("cache disabled for this run", zap.Error(err))
		files, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		return &Outcome{Files: files, Fingerprint: key.Fingerprint, RunID: uuid.NewString(), GeneratedAt: c.now().UTC()}, nil
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn("cache lock not released", zap.Error(err))
		}
	}()

	path := c.recordPath(id)
	if force {
		if err := c.Invalidate(key); err != nil {
			log.Warn("cache record not removed", zap.Error(err))
		}
		log.Debug("cache miss: forced")
	} else {
		rec, err := readRecord(path)
		switch {
		case err != nil:
			log.Warn("cache record ignored", zap.Error(err))
		case rec == nil:
			log.Debug("cache miss: no record")
		case c.valid(rec, key, log):
			log.Debug("cache hit", zap.String("run_id", rec.RunID))
			return &Outcome{Hit: true, Files: rec.Files, Fingerprint: rec.Fingerprint, RunID: rec.RunID, GeneratedAt: rec.CreatedAt}, nil
		}
	}

	files, err := produce(ctx)
	if err != nil {
		return nil, err
	}
	rec := &record{
		Version:     recordVersion,
		Fingerprint: key.Fingerprint,
		Target:      key.Target,
		Files:       files,
		RunID:       uuid.NewString(),
		CreatedAt:   c.now().UTC(),
	}
	if err := writeRecord(path, rec); err != nil {
		log.Warn("cache record not written", zap.Error(err))
	}
	return &Outcome{Files: files, Fingerprint: key.Fingerprint, RunID: rec.RunID, GeneratedAt: rec.CreatedAt}, nil
}

// Invalidate removes the record of key, forcing the next run to regenerate.
func (c *Controller) Invalidate(key Key) error {
	path := c.recordPath(key.ID())
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &CacheIOError{Op: "remove", Path: path, Cause: err}
	}
	return nil
}

// Lookup returns the recorded outcome of key without running anything. It
// reports false when the run would be a miss.
func (c *Controller) Lookup(key Key) (*Outcome, bool) {
	rec, err := readRecord(c.recordPath(key.ID()))
	if err != nil || rec == nil || !c.valid(rec, key, c.log) {
		return nil, false
	}
	return &Outcome{Hit: true, Files: rec.Files, Fingerprint: rec.Fingerprint, RunID: rec.RunID, GeneratedAt: rec.CreatedAt}, true
}

func (c *Controller) recordPath(id string) string {
	return filepath.Join(c.dir, id+".msgpack")
}

// valid reports whether rec describes the current output of key.
func (c *Controller) valid(rec *record, key Key, log *zap.Logger) bool {
	switch {
	case rec.Version != recordVersion:
		log.Debug("cache miss: record version", zap.Int("version", rec.Version))
		return false
	case rec.Fingerprint != key.Fingerprint:
		log.Debug("cache miss: fingerprint changed")
		return false
	}
	for _, f := range rec.Files {
		if _, err := os.Stat(filepath.Join(key.Target, filepath.FromSlash(f))); err != nil {
			log.Debug("cache miss: generated file missing", zap.String("file", f))
			return false
		}
	}
	return true
}

// readRecord returns the record at path, or nil if there is none.
func readRecord(path string) (*record, error) {
	b, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, &CacheIOError{Op: "read", Path: path, Cause: err}
	}
	rec := &record{}
	if err := msgpack.Unmarshal(b, rec); err != nil {
		return nil, &CacheIOError{Op: "decode", Path: path, Cause: err}
	}
	return rec, nil
}

// writeRecord replaces the record at path through a temporary file.
func writeRecord(path string, rec *record) error {
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return &CacheIOError{Op: "encode", Path: path, Cause: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &CacheIOError{Op: "write", Path: path, Cause: err}
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &CacheIOError{Op: "write", Path: path, Cause: err}
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(b); err != nil {
		f.Close()
		return &CacheIOError{Op: "write", Path: path, Cause: err}
	}
	if err := f.Close(); err != nil {
		return &CacheIOError{Op: "write", Path: path, Cause: err}
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return &CacheIOError{Op: "write", Path: path, Cause: err}
	}
	return nil
}
