package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/syssam/datatype/compiler/load"
)

// producer returns a Producer writing the given files into target and
// counting its calls.
func producer(t *testing.T, target string, calls *int, files ...string) Producer {
	t.Helper()
	return func(context.Context) ([]string, error) {
		*calls++
		require.NoError(t, os.MkdirAll(target, 0o755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(target, f), []byte("package model\n"), 0o644))
		}
		return files, nil
	}
}

func newKey(target, fingerprint string) Key {
	return Key{Target: target, Flags: []string{"mutable=true"}, Fingerprint: fingerprint}
}

func TestFingerprint(t *testing.T) {
	base := Inputs{
		Sources: []load.Source{
			{Path: "a.dt", Contents: []byte("record Point { x: int, y: int }")},
			{Path: "b.dt", Contents: []byte("enum Color { Red, Green }")},
		},
		Generator: "go",
		Version:   "0.4.0",
		CallerKey: "consumer-1",
		Flags:     []string{"mutable=true", "package=model"},
	}
	want := Fingerprint(base)
	assert.Len(t, want, 64)

	t.Run("OrderIndependent", func(t *testing.T) {
		in := base
		in.Sources = []load.Source{base.Sources[1], base.Sources[0]}
		in.Flags = []string{"package=model", "mutable=true"}
		assert.Equal(t, want, Fingerprint(in))
	})

	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"FieldOrder", func(in *Inputs) {
			in.Sources = []load.Source{
				{Path: "a.dt", Contents: []byte("record Point { y: int, x: int }")},
				base.Sources[1],
			}
		}},
		{"SourcePath", func(in *Inputs) {
			in.Sources = []load.Source{{Path: "c.dt", Contents: base.Sources[0].Contents}, base.Sources[1]}
		}},
		{"MissingSource", func(in *Inputs) { in.Sources = base.Sources[:1] }},
		{"Generator", func(in *Inputs) { in.Generator = "other" }},
		{"Version", func(in *Inputs) { in.Version = "0.5.0" }},
		{"CallerKey", func(in *Inputs) { in.CallerKey = "consumer-2" }},
		{"Flags", func(in *Inputs) { in.Flags = []string{"mutable=false", "package=model"} }},
		{"Boundary", func(in *Inputs) {
			// Moving bytes between path and contents must not collide.
			in.Sources = []load.Source{
				{Path: "a.dtr", Contents: []byte("ecord Point { x: int, y: int }")},
				base.Sources[1],
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			assert.NotEqual(t, want, Fingerprint(in))
		})
	}
}

func TestKeyID(t *testing.T) {
	dir := t.TempDir()
	a := Key{Target: filepath.Join(dir, "a"), Flags: []string{"mutable=true"}, Fingerprint: "1"}
	assert.Equal(t, a.ID(), Key{Target: a.Target, Flags: a.Flags, Fingerprint: "2"}.ID(), "fingerprint is not part of the identity")
	assert.NotEqual(t, a.ID(), Key{Target: filepath.Join(dir, "b"), Flags: a.Flags}.ID())
	assert.NotEqual(t, a.ID(), Key{Target: a.Target, Flags: []string{"mutable=false"}}.ID())
}

func TestDefaultDir(t *testing.T) {
	assert.Equal(t, filepath.Join("out", DirName), DefaultDir(filepath.Join("out", "model")))
	assert.Equal(t, filepath.Join("out", DirName), DefaultDir(filepath.Join("out", "model")+string(filepath.Separator)))
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("MissThenHit", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		c := New(filepath.Join(dir, DirName), WithClock(func() time.Time { return now }))
		var calls int
		produce := producer(t, target, &calls, "datatype.go", "point.go")

		first, err := c.Run(ctx, newKey(target, "f1"), produce)
		require.NoError(t, err)
		assert.False(t, first.Hit)
		assert.Equal(t, []string{"datatype.go", "point.go"}, first.Files)
		assert.NotEmpty(t, first.RunID)
		assert.Equal(t, now, first.GeneratedAt)

		second, err := c.Run(ctx, newKey(target, "f1"), produce)
		require.NoError(t, err)
		assert.True(t, second.Hit)
		assert.Equal(t, first.Files, second.Files)
		assert.Equal(t, first.RunID, second.RunID)
		assert.Equal(t, "f1", second.Fingerprint)
		assert.True(t, now.Equal(second.GeneratedAt))
		assert.Equal(t, 1, calls)
	})

	t.Run("FingerprintChanged", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		c := New(filepath.Join(dir, DirName))
		var calls int
		produce := producer(t, target, &calls, "point.go")
		_, err := c.Run(ctx, newKey(target, "f1"), produce)
		require.NoError(t, err)
		out, err := c.Run(ctx, newKey(target, "f2"), produce)
		require.NoError(t, err)
		assert.False(t, out.Hit)
		assert.Equal(t, 2, calls)
	})

	t.Run("MissingOutputFile", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		c := New(filepath.Join(dir, DirName))
		var calls int
		produce := producer(t, target, &calls, "datatype.go", "point.go")
		_, err := c.Run(ctx, newKey(target, "f1"), produce)
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(target, "point.go")))

		out, err := c.Run(ctx, newKey(target, "f1"), produce)
		require.NoError(t, err)
		assert.False(t, out.Hit)
		assert.Equal(t, 2, calls)
	})

	t.Run("IndependentConfigurations", func(t *testing.T) {
		dir := t.TempDir()
		c := New(filepath.Join(dir, DirName))
		var calls int
		a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
		_, err := c.Run(ctx, newKey(a, "f1"), producer(t, a, &calls, "point.go"))
		require.NoError(t, err)
		_, err = c.Run(ctx, newKey(b, "f1"), producer(t, b, &calls, "point.go"))
		require.NoError(t, err)
		out, err := c.Run(ctx, newKey(a, "f1"), producer(t, a, &calls, "point.go"))
		require.NoError(t, err)
		assert.True(t, out.Hit)
		assert.Equal(t, 2, calls)
	})

	t.Run("CorruptRecord", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		core, logs := observer.New(zapcore.WarnLevel)
		c := New(filepath.Join(dir, DirName), WithLogger(zap.New(core)))
		key := newKey(target, "f1")
		require.NoError(t, os.MkdirAll(c.Dir(), 0o755))
		require.NoError(t, os.WriteFile(c.recordPath(key.ID()), []byte{0xc1, 0xff, 0x00}, 0o644))

		var calls int
		out, err := c.Run(ctx, key, producer(t, target, &calls, "point.go"))
		require.NoError(t, err)
		assert.False(t, out.Hit)
		assert.Equal(t, 1, calls)
		entries := logs.FilterMessage("cache record ignored").All()
		require.Len(t, entries, 1)
		msg, ok := entries[0].ContextMap()["error"].(string)
		require.True(t, ok)
		assert.Contains(t, msg, "decode")

		// The record was rewritten and the next run hits.
		out, err = c.Run(ctx, key, producer(t, target, &calls, "point.go"))
		require.NoError(t, err)
		assert.True(t, out.Hit)
	})

	t.Run("StaleRecordVersion", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		c := New(filepath.Join(dir, DirName))
		key := newKey(target, "f1")
		require.NoError(t, os.MkdirAll(target, 0o755))
		require.NoError(t, writeRecord(c.recordPath(key.ID()), &record{Version: recordVersion + 1, Fingerprint: "f1"}))

		var calls int
		out, err := c.Run(ctx, key, producer(t, target, &calls, "point.go"))
		require.NoError(t, err)
		assert.False(t, out.Hit)
		assert.Equal(t, 1, calls)
	})

	t.Run("ProducerError", func(t *testing.T) {
		dir := t.TempDir()
		c := New(filepath.Join(dir, DirName))
		key := newKey(filepath.Join(dir, "model"), "f1")
		boom := errors.New("boom")
		out, err := c.Run(ctx, key, func(context.Context) ([]string, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
		assert.Nil(t, out)
		_, statErr := os.Stat(c.recordPath(key.ID()))
		assert.True(t, os.IsNotExist(statErr), "no record is written for a failed run")
		unlock, err := Lock(ctx, filepath.Join(c.Dir(), key.ID()+".lock"))
		require.NoError(t, err, "lock is released")
		require.NoError(t, unlock())
	})

	t.Run("UnwritableCacheDir", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		core, logs := observer.New(zapcore.WarnLevel)
		c := New(filepath.Join(blocker, DirName), WithLogger(zap.New(core)))
		var calls int
		out, err := c.Run(ctx, newKey(target, "f1"), producer(t, target, &calls, "point.go"))
		require.NoError(t, err, "cache failures never fail the run")
		assert.False(t, out.Hit)
		assert.Equal(t, []string{"point.go"}, out.Files)
		assert.Equal(t, 1, calls)
		assert.FileExists(t, filepath.Join(target, "point.go"))
		require.Equal(t, 1, logs.FilterMessage("cache disabled for this run").Len())
		_, err = os.Stat(c.Dir())
		assert.Error(t, err, "no record is written")
	})

	t.Run("CanceledWhileLocked", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		c := New(filepath.Join(dir, DirName))
		key := newKey(target, "f1")
		unlock, err := Lock(ctx, filepath.Join(c.Dir(), key.ID()+".lock"))
		require.NoError(t, err)
		defer unlock()

		short, cancel := context.WithTimeout(ctx, 3*lockPoll)
		defer cancel()
		var calls int
		_, err = c.Run(short, key, producer(t, target, &calls, "point.go"))
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Zero(t, calls, "a canceled run does not regenerate")
	})

	t.Run("Regenerate", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "model")
		c := New(filepath.Join(dir, DirName))
		key := newKey(target, "f1")
		var calls int
		produce := producer(t, target, &calls, "point.go")
		first, err := c.Run(ctx, key, produce)
		require.NoError(t, err)

		forced, err := c.Regenerate(ctx, key, produce)
		require.NoError(t, err)
		assert.False(t, forced.Hit)
		assert.Equal(t, 2, calls)
		assert.NotEqual(t, first.RunID, forced.RunID)

		recorded, ok := c.Lookup(key)
		require.True(t, ok, "the forced run is recorded")
		assert.Equal(t, forced.RunID, recorded.RunID)
		again, err := c.Run(ctx, key, produce)
		require.NoError(t, err)
		assert.True(t, again.Hit)
		assert.Equal(t, 2, calls)
	})
}

func TestWriteRecordFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	err := writeRecord(filepath.Join(blocker, "x.msgpack"), &record{Version: recordVersion})
	require.Error(t, err)
	assert.True(t, IsCacheIOError(err))
	assert.ErrorIs(t, err, ErrCacheIO)
}

func TestLookupAndInvalidate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	target := filepath.Join(dir, "model")
	c := New(filepath.Join(dir, DirName))
	key := newKey(target, "f1")

	_, ok := c.Lookup(key)
	assert.False(t, ok)

	var calls int
	_, err := c.Run(ctx, key, producer(t, target, &calls, "point.go"))
	require.NoError(t, err)
	out, ok := c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, []string{"point.go"}, out.Files)
	_, ok = c.Lookup(newKey(target, "f2"))
	assert.False(t, ok)

	require.NoError(t, c.Invalidate(key))
	require.NoError(t, c.Invalidate(key), "invalidating twice is fine")
	_, ok = c.Lookup(key)
	assert.False(t, ok)
}

func TestLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "run.lock")
	unlock, err := Lock(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*lockPoll)
	defer cancel()
	_, err = Lock(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheIO)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock())
	unlock, err = Lock(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestLockWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	unlock, err := Lock(context.Background(), path)
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		release, err := Lock(ctx, path)
		if err == nil {
			err = release()
		}
		acquired <- err
	}()
	time.Sleep(2 * lockPoll)
	require.NoError(t, unlock())
	require.NoError(t, <-acquired)
}

func TestLockLeftoverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := Lock(ctx, path)
	require.NoError(t, err, "a file nobody holds is not a lock")
	require.NoError(t, unlock())
}

func TestCacheIOError(t *testing.T) {
	cause := errors.New("permission denied")
	err := &CacheIOError{Op: "read", Path: "/c/x.msgpack", Cause: cause}
	assert.Equal(t, "datatype: cache read /c/x.msgpack: permission denied", err.Error())
	assert.ErrorIs(t, err, ErrCacheIO)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCacheIOError(err))
	assert.False(t, IsCacheIOError(cause))
	assert.Equal(t, "datatype: cache lock /c/x.lock", (&CacheIOError{Op: "lock", Path: "/c/x.lock"}).Error())
}
