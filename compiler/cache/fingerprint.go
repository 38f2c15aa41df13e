package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"slices"
	"strings"

	"github.com/syssam/datatype/compiler/load"
)

// Inputs are everything that determines the bytes of a generation run.
type Inputs struct {
	// Sources are the definition files of the run, in any order.
	Sources []load.Source
	// Generator and Version identify the generator.
	Generator string
	Version   string
	// CallerKey is an opaque contribution of the caller.
	CallerKey string
	// Flags are the output-mode settings, as key=value pairs.
	Flags []string
}

// Fingerprint returns the hex SHA-256 digest of the inputs. Sources are
// hashed sorted by path and flags sorted, so the order in which either is
// given does not matter.
func Fingerprint(in Inputs) string {
	h := sha256.New()
	sources := slices.Clone(in.Sources)
	slices.SortFunc(sources, func(a, b load.Source) int { return strings.Compare(a.Path, b.Path) })

	// Every variable-length value is length prefixed so that no two
	// distinct inputs share an encoding.
	h.Write([]byte("sources:"))
	writeInt(h, len(sources))
	for _, s := range sources {
		writeString(h, s.Path)
		writeBytes(h, s.Contents)
	}
	h.Write([]byte("\ngenerator:"))
	writeString(h, in.Generator)
	writeString(h, in.Version)
	h.Write([]byte("\ncaller:"))
	writeString(h, in.CallerKey)
	h.Write([]byte("\nflags:"))
	flags := slices.Clone(in.Flags)
	slices.Sort(flags)
	writeInt(h, len(flags))
	for _, f := range flags {
		writeString(h, f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeInt(h hash.Hash, n int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	h.Write(b[:])
}

func writeBytes(h hash.Hash, b []byte) {
	writeInt(h, len(b))
	h.Write(b)
}

func writeString(h hash.Hash, s string) {
	writeBytes(h, []byte(s))
}
