package gen

import (
	"fmt"
	"slices"
	"sync"
)

// DialectFactory creates a dialect bound to a generator helper.
type DialectFactory func(GeneratorHelper) MinimalDialect

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]DialectFactory)
)

// RegisterDialect makes a dialect available by name. Dialect packages call
// it from init. It panics if the name is registered twice or the factory
// is nil.
func RegisterDialect(name string, factory DialectFactory) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	if factory == nil {
		panic("datatype: RegisterDialect factory is nil")
	}
	if _, dup := dialects[name]; dup {
		panic(fmt.Sprintf("datatype: RegisterDialect called twice for dialect %q", name))
	}
	dialects[name] = factory
}

// Dialects returns the sorted names of the registered dialects.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewDialect creates the registered dialect with the given name.
func NewDialect(name string, h GeneratorHelper) (MinimalDialect, error) {
	dialectsMu.RLock()
	factory, ok := dialects[name]
	dialectsMu.RUnlock()
	if !ok {
		return nil, NewConfigError("Dialect", name, fmt.Sprintf("unsupported dialect; registered: %v", Dialects()))
	}
	return factory(h), nil
}
