package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDialect(t *testing.T) {
	RegisterDialect("registry-test", func(GeneratorHelper) MinimalDialect { return &mockDialect{} })
	assert.Contains(t, Dialects(), "registry-test")

	generator := newGenerator(t)
	d, err := NewDialect("registry-test", generator)
	require.NoError(t, err)
	assert.Equal(t, "mock", d.Name())

	assert.Panics(t, func() {
		RegisterDialect("registry-test", func(GeneratorHelper) MinimalDialect { return &mockDialect{} })
	})
	assert.Panics(t, func() { RegisterDialect("nil-factory", nil) })
}

func TestNewDialectUnknown(t *testing.T) {
	_, err := NewDialect("cobol", newGenerator(t))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "unsupported dialect")
}
