package stdx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMust0(t *testing.T) {
	assert.NotPanics(t, func() { Must0(nil) })
	assert.PanicsWithError(t, "boom", func() { Must0(errors.New("boom")) })
}

func TestMust1(t *testing.T) {
	v := Must1(42, nil)
	require.Equal(t, 42, v)

	assert.PanicsWithError(t, "boom", func() {
		Must1("", errors.New("boom"))
	})
}

func TestZero(t *testing.T) {
	assert.Equal(t, 0, Zero[int]())
	assert.Equal(t, "", Zero[string]())
	assert.Nil(t, Zero[[]byte]())
	assert.Nil(t, Zero[error]())
}
