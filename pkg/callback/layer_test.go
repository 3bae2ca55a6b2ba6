package callback_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/callback"
)

func TestLayer_Resolve(t *testing.T) {
	t.Parallel()

	var parent, child callback.Layer[event]
	require.NoError(t, parent.Apply(func(c *callback.Chain[event]) error {
		return c.AddBefore("auth", before("auth", true))
	}))
	require.NoError(t, child.Apply(func(c *callback.Chain[event]) error {
		c.Skip(callback.Before, "auth")
		return c.AddBefore("own", before("own", true))
	}))
	require.NoError(t, parent.Apply(func(c *callback.Chain[event]) error {
		return c.AddBefore("late", before("late", true))
	}))

	base := parent.Resolve(nil)
	assert.Equal(t, []string{"auth", "late"}, base.Names("", callback.Before))

	resolved := child.Resolve(base)
	assert.Equal(t, []string{"late", "own"}, resolved.Names("", callback.Before))
	assert.Equal(t, []string{"auth", "late"}, base.Names("", callback.Before), "parent chain is not modified")

	e, log := newEvent("x")
	_, err := resolved.Run(context.Background(), "", e, core(e))
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "own", "core"}, *log)
}

func TestLayer_RejectsInvalidOps(t *testing.T) {
	t.Parallel()

	var l callback.Layer[event]
	err := l.Apply(func(c *callback.Chain[event]) error { return c.AddAfter("x", nil) })
	assert.ErrorIs(t, err, callback.ErrNilHook)
	assert.Equal(t, 0, l.Len())

	var nilLayer *callback.Layer[event]
	assert.Equal(t, 0, nilLayer.Len())
	assert.Equal(t, 0, nilLayer.Resolve(nil).Len())
}
