package job_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/job"
)

type user struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

func TestNewArgs(t *testing.T) {
	t.Parallel()

	args := job.NewArgs(user{ID: 1}, job.Kwargs{"role": "admin"}, "extra", job.Kwargs{"role": "owner", "team": 7})

	assert.Equal(t, 2, args.Len())
	first, ok := args.At(0)
	require.True(t, ok)
	assert.Equal(t, user{ID: 1}, first)

	role, ok := args.Keyword("role")
	require.True(t, ok)
	assert.Equal(t, "owner", role, "later keywords win")
	_, ok = args.Keyword("missing")
	assert.False(t, ok)

	_, ok = args.At(5)
	assert.False(t, ok)
}

func TestArgs_Clone(t *testing.T) {
	t.Parallel()

	args := job.NewArgs("a", job.Kwargs{"k": 1})
	clone := args.Clone()
	clone.Positional[0] = "b"
	clone.Keywords["k"] = 2

	assert.Equal(t, "a", args.Positional[0])
	assert.Equal(t, 1, args.Keywords["k"])
	assert.Equal(t, job.Args{}, job.Args{}.Clone())
}

func TestArgs_Decode(t *testing.T) {
	t.Parallel()

	t.Run("in-process value", func(t *testing.T) {
		t.Parallel()
		var u user
		require.NoError(t, job.NewArgs(user{ID: 3, Email: "a@b.c"}).Decode(0, &u))
		assert.Equal(t, user{ID: 3, Email: "a@b.c"}, u)
	})

	t.Run("value restored from JSON", func(t *testing.T) {
		t.Parallel()
		raw, err := json.Marshal(job.NewArgs(user{ID: 4}))
		require.NoError(t, err)

		var restored job.Args
		require.NoError(t, json.Unmarshal(raw, &restored))

		var u user
		require.NoError(t, restored.Decode(0, &u))
		assert.Equal(t, 4, u.ID)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()
		var u user
		assert.ErrorIs(t, job.Args{}.Decode(0, &u), job.ErrArgumentOutOfRange)
	})
}

func TestParams(t *testing.T) {
	t.Parallel()

	var nilParams job.Params
	clone := nilParams.Clone()
	require.NotNil(t, clone)

	p := job.Params{"profile": "p1", "n": 2}
	c := p.Clone()
	c["profile"] = "p2"
	assert.Equal(t, "p1", p.String("profile"))
	assert.Equal(t, "", p.String("n"))
	v, ok := p.Get("n")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
