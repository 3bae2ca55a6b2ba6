package email_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/email"
)

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("renders component", func(t *testing.T) {
		t.Parallel()

		component := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "<p>Hello, Ann</p>")
			return err
		})

		html, err := email.Render(context.Background(), component)
		require.NoError(t, err)
		assert.Equal(t, "<p>Hello, Ann</p>", html)
	})

	t.Run("propagates render errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		component := templ.ComponentFunc(func(context.Context, io.Writer) error { return boom })

		html, err := email.Render(context.Background(), component)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, html)
	})
}
